package signing

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/estatly/mediasign/errors"
	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/observability"
	"github.com/estatly/mediasign/storage"
	"github.com/estatly/mediasign/util"
)

// UploadRequest describes one file to store.
type UploadRequest struct {
	Folder    string
	Subfolder string
	FileName  string
	// Size is the declared size, or -1 when unknown.
	Size int64
	Body io.Reader
}

// UploadResult describes a stored file. URL is the unsigned object URL,
// the reference callers persist and later resolve through presign.
type UploadResult struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
	Key      string `json:"key"`
}

// Uploader stores files under generated keys.
type Uploader struct {
	cfg      UploadConfig
	store    storage.Provider
	maxBytes int64
	metrics  *Metrics
	log      *logger.Logger
	newID    func() string
}

// NewUploader creates an uploader accepting files up to maxBytes.
func NewUploader(cfg UploadConfig, store storage.Provider, maxBytes int64, metrics *Metrics, log *logger.Logger) *Uploader {
	cfg.ApplyDefaults()
	return &Uploader{
		cfg:      cfg,
		store:    store,
		maxBytes: maxBytes,
		metrics:  metrics,
		log:      log.WithComponent("upload"),
		newID:    uuid.NewString,
	}
}

// MaxBytes returns the upload size cap.
func (u *Uploader) MaxBytes() int64 { return u.maxBytes }

// Upload validates and stores the file at {folder}/{subfolder}/{uuid}{ext}.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (result *UploadResult, err error) {
	ctx, op := observability.StartOperation(ctx, observability.SpanUpload)
	defer func() { op.End(err) }()

	store, err := u.store.Get()
	if err != nil {
		return nil, err
	}
	if req.Body == nil {
		return nil, errors.MissingField("file")
	}
	if req.Size > u.maxBytes {
		return nil, errors.PayloadTooLarge(u.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(req.Body, u.maxBytes+1))
	if err != nil {
		return nil, errors.InvalidInput("file", "could not read upload").WithCause(err)
	}
	if int64(len(data)) > u.maxBytes {
		return nil, errors.PayloadTooLarge(u.maxBytes)
	}
	if len(data) == 0 {
		return nil, errors.InvalidInput("file", "file is empty")
	}

	mt := mimetype.Detect(data)
	contentType := baseType(mt.String())
	if !u.allowed(mt) {
		u.metrics.recordUpload(contentType, "rejected", 0)
		return nil, errors.UnsupportedMedia(contentType)
	}

	key := u.objectKey(req.Folder, req.Subfolder, mt.Extension())
	if err := store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		u.metrics.recordUpload(contentType, "failed", 0)
		return nil, storage.Translate(err)
	}
	u.metrics.recordUpload(contentType, "success", int64(len(data)))

	u.log.WithContext(ctx).Info("file uploaded", logger.Fields(
		logger.FieldKey, key,
		"content_type", contentType,
		"size", len(data),
	))

	return &UploadResult{
		URL:      store.URL(key),
		FileName: fileName(req.FileName),
		FileSize: int64(len(data)),
		FileType: contentType,
		Key:      key,
	}, nil
}

func (u *Uploader) allowed(mt *mimetype.MIME) bool {
	for _, a := range u.cfg.AllowedTypes {
		if mt.Is(a) {
			return true
		}
	}
	return false
}

func (u *Uploader) objectKey(folder, subfolder, ext string) string {
	segments := cleanPath(folder)
	if len(segments) == 0 {
		segments = []string{util.SanitizePathSegment(u.cfg.DefaultFolder)}
	}
	segments = append(segments, cleanPath(subfolder)...)
	segments = append(segments, u.newID()+ext)
	return path.Join(segments...)
}

// cleanPath splits p on '/' and keeps the sanitized, non-empty segments.
func cleanPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		seg = util.SanitizePathSegment(seg)
		if len(seg) > maxFolderSegmentSize {
			seg = seg[:maxFolderSegmentSize]
		}
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func fileName(name string) string {
	name = util.SanitizeString(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
