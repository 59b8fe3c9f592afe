package signing

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/estatly/mediasign/errors"
	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/server"
	"github.com/estatly/mediasign/validation"
)

// multipartOverhead is the allowance for multipart framing on top of the
// file size cap.
const multipartOverhead = 1 << 20

// presignRequest only requires a non-empty list. The upper bound comes from
// Config.MaxBatch and empty entries are reported per item by Service.Sign.
type presignRequest struct {
	URLs []string `json:"urls" validate:"required,min=1"`
}

// PresignResponse is the body of a successful presign call.
type PresignResponse struct {
	URLs []Item `json:"urls"`
	// ExpiresIn is the validity of the issued URLs in seconds.
	ExpiresIn int `json:"expiresIn"`
}

type fetchRequest struct {
	URL string `json:"url"`
}

// Handler exposes the media endpoints over gin.
type Handler struct {
	service  *Service
	fetcher  *Fetcher
	uploader *Uploader
	log      *logger.Logger
}

// NewHandler creates the media HTTP handler.
func NewHandler(service *Service, fetcher *Fetcher, uploader *Uploader, log *logger.Logger) *Handler {
	return &Handler{
		service:  service,
		fetcher:  fetcher,
		uploader: uploader,
		log:      log.WithComponent("media-handler"),
	}
}

// RegisterRoutes mounts the endpoints under /api/media. uploadGuards run
// before the upload handler only.
func (h *Handler) RegisterRoutes(r gin.IRouter, uploadGuards ...gin.HandlerFunc) {
	g := r.Group("/api/media")
	g.POST("/presign", h.Presign)
	g.POST("/fetch", h.Fetch)
	g.POST("/upload", append(uploadGuards, h.Upload)...)
}

// Presign handles POST /api/media/presign.
func (h *Handler) Presign(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.InvalidInput("body", "request body must be JSON of the form {\"urls\": [...]}").WithCause(err))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	items, err := h.service.Sign(c.Request.Context(), req.URLs)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, PresignResponse{
		URLs:      items,
		ExpiresIn: int(h.service.Config().TTL.Seconds()),
	})
}

// Fetch handles POST /api/media/fetch.
func (h *Handler) Fetch(c *gin.Context) {
	var req fetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.InvalidInput("body", "request body must be JSON of the form {\"url\": \"...\"}").WithCause(err))
		return
	}

	result, err := h.fetcher.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Upload handles POST /api/media/upload?folder=&subfolder=.
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploader.MaxBytes()+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			server.RespondWithError(c, errors.PayloadTooLarge(h.uploader.MaxBytes()))
			return
		}
		server.RespondWithError(c, errors.MissingField("file").WithCause(err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		server.RespondWithError(c, errors.InvalidInput("file", "could not read upload").WithCause(err))
		return
	}
	defer func() { _ = f.Close() }()

	result, err := h.uploader.Upload(c.Request.Context(), UploadRequest{
		Folder:    c.DefaultQuery("folder", c.PostForm("folder")),
		Subfolder: c.DefaultQuery("subfolder", c.PostForm("subfolder")),
		FileName:  fh.Filename,
		Size:      fh.Size,
		Body:      f,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
