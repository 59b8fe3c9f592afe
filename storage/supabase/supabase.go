package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/estatly/mediasign/httpclient"
	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/storage"
)

const defaultTimeout = 2 * time.Minute

func init() {
	storage.RegisterFactory(storage.ProviderSupabase, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		return NewStorage(Config{
			URL:       cfg.URL,
			Bucket:    cfg.Bucket,
			SecretKey: cfg.SecretKey,
		}, log)
	})
}

// Config holds Supabase-specific configuration.
type Config struct {
	// URL is the Supabase project URL (e.g., https://xyz.supabase.co).
	URL string

	// Bucket is the storage bucket name.
	Bucket string

	// SecretKey is the service-role key used as Bearer token.
	SecretKey string

	// Timeout bounds each storage API call. Defaults to 2m.
	Timeout time.Duration
}

// Storage implements storage.Storage using the Supabase Storage REST API.
type Storage struct {
	baseURL string
	bucket  string
	client  *httpclient.Client
	log     *logger.Logger
}

// NewStorage creates a new Supabase storage client.
func NewStorage(cfg Config, log *logger.Logger) (*Storage, error) {
	if cfg.URL == "" || cfg.Bucket == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage: supabase requires url, bucket and secret_key")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	base := strings.TrimRight(cfg.URL, "/") + "/storage/v1"
	client, err := httpclient.New(httpclient.Config{
		BaseURL:        base,
		Timeout:        cfg.Timeout,
		Auth:           httpclient.BearerAuth(cfg.SecretKey),
		Headers:        map[string]string{"apikey": cfg.SecretKey},
		Retry:          httpclient.DefaultRetryConfig(),
		CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("supabase-storage"),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: supabase client: %w", err)
	}
	return &Storage{baseURL: base, bucket: cfg.Bucket, client: client, log: log}, nil
}

// SignedURL asks the storage API for a signed download URL valid for ttl.
func (s *Storage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	type signRequest struct {
		ExpiresIn int `json:"expiresIn"`
	}
	type signResponse struct {
		SignedURL string `json:"signedURL"`
	}

	resp, err := httpclient.Post[signResponse](ctx, s.client, s.objectPath("sign", key),
		signRequest{ExpiresIn: int(ttl.Seconds())})
	if err != nil {
		return "", fmt.Errorf("storage: supabase sign %q: %w", key, err)
	}
	if resp.Data.SignedURL == "" {
		return "", fmt.Errorf("storage: supabase sign %q returned empty URL", key)
	}

	// The API answers with a path relative to /storage/v1.
	if !strings.HasPrefix(resp.Data.SignedURL, "http") {
		return s.baseURL + "/" + strings.TrimLeft(resp.Data.SignedURL, "/"), nil
	}
	return resp.Data.SignedURL, nil
}

// Upload writes the object, replacing any existing object at key.
func (s *Storage) Upload(ctx context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("storage: supabase read upload: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   s.objectPath("", key),
		Body:   data,
		Headers: map[string]string{
			"Content-Type": contentType,
			"x-upsert":     "true",
		},
	})
	if err != nil {
		return fmt.Errorf("storage: supabase upload %q: %w", key, err)
	}
	return nil
}

// Download returns the object at key.
func (s *Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: s.objectPath("", key)})
	if err != nil {
		if httpclient.IsNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("storage: supabase download %q: %w", key, err)
	}
	return io.NopCloser(bytes.NewReader(resp.Body)), nil
}

// Exists checks whether an object exists.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.Do(ctx, httpclient.Request{Method: http.MethodHead, Path: s.objectPath("", key)})
	switch {
	case err == nil:
		return true, nil
	case httpclient.IsNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("storage: supabase head %q: %w", key, err)
	}
}

// URL returns the public object URL for key.
func (s *Storage) URL(key string) string {
	return s.baseURL + s.objectPath("public", key)
}

// Bucket returns the bucket name.
func (s *Storage) Bucket() string { return s.bucket }

func (s *Storage) objectPath(action, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	p := "/object/"
	if action != "" {
		p += action + "/"
	}
	return p + url.PathEscape(s.bucket) + "/" + strings.Join(segments, "/")
}

var _ storage.Storage = (*Storage)(nil)
