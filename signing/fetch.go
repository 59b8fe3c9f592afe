package signing

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel/attribute"

	"github.com/estatly/mediasign/errors"
	"github.com/estatly/mediasign/httpclient"
	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/mediakey"
	"github.com/estatly/mediasign/observability"
	"github.com/estatly/mediasign/resilience"
	"github.com/estatly/mediasign/validation"
)

// FetchResult is a fetched object encoded as a data URL.
type FetchResult struct {
	DataURL     string `json:"dataUrl"`
	ContentType string `json:"contentType"`
}

// Fetcher downloads media on behalf of clients that cannot read it across
// origins and returns it base64 encoded.
type Fetcher struct {
	cfg     FetchConfig
	signer  *Service
	client  *httpclient.Client
	slots   *resilience.Bulkhead
	metrics *Metrics
	log     *logger.Logger
}

// NewFetcher creates a fetcher. Bare keys are signed through signer before
// they are downloaded.
func NewFetcher(cfg FetchConfig, signer *Service, metrics *Metrics, log *logger.Logger) (*Fetcher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := httpclient.New(httpclient.Config{
		Timeout:          cfg.Timeout,
		MaxResponseBytes: cfg.MaxBytes(),
		Retry:            httpclient.DefaultRetryConfig(),
	})
	if err != nil {
		return nil, err
	}
	return NewFetcherWithClient(cfg, signer, client, metrics, log), nil
}

// NewFetcherWithClient creates a fetcher around an existing client.
func NewFetcherWithClient(cfg FetchConfig, signer *Service, client *httpclient.Client, metrics *Metrics, log *logger.Logger) *Fetcher {
	cfg.ApplyDefaults()
	f := &Fetcher{
		cfg:     cfg,
		signer:  signer,
		client:  client,
		metrics: metrics,
		log:     log.WithComponent("fetch"),
	}
	f.slots = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "fetch",
		MaxConcurrent: cfg.MaxInFlight,
		MaxWait:       cfg.QueueWait,
		OnReject: func(string) {
			f.log.Warn("fetch rejected, all download slots busy", logger.Fields("max_in_flight", cfg.MaxInFlight))
		},
	})
	return f
}

// Fetch downloads ref and encodes it. ref is an http(s) URL or a bare key.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (result *FetchResult, err error) {
	ref = strings.TrimSpace(ref)
	ctx, op := observability.StartOperation(ctx, observability.SpanFetch)
	defer func() {
		op.End(err)
		if err != nil {
			f.metrics.recordFetch("failed", 0)
		}
	}()

	target, err := f.target(ctx, ref)
	if err != nil {
		return nil, err
	}

	resp, err := resilience.ExecuteWithResult(ctx, f.slots, func() (*httpclient.Response, error) {
		return f.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: target})
	})
	if stderrors.Is(err, resilience.ErrBulkheadFull) || stderrors.Is(err, resilience.ErrBulkheadTimeout) {
		return nil, errors.ServiceUnavailable("fetch").WithCause(err)
	}
	if err != nil {
		f.log.WithContext(ctx).Warn("upstream fetch failed", logger.Fields(
			"host", hostOf(target),
			"status", httpclient.StatusCode(err),
			logger.FieldError, err.Error(),
		))
		return nil, f.translate(err)
	}

	contentType := resp.ContentType()
	if contentType == "" || contentType == "application/octet-stream" || contentType == "binary/octet-stream" {
		contentType = baseType(mimetype.Detect(resp.Body).String())
	}
	op.SetAttributes(attribute.Int("media.bytes", len(resp.Body)))
	f.metrics.recordFetch("success", len(resp.Body))

	return &FetchResult{
		DataURL:     "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(resp.Body),
		ContentType: contentType,
	}, nil
}

// target validates ref and returns the URL to download.
func (f *Fetcher) target(ctx context.Context, ref string) (string, error) {
	if appErr := validation.New().Required("url", ref).Validate(); appErr != nil {
		return "", appErr
	}
	if mediakey.IsURL(ref) {
		if !f.hostAllowed(hostOf(ref)) {
			return "", errors.InvalidInput("url", "url host is not allowed")
		}
		return ref, nil
	}
	if strings.Contains(ref, "://") {
		return "", errors.InvalidInput("url", "url must be an http(s) URL or a storage key")
	}
	return f.signer.SignOne(ctx, ref)
}

func (f *Fetcher) hostAllowed(host string) bool {
	return len(f.cfg.AllowedHosts) == 0 || slices.Contains(f.cfg.AllowedHosts, host)
}

func (f *Fetcher) translate(err error) *errors.AppError {
	switch {
	case httpclient.IsTooLarge(err):
		return errors.PayloadTooLarge(f.cfg.MaxBytes()).WithCause(err)
	case httpclient.IsTimeout(err):
		return errors.Timeout("upstream fetch").WithCause(err)
	default:
		return errors.ExternalServiceError("upstream", err)
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func baseType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}
