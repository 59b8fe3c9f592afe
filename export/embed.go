package export

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel/attribute"

	"github.com/estatly/mediasign/httpclient"
	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/mediakey"
	"github.com/estatly/mediasign/observability"
)

// UnavailableLabel is rendered in place of media that could not be embedded.
const UnavailableLabel = "[unavailable]"

// Asset sources.
const (
	SourceServer = "server"
	SourceLocal  = "local"
)

// Asset is an embedded media object.
type Asset struct {
	Ref         string
	DataURL     string
	ContentType string
	// Source is SourceServer or SourceLocal, empty when unavailable.
	Source      string
	Unavailable bool
}

// Label returns the text shown for an unavailable asset.
func (a Asset) Label() string {
	if a.Unavailable {
		return UnavailableLabel
	}
	return ""
}

func unavailable(ref string) Asset {
	return Asset{Ref: ref, Unavailable: true}
}

// Resolver resolves a single reference. *resolver.Client implements it.
type Resolver interface {
	ResolveOne(ctx context.Context, ref string) string
}

type fetchRequest struct {
	URL string `json:"url"`
}

type fetchResponse struct {
	DataURL     string `json:"dataUrl"`
	ContentType string `json:"contentType"`
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithMetrics records which path produced each embed.
func WithMetrics(m *observability.PipelineMetrics) EmbedderOption {
	return func(e *Embedder) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) EmbedderOption {
	return func(e *Embedder) { e.log = log }
}

// WithHTTPClient replaces the client used for direct downloads.
func WithHTTPClient(hc *http.Client) EmbedderOption {
	return func(e *Embedder) { e.hc = hc }
}

// Embedder turns references into base64 data URLs for documents. It asks
// the service's fetch endpoint first, then resolves and downloads the
// object itself, and finally gives up with an unavailable asset. Embed never
// fails.
type Embedder struct {
	cfg      Config
	service  *httpclient.Client
	direct   *httpclient.Client
	hc       *http.Client
	resolver Resolver
	metrics  *observability.PipelineMetrics
	log      *logger.Logger
}

// NewEmbedder creates an embedder. res may be nil, in which case the local
// path downloads references as given.
func NewEmbedder(cfg Config, res Resolver, opts ...EmbedderOption) (*Embedder, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Embedder{cfg: cfg, resolver: res}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.GetGlobalLogger()
	}
	e.log = e.log.WithComponent("export")

	// Base64 grows the payload by a third on the way back from the service.
	serviceCfg := httpclient.Config{
		BaseURL:          cfg.ServiceURL,
		Timeout:          cfg.Timeout,
		MaxResponseBytes: cfg.MaxBytes()*4/3 + 1024,
	}
	directCfg := httpclient.Config{
		Timeout:          cfg.Timeout,
		MaxResponseBytes: cfg.MaxBytes(),
		Retry:            httpclient.DefaultRetryConfig(),
	}

	var err error
	if cfg.ServiceURL != "" {
		if e.service, err = e.newClient(serviceCfg); err != nil {
			return nil, err
		}
	}
	if e.direct, err = e.newClient(directCfg); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Embedder) newClient(cfg httpclient.Config) (*httpclient.Client, error) {
	if e.hc != nil {
		return httpclient.NewWithHTTPClient(cfg, e.hc)
	}
	return httpclient.New(cfg)
}

// Embed returns ref as an image data URL, or an unavailable asset.
func (e *Embedder) Embed(ctx context.Context, ref string) Asset {
	ctx, op := observability.StartOperation(ctx, observability.SpanEmbed)
	asset := e.embed(ctx, ref)

	outcome := asset.Source
	if asset.Unavailable {
		outcome = observability.OutcomeUnavailable
	}
	op.SetAttributes(attribute.String("media.embed.source", outcome))
	op.End(nil)
	e.metrics.RecordEmbed(ctx, outcome)
	return asset
}

func (e *Embedder) embed(ctx context.Context, ref string) Asset {
	if strings.TrimSpace(ref) == "" {
		return unavailable(ref)
	}
	if a, ok := e.fromService(ctx, ref); ok {
		return a
	}
	if a, ok := e.fromSource(ctx, ref); ok {
		return a
	}
	e.log.WithContext(ctx).Warn("media unavailable for export", logger.Fields("ref", ref))
	return unavailable(ref)
}

func (e *Embedder) fromService(ctx context.Context, ref string) (Asset, bool) {
	if e.service == nil {
		return Asset{}, false
	}
	resp, err := httpclient.Post[fetchResponse](ctx, e.service, e.cfg.FetchPath, fetchRequest{URL: ref})
	if err != nil {
		e.log.WithContext(ctx).Debug("server fetch failed, embedding locally", logger.Fields(
			"ref", ref,
			"status", httpclient.StatusCode(err),
			"error", err.Error(),
		))
		return Asset{}, false
	}
	ct := resp.Data.ContentType
	if !isImage(ct) || !strings.HasPrefix(resp.Data.DataURL, "data:") {
		return Asset{}, false
	}
	return Asset{Ref: ref, DataURL: resp.Data.DataURL, ContentType: ct, Source: SourceServer}, true
}

func (e *Embedder) fromSource(ctx context.Context, ref string) (Asset, bool) {
	target := ref
	if e.resolver != nil {
		target = e.resolver.ResolveOne(ctx, ref)
	}
	if !mediakey.IsURL(target) {
		return Asset{}, false
	}

	resp, err := e.direct.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: target})
	if err != nil {
		e.log.WithContext(ctx).Debug("direct download failed", logger.Fields(
			"ref", ref,
			"status", httpclient.StatusCode(err),
			"error", err.Error(),
		))
		return Asset{}, false
	}
	if len(resp.Body) == 0 {
		return Asset{}, false
	}

	// The stored content type is not trusted: objects uploaded without one
	// come back as octet-stream.
	ct := mimetype.Detect(resp.Body).String()
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if !isImage(ct) {
		return Asset{}, false
	}
	return Asset{
		Ref:         ref,
		DataURL:     "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(resp.Body),
		ContentType: ct,
		Source:      SourceLocal,
	}, true
}

func isImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
