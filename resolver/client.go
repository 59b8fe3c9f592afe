package resolver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/estatly/mediasign/httpclient"
	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/mediacache"
	"github.com/estatly/mediasign/observability"
	"github.com/estatly/mediasign/util"
)

// Result maps every requested reference to the URL to display. The value is
// a signed URL, or the reference itself when it could not be signed.
type Result map[string]string

// Signed reports whether ref resolved to something other than itself.
func (r Result) Signed(ref string) bool {
	v, ok := r[ref]
	return ok && v != ref
}

type presignRequest struct {
	URLs []string `json:"urls"`
}

type presignItem struct {
	Original  string  `json:"original"`
	Presigned *string `json:"presigned"`
	Error     string  `json:"error,omitempty"`
}

type presignResponse struct {
	URLs      []presignItem `json:"urls"`
	ExpiresIn int           `json:"expiresIn"`
}

// Option configures a Client.
type Option func(*Client)

// WithCache serves fresh entries from cache and stores newly signed URLs.
func WithCache(cache mediacache.Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithMetrics records reference and batch outcomes.
func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithAuth sends auth with every presign request.
func WithAuth(auth *httpclient.AuthConfig) Option {
	return func(c *Client) { c.auth = auth }
}

// Client resolves references through the signing service. It is safe for
// concurrent use; the optional cache is the only state shared between calls.
type Client struct {
	cfg     Config
	http    *httpclient.Client
	hc      *http.Client
	auth    *httpclient.AuthConfig
	cache   mediacache.Cache
	metrics *observability.PipelineMetrics
	log     *logger.Logger
	now     func() time.Time
}

// New creates a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.GetGlobalLogger()
	}
	c.log = c.log.WithComponent("resolver")

	hcfg := httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Auth:    c.auth,
	}
	if cfg.BreakerThreshold > 0 {
		cb := httpclient.DefaultCircuitBreakerConfig("presign")
		cb.MaxFailures = cfg.BreakerThreshold
		hcfg.CircuitBreaker = cb
	}
	if cfg.MaxAttempts > 1 {
		retry := httpclient.DefaultRetryConfig()
		retry.MaxAttempts = cfg.MaxAttempts
		hcfg.Retry = retry
	}

	var err error
	if c.hc != nil {
		c.http, err = httpclient.NewWithHTTPClient(hcfg, c.hc)
	} else {
		c.http, err = httpclient.New(hcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}
	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.cfg }

// ResolveOne resolves a single reference.
func (c *Client) ResolveOne(ctx context.Context, ref string) string {
	return c.Resolve(ctx, []string{ref})[ref]
}

// Resolve maps every reference to a displayable URL. It never fails: a
// reference that cannot be signed maps to itself. Batches are issued
// concurrently and fail independently. Once ctx is done no further batch is
// issued and the remaining references map to themselves.
func (c *Client) Resolve(ctx context.Context, refs []string) (result Result) {
	result = make(Result, len(refs))
	if len(refs) == 0 {
		return result
	}
	for _, ref := range refs {
		result[ref] = ref
	}

	ctx, op := observability.StartOperation(ctx, observability.SpanResolve,
		attribute.Int(observability.AttrRefCount, len(refs)))
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("resolve panicked, returning identity for unresolved references",
				logger.Fields("panic", fmt.Sprint(r)))
		}
		op.SetAttributes(attribute.Int(observability.AttrFallbacks, countIdentity(result)))
		op.End(nil)
	}()

	pending := c.fromCache(ctx, refs, result)
	if len(pending) == 0 {
		return result
	}

	batches := util.Chunk(pending, c.cfg.BatchSize)
	outcomes := make([]batchResult, len(batches))

	var g errgroup.Group
	if c.cfg.MaxConcurrentBatches > 0 {
		g.SetLimit(c.cfg.MaxConcurrentBatches)
	}
	for i, batch := range batches {
		if ctx.Err() != nil {
			c.log.Debug("resolve cancelled, skipping remaining batches",
				logger.Fields("skipped", len(batches)-i))
			break
		}
		g.Go(func() error {
			outcomes[i] = c.runBatch(ctx, i, batch)
			return nil
		})
	}
	_ = g.Wait()

	fresh := make(map[string]string)
	ttl := c.cfg.TTL
	for _, out := range outcomes {
		for ref, url := range out.signed {
			result[ref] = url
			fresh[ref] = url
		}
		if out.ttl > 0 && out.ttl < ttl {
			ttl = out.ttl
		}
	}
	c.store(ctx, fresh, ttl)

	c.metrics.RecordReferences(ctx, observability.OutcomeSigned, len(fresh))
	c.metrics.RecordReferences(ctx, observability.OutcomeIdentity, countIdentity(result))
	return result
}

// fromCache fills result from the cache and returns the references that
// still need signing, in input order.
func (c *Client) fromCache(ctx context.Context, refs []string, result Result) []string {
	if c.cache == nil {
		return refs
	}

	hits, err := c.cache.Get(ctx, util.Unique(refs))
	if err != nil {
		c.log.Warn("signed url cache lookup failed", logger.ErrorFields("cache_get", err))
		return refs
	}

	now := c.now()
	pending := make([]string, 0, len(refs))
	cached := 0
	for _, ref := range refs {
		if e, ok := hits[ref]; ok && e.Fresh(now) {
			result[ref] = e.URL
			cached++
			continue
		}
		pending = append(pending, ref)
	}
	c.metrics.RecordReferences(ctx, observability.OutcomeCached, cached)
	return pending
}

func (c *Client) store(ctx context.Context, fresh map[string]string, ttl time.Duration) {
	if c.cache == nil || len(fresh) == 0 {
		return
	}
	expiresAt := mediacache.Expiry(c.now(), ttl, c.cfg.Skew)
	entries := make(map[string]mediacache.Entry, len(fresh))
	for ref, url := range fresh {
		entries[ref] = mediacache.Entry{URL: url, ExpiresAt: expiresAt}
	}
	if err := c.cache.Set(ctx, entries); err != nil {
		c.log.Warn("signed url cache store failed", logger.ErrorFields("cache_set", err))
	}
}

// batchResult holds the signed references of one batch and the validity the
// service reported for them.
type batchResult struct {
	signed map[string]string
	ttl    time.Duration
}

// runBatch signs one batch. Any failure, including a panic, leaves the batch
// to the identity fallback.
func (c *Client) runBatch(ctx context.Context, index int, refs []string) (out batchResult) {
	start := time.Now()
	ctx, op := observability.StartOperation(ctx, observability.SpanBatch,
		attribute.Int(observability.AttrBatchIndex, index),
		attribute.Int(observability.AttrBatchSize, len(refs)))

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch panicked: %v", r)
			out = batchResult{}
		}
		outcome := observability.OutcomeOK
		if err != nil {
			outcome = observability.OutcomeFailed
			c.log.Warn("presign batch failed, using identity fallback", logger.Fields(
				"batch", index,
				"size", len(refs),
				"error", err.Error(),
			))
		}
		c.metrics.RecordBatch(ctx, outcome, time.Since(start))
		op.End(err)
	}()

	if err = ctx.Err(); err != nil {
		return batchResult{}
	}

	var resp *httpclient.TypedResponse[presignResponse]
	resp, err = httpclient.Post[presignResponse](ctx, c.http, c.cfg.PresignPath,
		presignRequest{URLs: refs})
	if err != nil {
		return batchResult{}
	}
	return batchResult{
		signed: match(refs, resp.Data.URLs),
		ttl:    time.Duration(resp.Data.ExpiresIn) * time.Second,
	}
}

// match pairs response items with the requested references. Items are
// positional; an item whose original does not match its position is looked
// up by original instead. Missing or null items are left out.
func match(refs []string, items []presignItem) map[string]string {
	byOriginal := make(map[string]string, len(items))
	for _, it := range items {
		if it.Presigned != nil && *it.Presigned != "" && it.Original != "" {
			byOriginal[it.Original] = *it.Presigned
		}
	}

	signed := make(map[string]string, len(refs))
	for i, ref := range refs {
		if i < len(items) && (items[i].Original == "" || items[i].Original == ref) {
			if p := items[i].Presigned; p != nil && *p != "" {
				signed[ref] = *p
			}
			continue
		}
		if url, ok := byOriginal[ref]; ok {
			signed[ref] = url
		}
	}
	return signed
}

func countIdentity(r Result) int {
	n := 0
	for ref, url := range r {
		if ref == url {
			n++
		}
	}
	return n
}
