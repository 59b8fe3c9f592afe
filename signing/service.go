package signing

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/estatly/mediasign/errors"
	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/mediakey"
	"github.com/estatly/mediasign/observability"
	"github.com/estatly/mediasign/storage"
)

// Item is the outcome for one reference of a presign request. Presigned is
// nil when the reference could not be signed.
type Item struct {
	Original  string  `json:"original"`
	Presigned *string `json:"presigned"`
	Error     string  `json:"error,omitempty"`
}

// Service signs media references against the configured object store.
// It holds no per-request state.
type Service struct {
	cfg     Config
	store   storage.Provider
	metrics *Metrics
	log     *logger.Logger
}

// NewService creates a signing service.
func NewService(cfg Config, store storage.Provider, metrics *Metrics, log *logger.Logger) *Service {
	cfg.ApplyDefaults()
	return &Service{
		cfg:     cfg,
		store:   store,
		metrics: metrics,
		log:     log.WithComponent("signing"),
	}
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// Sign issues a signed URL for every reference. Items come back in input
// order. Per-item failures are reported on the item; the call itself only
// fails for an invalid batch or a missing object store.
func (s *Service) Sign(ctx context.Context, refs []string) (items []Item, err error) {
	if len(refs) == 0 {
		return nil, errors.InvalidInput("urls", "urls must be a non-empty array")
	}
	if len(refs) > s.cfg.MaxBatch {
		return nil, errors.InvalidInput("urls",
			fmt.Sprintf("urls must contain at most %d entries, got %d", s.cfg.MaxBatch, len(refs)))
	}

	store, err := s.store.Get()
	if err != nil {
		s.log.WithContext(ctx).Error("presign rejected: object storage not configured")
		return nil, err
	}

	ctx, op := observability.StartOperation(ctx, observability.SpanPresign,
		attribute.Int(observability.AttrRefCount, len(refs)))
	defer func() { op.End(err) }()

	items = make([]Item, len(refs))
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			items[i] = s.signItem(ctx, store, ref)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, it := range items {
		if it.Presigned == nil {
			failed++
		}
	}
	op.SetAttributes(attribute.Int(observability.AttrFallbacks, failed))
	s.metrics.recordPresign(len(items)-failed, failed, op.Duration())

	s.log.WithContext(ctx).Debug("presign batch signed", logger.Fields(
		logger.FieldCount, len(items),
		"failed", failed,
		logger.FieldDuration, op.Duration().Milliseconds(),
	))
	return items, nil
}

// SignOne signs a single reference and returns the URL or the translated
// provider error.
func (s *Service) SignOne(ctx context.Context, ref string) (string, error) {
	store, err := s.store.Get()
	if err != nil {
		return "", err
	}
	key := mediakey.Key(ref, store.Bucket())
	if strings.TrimSpace(key) == "" {
		return "", errors.InvalidInput("url", "reference has no object key")
	}
	signed, err := store.SignedURL(ctx, key, s.cfg.TTL)
	if err != nil {
		return "", storage.Translate(err)
	}
	return signed, nil
}

func (s *Service) signItem(ctx context.Context, store storage.Storage, ref string) Item {
	item := Item{Original: ref}
	key := mediakey.Key(ref, store.Bucket())
	if strings.TrimSpace(key) == "" {
		item.Error = "reference has no object key"
		return item
	}

	signed, err := store.SignedURL(ctx, key, s.cfg.TTL)
	if err != nil {
		appErr := storage.Translate(err)
		s.log.WithContext(ctx).Warn("failed to sign reference", logger.Fields(
			logger.FieldKey, key,
			logger.FieldError, err.Error(),
		))
		item.Error = appErr.Message
		return item
	}
	item.Presigned = &signed
	return item
}
