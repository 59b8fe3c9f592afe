package mediacache

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/estatly/mediasign/redis"
)

const redisNamespace = "signed"

// Redis shares signed URLs between service instances. Each key expires in
// Redis at the entry's ExpiresAt.
type Redis struct {
	store *redis.TypedStore[Entry]
	now   func() time.Time
}

var _ Cache = (*Redis)(nil)

// NewRedis creates a cache on client under "<prefix>:signed:<ref>".
func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		store: redis.NewTypedStore[Entry](client, redisNamespace),
		now:   time.Now,
	}
}

// Get loads refs in one round trip.
func (r *Redis) Get(ctx context.Context, refs []string) (map[string]Entry, error) {
	if len(refs) == 0 {
		return map[string]Entry{}, nil
	}
	loaded, err := r.store.LoadMany(ctx, refs)
	if err != nil {
		return nil, err
	}
	now := r.now()
	out := make(map[string]Entry, len(loaded))
	for ref, e := range loaded {
		if e.Fresh(now) {
			out[ref] = *e
		}
	}
	return out, nil
}

// Set stores every fresh entry; the first error is returned after all
// writes are attempted.
func (r *Redis) Set(ctx context.Context, entries map[string]Entry) error {
	now := r.now()
	var errs []error
	for ref, e := range entries {
		ttl := e.ExpiresAt.Sub(now)
		if ttl <= 0 || e.URL == "" {
			continue
		}
		e := e
		if err := r.store.Save(ctx, ref, &e, ttl); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
