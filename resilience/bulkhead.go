package resilience

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrBulkheadFull is returned when no slot is free and MaxWait is not positive.
	ErrBulkheadFull = errors.New("bulkhead is full")
	// ErrBulkheadTimeout is returned when no slot freed up within MaxWait.
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	Name string
	// MaxConcurrent is the number of slots. Defaults to 10.
	MaxConcurrent int
	// MaxWait bounds the wait for a slot; zero or negative rejects at once.
	MaxWait time.Duration
	// OnReject runs for every rejected call.
	OnReject func(name string)
}

// Bulkhead bounds in-flight calls. The fetch endpoint uses one so that
// concurrent downloads, each buffered in memory up to the size cap, cannot
// exhaust the process.
type Bulkhead struct {
	cfg   BulkheadConfig
	slots chan struct{}
}

// NewBulkhead creates a bulkhead with cfg.MaxConcurrent free slots.
func NewBulkhead(cfg BulkheadConfig) *Bulkhead {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	return &Bulkhead{cfg: cfg, slots: make(chan struct{}, cfg.MaxConcurrent)}
}

// Execute runs fn in a slot, or returns ErrBulkheadFull, ErrBulkheadTimeout
// or the context error without running it.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.enter(ctx); err != nil {
		if b.cfg.OnReject != nil {
			b.cfg.OnReject(b.cfg.Name)
		}
		return err
	}
	defer b.leave()
	return fn()
}

// ExecuteWithResult is Execute for functions returning a value.
func ExecuteWithResult[T any](ctx context.Context, b *Bulkhead, fn func() (T, error)) (T, error) {
	var out T
	err := b.Execute(ctx, func() (err error) {
		out, err = fn()
		return err
	})
	return out, err
}

func (b *Bulkhead) enter(ctx context.Context) error {
	if b.cfg.MaxWait <= 0 {
		select {
		case b.slots <- struct{}{}:
			return nil
		default:
			return ErrBulkheadFull
		}
	}

	wait := time.NewTimer(b.cfg.MaxWait)
	defer wait.Stop()
	select {
	case b.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wait.C:
		return ErrBulkheadTimeout
	}
}

func (b *Bulkhead) leave() { <-b.slots }

// InUse reports the number of occupied slots.
func (b *Bulkhead) InUse() int { return len(b.slots) }

// MaxConcurrent reports the slot count.
func (b *Bulkhead) MaxConcurrent() int { return b.cfg.MaxConcurrent }
