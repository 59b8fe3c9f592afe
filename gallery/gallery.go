package gallery

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/observability"
	"github.com/estatly/mediasign/resolver"
)

// Resolver maps references to display URLs. *resolver.Client implements it.
type Resolver interface {
	Resolve(ctx context.Context, refs []string) resolver.Result
	ResolveOne(ctx context.Context, ref string) string
}

// Observer receives slot updates. Observers run synchronously while the
// gallery is locked and must not call back into it.
type Observer func(SlotUpdate)

// Option configures a Gallery.
type Option func(*Gallery)

// WithObserver registers an observer before the gallery starts.
func WithObserver(o Observer) Option {
	return func(g *Gallery) { g.observers = append(g.observers, o) }
}

// WithMetrics records terminal slot outcomes.
func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(g *Gallery) { g.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(g *Gallery) { g.log = log }
}

// Gallery drives the display state of an ordered list of media references.
// Every slot shows something at all times and ends in StateLoaded or
// StateError.
type Gallery struct {
	cfg      Config
	resolver Resolver
	loader   Loader
	metrics  *observability.PipelineMetrics
	log      *logger.Logger

	mu        sync.Mutex
	slots     []Slot
	observers []Observer
	timers    []*time.Timer

	started   atomic.Bool
	cancelled atomic.Bool
	stop      context.CancelFunc
	done      chan struct{}
}

// New creates a gallery over refs. Nothing happens until Start.
func New(refs []string, res Resolver, loader Loader, cfg Config, opts ...Option) *Gallery {
	cfg.ApplyDefaults()
	g := &Gallery{
		cfg:      cfg,
		resolver: res,
		loader:   loader,
		slots:    make([]Slot, len(refs)),
		done:     make(chan struct{}),
		stop:     func() {},
	}
	for i, ref := range refs {
		g.slots[i] = Slot{Index: i, Ref: ref, State: StatePending, DisplayURL: ref}
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.GetGlobalLogger()
	}
	g.log = g.log.WithComponent("gallery")
	return g
}

// Subscribe adds an observer.
func (g *Gallery) Subscribe(o Observer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.observers = append(g.observers, o)
}

// Slots returns a copy of the current slot states.
func (g *Gallery) Slots() []Slot {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Slot, len(g.slots))
	copy(out, g.slots)
	return out
}

// Start begins resolution in the background. It returns immediately; the
// first slot is resolved on its own, alongside the batch for the rest, so
// it can display without waiting for the whole list. Calling Start twice is
// a no-op.
func (g *Gallery) Start(ctx context.Context) {
	if !g.started.CompareAndSwap(false, true) {
		return
	}
	if g.cancelled.Load() {
		close(g.done)
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	g.mu.Lock()
	if g.cancelled.Load() {
		g.mu.Unlock()
		cancel()
		close(g.done)
		return
	}
	g.stop = cancel
	g.timers = make([]*time.Timer, len(g.slots))
	for i := range g.slots {
		g.timers[i] = time.AfterFunc(g.cfg.SlotTimeout, func() { g.timeout(i) })
	}
	g.mu.Unlock()

	go g.run(ctx)
}

// Cancel stops the gallery. Results that arrive afterwards are dropped
// without touching slot state or notifying observers.
func (g *Gallery) Cancel() {
	if !g.cancelled.CompareAndSwap(false, true) {
		return
	}
	g.mu.Lock()
	for _, t := range g.timers {
		t.Stop()
	}
	stop := g.stop
	g.mu.Unlock()
	stop()
}

// Cancelled reports whether Cancel was called.
func (g *Gallery) Cancelled() bool { return g.cancelled.Load() }

// Done is closed when the gallery finished working: every slot is terminal
// or the gallery was cancelled.
func (g *Gallery) Done() <-chan struct{} { return g.done }

// Wait blocks until Done or ctx ends and returns the slots.
func (g *Gallery) Wait(ctx context.Context) []Slot {
	select {
	case <-g.done:
	case <-ctx.Done():
	}
	return g.Slots()
}

func (g *Gallery) run(ctx context.Context) {
	defer close(g.done)
	defer g.stop()
	if len(g.slots) == 0 {
		return
	}

	probes := new(errgroup.Group)
	probes.SetLimit(g.cfg.ProbeConcurrency)

	// The first slot and the rest resolve side by side so a slow first
	// signing never holds the others past their timeout.
	var resolving sync.WaitGroup
	resolving.Go(func() {
		g.resolved(ctx, probes, 0, g.resolver.ResolveOne(ctx, g.slots[0].Ref))
	})
	if len(g.slots) > 1 {
		resolving.Go(func() {
			refs := make([]string, len(g.slots)-1)
			for i := range refs {
				refs[i] = g.slots[i+1].Ref
			}
			result := g.resolver.Resolve(ctx, refs)
			for i, ref := range refs {
				url, ok := result[ref]
				if !ok {
					url = ref
				}
				g.resolved(ctx, probes, i+1, url)
			}
		})
	}
	resolving.Wait()
	_ = probes.Wait()
}

// resolved applies the resolution of slot i and schedules its load probe.
func (g *Gallery) resolved(ctx context.Context, probes *errgroup.Group, i int, url string) {
	ref := g.slots[i].Ref
	if url == "" {
		url = ref
	}

	if url != ref {
		if !g.apply(i, StateResolved, url) {
			return
		}
	} else {
		if !g.apply(i, StateIdentityFallback, ref) {
			return
		}
		if !g.cfg.PublicFallback {
			g.apply(i, StateError, g.cfg.Placeholder)
			return
		}
	}

	probes.Go(func() error {
		g.probe(ctx, i, url)
		return nil
	})
}

func (g *Gallery) probe(ctx context.Context, i int, url string) {
	if g.cancelled.Load() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.SlotTimeout)
	defer cancel()

	if err := g.loader.Load(ctx, url); err != nil {
		g.log.Debug("media failed to load, showing placeholder", logger.Fields(
			"slot", i,
			"error", err.Error(),
		))
		g.apply(i, StateError, g.cfg.Placeholder)
		return
	}
	g.apply(i, StateLoaded, "")
}

func (g *Gallery) timeout(i int) {
	g.mu.Lock()
	state := g.slots[i].State
	g.mu.Unlock()
	if state.Terminal() {
		return
	}
	g.log.Debug("slot timed out", logger.Fields("slot", i, "state", state.String()))
	g.apply(i, StateError, g.cfg.Placeholder)
}

// apply moves slot i to state and notifies observers. It reports whether
// the transition happened; after Cancel, or when the slot already moved on,
// nothing changes.
func (g *Gallery) apply(i int, state State, display string) bool {
	if g.cancelled.Load() {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelled.Load() {
		return false
	}
	slot := &g.slots[i]
	if err := slot.transition(state, display); err != nil {
		return false
	}
	if state.Terminal() {
		if t := g.timers[i]; t != nil {
			t.Stop()
		}
		outcome := observability.OutcomeLoaded
		if state == StateError {
			outcome = observability.OutcomeError
		}
		g.metrics.RecordSlot(context.Background(), outcome)
	}

	update := SlotUpdate{Index: i, Ref: slot.Ref, State: slot.State, DisplayURL: slot.DisplayURL}
	for _, o := range g.observers {
		o(update)
	}
	return true
}
