package gallery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/resolver"
)

// fakeResolver signs every reference not listed in fail. Resolve blocks
// until release is closed when release is set; ResolveOne does the same with
// releaseOne.
type fakeResolver struct {
	fail       map[string]bool
	release    chan struct{}
	releaseOne chan struct{}

	mu    sync.Mutex
	calls []string
}

func (f *fakeResolver) sign(ref string) string {
	if f.fail[ref] {
		return ref
	}
	return "https://signed.test/" + ref
}

func (f *fakeResolver) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeResolver) ResolveOne(ctx context.Context, ref string) string {
	f.record("one:" + ref)
	if f.releaseOne != nil {
		select {
		case <-f.releaseOne:
		case <-ctx.Done():
			return ref
		}
	}
	return f.sign(ref)
}

func (f *fakeResolver) Resolve(ctx context.Context, refs []string) resolver.Result {
	f.record("batch")
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
		}
	}
	out := make(resolver.Result, len(refs))
	for _, ref := range refs {
		out[ref] = f.sign(ref)
	}
	return out
}

// fakeLoader fails for URLs in fail and counts probes.
type fakeLoader struct {
	fail map[string]bool

	mu     sync.Mutex
	probed []string
}

func (l *fakeLoader) Load(_ context.Context, url string) error {
	l.mu.Lock()
	l.probed = append(l.probed, url)
	l.mu.Unlock()
	if l.fail[url] {
		return errors.New("404")
	}
	return nil
}

func (l *fakeLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.probed)
}

// recorder collects observer updates.
type recorder struct {
	mu      sync.Mutex
	updates []SlotUpdate
}

func (r *recorder) observe(u SlotUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func (r *recorder) forSlot(i int) []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []State
	for _, u := range r.updates {
		if u.Index == i {
			out = append(out, u.State)
		}
	}
	return out
}

func waitDone(t *testing.T, g *Gallery) []Slot {
	t.Helper()
	select {
	case <-g.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("gallery did not finish")
	}
	return g.Slots()
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StatePending, StateResolved, true},
		{StatePending, StateIdentityFallback, true},
		{StatePending, StateError, true},
		{StatePending, StateLoaded, false},
		{StateResolved, StateLoaded, true},
		{StateResolved, StateError, true},
		{StateResolved, StateIdentityFallback, false},
		{StateIdentityFallback, StateLoaded, true},
		{StateIdentityFallback, StateError, true},
		{StateIdentityFallback, StateResolved, false},
		{StateLoaded, StateError, false},
		{StateError, StateLoaded, false},
		{StateError, StatePending, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlot_TransitionRejectsIllegalMove(t *testing.T) {
	s := Slot{Ref: "a.jpg", State: StateLoaded, DisplayURL: "https://signed.test/a.jpg"}
	err := s.transition(StateError, "placeholder")
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("transition() error = %v, want ErrIllegalTransition", err)
	}
	if s.State != StateLoaded || s.DisplayURL != "https://signed.test/a.jpg" {
		t.Errorf("slot changed on rejected transition: %+v", s)
	}
}

func TestNew_ShowsRawReferencesBeforeStart(t *testing.T) {
	refs := []string{"a.jpg", "https://store.example/b.jpg"}
	g := New(refs, &fakeResolver{}, &fakeLoader{}, Config{}, WithLogger(logger.Nop()))

	for i, s := range g.Slots() {
		if s.State != StatePending {
			t.Errorf("slot %d state = %s, want pending", i, s.State)
		}
		if s.DisplayURL != refs[i] {
			t.Errorf("slot %d display = %q, want %q", i, s.DisplayURL, refs[i])
		}
	}
}

func TestGallery_AllLoaded(t *testing.T) {
	refs := []string{"a.jpg", "b.jpg", "c.jpg"}
	rec := &recorder{}
	g := New(refs, &fakeResolver{}, &fakeLoader{}, Config{},
		WithLogger(logger.Nop()), WithObserver(rec.observe))
	g.Start(context.Background())

	slots := waitDone(t, g)
	for i, s := range slots {
		if s.State != StateLoaded {
			t.Errorf("slot %d state = %s, want loaded", i, s.State)
		}
		if want := "https://signed.test/" + refs[i]; s.DisplayURL != want {
			t.Errorf("slot %d display = %q, want %q", i, s.DisplayURL, want)
		}
		got := rec.forSlot(i)
		if len(got) != 2 || got[0] != StateResolved || got[1] != StateLoaded {
			t.Errorf("slot %d updates = %v, want [resolved loaded]", i, got)
		}
	}
}

func TestGallery_FirstItemResolvedBeforeRest(t *testing.T) {
	res := &fakeResolver{release: make(chan struct{})}
	g := New([]string{"a.jpg", "b.jpg", "c.jpg"}, res, &fakeLoader{}, Config{},
		WithLogger(logger.Nop()))
	g.Start(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for g.Slots()[0].State != StateLoaded {
		if time.Now().After(deadline) {
			t.Fatal("first slot never loaded while the rest were blocked")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if s := g.Slots()[1]; s.State != StatePending || s.DisplayURL != "b.jpg" {
		t.Errorf("slot 1 = %+v, want pending with raw reference", s)
	}

	close(res.release)
	waitDone(t, g)

	res.mu.Lock()
	defer res.mu.Unlock()
	if len(res.calls) != 2 {
		t.Fatalf("resolver calls = %v, want one:a.jpg and batch", res.calls)
	}
	seen := map[string]bool{res.calls[0]: true, res.calls[1]: true}
	if !seen["one:a.jpg"] || !seen["batch"] {
		t.Errorf("resolver calls = %v, want one:a.jpg and batch", res.calls)
	}
}

func TestGallery_SlowFirstItemDoesNotHoldSiblings(t *testing.T) {
	res := &fakeResolver{releaseOne: make(chan struct{})}
	defer close(res.releaseOne)
	g := New([]string{"a.jpg", "b.jpg", "c.jpg"}, res, &fakeLoader{},
		Config{SlotTimeout: 200 * time.Millisecond}, WithLogger(logger.Nop()))
	g.Start(context.Background())
	defer g.Cancel()

	deadline := time.Now().Add(5 * time.Second)
	for g.Slots()[0].State != StateError {
		if time.Now().After(deadline) {
			t.Fatal("first slot did not time out")
		}
		time.Sleep(5 * time.Millisecond)
	}
	for _, s := range g.Slots()[1:] {
		if s.State != StateLoaded {
			t.Errorf("slot %d state = %s, want loaded", s.Index, s.State)
		}
		if want := "https://signed.test/" + s.Ref; s.DisplayURL != want {
			t.Errorf("slot %d display = %q, want %q", s.Index, s.DisplayURL, want)
		}
	}
}

func TestGallery_LoadFailureIsPerSlot(t *testing.T) {
	loader := &fakeLoader{fail: map[string]bool{"https://signed.test/b.jpg": true}}
	g := New([]string{"a.jpg", "b.jpg", "c.jpg"}, &fakeResolver{}, loader,
		Config{Placeholder: "placeholder.svg"}, WithLogger(logger.Nop()))
	g.Start(context.Background())

	slots := waitDone(t, g)
	want := []State{StateLoaded, StateError, StateLoaded}
	for i, s := range slots {
		if s.State != want[i] {
			t.Errorf("slot %d state = %s, want %s", i, s.State, want[i])
		}
	}
	if slots[1].DisplayURL != "placeholder.svg" {
		t.Errorf("failed slot display = %q, want placeholder", slots[1].DisplayURL)
	}
}

func TestGallery_IdentityFallbackSkipsProbeForPrivateBucket(t *testing.T) {
	res := &fakeResolver{fail: map[string]bool{"b.jpg": true}}
	loader := &fakeLoader{}
	rec := &recorder{}
	g := New([]string{"a.jpg", "b.jpg"}, res, loader, Config{},
		WithLogger(logger.Nop()), WithObserver(rec.observe))
	g.Start(context.Background())

	slots := waitDone(t, g)
	if slots[1].State != StateError || slots[1].DisplayURL != DefaultPlaceholder {
		t.Errorf("slot 1 = %+v, want error with placeholder", slots[1])
	}
	if got := rec.forSlot(1); len(got) != 2 || got[0] != StateIdentityFallback || got[1] != StateError {
		t.Errorf("slot 1 updates = %v, want [identity_fallback error]", got)
	}
	if n := loader.count(); n != 1 {
		t.Errorf("probes = %d, want 1", n)
	}
}

func TestGallery_IdentityFallbackProbedForPublicBucket(t *testing.T) {
	res := &fakeResolver{fail: map[string]bool{"https://cdn.example/b.jpg": true}}
	g := New([]string{"a.jpg", "https://cdn.example/b.jpg"}, res, &fakeLoader{},
		Config{PublicFallback: true}, WithLogger(logger.Nop()))
	g.Start(context.Background())

	slots := waitDone(t, g)
	if slots[1].State != StateLoaded || slots[1].DisplayURL != "https://cdn.example/b.jpg" {
		t.Errorf("slot 1 = %+v, want loaded raw reference", slots[1])
	}
}

func TestGallery_SlotTimeout(t *testing.T) {
	res := &fakeResolver{release: make(chan struct{})}
	defer close(res.release)
	g := New([]string{"a.jpg", "b.jpg"}, res, &fakeLoader{},
		Config{SlotTimeout: 50 * time.Millisecond}, WithLogger(logger.Nop()))
	g.Start(context.Background())
	defer g.Cancel()

	deadline := time.Now().Add(5 * time.Second)
	for g.Slots()[1].State != StateError {
		if time.Now().After(deadline) {
			t.Fatal("slot 1 did not time out")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if s := g.Slots()[1]; s.DisplayURL != DefaultPlaceholder {
		t.Errorf("timed out slot display = %q, want placeholder", s.DisplayURL)
	}
	if s := g.Slots()[0]; s.State != StateLoaded {
		t.Errorf("slot 0 state = %s, want loaded", s.State)
	}
}

func TestGallery_CancelDropsLateResults(t *testing.T) {
	res := &fakeResolver{release: make(chan struct{})}
	rec := &recorder{}
	g := New([]string{"a.jpg", "b.jpg", "c.jpg"}, res, &fakeLoader{}, Config{},
		WithLogger(logger.Nop()), WithObserver(rec.observe))
	g.Start(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for g.Slots()[0].State != StateLoaded {
		if time.Now().After(deadline) {
			t.Fatal("first slot never loaded")
		}
		time.Sleep(5 * time.Millisecond)
	}
	before := rec.len()

	g.Cancel()
	close(res.release)
	slots := waitDone(t, g)

	if !g.Cancelled() {
		t.Error("Cancelled() = false")
	}
	if after := rec.len(); after != before {
		t.Errorf("observer saw %d updates after cancel", after-before)
	}
	for _, s := range slots[1:] {
		if s.State != StatePending {
			t.Errorf("slot %d state = %s after cancel, want pending", s.Index, s.State)
		}
	}
}

func TestGallery_CancelBeforeStart(t *testing.T) {
	g := New([]string{"a.jpg"}, &fakeResolver{}, &fakeLoader{}, Config{}, WithLogger(logger.Nop()))
	g.Cancel()
	g.Start(context.Background())
	waitDone(t, g)
	if s := g.Slots()[0]; s.State != StatePending {
		t.Errorf("state = %s, want pending", s.State)
	}
}

func TestGallery_CancelRacingStart(t *testing.T) {
	for range 100 {
		rec := &recorder{}
		g := New([]string{"a.jpg", "b.jpg"}, &fakeResolver{}, &fakeLoader{}, Config{},
			WithLogger(logger.Nop()), WithObserver(rec.observe))

		var wg sync.WaitGroup
		wg.Go(func() { g.Start(context.Background()) })
		wg.Go(g.Cancel)
		wg.Wait()

		before := rec.len()
		waitDone(t, g)
		if !g.Cancelled() {
			t.Fatal("Cancelled() = false")
		}
		if after := rec.len(); after != before {
			t.Fatalf("observer saw %d updates after cancel", after-before)
		}
	}
}

func TestGallery_Empty(t *testing.T) {
	g := New(nil, &fakeResolver{}, &fakeLoader{}, Config{}, WithLogger(logger.Nop()))
	g.Start(context.Background())
	if slots := waitDone(t, g); len(slots) != 0 {
		t.Errorf("slots = %v", slots)
	}
}

func TestHTTPLoader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.jpg", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
	})
	mux.HandleFunc("/signed.jpg", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.Header.Get("Range") != "bytes=0-0" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte{0xff})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	l, err := NewHTTPLoader(time.Second)
	if err != nil {
		t.Fatalf("NewHTTPLoader() error = %v", err)
	}
	ctx := context.Background()

	if err := l.Load(ctx, ts.URL+"/ok.jpg"); err != nil {
		t.Errorf("Load(ok) error = %v", err)
	}
	if err := l.Load(ctx, ts.URL+"/signed.jpg"); err != nil {
		t.Errorf("Load(signed) error = %v", err)
	}
	if err := l.Load(ctx, ts.URL+"/missing.jpg"); err == nil {
		t.Error("Load(missing) should fail")
	}
	if err := l.Load(ctx, "listings/bare-key.jpg"); err == nil {
		t.Error("Load(bare key) should fail")
	}
}
