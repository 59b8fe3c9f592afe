package component

import (
	"context"
	"fmt"
	"testing"

	"github.com/estatly/mediasign/logger"
)

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	desc     *Description
	order    *[]string
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(ctx context.Context) error {
	if f.order != nil {
		*f.order = append(*f.order, "start:"+f.name)
	}
	return f.startErr
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	if f.order != nil {
		*f.order = append(*f.order, "stop:"+f.name)
	}
	return f.stopErr
}

func (f *fakeComponent) Health(ctx context.Context) Health { return f.health }

type describedComponent struct {
	fakeComponent
}

func (d *describedComponent) Describe() Description { return *d.desc }

func newRegistry() *Registry { return NewRegistry(logger.Nop()) }

func TestRegisterDuplicate(t *testing.T) {
	r := newRegistry()
	if err := r.Register(&fakeComponent{name: "storage"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&fakeComponent{name: "storage"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGet(t *testing.T) {
	r := newRegistry()
	r.Register(&fakeComponent{name: "storage"})

	if got := r.Get("storage"); got == nil || got.Name() != "storage" {
		t.Fatalf("Get(storage) = %v", got)
	}
	if got := r.Get("missing"); got != nil {
		t.Error("expected nil for unregistered component")
	}
}

func TestStartStopOrder(t *testing.T) {
	r := newRegistry()
	var order []string
	for _, name := range []string{"storage", "redis", "http-server"} {
		r.Register(&fakeComponent{name: name, order: &order})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll: %v", err)
	}

	want := []string{
		"start:storage", "start:redis", "start:http-server",
		"stop:http-server", "stop:redis", "stop:storage",
	}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestStartFailureStopsOnlyStarted(t *testing.T) {
	r := newRegistry()
	var order []string
	r.Register(&fakeComponent{name: "storage", order: &order})
	r.Register(&fakeComponent{name: "redis", order: &order, startErr: fmt.Errorf("connection refused")})
	r.Register(&fakeComponent{name: "http-server", order: &order})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected StartAll error")
	}
	r.StopAll(context.Background())

	want := []string{"start:storage", "start:redis", "stop:storage"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	r := newRegistry()
	r.Register(&fakeComponent{name: "redis", stopErr: fmt.Errorf("stop failed")})
	r.StartAll(context.Background())

	if err := r.StopAll(context.Background()); err == nil {
		t.Error("expected error from StopAll")
	}
}

func TestHealthAllAndOverall(t *testing.T) {
	r := newRegistry()
	r.Register(&fakeComponent{name: "http-server", health: Health{Name: "http-server", Status: StatusHealthy}})
	r.Register(&fakeComponent{name: "storage", health: Health{Name: "storage", Status: StatusDegraded, Message: "not configured"}})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if got := Overall(results); got != StatusDegraded {
		t.Errorf("Overall = %s, want degraded", got)
	}

	results = append(results, Health{Name: "redis", Status: StatusUnhealthy})
	if got := Overall(results); got != StatusUnhealthy {
		t.Errorf("Overall = %s, want unhealthy", got)
	}
	if got := Overall(nil); got != StatusHealthy {
		t.Errorf("Overall(nil) = %s, want healthy", got)
	}
}

func TestDescribe(t *testing.T) {
	r := newRegistry()
	r.Register(&fakeComponent{name: "plain"})
	r.Register(&describedComponent{fakeComponent{
		name: "storage",
		desc: &Description{Type: "storage", Details: "provider=s3 bucket=media"},
	}})

	descs := r.Describe()
	if len(descs) != 1 {
		t.Fatalf("expected 1 description, got %d", len(descs))
	}
	if descs[0].Name != "storage" || descs[0].Details != "provider=s3 bucket=media" {
		t.Errorf("unexpected description %+v", descs[0])
	}
}
