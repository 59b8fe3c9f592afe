package testutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/estatly/mediasign/component"
	"github.com/estatly/mediasign/testutil"
)

type counter struct {
	name    string
	value   int
	started bool
	stopErr error
	log     *[]string
}

func (c *counter) Name() string { return c.name }

func (c *counter) Start(context.Context) error {
	c.started = true
	if c.log != nil {
		*c.log = append(*c.log, "start:"+c.name)
	}
	return nil
}

func (c *counter) Stop(context.Context) error {
	c.started = false
	if c.log != nil {
		*c.log = append(*c.log, "stop:"+c.name)
	}
	return c.stopErr
}

func (c *counter) Health(context.Context) component.Health {
	return component.Health{Name: c.name, Status: component.StatusHealthy}
}

func (c *counter) Reset(context.Context) error { c.value = 0; return nil }

func (c *counter) Snapshot(context.Context) (interface{}, error) { return c.value, nil }

func (c *counter) Restore(_ context.Context, snap interface{}) error {
	v, ok := snap.(int)
	if !ok {
		return errors.New("bad snapshot")
	}
	c.value = v
	return nil
}

var _ testutil.TestComponent = (*counter)(nil)

func TestManagerOrder(t *testing.T) {
	var log []string
	m := testutil.NewManager()
	m.Add(&counter{name: "storage", log: &log}, &counter{name: "redis", log: &log})

	ctx := context.Background()
	if err := m.StartAll(ctx); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if err := m.StopAll(ctx); err != nil {
		t.Fatalf("StopAll: %v", err)
	}

	want := []string{"start:storage", "start:redis", "stop:redis", "stop:storage"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestManagerStopAllContinuesPastErrors(t *testing.T) {
	first := &counter{name: "a"}
	second := &counter{name: "b", stopErr: errors.New("boom")}
	m := testutil.NewManager()
	m.Add(first, second)
	m.StartAll(context.Background())

	if err := m.StopAll(context.Background()); err == nil {
		t.Fatal("expected joined stop error")
	}
	if first.started {
		t.Error("first component should still be stopped")
	}
}

func TestManagerResetAndGet(t *testing.T) {
	c := &counter{name: "storage", value: 7}
	m := testutil.NewManager()
	m.Add(c)

	if m.Get("storage") == nil || m.Get("missing") != nil {
		t.Fatal("Get returned unexpected result")
	}
	if err := m.ResetAll(context.Background()); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}
	if c.value != 0 {
		t.Errorf("value = %d after reset", c.value)
	}
}

func TestCheckpointRestores(t *testing.T) {
	c := &counter{name: "storage", value: 3}

	t.Run("mutates", func(t *testing.T) {
		testutil.Start(t, c)
		testutil.Checkpoint(t, c)
		c.value = 99
	})

	if c.value != 3 {
		t.Errorf("value = %d, want restored 3", c.value)
	}
	if c.started {
		t.Error("component should be stopped after subtest cleanup")
	}
}
