package testutil

import (
	"context"
	"testing"
)

// Start starts c and stops it when the test finishes.
func Start(t testing.TB, c TestComponent) {
	t.Helper()
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start %s: %v", c.Name(), err)
	}
	t.Cleanup(func() {
		if err := c.Stop(ctx); err != nil {
			t.Errorf("stop %s: %v", c.Name(), err)
		}
	})
}

// Reset rewinds c, failing the test on error.
func Reset(t testing.TB, c TestComponent) {
	t.Helper()
	if err := c.Reset(context.Background()); err != nil {
		t.Fatalf("reset %s: %v", c.Name(), err)
	}
}

// Checkpoint snapshots c and restores it when the test finishes, so a
// subtest can mutate shared fixtures freely.
func Checkpoint(t testing.TB, c TestComponent) {
	t.Helper()
	ctx := context.Background()
	snap, err := c.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot %s: %v", c.Name(), err)
	}
	t.Cleanup(func() {
		if err := c.Restore(ctx, snap); err != nil {
			t.Errorf("restore %s: %v", c.Name(), err)
		}
	})
}
