package testutil

import (
	"context"

	"github.com/estatly/mediasign/component"
)

// TestComponent is a component that can also be rewound between test cases.
// In-memory stand-ins such as the storage test component implement it.
type TestComponent interface {
	component.Component

	// Reset returns the component to its freshly started state.
	Reset(ctx context.Context) error

	// Snapshot captures the current state for a later Restore.
	Snapshot(ctx context.Context) (interface{}, error)

	// Restore rewinds to a value returned by Snapshot.
	Restore(ctx context.Context, snapshot interface{}) error
}
