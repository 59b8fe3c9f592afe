// Package testutil extends the component lifecycle with Reset, Snapshot and
// Restore so in-memory stand-ins can be shared across test cases.
//
//	store := storagetest.NewComponent("listing-media")
//	testutil.Start(t, store)
//	testutil.Checkpoint(t, store)
package testutil
