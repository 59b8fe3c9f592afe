// Package testutil provides an in-memory object store for tests.
//
// The store signs any key with a deterministic URL, can be told to fail
// signing for chosen keys, and implements testutil.TestComponent so it can
// be managed by a test Manager.
//
//	store := testutil.NewComponent("listing-media")
//	testutil.T(t).Setup(store)
//	url, _ := store.SignedURL(ctx, "listings/1.jpg", time.Hour)
package testutil
