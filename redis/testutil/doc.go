// Package testutil provides an in-memory Redis (miniredis) implementing
// testutil.TestComponent, with FastForward for TTL tests.
package testutil
