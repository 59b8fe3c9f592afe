package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// SignedURLProvider issues time-limited read URLs for private objects.
type SignedURLProvider interface {
	// SignedURL returns a URL granting read access to key until ttl elapses.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Uploader writes objects to the store.
type Uploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// Storage is the object store contract used by the signing service.
// Keys are always relative to the configured bucket.
type Storage interface {
	SignedURLProvider
	Uploader

	// Download returns a reader for the object at key. Returns ErrNotFound
	// when the object does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns the unsigned object URL for key. It only loads for
	// publicly readable buckets.
	URL(key string) string

	// Bucket returns the bucket name the store writes to.
	Bucket() string
}
