// Package redis wraps go-redis for the shared signed URL cache: a client
// with key namespacing, a JSON TypedStore with batched loads, and a
// lifecycle component.
package redis
