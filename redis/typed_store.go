package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TypedStore stores JSON-encoded values of type C under a key namespace.
type TypedStore[C any] struct {
	client    *Client
	namespace string
}

// NewTypedStore creates a store whose keys are client.Key(namespace, key).
func NewTypedStore[C any](client *Client, namespace string) *TypedStore[C] {
	return &TypedStore[C]{client: client, namespace: namespace}
}

func (s *TypedStore[C]) key(k string) string {
	return s.client.Key(s.namespace, k)
}

// Load returns (nil, nil) for a missing key.
func (s *TypedStore[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := s.client.Get(ctx, s.key(key))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("typed store load %q: %w", key, err)
	}
	var val C
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		return nil, fmt.Errorf("typed store unmarshal %q: %w", key, err)
	}
	return &val, nil
}

// LoadMany fetches keys in one round trip. Missing or undecodable entries
// are absent from the result.
func (s *TypedStore[C]) LoadMany(ctx context.Context, keys []string) (map[string]*C, error) {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	vals, found, err := s.client.MGet(ctx, full...)
	if err != nil {
		return nil, fmt.Errorf("typed store load many: %w", err)
	}
	out := make(map[string]*C, len(keys))
	for i, k := range keys {
		if !found[i] {
			continue
		}
		var val C
		if json.Unmarshal([]byte(vals[i]), &val) != nil {
			continue
		}
		out[k] = &val
	}
	return out, nil
}

// Save stores val with ttl; zero means no expiry.
func (s *TypedStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("typed store marshal %q: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(key), data, ttl); err != nil {
		return fmt.Errorf("typed store save %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *TypedStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)); err != nil {
		return fmt.Errorf("typed store delete %q: %w", key, err)
	}
	return nil
}
