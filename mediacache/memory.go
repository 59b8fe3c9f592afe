package mediacache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Memory is an in-process LRU of signed URLs. Expired entries are evicted
// lazily on read.
type Memory struct {
	cache *lru.Cache[string, Entry]
	now   func() time.Time
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an LRU holding at most size entries.
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = 4096
	}
	c, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, err
	}
	return &Memory{cache: c, now: time.Now}, nil
}

// Get returns fresh entries for refs.
func (m *Memory) Get(_ context.Context, refs []string) (map[string]Entry, error) {
	now := m.now()
	out := make(map[string]Entry, len(refs))
	for _, ref := range refs {
		e, ok := m.cache.Get(ref)
		if !ok {
			continue
		}
		if !e.Fresh(now) {
			m.cache.Remove(ref)
			continue
		}
		out[ref] = e
	}
	return out, nil
}

// Set stores entries that are still fresh.
func (m *Memory) Set(_ context.Context, entries map[string]Entry) error {
	now := m.now()
	for ref, e := range entries {
		if e.Fresh(now) {
			m.cache.Add(ref, e)
		}
	}
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (m *Memory) Len() int {
	return m.cache.Len()
}

// Purge drops every entry.
func (m *Memory) Purge() {
	m.cache.Purge()
}
