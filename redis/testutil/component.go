package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/estatly/mediasign/component"
	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/redis"
	"github.com/estatly/mediasign/testutil"
)

var (
	_ component.Component    = (*Component)(nil)
	_ testutil.TestComponent = (*Component)(nil)
)

// Component is an in-memory Redis backed by miniredis.
type Component struct {
	mu     sync.RWMutex
	mini   *miniredis.Miniredis
	client *redis.Client
}

// NewComponent creates a stopped component.
func NewComponent() *Component {
	return &Component{}
}

// Client returns the wrapped client, nil before Start.
func (c *Component) Client() *redis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// FastForward advances miniredis time so TTLs expire.
func (c *Component) FastForward(d time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mini != nil {
		c.mini.FastForward(d)
	}
}

// TTL returns the remaining TTL of a raw key.
func (c *Component) TTL(key string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mini == nil {
		return 0
	}
	return c.mini.TTL(key)
}

// Keys lists raw keys.
func (c *Component) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mini == nil {
		return nil
	}
	return c.mini.Keys()
}

func (c *Component) Name() string { return "redis-test" }

func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mini != nil {
		return fmt.Errorf("component already started")
	}
	mini, err := miniredis.Run()
	if err != nil {
		return fmt.Errorf("failed to start miniredis: %w", err)
	}
	c.mini = mini
	rdb := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	c.client = redis.NewFromClient(rdb, redis.Config{Enabled: true, Addr: mini.Addr()}, logger.Nop())
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mini == nil {
		return nil
	}
	_ = c.client.Close()
	c.mini.Close()
	c.mini, c.client = nil, nil
	return nil
}

func (c *Component) Health(_ context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mini == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Reset flushes all keys.
func (c *Component) Reset(_ context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mini == nil {
		return fmt.Errorf("component not started")
	}
	c.mini.FlushAll()
	return nil
}

type entry struct {
	value string
	ttl   time.Duration
}

// Snapshot captures string keys with their TTLs.
func (c *Component) Snapshot(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mini == nil {
		return nil, fmt.Errorf("component not started")
	}
	snap := make(map[string]entry)
	for _, key := range c.mini.Keys() {
		if v, err := c.mini.Get(key); err == nil {
			snap[key] = entry{value: v, ttl: c.mini.TTL(key)}
		}
	}
	return snap, nil
}

// Restore replaces all keys with a snapshot.
func (c *Component) Restore(_ context.Context, snap interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mini == nil {
		return fmt.Errorf("component not started")
	}
	s, ok := snap.(map[string]entry)
	if !ok {
		return fmt.Errorf("invalid snapshot type: %T", snap)
	}
	c.mini.FlushAll()
	for k, e := range s {
		if err := c.mini.Set(k, e.value); err != nil {
			return fmt.Errorf("restore key %q: %w", k, err)
		}
		if e.ttl > 0 {
			c.mini.SetTTL(k, e.ttl)
		}
	}
	return nil
}
