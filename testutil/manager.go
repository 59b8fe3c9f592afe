package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Manager starts, resets and stops a group of test components together.
type Manager struct {
	mu         sync.RWMutex
	components []TestComponent
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add registers components in start order.
func (m *Manager) Add(components ...TestComponent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, components...)
}

// Get returns the component with the given name, or nil.
func (m *Manager) Get(name string) TestComponent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// StartAll starts components in order and stops at the first failure.
func (m *Manager) StartAll(ctx context.Context) error {
	return m.each("start", func(c TestComponent) error { return c.Start(ctx) })
}

// ResetAll resets every component.
func (m *Manager) ResetAll(ctx context.Context) error {
	return m.each("reset", func(c TestComponent) error { return c.Reset(ctx) })
}

// StopAll stops components in reverse order, continuing past failures.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	for i := len(m.components) - 1; i >= 0; i-- {
		c := m.components[i]
		if err := c.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) each(op string, fn func(TestComponent) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.components {
		if err := fn(c); err != nil {
			return fmt.Errorf("%s %s: %w", op, c.Name(), err)
		}
	}
	return nil
}
