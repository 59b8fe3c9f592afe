package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/estatly/mediasign/component"
	"github.com/estatly/mediasign/errors"
	"github.com/estatly/mediasign/logger"
)

// Provider hands out the configured Storage. Get returns a MISCONFIGURED
// AppError while no store is available.
type Provider interface {
	Get() (Storage, error)
}

// Static wraps an already built Storage as a Provider.
func Static(s Storage) Provider { return staticProvider{s: s} }

type staticProvider struct{ s Storage }

func (p staticProvider) Get() (Storage, error) {
	if p.s == nil {
		return nil, errors.Misconfigured("storage")
	}
	return p.s, nil
}

// Component wraps Storage and implements component.Component. A component
// with missing settings still starts: the service stays up and requests
// that need the store fail with MISCONFIGURED.
type Component struct {
	cfg Config
	log *logger.Logger

	mu      sync.RWMutex
	storage Storage
	err     error
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
	_ Provider              = (*Component)(nil)
)

// NewComponent creates a storage component for use with the component registry.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{
		cfg: cfg,
		log: log.WithComponent("storage"),
		err: errors.Misconfigured(cfg.Missing()...),
	}
}

// Name returns the component name.
func (c *Component) Name() string { return "storage" }

// Start builds the storage backend.
func (c *Component) Start(_ context.Context) error {
	s, err := New(c.cfg, c.log)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeMisconfigured {
			c.log.Warn("object storage is not configured; presign and upload will fail",
				logger.Fields("missing", strings.Join(c.cfg.Missing(), ",")))
			c.setState(nil, appErr)
			return nil
		}
		return err
	}
	c.setState(s, nil)
	return nil
}

// Stop releases the storage backend.
func (c *Component) Stop(_ context.Context) error {
	c.setState(nil, errors.Misconfigured("storage"))
	return nil
}

// Get returns the running Storage.
func (c *Component) Get() (Storage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.storage == nil {
		return nil, c.err
	}
	return c.storage, nil
}

// Health reports degraded while the store is not configured.
func (c *Component) Health(_ context.Context) component.Health {
	if _, err := c.Get(); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusDegraded,
			Message: err.Error(),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	details := "provider=" + c.cfg.Provider
	if c.cfg.Bucket != "" {
		details += " bucket=" + c.cfg.Bucket
	}
	return component.Description{Name: "Storage", Type: "storage", Details: details}
}

func (c *Component) setState(s Storage, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storage = s
	c.err = err
}
