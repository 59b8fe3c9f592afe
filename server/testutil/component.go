package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/estatly/mediasign/component"
	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/server"
	"github.com/estatly/mediasign/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	_ component.Component    = (*Component)(nil)
	_ testutil.TestComponent = (*Component)(nil)
)

// RouteFunc registers routes on a fresh engine.
type RouteFunc func(r gin.IRouter)

// Component serves a server.Server through httptest so clients such as the
// resolver and the export embedder can be exercised over real HTTP.
type Component struct {
	routes RouteFunc

	mu  sync.RWMutex
	srv *server.Server
	ts  *httptest.Server
}

// NewComponent creates a test server whose routes are installed by routes
// on Start and again on every Reset.
func NewComponent(routes RouteFunc) *Component {
	return &Component{routes: routes}
}

// Engine returns the current gin engine, nil before Start.
func (c *Component) Engine() *gin.Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.srv == nil {
		return nil
	}
	return c.srv.Engine()
}

// BaseURL returns "http://127.0.0.1:PORT", empty before Start.
func (c *Component) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ts == nil {
		return ""
	}
	return c.ts.URL
}

func (c *Component) Name() string { return "server-test" }

func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ts != nil {
		return fmt.Errorf("component already started")
	}
	c.build()
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ts != nil {
		c.ts.Close()
		c.ts = nil
	}
	return nil
}

func (c *Component) Health(_ context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ts == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Reset replaces the server with a fresh one.
func (c *Component) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ts == nil {
		return fmt.Errorf("component not started")
	}
	c.ts.Close()
	c.build()
	return nil
}

// Snapshot is a no-op; handlers hold no state of their own.
func (c *Component) Snapshot(_ context.Context) (interface{}, error) { return nil, nil }

// Restore is a no-op.
func (c *Component) Restore(_ context.Context, _ interface{}) error { return nil }

func (c *Component) build() {
	cfg := server.Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	c.srv = server.New(cfg, logger.Nop())
	c.srv.ApplyMiddleware(nil)
	if c.routes != nil {
		c.routes(c.srv.Engine())
	}
	c.ts = httptest.NewServer(c.srv.Handler())
}
