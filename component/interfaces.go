package component

import "context"

// HealthStatus is the coarse state reported by a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health is one component's entry in the /health report.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed piece of the service: the object store,
// the Redis cache, telemetry exporters and the HTTP server.
type Component interface {
	// Name returns the unique registration name.
	Name() string

	// Start prepares the component. A component that can run degraded
	// (for example storage without credentials) logs and returns nil.
	Start(ctx context.Context) error

	// Stop releases resources.
	Stop(ctx context.Context) error

	// Health reports current status.
	Health(ctx context.Context) Health
}

// Description is what a component reports about itself in the startup
// summary.
type Description struct {
	// Name is the display name. Empty means Name() is used.
	Name string
	// Type is a category such as "storage", "cache" or "server".
	Type string
	// Details is a one-liner, e.g. "provider=s3 bucket=listing-media".
	Details string
	// Port is the listening port, 0 when not applicable.
	Port int
}

// Describable is optionally implemented to appear in the startup summary.
type Describable interface {
	Describe() Description
}

// Route is one registered HTTP route.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider is implemented by the HTTP server component.
type RouteProvider interface {
	Routes() []Route
}

// Overall folds component health into a single status: any unhealthy
// component makes the whole unhealthy, any degraded one makes it degraded.
func Overall(items []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range items {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
