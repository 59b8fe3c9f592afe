package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/server/endpoint"
	"github.com/estatly/mediasign/server/middleware"
)

// Server is the gin-backed HTTP server. HTTP/2 cleartext is accepted so
// galleries behind an h2c-speaking proxy can multiplex presign calls.
type Server struct {
	engine *gin.Engine
	config Config
	log    *logger.Logger

	mu       sync.Mutex
	http     *http.Server
	listener net.Listener
}

// Endpoints configures the operational routes registered by
// RegisterDefaultEndpoints.
type Endpoints struct {
	ServiceName string
	Health      endpoint.HealthChecker
	Info        endpoint.InfoFunc
	// Gatherer backs GET /metrics. Nil skips the route.
	Gatherer prometheus.Gatherer
}

// New creates a server with an empty gin engine.
func New(cfg Config, log *logger.Logger) *Server {
	if gin.Mode() != gin.TestMode {
		if zerolog.GlobalLevel() <= zerolog.DebugLevel {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	return &Server{
		engine: engine,
		config: cfg,
		log:    log.WithComponent("server"),
	}
}

// Engine returns the gin engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Config returns the server configuration.
func (s *Server) Config() Config {
	return s.config
}

// Handler returns the complete handler: CORS and body limits around the gin
// engine, wrapped for h2c.
func (s *Server) Handler() http.Handler {
	chain := middleware.Chain(
		middleware.CORS(s.config.CORS),
		middleware.BodySizeLimit(s.config.MaxBodySize),
	)
	return h2c.NewHandler(chain(s.engine), &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          s.config.IdleTimeout,
	})
}

// ApplyMiddleware installs the request-scoped middleware: recovery, request
// id, metrics, logging and rate limiting.
func (s *Server) ApplyMiddleware(metrics *middleware.HTTPMetrics) {
	s.engine.Use(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.Metrics(metrics),
		middleware.RequestLogger(s.log),
		middleware.RateLimit(s.config.RateLimit),
	)
}

// RegisterDefaultEndpoints mounts /health, /livez, /readyz, /info, /version
// and /metrics.
func (s *Server) RegisterDefaultEndpoints(e Endpoints) {
	s.engine.GET("/health", endpoint.Health(e.ServiceName, e.Health))
	s.engine.GET("/livez", endpoint.Liveness())
	s.engine.GET("/readyz", endpoint.Readiness(e.Health))
	s.engine.GET("/info", endpoint.Info(e.ServiceName, e.Info))
	s.engine.GET("/version", endpoint.Version())
	if e.Gatherer != nil {
		s.engine.GET("/metrics", endpoint.Metrics(e.Gatherer))
	}
}

// Start binds the port and serves in the background. It returns once the
// listener is bound.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.http != nil {
		return fmt.Errorf("server already started")
	}

	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.config.Addr(), err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}
	s.http = srv
	s.listener = ln

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("Server error")
		}
	}()

	s.log.Info("HTTP server started", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop drains in-flight requests within the configured shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.http = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr()
}
