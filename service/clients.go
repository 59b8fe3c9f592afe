package service

import (
	"fmt"

	"github.com/estatly/mediasign/bootstrap"
	"github.com/estatly/mediasign/export"
	"github.com/estatly/mediasign/gallery"
	"github.com/estatly/mediasign/logger"
	"github.com/estatly/mediasign/mediacache"
	"github.com/estatly/mediasign/observability"
	"github.com/estatly/mediasign/redis"
	"github.com/estatly/mediasign/resolver"
)

// Clients wires the caller side of the pipeline for the CLI commands: the
// batch resolver with its cache, the export embedder and gallery loader.
type Clients struct {
	cfg   *Config
	log   *logger.Logger
	redis *redis.Component
}

// RegisterClients adds the client-side components to app: telemetry, and
// Redis when the shared cache is enabled. The clients themselves are built
// after startup because the Redis connection only exists then.
func RegisterClients(app *bootstrap.App[*Config]) (*Clients, error) {
	cfg := app.Cfg
	c := &Clients{cfg: cfg, log: app.Logger}

	if err := app.RegisterComponent(observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment, app.Logger)); err != nil {
		return nil, err
	}
	if cfg.Redis.Enabled {
		c.redis = redis.NewComponent(cfg.Redis, app.Logger)
		if err := app.RegisterComponent(c.redis); err != nil {
			return nil, err
		}
	}

	target := cfg.Client.BaseURL
	if target == "" {
		target = "(unset)"
	}
	app.Summary.TrackClient("presign", target, "http")
	return c, nil
}

// Cache returns the signed URL cache: Redis when enabled and connected,
// the in-process LRU otherwise.
func (c *Clients) Cache() (mediacache.Cache, error) {
	if c.redis != nil {
		if client := c.redis.Client(); client != nil {
			return mediacache.NewRedis(client), nil
		}
		c.log.Warn("redis cache enabled but not connected, using memory cache")
	}
	mem, err := mediacache.NewMemory(c.cfg.Cache.Size)
	if err != nil {
		return nil, err
	}
	return mem, nil
}

// Metrics returns the pipeline instruments on the global meter.
func (c *Clients) Metrics() *observability.PipelineMetrics {
	m, err := observability.NewPipelineMetrics(observability.Meter())
	if err != nil {
		c.log.Warn("pipeline metrics unavailable", logger.Fields("error", err.Error()))
		return nil
	}
	return m
}

// Resolver builds the batch signing client.
func (c *Clients) Resolver() (*resolver.Client, error) {
	if c.cfg.Client.BaseURL == "" {
		return nil, fmt.Errorf("client.base_url is required (MEDIASIGN_CLIENT_BASE_URL)")
	}
	cache, err := c.Cache()
	if err != nil {
		return nil, err
	}
	return resolver.New(c.cfg.Client,
		resolver.WithCache(cache),
		resolver.WithMetrics(c.Metrics()),
		resolver.WithLogger(c.log),
	)
}

// Builder builds the document export pipeline on top of res. The fetch
// endpoint defaults to the resolver's signing service.
func (c *Clients) Builder(res export.Resolver) (*export.Builder, error) {
	cfg := c.cfg.Export
	if cfg.ServiceURL == "" {
		cfg.ServiceURL = c.cfg.Client.BaseURL
	}
	embedder, err := export.NewEmbedder(cfg, res,
		export.WithMetrics(c.Metrics()),
		export.WithLogger(c.log),
	)
	if err != nil {
		return nil, err
	}
	return export.NewBuilder(embedder, cfg.Concurrency), nil
}

// Gallery builds a gallery over refs that probes with an HTTP loader.
func (c *Clients) Gallery(refs []string, res gallery.Resolver, opts ...gallery.Option) (*gallery.Gallery, error) {
	loader, err := gallery.NewHTTPLoader(c.cfg.Gallery.SlotTimeout)
	if err != nil {
		return nil, err
	}
	opts = append([]gallery.Option{
		gallery.WithMetrics(c.Metrics()),
		gallery.WithLogger(c.log),
	}, opts...)
	return gallery.New(refs, res, loader, c.cfg.Gallery, opts...), nil
}
