package service

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gin-gonic/gin"

	"github.com/estatly/mediasign/auth"
	"github.com/estatly/mediasign/bootstrap"
	"github.com/estatly/mediasign/component"
	"github.com/estatly/mediasign/observability"
	"github.com/estatly/mediasign/server"
	"github.com/estatly/mediasign/server/middleware"
	"github.com/estatly/mediasign/signing"
	"github.com/estatly/mediasign/storage"

	// storage backends register themselves with the factory
	_ "github.com/estatly/mediasign/storage/s3"
	_ "github.com/estatly/mediasign/storage/supabase"
)

// StorageComponent is a lifecycle-managed store, the real storage.Component
// or an in-memory stand-in.
type StorageComponent interface {
	component.Component
	storage.Provider
}

// Option customizes Register.
type Option func(*options)

type options struct {
	storage StorageComponent
}

// WithStorage replaces the configured object store.
func WithStorage(s StorageComponent) Option {
	return func(o *options) { o.storage = s }
}

// Service is the wired signing service.
type Service struct {
	Server   *server.Server
	Storage  StorageComponent
	Signer   *signing.Service
	Registry *prometheus.Registry
}

// Register builds the signing service and adds its components to app in
// start order: telemetry, storage, HTTP server.
func Register(app *bootstrap.App[*Config], opts ...Option) (*Service, error) {
	cfg := app.Cfg
	log := app.Logger

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.storage == nil {
		o.storage = storage.NewComponent(cfg.Storage, log)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := signing.NewMetrics(reg)

	signer := signing.NewService(cfg.Presign, o.storage, metrics, log)
	fetcher, err := signing.NewFetcher(cfg.Fetch, signer, metrics, log)
	if err != nil {
		return nil, err
	}
	uploader := signing.NewUploader(cfg.Upload, o.storage, cfg.Storage.MaxFileSizeBytes(), metrics, log)

	var guards []gin.HandlerFunc
	guard, err := auth.Guard(cfg.Auth)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		guards = append(guards, guard)
	}

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware(middleware.NewHTTPMetrics(reg))
	srv.RegisterDefaultEndpoints(server.Endpoints{
		ServiceName: app.Name,
		Health:      app.Components.HealthAll,
		Info: func() map[string]any {
			return map[string]any{
				"storage_provider": cfg.Storage.Provider,
				"bucket":           cfg.Storage.Bucket,
				"public_fallback":  cfg.Presign.PublicFallback,
				"max_batch":        cfg.Presign.MaxBatch,
				"ttl_seconds":      int(cfg.Presign.TTL.Seconds()),
				"upload_auth":      cfg.Auth.Enabled(),
			}
		},
		Gatherer: reg,
	})
	signing.NewHandler(signer, fetcher, uploader, log).RegisterRoutes(srv.Engine(), guards...)

	components := []component.Component{
		observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment, log),
		o.storage,
		server.NewComponent(srv),
	}
	for _, c := range components {
		if err := app.RegisterComponent(c); err != nil {
			return nil, err
		}
	}

	app.Summary.TrackSetting("presign.max_batch", strconv.Itoa(cfg.Presign.MaxBatch))
	app.Summary.TrackSetting("presign.ttl", cfg.Presign.TTL.String())
	app.Summary.TrackSetting("presign.public_fallback", strconv.FormatBool(cfg.Presign.PublicFallback))
	app.Summary.TrackSetting("upload.auth", cfg.Auth.Describe())

	return &Service{
		Server:   srv,
		Storage:  o.storage,
		Signer:   signer,
		Registry: reg,
	}, nil
}
