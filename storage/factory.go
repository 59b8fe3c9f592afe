package storage

import (
	"fmt"
	"sync"

	"github.com/estatly/mediasign/errors"
	"github.com/estatly/mediasign/logger"
)

// StorageFactory creates a Storage implementation from configuration.
type StorageFactory func(cfg Config, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]StorageFactory)
)

// RegisterFactory registers a storage backend factory for the given provider name.
// Provider packages call this from init so that importing them is enough.
func RegisterFactory(name string, f StorageFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New creates the Storage selected by cfg.Provider. When required settings
// are absent it returns a MISCONFIGURED AppError naming them.
func New(cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if missing := cfg.Missing(); len(missing) > 0 {
		return nil, errors.Misconfigured(missing...)
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: provider %q not registered", cfg.Provider)
	}

	l := log.WithComponent("storage")
	l.Info("initializing storage", logger.Fields("provider", cfg.Provider, "bucket", cfg.Bucket))
	return f(cfg, l)
}
