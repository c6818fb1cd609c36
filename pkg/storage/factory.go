package storage

import (
	"context"
	"fmt"
)

// BackendConstructor is a function that creates a backend instance
type BackendConstructor func(ctx context.Context, cfg Config) (Backend, error)

var backendRegistry = make(map[string]BackendConstructor)

// RegisterBackend registers a backend constructor. Backend packages call
// it from init, so the binary must import them for their side effects.
func RegisterBackend(backendType string, constructor BackendConstructor) {
	backendRegistry[backendType] = constructor
}

// Factory creates storage backends from destination entries
type Factory struct{}

// NewFactory creates a new factory instance
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a backend from config
func (f *Factory) Create(ctx context.Context, cfg Config) (Backend, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("destination %s is disabled", cfg.Name)
	}

	constructor, ok := backendRegistry[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("destination %s: unknown backend type %q: %w", cfg.Name, cfg.Type, ErrInvalidConfig)
	}

	return constructor(ctx, cfg)
}

// CreateAll creates every enabled destination, in order. On failure the
// backends created so far are closed.
func (f *Factory) CreateAll(ctx context.Context, configs []Config) ([]Backend, error) {
	backends := make([]Backend, 0, len(configs))
	seen := make(map[string]bool, len(configs))

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		if seen[cfg.Name] {
			CloseAll(backends)
			return nil, fmt.Errorf("destination %s is defined twice: %w", cfg.Name, ErrInvalidConfig)
		}
		seen[cfg.Name] = true

		backend, err := f.Create(ctx, cfg)
		if err != nil {
			CloseAll(backends)
			return nil, fmt.Errorf("failed to create destination %s: %w", cfg.Name, err)
		}

		backends = append(backends, backend)
	}

	return backends, nil
}

// CloseAll closes every backend, ignoring errors.
func CloseAll(backends []Backend) {
	for _, b := range backends {
		_ = b.Close()
	}
}
