// Package cache stores short-lived computed views such as dashboard aggregates.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/straye-as/finance-api/internal/config"
	"go.uber.org/zap"
)

// Cache is a JSON value cache with per-entry expiry
type Cache interface {
	// Get decodes the cached value into dest and reports whether it was found
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix
	DeletePrefix(ctx context.Context, prefix string) error
}

// Pinger is implemented by backends that can lose their connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// New selects the backend configured by cfg.Mode
func New(cfg *config.CacheConfig, logger *zap.Logger) (Cache, error) {
	switch cfg.Mode {
	case "redis":
		return NewRedisCache(cfg, logger)
	case "memory", "":
		return NewMemoryCache(), nil
	case "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache mode: %s", cfg.Mode)
	}
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(context.Context, string, any) (bool, error)        { return false, nil }
func (Nop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Nop) DeletePrefix(context.Context, string) error            { return nil }
