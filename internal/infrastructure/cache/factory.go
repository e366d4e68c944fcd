package cache

import (
	"fmt"

	"go.uber.org/zap"

	appcatalog "github.com/vetpms/backend/internal/application/catalog"
	"github.com/vetpms/backend/internal/infrastructure/config"
)

// ProductIndexFactory creates product indexes based on configuration
type ProductIndexFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ProductIndexFactoryOption is a functional option for configuring the factory
type ProductIndexFactoryOption func(*ProductIndexFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ProductIndexFactoryOption {
	return func(f *ProductIndexFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory
// index when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) ProductIndexFactoryOption {
	return func(f *ProductIndexFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewProductIndexFactory creates a new factory
func NewProductIndexFactory(cfg config.RedisConfig, opts ...ProductIndexFactoryOption) *ProductIndexFactory {
	f := &ProductIndexFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Create builds a product index for the configured backend. When Redis is
// disabled it returns the in-memory index; when Redis is enabled but
// unreachable it falls back to in-memory unless fallback is disallowed.
func (f *ProductIndexFactory) Create() (appcatalog.ProductIndex, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory product index")
		return NewInMemoryProductIndex(f.redisConfig.CacheTTL), nil
	}

	index, err := NewRedisProductIndex(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
		CacheTTL: f.redisConfig.CacheTTL,
	})
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("failed to create Redis product index: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory product index",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Error(err),
		)
		return NewInMemoryProductIndex(f.redisConfig.CacheTTL), nil
	}

	f.logger.Info("Using Redis product index",
		zap.String("addr", f.redisConfig.Addr()),
		zap.Duration("cache_ttl", f.redisConfig.CacheTTL),
	)
	return index, nil
}
