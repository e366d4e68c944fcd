package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appcatalog "github.com/vetpms/backend/internal/application/catalog"
	"github.com/vetpms/backend/internal/domain/catalog"
)

// RedisProductIndex implements the product read-through cache on Redis.
// This is suitable for distributed deployments where multiple instances
// need to share cached catalog entries.
type RedisProductIndex struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

// NewRedisProductIndex creates a new Redis-backed product index
func NewRedisProductIndex(cfg RedisConfig) (*RedisProductIndex, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &RedisProductIndex{
		client:    client,
		keyPrefix: "catalog:product:",
		ttl:       ttl,
	}, nil
}

// NewRedisProductIndexWithClient creates an index with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisProductIndexWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisProductIndex {
	if keyPrefix == "" {
		keyPrefix = "catalog:product:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisProductIndex{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (i *RedisProductIndex) key(tenantID, productID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", i.keyPrefix, tenantID, productID)
}

// Get returns the cached product, or nil on a miss
func (i *RedisProductIndex) Get(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.Product, error) {
	raw, err := i.client.Get(ctx, i.key(tenantID, productID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached product: %w", err)
	}

	var product catalog.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		// A corrupt entry behaves like a miss; the caller refills it
		return nil, nil
	}
	return &product, nil
}

// Put caches a product with the configured TTL
func (i *RedisProductIndex) Put(ctx context.Context, product *catalog.Product) error {
	raw, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to encode product for cache: %w", err)
	}

	if err := i.client.Set(ctx, i.key(product.TenantID, product.ID), raw, i.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache product: %w", err)
	}
	return nil
}

// Invalidate drops a product from the cache
func (i *RedisProductIndex) Invalidate(ctx context.Context, tenantID, productID uuid.UUID) error {
	if err := i.client.Del(ctx, i.key(tenantID, productID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached product: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (i *RedisProductIndex) Close() error {
	return i.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (i *RedisProductIndex) GetClient() *redis.Client {
	return i.client
}

// Ensure RedisProductIndex implements ProductIndex
var _ appcatalog.ProductIndex = (*RedisProductIndex)(nil)
