package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	appcatalog "github.com/vetpms/backend/internal/application/catalog"
	"github.com/vetpms/backend/internal/domain/catalog"
)

type indexEntry struct {
	product   catalog.Product
	expiresAt time.Time
}

// InMemoryProductIndex implements the product read-through cache with an
// in-memory map. This is suitable for single-instance deployments and
// testing.
type InMemoryProductIndex struct {
	mu        sync.RWMutex
	entries   map[string]indexEntry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryProductIndex creates a new in-memory product index.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryProductIndex(ttl time.Duration) *InMemoryProductIndex {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	index := &InMemoryProductIndex{
		entries:  make(map[string]indexEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	index.wg.Add(1)
	go index.cleanupLoop()

	return index
}

func indexKey(tenantID, productID uuid.UUID) string {
	return tenantID.String() + ":" + productID.String()
}

// Get returns the cached product, or nil on a miss
func (i *InMemoryProductIndex) Get(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.Product, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	e, exists := i.entries[indexKey(tenantID, productID)]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, nil
	}

	product := e.product
	return &product, nil
}

// Put caches a product with the configured TTL
func (i *InMemoryProductIndex) Put(ctx context.Context, product *catalog.Product) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.entries[indexKey(product.TenantID, product.ID)] = indexEntry{
		product:   *product,
		expiresAt: time.Now().Add(i.ttl),
	}
	return nil
}

// Invalidate drops a product from the cache
func (i *InMemoryProductIndex) Invalidate(ctx context.Context, tenantID, productID uuid.UUID) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.entries, indexKey(tenantID, productID))
	return nil
}

// Close stops the cleanup goroutine and releases resources.
// Safe to call multiple times.
func (i *InMemoryProductIndex) Close() error {
	i.closeOnce.Do(func() {
		close(i.stopChan)
		i.wg.Wait()
	})
	return nil
}

func (i *InMemoryProductIndex) cleanupLoop() {
	defer i.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-i.stopChan:
			return
		case <-ticker.C:
			i.removeExpired()
		}
	}
}

func (i *InMemoryProductIndex) removeExpired() {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := time.Now()
	for key, e := range i.entries {
		if now.After(e.expiresAt) {
			delete(i.entries, key)
		}
	}
}

// Ensure InMemoryProductIndex implements ProductIndex
var _ appcatalog.ProductIndex = (*InMemoryProductIndex)(nil)
