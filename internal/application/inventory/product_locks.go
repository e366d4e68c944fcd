package inventory

import (
	"sync"

	"github.com/google/uuid"
)

// productLocks serializes depletion per tenant and product within this
// process. Cross-process writers are guarded by the optimistic version
// check on product saves.
type productLocks struct {
	mu    sync.Mutex
	locks map[lockKey]*sync.Mutex
}

type lockKey struct {
	tenantID  uuid.UUID
	productID uuid.UUID
}

func newProductLocks() *productLocks {
	return &productLocks{
		locks: make(map[lockKey]*sync.Mutex),
	}
}

// Lock acquires the mutex for the given tenant and product, returning
// the unlock function
func (p *productLocks) Lock(tenantID, productID uuid.UUID) func() {
	key := lockKey{tenantID: tenantID, productID: productID}

	p.mu.Lock()
	m, ok := p.locks[key]
	if !ok {
		m = &sync.Mutex{}
		p.locks[key] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}
