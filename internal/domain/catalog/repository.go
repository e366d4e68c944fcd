package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/vetpms/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByIDForTenant finds a product by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)

	// FindBySKUForTenant finds a product by its SKU within a tenant
	FindBySKUForTenant(ctx context.Context, tenantID uuid.UUID, sku string) (*Product, error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error)

	// FindAllForTenant finds all products for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Product, error)

	// CountForTenant counts products for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// ExistsBySKUForTenant checks if a product with the given SKU exists in the tenant
	ExistsBySKUForTenant(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// SaveWithVersion updates a product only if the stored row still carries
	// the version the product was loaded with. Returns
	// shared.ErrConcurrencyConflict when another writer got there first.
	SaveWithVersion(ctx context.Context, product *Product) error
}
