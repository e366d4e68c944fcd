package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetpms/backend/internal/domain/shared"
)

// BatchRepository defines the interface for product batch persistence
type BatchRepository interface {
	// FindByIDForTenant finds a batch by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ProductBatch, error)

	// FindActiveByProduct finds all active batches of a product, ordered
	// earliest expiry first with nil expiry dates last
	FindActiveByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]ProductBatch, error)

	// FindByProduct finds all batches of a product regardless of status
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]ProductBatch, error)

	// CountByProduct counts batches of a product
	CountByProduct(ctx context.Context, tenantID, productID uuid.UUID) (int64, error)

	// Save creates or updates a batch
	Save(ctx context.Context, batch *ProductBatch) error
}

// MovementRepository defines the interface for the stock movement ledger.
// The ledger is append-only: there is no update or delete.
type MovementRepository interface {
	// Create appends a movement record
	Create(ctx context.Context, movement *StockMovement) error

	// FindByProduct finds movements of a product, newest first
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]StockMovement, error)

	// FindByReference finds movements linked to a source document such
	// as an invoice
	FindByReference(ctx context.Context, tenantID, referenceID uuid.UUID) ([]StockMovement, error)

	// CountByProduct counts movements of a product
	CountByProduct(ctx context.Context, tenantID, productID uuid.UUID) (int64, error)

	// SumQuantityByProduct sums the signed quantities of all movements of
	// a product, which equals the aggregate stock level when the ledger
	// is complete
	SumQuantityByProduct(ctx context.Context, tenantID, productID uuid.UUID) (decimal.Decimal, error)
}
