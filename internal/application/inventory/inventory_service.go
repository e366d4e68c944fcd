package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vetpms/backend/internal/domain/catalog"
	"github.com/vetpms/backend/internal/domain/inventory"
	"github.com/vetpms/backend/internal/domain/shared"
)

// InventoryService handles stock intake and ledger queries
type InventoryService struct {
	products  catalog.ProductRepository
	batches   inventory.BatchRepository
	movements inventory.MovementRepository
	locks     *productLocks
	logger    *zap.Logger
}

// NewInventoryService creates a new InventoryService. It shares the
// reconciliation service's per-product locks so intake and depletion
// never interleave on the same product within this process.
func NewInventoryService(
	products catalog.ProductRepository,
	batches inventory.BatchRepository,
	movements inventory.MovementRepository,
	recon *ReconciliationService,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		products:  products,
		batches:   batches,
		movements: movements,
		locks:     recon.locks,
		logger:    logger,
	}
}

// ReceiveBatch records a stock intake: it creates the batch, raises the
// product's aggregate level and appends an intake movement to the ledger.
func (s *InventoryService) ReceiveBatch(ctx context.Context, tenantID, productID, staffID uuid.UUID, req CreateBatchRequest) (*inventory.ProductBatch, error) {
	if staffID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STAFF", "Staff member ID is required for stock intake")
	}

	quantity := decimal.NewFromFloat(req.Quantity)
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Intake quantity must be positive")
	}

	unlock := s.locks.Lock(tenantID, productID)
	defer unlock()

	product, err := s.products.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsTrackable() {
		return nil, shared.NewDomainError("NOT_TRACKABLE", fmt.Sprintf("Stock is not tracked for %s", product.Name))
	}

	batch, err := inventory.NewProductBatch(tenantID, productID, req.BatchNumber, req.ExpiryDate, quantity)
	if err != nil {
		return nil, err
	}

	previous, err := product.ReceiveStock(quantity)
	if err != nil {
		return nil, err
	}

	movement, err := inventory.NewStockMovement(
		tenantID, productID, inventory.MovementTypeIntake,
		quantity, previous, product.TotalStock,
		staffID,
	)
	if err != nil {
		return nil, err
	}
	movement.WithBatch(batch.ID)

	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, fmt.Errorf("saving batch: %w", err)
	}
	if err := s.products.SaveWithVersion(ctx, product); err != nil {
		return nil, fmt.Errorf("updating product stock: %w", err)
	}
	if err := s.movements.Create(ctx, movement); err != nil {
		return nil, fmt.Errorf("recording intake movement: %w", err)
	}

	s.logger.Info("stock intake recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", productID.String()),
		zap.String("batch_number", batch.BatchNumber),
		zap.String("quantity", quantity.String()),
	)

	return batch, nil
}

// ListBatches returns the batches of a product
func (s *InventoryService) ListBatches(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]BatchResponse, int64, error) {
	batches, err := s.batches.FindByProduct(ctx, tenantID, productID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.batches.CountByProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]BatchResponse, len(batches))
	for i := range batches {
		responses[i] = NewBatchResponse(&batches[i])
	}
	return responses, total, nil
}

// ListMovementsByProduct returns a product's ledger records, newest first
func (s *InventoryService) ListMovementsByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]MovementResponse, int64, error) {
	movements, err := s.movements.FindByProduct(ctx, tenantID, productID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.movements.CountByProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = NewMovementResponse(&movements[i])
	}
	return responses, total, nil
}

// ListMovementsByReference returns the ledger records linked to a source
// document such as an invoice
func (s *InventoryService) ListMovementsByReference(ctx context.Context, tenantID, referenceID uuid.UUID) ([]MovementResponse, error) {
	movements, err := s.movements.FindByReference(ctx, tenantID, referenceID)
	if err != nil {
		return nil, err
	}

	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = NewMovementResponse(&movements[i])
	}
	return responses, nil
}
