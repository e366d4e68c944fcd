package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vetpms/backend/internal/domain/catalog"
	"github.com/vetpms/backend/internal/domain/inventory"
	"github.com/vetpms/backend/internal/domain/shared"
	"github.com/vetpms/backend/internal/infrastructure/telemetry"
)

// ShortfallPolicy controls what happens when a reconciliation run cannot
// deduct the full quantity for a product.
type ShortfallPolicy string

const (
	// ShortfallPolicyReport keeps the partial deduction and reports the
	// shortfall alongside the paid invoice
	ShortfallPolicyReport ShortfallPolicy = "report"
	// ShortfallPolicyRevert rolls the whole depletion back and fails the
	// paid transition
	ShortfallPolicyRevert ShortfallPolicy = "revert"
)

// IsValid returns true if the policy is a known shortfall policy
func (p ShortfallPolicy) IsValid() bool {
	return p == ShortfallPolicyReport || p == ShortfallPolicyRevert
}

// ErrReconciliationShortfall signals that a revert-policy run rolled back
// because the stock could not cover the invoice.
var ErrReconciliationShortfall = shared.NewDomainError("RECONCILIATION_SHORTFALL", "Stock could not cover the invoice; depletion rolled back")

// ReconciliationService depletes stock when an invoice transitions to
// paid. Depletion walks a product's batches earliest expiry first,
// records one ledger movement per depleted batch, and aggregates
// problems as advisory errors instead of failing the payment.
type ReconciliationService struct {
	products  catalog.ProductRepository
	batches   inventory.BatchRepository
	movements inventory.MovementRepository
	txScope   TransactionScope
	locks     *productLocks
	policy    ShortfallPolicy
	logger    *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	products catalog.ProductRepository,
	batches inventory.BatchRepository,
	movements inventory.MovementRepository,
	txScope TransactionScope,
	policy ShortfallPolicy,
	logger *zap.Logger,
) *ReconciliationService {
	if !policy.IsValid() {
		policy = ShortfallPolicyReport
	}
	return &ReconciliationService{
		products:  products,
		batches:   batches,
		movements: movements,
		txScope:   txScope,
		locks:     newProductLocks(),
		policy:    policy,
		logger:    logger,
	}
}

// Policy returns the configured shortfall policy
func (s *ReconciliationService) Policy() ShortfallPolicy {
	return s.policy
}

// CheckSufficiency verifies that every product on the invoice resolves
// and that its aggregate stock covers the requested quantity. It returns
// the shortfalls found; an empty slice means the invoice can be paid.
// A line whose product does not exist is a blocking shortfall, not an
// advisory one.
func (s *ReconciliationService) CheckSufficiency(ctx context.Context, tenantID uuid.UUID, lines []DeductionLine) ([]Shortfall, error) {
	needed := aggregateLines(lines)
	if len(needed) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(needed))
	for _, line := range needed {
		ids = append(ids, line.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("loading products for sufficiency check: %w", err)
	}

	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	var shortfalls []Shortfall
	for _, line := range needed {
		product, ok := byID[line.ProductID]
		if !ok {
			shortfalls = append(shortfalls, Shortfall{
				ProductID: line.ProductID,
				Available: decimal.Zero,
				Required:  line.Quantity,
				Missing:   true,
			})
			continue
		}
		if !product.IsTrackable() {
			continue
		}
		if !product.CanFulfill(line.Quantity) {
			shortfalls = append(shortfalls, Shortfall{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.TotalStock,
				Required:    line.Quantity,
			})
		}
	}

	return shortfalls, nil
}

// Reconcile depletes stock for a paid invoice. Under the report policy
// every problem is advisory: the run deducts what it can and returns the
// errors on the result. Under the revert policy the whole depletion runs
// in one transaction and rolls back with ErrReconciliationShortfall when
// any advisory error occurs.
func (s *ReconciliationService) Reconcile(ctx context.Context, tenantID, invoiceID, staffID uuid.UUID, lines []DeductionLine) (*ReconciliationResult, error) {
	if staffID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STAFF", "Staff member ID is required for reconciliation")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "reconcile",
		telemetry.WithAttribute("tenant_id", tenantID.String()),
		telemetry.WithAttribute("invoice_id", invoiceID.String()),
		telemetry.WithAttribute("line_count", len(lines)),
	)
	defer span.End()

	needed := aggregateLines(lines)
	result := &ReconciliationResult{InvoiceID: invoiceID}
	if len(needed) == 0 {
		return result, nil
	}

	if s.policy == ShortfallPolicyRevert {
		err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			s.deplete(ctx, repos.Products(), repos.Batches(), repos.Movements(), tenantID, invoiceID, staffID, needed, result)
			if result.HasErrors() {
				return ErrReconciliationShortfall
			}
			return nil
		})
		if err != nil {
			telemetry.RecordError(span, err)
			return result, err
		}
		return result, nil
	}

	s.deplete(ctx, s.products, s.batches, s.movements, tenantID, invoiceID, staffID, needed, result)

	if result.HasErrors() {
		telemetry.AddEvent(span, "reconciliation_errors", "count", len(result.Errors))
		s.logger.Warn("reconciliation completed with errors",
			zap.String("tenant_id", tenantID.String()),
			zap.String("invoice_id", invoiceID.String()),
			zap.Strings("errors", result.Errors),
		)
	}

	return result, nil
}

func (s *ReconciliationService) deplete(
	ctx context.Context,
	products catalog.ProductRepository,
	batches inventory.BatchRepository,
	movements inventory.MovementRepository,
	tenantID, invoiceID, staffID uuid.UUID,
	needed []DeductionLine,
	result *ReconciliationResult,
) {
	for _, line := range needed {
		unlock := s.locks.Lock(tenantID, line.ProductID)
		s.depleteProduct(ctx, products, batches, movements, tenantID, invoiceID, staffID, line, result)
		unlock()
	}
}

func (s *ReconciliationService) depleteProduct(
	ctx context.Context,
	products catalog.ProductRepository,
	batches inventory.BatchRepository,
	movements inventory.MovementRepository,
	tenantID, invoiceID, staffID uuid.UUID,
	line DeductionLine,
	result *ReconciliationResult,
) {
	product, err := products.FindByIDForTenant(ctx, tenantID, line.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("Missing product (%s).", line.ProductID))
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
		return
	}
	if !product.IsTrackable() {
		return
	}

	active, err := batches.FindActiveByProduct(ctx, tenantID, product.ID)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}

	remaining := line.Quantity

	if len(active) == 0 {
		// No batch records for this product: deduct against the
		// aggregate level alone and record a single movement without a
		// batch reference.
		remaining = s.depleteAggregateOnly(ctx, products, movements, tenantID, invoiceID, staffID, product, remaining, result)
	} else {
		sorted := inventory.SortBatchesFEFO(active)
		for i := range sorted {
			if !remaining.IsPositive() {
				break
			}
			remaining = s.depleteBatchStep(ctx, products, batches, movements, tenantID, invoiceID, staffID, product, &sorted[i], remaining, result)
		}
	}

	if remaining.IsPositive() {
		result.Errors = append(result.Errors, fmt.Sprintf("Not enough stock deducted for %s (short %s).", product.Name, remaining.String()))
	}
}

// depleteAggregateOnly handles products with no batch records. Returns
// the quantity still outstanding.
func (s *ReconciliationService) depleteAggregateOnly(
	ctx context.Context,
	products catalog.ProductRepository,
	movements inventory.MovementRepository,
	tenantID, invoiceID, staffID uuid.UUID,
	product *catalog.Product,
	remaining decimal.Decimal,
	result *ReconciliationResult,
) decimal.Decimal {
	previous, deducted, err := product.Deduct(remaining)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return remaining
	}
	if !deducted.IsPositive() {
		return remaining
	}

	movement, err := inventory.NewStockMovement(
		tenantID, product.ID, inventory.MovementTypeSale,
		deducted.Neg(), previous, product.TotalStock,
		staffID,
	)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return remaining
	}
	movement.WithReference(invoiceID)

	if err := products.SaveWithVersion(ctx, product); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return remaining
	}
	if err := movements.Create(ctx, movement); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return remaining
	}

	result.Movements = append(result.Movements, movement)
	return remaining.Sub(deducted)
}

// depleteBatchStep takes as much as possible from one batch and records
// the movement against the product aggregate. On any persistence failure
// the outstanding quantity is returned unchanged so later batches can
// still cover it.
func (s *ReconciliationService) depleteBatchStep(
	ctx context.Context,
	products catalog.ProductRepository,
	batches inventory.BatchRepository,
	movements inventory.MovementRepository,
	tenantID, invoiceID, staffID uuid.UUID,
	product *catalog.Product,
	batch *inventory.ProductBatch,
	remaining decimal.Decimal,
	result *ReconciliationResult,
) decimal.Decimal {
	if !batch.HasStock() {
		return remaining
	}

	take := decimal.Min(batch.QuantityOnHand, remaining)
	taken := batch.Deduct(take)

	previous, deducted, err := product.Deduct(taken)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return remaining
	}
	if !deducted.IsPositive() {
		result.Errors = append(result.Errors, fmt.Sprintf("Stock level for %s is out of sync with its batches.", product.Name))
		return remaining
	}

	movement, err := inventory.NewStockMovement(
		tenantID, product.ID, inventory.MovementTypeSale,
		deducted.Neg(), previous, product.TotalStock,
		staffID,
	)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return remaining
	}
	movement.WithBatch(batch.ID).WithReference(invoiceID)

	if err := batches.Save(ctx, batch); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return remaining
	}
	if err := products.SaveWithVersion(ctx, product); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			// Another writer changed the product between our load and
			// save. Resync so later steps work from the stored level.
			if fresh, loadErr := products.FindByIDForTenant(ctx, tenantID, product.ID); loadErr == nil {
				*product = *fresh
			}
		}
		result.Errors = append(result.Errors, err.Error())
		return remaining
	}
	if err := movements.Create(ctx, movement); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return remaining
	}

	result.Movements = append(result.Movements, movement)
	return remaining.Sub(deducted)
}

// aggregateLines merges duplicate product references, preserving the
// order products first appear in
func aggregateLines(lines []DeductionLine) []DeductionLine {
	merged := make([]DeductionLine, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))

	for _, line := range lines {
		if line.ProductID == uuid.Nil || !line.Quantity.IsPositive() {
			continue
		}
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity = merged[i].Quantity.Add(line.Quantity)
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}

	return merged
}
