package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetpms/backend/internal/domain/inventory"
)

// DeductionLine is one product quantity to deplete when an invoice is paid
type DeductionLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// Shortfall describes a product whose aggregate stock cannot cover the
// requested quantity. Missing marks a line whose product could not be
// resolved at all; those block a paid transition just like insufficient
// stock does.
type Shortfall struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Available   decimal.Decimal `json:"available"`
	Required    decimal.Decimal `json:"required"`
	Missing     bool            `json:"missing,omitempty"`
}

// Describe returns the human-readable form used in error messages
func (s Shortfall) Describe() string {
	if s.Missing {
		return fmt.Sprintf("missing product %s (required %s)", s.ProductID, s.Required.String())
	}
	return fmt.Sprintf("%s (available %s, required %s)", s.ProductName, s.Available.String(), s.Required.String())
}

// ReconciliationResult summarizes one reconciliation run. Errors holds
// advisory problems encountered while depleting; the run itself still
// completed for every product it could.
type ReconciliationResult struct {
	InvoiceID uuid.UUID                  `json:"invoice_id"`
	Movements []*inventory.StockMovement `json:"movements"`
	Errors    []string                   `json:"errors,omitempty"`
}

// HasErrors returns true when any advisory error was recorded
func (r *ReconciliationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// CreateBatchRequest represents a stock intake request
type CreateBatchRequest struct {
	BatchNumber string     `json:"batch_number" binding:"required,max=50"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	Quantity    float64    `json:"quantity" binding:"required,gt=0"`
}

// BatchResponse represents a product batch in API responses
type BatchResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	BatchNumber    string          `json:"batch_number"`
	ExpiryDate     *time.Time      `json:"expiry_date"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewBatchResponse converts a batch to its API representation
func NewBatchResponse(batch *inventory.ProductBatch) BatchResponse {
	return BatchResponse{
		ID:             batch.ID,
		ProductID:      batch.ProductID,
		BatchNumber:    batch.BatchNumber,
		ExpiryDate:     batch.ExpiryDate,
		QuantityOnHand: batch.QuantityOnHand,
		Status:         string(batch.Status),
		CreatedAt:      batch.CreatedAt,
	}
}

// MovementResponse represents a ledger record in API responses
type MovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	BatchID       *uuid.UUID      `json:"batch_id"`
	MovementType  string          `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	NewStock      decimal.Decimal `json:"new_stock"`
	ReferenceID   *uuid.UUID      `json:"reference_id"`
	StaffMember   uuid.UUID       `json:"staff_member"`
	Notes         string          `json:"notes,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewMovementResponse converts a movement to its API representation
func NewMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		BatchID:       m.BatchID,
		MovementType:  m.MovementType.String(),
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		ReferenceID:   m.ReferenceID,
		StaffMember:   m.StaffMember,
		Notes:         m.Notes,
		OccurredAt:    m.OccurredAt,
	}
}

// MovementListFilter represents filter options for movement queries
type MovementListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}
