package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetpms/backend/internal/domain/shared"
)

// MovementType represents the type of stock movement
type MovementType string

const (
	// MovementTypeSale records a deduction made when an invoice is paid
	MovementTypeSale MovementType = "sale"
	// MovementTypeIntake records stock received into a batch
	MovementTypeIntake MovementType = "intake"
	// MovementTypeAdjustment records a manual stock correction
	MovementTypeAdjustment MovementType = "adjustment"
)

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeSale, MovementTypeIntake, MovementTypeAdjustment:
		return true
	}
	return false
}

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// StockMovement is an immutable ledger record of one stock change.
// Quantity is signed: negative for deductions, positive for intake.
// PreviousStock and NewStock describe the product aggregate level at
// the time of the movement, so NewStock = PreviousStock + Quantity
// holds for every record. Corrections are made with new adjustment
// movements, never by editing existing rows.
type StockMovement struct {
	shared.BaseEntity
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_tenant_time,priority:1"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_product"`
	BatchID       *uuid.UUID      `gorm:"type:uuid;index"`
	MovementType  MovementType    `gorm:"type:varchar(20);not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PreviousStock decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	NewStock      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReferenceID   *uuid.UUID      `gorm:"type:uuid;index"`
	StaffMember   uuid.UUID       `gorm:"type:uuid;not null"`
	Notes         string          `gorm:"type:varchar(255)"`
	OccurredAt    time.Time       `gorm:"not null;index:idx_movement_tenant_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a new ledger record. The quantity must be
// non-zero and consistent with the before/after stock levels.
func NewStockMovement(
	tenantID, productID uuid.UUID,
	movementType MovementType,
	quantity, previousStock, newStock decimal.Decimal,
	staffMember uuid.UUID,
) (*StockMovement, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}
	if staffMember == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STAFF", "Staff member ID cannot be empty")
	}
	if !newStock.Equal(previousStock.Add(quantity)) {
		return nil, shared.NewDomainError("INCONSISTENT_MOVEMENT", "New stock must equal previous stock plus quantity")
	}

	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      tenantID,
		ProductID:     productID,
		MovementType:  movementType,
		Quantity:      quantity,
		PreviousStock: previousStock,
		NewStock:      newStock,
		StaffMember:   staffMember,
		OccurredAt:    time.Now(),
	}, nil
}

// WithBatch links the movement to the batch it depleted or filled
func (m *StockMovement) WithBatch(batchID uuid.UUID) *StockMovement {
	m.BatchID = &batchID
	return m
}

// WithReference links the movement to its source document, such as the
// invoice that triggered a sale deduction
func (m *StockMovement) WithReference(referenceID uuid.UUID) *StockMovement {
	m.ReferenceID = &referenceID
	return m
}

// WithNotes attaches a free-form note to the movement
func (m *StockMovement) WithNotes(notes string) *StockMovement {
	m.Notes = notes
	return m
}
