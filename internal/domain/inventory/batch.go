package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetpms/backend/internal/domain/shared"
)

// BatchStatus represents the lifecycle status of a batch
type BatchStatus string

const (
	BatchStatusActive   BatchStatus = "active"
	BatchStatusDepleted BatchStatus = "depleted"
)

// ProductBatch represents a physical lot of a product with its own
// expiry date and quantity. Depletion walks batches earliest expiry
// first; batches without an expiry date are used last.
type ProductBatch struct {
	shared.BaseEntity
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_batch_tenant_product,priority:1"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_batch_tenant_product,priority:2"`
	BatchNumber    string          `gorm:"type:varchar(50);not null"`
	ExpiryDate     *time.Time
	QuantityOnHand decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status         BatchStatus     `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (ProductBatch) TableName() string {
	return "product_batches"
}

// NewProductBatch creates a new batch with the given opening quantity
func NewProductBatch(
	tenantID, productID uuid.UUID,
	batchNumber string,
	expiryDate *time.Time,
	quantity decimal.Decimal,
) (*ProductBatch, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if strings.TrimSpace(batchNumber) == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_NUMBER", "Batch number cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Batch quantity must be positive")
	}

	return &ProductBatch{
		BaseEntity:     shared.NewBaseEntity(),
		TenantID:       tenantID,
		ProductID:      productID,
		BatchNumber:    strings.TrimSpace(batchNumber),
		ExpiryDate:     expiryDate,
		QuantityOnHand: quantity,
		Status:         BatchStatusActive,
	}, nil
}

// Deduct reduces the batch quantity, clamping at zero. It returns the
// amount actually taken. A batch that reaches zero is marked depleted.
func (b *ProductBatch) Deduct(quantity decimal.Decimal) decimal.Decimal {
	taken := quantity
	if taken.GreaterThan(b.QuantityOnHand) {
		taken = b.QuantityOnHand
	}

	b.QuantityOnHand = b.QuantityOnHand.Sub(taken)
	if b.QuantityOnHand.IsZero() {
		b.Status = BatchStatusDepleted
	}
	b.UpdatedAt = time.Now()

	return taken
}

// Replenish raises the batch quantity, reactivating a depleted batch
func (b *ProductBatch) Replenish(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Replenish quantity must be positive")
	}

	b.QuantityOnHand = b.QuantityOnHand.Add(quantity)
	if b.Status == BatchStatusDepleted {
		b.Status = BatchStatusActive
	}
	b.UpdatedAt = time.Now()

	return nil
}

// HasStock returns true if the batch has quantity left to deplete
func (b *ProductBatch) HasStock() bool {
	return b.QuantityOnHand.IsPositive() && b.Status == BatchStatusActive
}

// IsExpired returns true if the batch expiry date has passed
func (b *ProductBatch) IsExpired() bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(time.Now())
}

// DaysUntilExpiry returns the number of days until expiry, -1 if the
// batch has no expiry date
func (b *ProductBatch) DaysUntilExpiry() int {
	if b.ExpiryDate == nil {
		return -1
	}
	return int(time.Until(*b.ExpiryDate).Hours() / 24)
}
