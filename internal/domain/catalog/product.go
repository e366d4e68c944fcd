package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetpms/backend/internal/domain/shared"
)

// ProductCategory classifies a product for reporting and clinic workflows
type ProductCategory string

const (
	CategoryMedication  ProductCategory = "medication"
	CategoryVaccine     ProductCategory = "vaccine"
	CategoryConsumable  ProductCategory = "consumable"
	CategoryFood        ProductCategory = "food"
	CategoryService     ProductCategory = "service"
	CategoryUnspecified ProductCategory = "unspecified"
)

// Product represents a sellable item in the practice catalog.
// It is the aggregate root for stock-bearing operations: TotalStock is the
// denormalized sum of all batch quantities and is the level the reconciliation
// ledger reports against.
type Product struct {
	shared.TenantAggregateRoot
	// Uniqueness of SKU is scoped per tenant; the composite unique
	// index lives in the migrations.
	SKU         string          `gorm:"type:varchar(50);not null;index:idx_product_sku"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Category    ProductCategory `gorm:"type:varchar(20);not null;default:'unspecified'"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalStock  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Trackable   bool            `gorm:"not null;default:true"` // false for services and fees
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product with zero stock
func NewProduct(tenantID uuid.UUID, sku, name string, category ProductCategory) (*Product, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if category == "" {
		category = CategoryUnspecified
	}

	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 strings.ToUpper(sku),
		Name:                name,
		Category:            category,
		UnitPrice:           decimal.Zero,
		TotalStock:          decimal.Zero,
		Trackable:           category != CategoryService,
	}, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	if err := validateName(name); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetUnitPrice sets the selling price
func (p *Product) SetUnitPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	p.UnitPrice = price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// CanFulfill reports whether the aggregate stock level covers the
// requested quantity.
func (p *Product) CanFulfill(quantity decimal.Decimal) bool {
	return p.TotalStock.GreaterThanOrEqual(quantity)
}

// Deduct lowers the aggregate stock level by up to quantity, clamping at
// zero. It returns the stock level before the deduction and the amount
// actually deducted, which the caller records on the movement ledger.
func (p *Product) Deduct(quantity decimal.Decimal) (previous, deducted decimal.Decimal, err error) {
	if !quantity.IsPositive() {
		return decimal.Zero, decimal.Zero, shared.NewDomainError("INVALID_QUANTITY", "Deduction quantity must be positive")
	}

	previous = p.TotalStock
	deducted = quantity
	if deducted.GreaterThan(p.TotalStock) {
		deducted = p.TotalStock
	}

	p.TotalStock = p.TotalStock.Sub(deducted)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return previous, deducted, nil
}

// ReceiveStock raises the aggregate stock level, returning the level
// before the intake.
func (p *Product) ReceiveStock(quantity decimal.Decimal) (previous decimal.Decimal, err error) {
	if !quantity.IsPositive() {
		return decimal.Zero, shared.NewDomainError("INVALID_QUANTITY", "Intake quantity must be positive")
	}

	previous = p.TotalStock
	p.TotalStock = p.TotalStock.Add(quantity)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return previous, nil
}

// IsTrackable reports whether stock is tracked for this product.
// Services and fees appear on invoices but never touch inventory.
func (p *Product) IsTrackable() bool {
	return p.Trackable
}

func validateSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "Product SKU cannot exceed 50 characters")
	}
	for _, r := range sku {
		if !isSKUChar(r) {
			return shared.NewDomainError("INVALID_SKU", "Product SKU can only contain letters, numbers, hyphens and underscores")
		}
	}
	return nil
}

func isSKUChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
