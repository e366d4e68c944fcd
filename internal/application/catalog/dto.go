package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetpms/backend/internal/domain/catalog"
)

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	SKU         string  `json:"sku" binding:"required,max=50"`
	Name        string  `json:"name" binding:"required,max=200"`
	Description string  `json:"description" binding:"max=2000"`
	Category    string  `json:"category" binding:"omitempty,oneof=medication vaccine consumable food service unspecified"`
	UnitPrice   float64 `json:"unit_price" binding:"gte=0"`
}

// UpdateProductRequest represents a product update request
type UpdateProductRequest struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Description string   `json:"description" binding:"max=2000"`
	UnitPrice   *float64 `json:"unit_price" binding:"omitempty,gte=0"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalStock  decimal.Decimal `json:"total_stock"`
	Trackable   bool            `json:"trackable"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// NewProductResponse converts a product to its API representation
func NewProductResponse(product *catalog.Product) *ProductResponse {
	return &ProductResponse{
		ID:          product.ID,
		SKU:         product.SKU,
		Name:        product.Name,
		Description: product.Description,
		Category:    string(product.Category),
		UnitPrice:   product.UnitPrice,
		TotalStock:  product.TotalStock,
		Trackable:   product.Trackable,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
		Version:     product.GetVersion(),
	}
}

// ProductListFilter represents filter options for product listing
type ProductListFilter struct {
	Search   string `form:"search" binding:"max=200"`
	Category string `form:"category" binding:"omitempty,oneof=medication vaccine consumable food service unspecified"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}
