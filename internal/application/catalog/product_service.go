package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vetpms/backend/internal/domain/catalog"
	"github.com/vetpms/backend/internal/domain/shared"
)

// ProductIndex is a read-through cache over products. Lookups that miss
// fall back to the repository; writes invalidate the cached entry.
type ProductIndex interface {
	// Get returns the cached product, or nil on a miss
	Get(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.Product, error)
	// Put caches a product
	Put(ctx context.Context, product *catalog.Product) error
	// Invalidate drops a product from the cache
	Invalidate(ctx context.Context, tenantID, productID uuid.UUID) error
}

// ProductService handles catalog operations
type ProductService struct {
	products catalog.ProductRepository
	index    ProductIndex
	logger   *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(products catalog.ProductRepository, index ProductIndex, logger *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		index:    index,
		logger:   logger,
	}
}

// Create creates a product, enforcing SKU uniqueness per tenant
func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	exists, err := s.products.ExistsBySKUForTenant(ctx, tenantID, req.SKU)
	if err != nil {
		return nil, fmt.Errorf("checking SKU uniqueness: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("DUPLICATE_SKU", fmt.Sprintf("A product with SKU %s already exists", req.SKU))
	}

	product, err := catalog.NewProduct(tenantID, req.SKU, req.Name, catalog.ProductCategory(req.Category))
	if err != nil {
		return nil, err
	}
	product.Description = req.Description
	if req.UnitPrice > 0 {
		if err := product.SetUnitPrice(decimal.NewFromFloat(req.UnitPrice)); err != nil {
			return nil, err
		}
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("saving product: %w", err)
	}

	if err := s.index.Put(ctx, product); err != nil {
		s.logger.Warn("failed to cache product",
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
	}

	return NewProductResponse(product), nil
}

// Get returns a product, serving from the index when possible
func (s *ProductService) Get(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	if cached, err := s.index.Get(ctx, tenantID, productID); err == nil && cached != nil {
		return NewProductResponse(cached), nil
	}

	product, err := s.products.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if err := s.index.Put(ctx, product); err != nil {
		s.logger.Warn("failed to cache product",
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
	}

	return NewProductResponse(product), nil
}

// Update updates a product's basic information and price
func (s *ProductService) Update(ctx context.Context, tenantID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.products.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if err := product.Update(req.Name, req.Description); err != nil {
		return nil, err
	}
	if req.UnitPrice != nil {
		if err := product.SetUnitPrice(decimal.NewFromFloat(*req.UnitPrice)); err != nil {
			return nil, err
		}
	}

	if err := s.products.SaveWithVersion(ctx, product); err != nil {
		return nil, err
	}

	if err := s.index.Invalidate(ctx, tenantID, productID); err != nil {
		s.logger.Warn("failed to invalidate cached product",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
	}

	return NewProductResponse(product), nil
}

// List returns products for a tenant
func (s *ProductService) List(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) ([]*ProductResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search
	if filter.Category != "" {
		f.Filters["category"] = filter.Category
	}

	products, err := s.products.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.products.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*ProductResponse, len(products))
	for i := range products {
		responses[i] = NewProductResponse(&products[i])
	}
	return responses, total, nil
}
