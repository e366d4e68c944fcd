package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vetpms/backend/internal/domain/inventory"
	"github.com/vetpms/backend/internal/domain/shared"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByIDForTenant finds a batch by ID within a tenant
func (r *GormBatchRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.ProductBatch, error) {
	var batch inventory.ProductBatch
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindActiveByProduct finds all active batches of a product ordered
// earliest expiry first, with batches lacking an expiry date last
func (r *GormBatchRepository) FindActiveByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]inventory.ProductBatch, error) {
	var batches []inventory.ProductBatch
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND status = ?", tenantID, productID, inventory.BatchStatusActive).
		Order("COALESCE(expiry_date, '9999-12-31') ASC, created_at ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByProduct finds all batches of a product regardless of status
func (r *GormBatchRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]inventory.ProductBatch, error) {
	var batches []inventory.ProductBatch
	query := r.db.WithContext(ctx).
		Model(&inventory.ProductBatch{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID)

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("COALESCE(expiry_date, '9999-12-31') ASC, created_at ASC")
	}

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// CountByProduct counts batches of a product
func (r *GormBatchRepository) CountByProduct(ctx context.Context, tenantID, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.ProductBatch{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a batch
func (r *GormBatchRepository) Save(ctx context.Context, batch *inventory.ProductBatch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

// Ensure GormBatchRepository implements BatchRepository
var _ inventory.BatchRepository = (*GormBatchRepository)(nil)
