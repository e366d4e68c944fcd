package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appinv "github.com/vetpms/backend/internal/application/inventory"
	"github.com/vetpms/backend/internal/domain/billing"
	"github.com/vetpms/backend/internal/domain/catalog"
	"github.com/vetpms/backend/internal/domain/inventory"
	"github.com/vetpms/backend/internal/domain/shared"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&catalog.Product{},
		&inventory.ProductBatch{},
		&inventory.StockMovement{},
		&billing.Invoice{},
		&billing.InvoiceItem{},
	)
	require.NoError(t, err)

	return db
}

func createStoredProduct(t *testing.T, db *gorm.DB, tenantID uuid.UUID, sku string, stock decimal.Decimal) *catalog.Product {
	t.Helper()

	product, err := catalog.NewProduct(tenantID, sku, "Product "+sku, catalog.CategoryMedication)
	require.NoError(t, err)
	if stock.IsPositive() {
		_, err = product.ReceiveStock(stock)
		require.NoError(t, err)
	}

	repo := NewGormProductRepository(db)
	require.NoError(t, repo.Save(context.Background(), product))
	return product
}

func datePtr(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return &parsed
}

func TestGormProductRepository_FindByIDForTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	tenantID := uuid.New()

	product := createStoredProduct(t, db, tenantID, "AMOX-250", decimal.NewFromInt(10))

	t.Run("finds existing product", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(context.Background(), tenantID, product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.SKU, found.SKU)
		assert.True(t, found.TotalStock.Equal(decimal.NewFromInt(10)))
	})

	t.Run("returns not found for wrong tenant", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(context.Background(), uuid.New(), product.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_ExistsBySKUForTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	tenantID := uuid.New()

	createStoredProduct(t, db, tenantID, "VAC-RAB", decimal.Zero)

	exists, err := repo.ExistsBySKUForTenant(context.Background(), tenantID, "vac-rab")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsBySKUForTenant(context.Background(), tenantID, "VAC-OTHER")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormProductRepository_SaveWithVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	tenantID := uuid.New()

	t.Run("persists a versioned update", func(t *testing.T) {
		product := createStoredProduct(t, db, tenantID, "AMOX-500", decimal.NewFromInt(20))

		_, _, err := product.Deduct(decimal.NewFromInt(5))
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithVersion(context.Background(), product))

		stored, err := repo.FindByIDForTenant(context.Background(), tenantID, product.ID)
		require.NoError(t, err)
		assert.True(t, stored.TotalStock.Equal(decimal.NewFromInt(15)))
		assert.Equal(t, product.Version, stored.Version)
	})

	t.Run("detects concurrent modification", func(t *testing.T) {
		product := createStoredProduct(t, db, tenantID, "CARP-50", decimal.NewFromInt(20))

		stale, err := repo.FindByIDForTenant(context.Background(), tenantID, product.ID)
		require.NoError(t, err)

		_, _, err = product.Deduct(decimal.NewFromInt(5))
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithVersion(context.Background(), product))

		_, _, err = stale.Deduct(decimal.NewFromInt(3))
		require.NoError(t, err)
		err = repo.SaveWithVersion(context.Background(), stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormBatchRepository_FindActiveByProduct(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBatchRepository(db)
	tenantID := uuid.New()
	productID := uuid.New()

	makeBatch := func(number string, expiry *time.Time, qty int64) *inventory.ProductBatch {
		batch, err := inventory.NewProductBatch(tenantID, productID, number, expiry, decimal.NewFromInt(qty))
		require.NoError(t, err)
		require.NoError(t, repo.Save(context.Background(), batch))
		return batch
	}

	// Inserted out of expiry order on purpose
	makeBatch("LOT-C", nil, 4)
	makeBatch("LOT-B", datePtr(t, "2026-06-01"), 10)
	makeBatch("LOT-A", datePtr(t, "2026-01-01"), 5)

	depleted, err := inventory.NewProductBatch(tenantID, productID, "LOT-D", datePtr(t, "2025-01-01"), decimal.NewFromInt(2))
	require.NoError(t, err)
	depleted.Deduct(decimal.NewFromInt(2))
	require.NoError(t, repo.Save(context.Background(), depleted))

	batches, err := repo.FindActiveByProduct(context.Background(), tenantID, productID)
	require.NoError(t, err)

	require.Len(t, batches, 3)
	assert.Equal(t, "LOT-A", batches[0].BatchNumber)
	assert.Equal(t, "LOT-B", batches[1].BatchNumber)
	assert.Equal(t, "LOT-C", batches[2].BatchNumber, "batches without expiry date come last")
}

func TestGormMovementRepository_LedgerRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMovementRepository(db)
	tenantID := uuid.New()
	productID := uuid.New()
	staffID := uuid.New()
	invoiceID := uuid.New()

	intake, err := inventory.NewStockMovement(
		tenantID, productID, inventory.MovementTypeIntake,
		decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(10), staffID,
	)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), intake))

	sale, err := inventory.NewStockMovement(
		tenantID, productID, inventory.MovementTypeSale,
		decimal.NewFromInt(-4), decimal.NewFromInt(10), decimal.NewFromInt(6), staffID,
	)
	require.NoError(t, err)
	sale.WithReference(invoiceID)
	require.NoError(t, repo.Create(context.Background(), sale))

	t.Run("finds movements by reference", func(t *testing.T) {
		movements, err := repo.FindByReference(context.Background(), tenantID, invoiceID)
		require.NoError(t, err)
		require.Len(t, movements, 1)
		assert.True(t, movements[0].Quantity.Equal(decimal.NewFromInt(-4)))
	})

	t.Run("sums signed quantities", func(t *testing.T) {
		sum, err := repo.SumQuantityByProduct(context.Background(), tenantID, productID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(6)))
	})

	t.Run("sum is zero for unknown product", func(t *testing.T) {
		sum, err := repo.SumQuantityByProduct(context.Background(), tenantID, uuid.New())
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})

	t.Run("counts movements", func(t *testing.T) {
		count, err := repo.CountByProduct(context.Background(), tenantID, productID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestGormInvoiceRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	tenantID := uuid.New()
	productID := uuid.New()

	invoice, err := billing.NewInvoice(tenantID, "INV-2026-000001", uuid.New())
	require.NoError(t, err)
	require.NoError(t, invoice.AddItem(&productID, "Amoxicillin 250mg", decimal.NewFromInt(2), decimal.NewFromInt(12)))
	require.NoError(t, invoice.AddItem(nil, "Consultation", decimal.NewFromInt(1), decimal.NewFromInt(45)))

	require.NoError(t, repo.Create(context.Background(), invoice))

	found, err := repo.FindByIDForTenant(context.Background(), tenantID, invoice.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.True(t, found.TotalAmount.Equal(decimal.NewFromInt(69)))

	byNumber, err := repo.FindByNumberForTenant(context.Background(), tenantID, "INV-2026-000001")
	require.NoError(t, err)
	assert.Equal(t, invoice.ID, byNumber.ID)
}

func TestGormInvoiceRepository_SaveRemovesDroppedItems(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	tenantID := uuid.New()

	invoice, err := billing.NewInvoice(tenantID, "INV-2026-000002", uuid.New())
	require.NoError(t, err)
	require.NoError(t, invoice.AddItem(nil, "Consultation", decimal.NewFromInt(1), decimal.NewFromInt(45)))
	require.NoError(t, invoice.AddItem(nil, "Nail trim", decimal.NewFromInt(1), decimal.NewFromInt(15)))
	require.NoError(t, repo.Create(context.Background(), invoice))

	require.NoError(t, invoice.RemoveItem(invoice.Items[1].ID))
	require.NoError(t, repo.Save(context.Background(), invoice))

	found, err := repo.FindByIDForTenant(context.Background(), tenantID, invoice.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Consultation", found.Items[0].Description)
}

func TestGormInvoiceRepository_NextInvoiceNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	tenantID := uuid.New()

	first, err := repo.NextInvoiceNumber(context.Background(), tenantID)
	require.NoError(t, err)

	invoice, err := billing.NewInvoice(tenantID, first, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), invoice))

	second, err := repo.NextInvoiceNumber(context.Background(), tenantID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// A different tenant starts its own sequence
	other, err := repo.NextInvoiceNumber(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, first, other)
}

func TestGormTransactionScope_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)
	tenantID := uuid.New()

	product := createStoredProduct(t, db, tenantID, "FOOD-RC", decimal.NewFromInt(10))

	boom := errors.New("boom")
	err := scope.Execute(context.Background(), func(repos appinv.TransactionalRepositories) error {
		fresh, err := repos.Products().FindByIDForTenant(context.Background(), tenantID, product.ID)
		if err != nil {
			return err
		}
		if _, _, err := fresh.Deduct(decimal.NewFromInt(10)); err != nil {
			return err
		}
		if err := repos.Products().Save(context.Background(), fresh); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := NewGormProductRepository(db).FindByIDForTenant(context.Background(), tenantID, product.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalStock.Equal(decimal.NewFromInt(10)), "rollback keeps the original stock")
}

func TestGormTransactionScope_CommitsOnSuccess(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)
	tenantID := uuid.New()

	product := createStoredProduct(t, db, tenantID, "FLEA-XL", decimal.NewFromInt(10))

	err := scope.Execute(context.Background(), func(repos appinv.TransactionalRepositories) error {
		fresh, err := repos.Products().FindByIDForTenant(context.Background(), tenantID, product.ID)
		if err != nil {
			return err
		}
		if _, _, err := fresh.Deduct(decimal.NewFromInt(4)); err != nil {
			return err
		}
		return repos.Products().Save(context.Background(), fresh)
	})
	require.NoError(t, err)

	stored, err := NewGormProductRepository(db).FindByIDForTenant(context.Background(), tenantID, product.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalStock.Equal(decimal.NewFromInt(6)))
}
