package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vetpms/backend/internal/domain/catalog"
	"github.com/vetpms/backend/internal/domain/shared"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKUForTenant(ctx context.Context, tenantID uuid.UUID, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsBySKUForTenant(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	args := m.Called(ctx, tenantID, sku)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) SaveWithVersion(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

// memoryIndex is an in-memory ProductIndex for tests
type memoryIndex struct {
	mu      sync.Mutex
	entries map[uuid.UUID]catalog.Product
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{entries: make(map[uuid.UUID]catalog.Product)}
}

func (i *memoryIndex) Get(_ context.Context, tenantID, productID uuid.UUID) (*catalog.Product, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	p, ok := i.entries[productID]
	if !ok || p.TenantID != tenantID {
		return nil, nil
	}
	copied := p
	return &copied, nil
}

func (i *memoryIndex) Put(_ context.Context, product *catalog.Product) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries[product.ID] = *product
	return nil
}

func (i *memoryIndex) Invalidate(_ context.Context, _, productID uuid.UUID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.entries, productID)
	return nil
}

func TestProductService_Create(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates product and caches it", func(t *testing.T) {
		repo := new(MockProductRepository)
		index := newMemoryIndex()
		service := NewProductService(repo, index, zap.NewNop())

		repo.On("ExistsBySKUForTenant", mock.Anything, tenantID, "AMOX-250").Return(false, nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

		response, err := service.Create(context.Background(), tenantID, CreateProductRequest{
			SKU:       "AMOX-250",
			Name:      "Amoxicillin 250mg",
			Category:  "medication",
			UnitPrice: 12.50,
		})
		require.NoError(t, err)

		assert.Equal(t, "AMOX-250", response.SKU)
		assert.Equal(t, "medication", response.Category)
		assert.True(t, response.Trackable)

		cached, err := index.Get(context.Background(), tenantID, response.ID)
		require.NoError(t, err)
		assert.NotNil(t, cached)
	})

	t.Run("rejects duplicate SKU", func(t *testing.T) {
		repo := new(MockProductRepository)
		service := NewProductService(repo, newMemoryIndex(), zap.NewNop())

		repo.On("ExistsBySKUForTenant", mock.Anything, tenantID, "AMOX-250").Return(true, nil)

		_, err := service.Create(context.Background(), tenantID, CreateProductRequest{
			SKU:  "AMOX-250",
			Name: "Amoxicillin 250mg",
		})
		require.Error(t, err)
		repo.AssertNotCalled(t, "Save")
	})
}

func TestProductService_Get(t *testing.T) {
	tenantID := uuid.New()

	t.Run("serves from cache without hitting the repository", func(t *testing.T) {
		repo := new(MockProductRepository)
		index := newMemoryIndex()
		service := NewProductService(repo, index, zap.NewNop())

		product, err := catalog.NewProduct(tenantID, "AMOX-250", "Amoxicillin 250mg", catalog.CategoryMedication)
		require.NoError(t, err)
		require.NoError(t, index.Put(context.Background(), product))

		response, err := service.Get(context.Background(), tenantID, product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.ID, response.ID)
		repo.AssertNotCalled(t, "FindByIDForTenant")
	})

	t.Run("falls back to repository on miss and fills the cache", func(t *testing.T) {
		repo := new(MockProductRepository)
		index := newMemoryIndex()
		service := NewProductService(repo, index, zap.NewNop())

		product, err := catalog.NewProduct(tenantID, "AMOX-250", "Amoxicillin 250mg", catalog.CategoryMedication)
		require.NoError(t, err)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, product.ID).Return(product, nil)

		_, err = service.Get(context.Background(), tenantID, product.ID)
		require.NoError(t, err)

		cached, err := index.Get(context.Background(), tenantID, product.ID)
		require.NoError(t, err)
		assert.NotNil(t, cached)
	})

	t.Run("propagates not found", func(t *testing.T) {
		repo := new(MockProductRepository)
		service := NewProductService(repo, newMemoryIndex(), zap.NewNop())
		productID := uuid.New()

		repo.On("FindByIDForTenant", mock.Anything, tenantID, productID).Return(nil, shared.ErrNotFound)

		_, err := service.Get(context.Background(), tenantID, productID)
		require.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestProductService_Update(t *testing.T) {
	tenantID := uuid.New()

	repo := new(MockProductRepository)
	index := newMemoryIndex()
	service := NewProductService(repo, index, zap.NewNop())

	product, err := catalog.NewProduct(tenantID, "AMOX-250", "Amoxicillin 250mg", catalog.CategoryMedication)
	require.NoError(t, err)
	require.NoError(t, index.Put(context.Background(), product))

	repo.On("FindByIDForTenant", mock.Anything, tenantID, product.ID).Return(product, nil)
	repo.On("SaveWithVersion", mock.Anything, product).Return(nil)

	price := 15.0
	response, err := service.Update(context.Background(), tenantID, product.ID, UpdateProductRequest{
		Name:      "Amoxicillin 250mg tablets",
		UnitPrice: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, "Amoxicillin 250mg tablets", response.Name)

	// Cached entry is dropped so the next read sees the update.
	cached, err := index.Get(context.Background(), tenantID, product.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)
}
