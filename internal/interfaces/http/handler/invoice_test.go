package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appbilling "github.com/vetpms/backend/internal/application/billing"
	appinventory "github.com/vetpms/backend/internal/application/inventory"
	"github.com/vetpms/backend/internal/domain/billing"
	"github.com/vetpms/backend/internal/domain/shared"
	"github.com/vetpms/backend/internal/interfaces/http/middleware"
	"github.com/vetpms/backend/internal/interfaces/http/router"
)

// MockInvoiceRepository implements billing.InvoiceRepository for testing
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumberForTenant(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) NextInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// MockStockReconciler implements appbilling.StockReconciler for testing
type MockStockReconciler struct {
	mock.Mock
}

func (m *MockStockReconciler) CheckSufficiency(ctx context.Context, tenantID uuid.UUID, lines []appinventory.DeductionLine) ([]appinventory.Shortfall, error) {
	args := m.Called(ctx, tenantID, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appinventory.Shortfall), args.Error(1)
}

func (m *MockStockReconciler) Reconcile(ctx context.Context, tenantID, invoiceID, staffID uuid.UUID, lines []appinventory.DeductionLine) (*appinventory.ReconciliationResult, error) {
	args := m.Called(ctx, tenantID, invoiceID, staffID, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.ReconciliationResult), args.Error(1)
}

func setupInvoiceRouter(repo *MockInvoiceRepository, recon *MockStockReconciler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	_ = RegisterValidators()
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Tenant(), middleware.Staff())

	service := appbilling.NewInvoiceService(repo, recon, zap.NewNop())
	router.NewRouter(engine).Register(NewInvoiceHandler(service)).Setup()
	return engine
}

func performRequest(t *testing.T, engine *gin.Engine, method, path string, tenantID, staffID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tenantID != uuid.Nil {
		req.Header.Set(middleware.TenantHeaderKey, tenantID.String())
	}
	if staffID != uuid.Nil {
		req.Header.Set(middleware.StaffHeaderKey, staffID.String())
	}

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestInvoiceHandler_Create(t *testing.T) {
	tenantID := uuid.New()
	staffID := uuid.New()
	productID := uuid.New()

	draftBody := gin.H{
		"client_id": uuid.New().String(),
		"items": []gin.H{
			{"product_id": productID.String(), "description": "Amoxicillin 250mg", "quantity": 2, "unit_price": 12},
		},
	}

	t.Run("creates draft invoice", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		recon := new(MockStockReconciler)
		engine := setupInvoiceRouter(repo, recon)

		repo.On("NextInvoiceNumber", mock.Anything, tenantID).Return("INV-2026-000001", nil)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)

		recorder := performRequest(t, engine, http.MethodPost, "/api/v1/billing/invoices", tenantID, staffID, draftBody)

		assert.Equal(t, http.StatusCreated, recorder.Code)
		recon.AssertNotCalled(t, "CheckSufficiency")
		recon.AssertNotCalled(t, "Reconcile")
	})

	t.Run("rejects missing tenant header", func(t *testing.T) {
		engine := setupInvoiceRouter(new(MockInvoiceRepository), new(MockStockReconciler))

		recorder := performRequest(t, engine, http.MethodPost, "/api/v1/billing/invoices", uuid.Nil, staffID, draftBody)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects missing staff header on mutation", func(t *testing.T) {
		engine := setupInvoiceRouter(new(MockInvoiceRepository), new(MockStockReconciler))

		recorder := performRequest(t, engine, http.MethodPost, "/api/v1/billing/invoices", tenantID, uuid.Nil, draftBody)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects invoice without items", func(t *testing.T) {
		engine := setupInvoiceRouter(new(MockInvoiceRepository), new(MockStockReconciler))

		recorder := performRequest(t, engine, http.MethodPost, "/api/v1/billing/invoices", tenantID, staffID, gin.H{
			"client_id": uuid.New().String(),
			"items":     []gin.H{},
		})

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestInvoiceHandler_PaidTransition(t *testing.T) {
	tenantID := uuid.New()
	staffID := uuid.New()
	productID := uuid.New()

	newSentInvoice := func(t *testing.T) *billing.Invoice {
		t.Helper()
		invoice, err := billing.NewInvoice(tenantID, "INV-2026-000010", uuid.New())
		require.NoError(t, err)
		require.NoError(t, invoice.AddItem(&productID, "Amoxicillin 250mg", decimal.NewFromInt(8), decimal.NewFromInt(12)))
		require.NoError(t, invoice.TransitionTo(billing.InvoiceStatusSent))
		return invoice
	}

	t.Run("insufficient stock blocks the transition with 422", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		recon := new(MockStockReconciler)
		engine := setupInvoiceRouter(repo, recon)

		invoice := newSentInvoice(t)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)
		recon.On("CheckSufficiency", mock.Anything, tenantID, mock.Anything).Return([]appinventory.Shortfall{
			{ProductID: productID, ProductName: "Amoxicillin 250mg", Available: decimal.NewFromInt(5), Required: decimal.NewFromInt(8)},
		}, nil)

		recorder := performRequest(t, engine, http.MethodPut, "/api/v1/billing/invoices/"+invoice.ID.String(), tenantID, staffID, gin.H{
			"status": "paid",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

		var resp struct {
			Success bool `json:"success"`
			Error   struct {
				Code    string   `json:"code"`
				Details []string `json:"details"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "ERR_INSUFFICIENT_STOCK", resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Contains(t, resp.Error.Details[0], "Amoxicillin 250mg")
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("sufficient stock pays and reconciles", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		recon := new(MockStockReconciler)
		engine := setupInvoiceRouter(repo, recon)

		invoice := newSentInvoice(t)
		repo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)
		recon.On("CheckSufficiency", mock.Anything, tenantID, mock.Anything).Return(nil, nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)
		recon.On("Reconcile", mock.Anything, tenantID, invoice.ID, staffID, mock.Anything).
			Return(&appinventory.ReconciliationResult{InvoiceID: invoice.ID}, nil)

		recorder := performRequest(t, engine, http.MethodPut, "/api/v1/billing/invoices/"+invoice.ID.String(), tenantID, staffID, gin.H{
			"status": "paid",
		})

		assert.Equal(t, http.StatusOK, recorder.Code)
		recon.AssertExpectations(t)
	})

	t.Run("unknown invoice returns 404", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		recon := new(MockStockReconciler)
		engine := setupInvoiceRouter(repo, recon)

		missing := uuid.New()
		repo.On("FindByIDForTenant", mock.Anything, tenantID, missing).Return(nil, shared.ErrNotFound)

		recorder := performRequest(t, engine, http.MethodPut, "/api/v1/billing/invoices/"+missing.String(), tenantID, staffID, gin.H{
			"status": "paid",
		})

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}
