package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appinventory "github.com/vetpms/backend/internal/application/inventory"
	"github.com/vetpms/backend/internal/domain/billing"
	"github.com/vetpms/backend/internal/domain/shared"
)

// InsufficientStockError blocks a paid transition when the pre-check
// finds products whose stock cannot cover the invoice.
type InsufficientStockError struct {
	Shortfalls []appinventory.Shortfall
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	names := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		names[i] = s.Describe()
	}
	return "Insufficient stock: " + strings.Join(names, ", ")
}

// Unwrap lets callers match with errors.Is(err, shared.ErrInsufficientStock)
func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrInsufficientStock
}

// StockReconciler is the slice of the reconciliation engine the invoice
// service needs for paid transitions.
type StockReconciler interface {
	CheckSufficiency(ctx context.Context, tenantID uuid.UUID, lines []appinventory.DeductionLine) ([]appinventory.Shortfall, error)
	Reconcile(ctx context.Context, tenantID, invoiceID, staffID uuid.UUID, lines []appinventory.DeductionLine) (*appinventory.ReconciliationResult, error)
}

// InvoiceService handles invoice operations. It owns the paid-edge
// detection: stock reconciliation runs exactly once, on the transition
// from any non-paid status to paid.
type InvoiceService struct {
	invoices billing.InvoiceRepository
	recon    StockReconciler
	logger   *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoices billing.InvoiceRepository,
	recon StockReconciler,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		recon:    recon,
		logger:   logger,
	}
}

// Create creates an invoice. When the request asks for paid status the
// sufficiency pre-check runs first and blocks the whole creation on a
// shortfall.
func (s *InvoiceService) Create(ctx context.Context, tenantID, staffID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	number, err := s.invoices.NextInvoiceNumber(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("allocating invoice number: %w", err)
	}

	invoice, err := billing.NewInvoice(tenantID, number, req.ClientID)
	if err != nil {
		return nil, err
	}
	invoice.PatientID = req.PatientID

	if err := addItems(invoice, req.Items); err != nil {
		return nil, err
	}

	target := billing.InvoiceStatus(req.Status)
	paying := target == billing.InvoiceStatusPaid

	if paying {
		if err := s.checkSufficiency(ctx, tenantID, invoice); err != nil {
			return nil, err
		}
	}

	if req.Status != "" && target != billing.InvoiceStatusDraft {
		if err := invoice.TransitionTo(target); err != nil {
			return nil, err
		}
	}

	if err := s.invoices.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("creating invoice: %w", err)
	}

	response := NewInvoiceResponse(invoice)
	if paying {
		result, err := s.reconcile(ctx, tenantID, staffID, invoice, billing.InvoiceStatusDraft)
		if err != nil {
			return nil, err
		}
		response = NewInvoiceResponse(invoice)
		response.Reconciliation = result
	}

	return response, nil
}

// Update updates an invoice. Items can only be replaced while the
// invoice is a draft. A status change to paid triggers the sufficiency
// pre-check and, after the status is persisted, the stock reconciliation.
func (s *InvoiceService) Update(ctx context.Context, tenantID, staffID, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	prior := invoice.Status

	if req.Items != nil {
		if err := invoice.ClearItems(); err != nil {
			return nil, err
		}
		if err := addItems(invoice, req.Items); err != nil {
			return nil, err
		}
	}

	target := billing.InvoiceStatus(req.Status)
	paying := req.Status != "" && prior != billing.InvoiceStatusPaid && target == billing.InvoiceStatusPaid

	if paying {
		if err := s.checkSufficiency(ctx, tenantID, invoice); err != nil {
			return nil, err
		}
	}

	if req.Status != "" && target != prior {
		if err := invoice.TransitionTo(target); err != nil {
			return nil, err
		}
	}

	if err := s.invoices.Save(ctx, invoice); err != nil {
		return nil, fmt.Errorf("saving invoice: %w", err)
	}

	response := NewInvoiceResponse(invoice)
	if paying {
		result, err := s.reconcile(ctx, tenantID, staffID, invoice, prior)
		if err != nil {
			return nil, err
		}
		response = NewInvoiceResponse(invoice)
		response.Reconciliation = result
	}

	return response, nil
}

// Get returns an invoice by ID
func (s *InvoiceService) Get(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	return NewInvoiceResponse(invoice), nil
}

// List returns invoices for a tenant
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) ([]*InvoiceResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}

	invoices, err := s.invoices.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoices.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = NewInvoiceResponse(&invoices[i])
	}
	return responses, total, nil
}

// checkSufficiency runs the blocking stock pre-check for a paid transition
func (s *InvoiceService) checkSufficiency(ctx context.Context, tenantID uuid.UUID, invoice *billing.Invoice) error {
	shortfalls, err := s.recon.CheckSufficiency(ctx, tenantID, deductionLines(invoice))
	if err != nil {
		return err
	}
	if len(shortfalls) > 0 {
		return &InsufficientStockError{Shortfalls: shortfalls}
	}
	return nil
}

// reconcile depletes stock for a freshly paid invoice. Under the revert
// policy a shortfall rolls the depletion back and restores the invoice
// to its prior status.
func (s *InvoiceService) reconcile(ctx context.Context, tenantID, staffID uuid.UUID, invoice *billing.Invoice, prior billing.InvoiceStatus) (*appinventory.ReconciliationResult, error) {
	result, err := s.recon.Reconcile(ctx, tenantID, invoice.ID, staffID, deductionLines(invoice))
	if err != nil {
		if errors.Is(err, appinventory.ErrReconciliationShortfall) {
			s.revertPaidTransition(ctx, invoice, prior)
		}
		return result, err
	}

	if result.HasErrors() {
		s.logger.Warn("invoice paid with reconciliation errors",
			zap.String("tenant_id", tenantID.String()),
			zap.String("invoice_id", invoice.ID.String()),
			zap.Strings("errors", result.Errors),
		)
	}

	return result, nil
}

func (s *InvoiceService) revertPaidTransition(ctx context.Context, invoice *billing.Invoice, prior billing.InvoiceStatus) {
	invoice.Status = prior
	invoice.PaidAt = nil
	invoice.IncrementVersion()

	if err := s.invoices.Save(ctx, invoice); err != nil {
		s.logger.Error("failed to revert invoice after reconciliation rollback",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
	}
}

func addItems(invoice *billing.Invoice, items []InvoiceItemRequest) error {
	for _, item := range items {
		quantity := decimal.NewFromFloat(item.Quantity)
		unitPrice := decimal.NewFromFloat(item.UnitPrice)
		if err := invoice.AddItem(item.ProductID, item.Description, quantity, unitPrice); err != nil {
			return err
		}
	}
	return nil
}

func deductionLines(invoice *billing.Invoice) []appinventory.DeductionLine {
	items := invoice.InventoryLines()
	lines := make([]appinventory.DeductionLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, appinventory.DeductionLine{
			ProductID: *item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return lines
}
