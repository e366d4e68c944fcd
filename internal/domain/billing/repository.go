package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/vetpms/backend/internal/domain/shared"
)

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByIDForTenant finds an invoice with its items by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByNumberForTenant finds an invoice by its number within a tenant
	FindByNumberForTenant(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)

	// FindAllForTenant finds all invoices for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Invoice, error)

	// CountForTenant counts invoices for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// NextInvoiceNumber allocates the next sequential invoice number for
	// a tenant
	NextInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error)

	// Create persists a new invoice with its items
	Create(ctx context.Context, invoice *Invoice) error

	// Save updates an invoice and its items
	Save(ctx context.Context, invoice *Invoice) error
}
