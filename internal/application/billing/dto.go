package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinventory "github.com/vetpms/backend/internal/application/inventory"
	"github.com/vetpms/backend/internal/domain/billing"
)

// InvoiceItemRequest is one line in an invoice create or update request
type InvoiceItemRequest struct {
	ProductID   *uuid.UUID `json:"product_id"`
	Description string     `json:"description" binding:"required,max=255"`
	Quantity    float64    `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64    `json:"unit_price" binding:"gte=0"`
}

// CreateInvoiceRequest represents an invoice creation request. Status may
// be set to pay the invoice in the same call.
type CreateInvoiceRequest struct {
	ClientID  uuid.UUID            `json:"client_id" binding:"required"`
	PatientID *uuid.UUID           `json:"patient_id"`
	Items     []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	Status    string               `json:"status" binding:"omitempty,oneof=draft sent paid"`
}

// UpdateInvoiceRequest represents an invoice update request. Items may
// only be replaced while the invoice is a draft.
type UpdateInvoiceRequest struct {
	Items  []InvoiceItemRequest `json:"items" binding:"omitempty,min=1,dive"`
	Status string               `json:"status" binding:"omitempty,invoicestatus"`
}

// InvoiceItemResponse represents an invoice line in API responses
type InvoiceItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// InvoiceResponse represents an invoice in API responses. Reconciliation
// carries the outcome of the stock depletion when this response follows a
// paid transition.
type InvoiceResponse struct {
	ID             uuid.UUID                          `json:"id"`
	InvoiceNumber  string                             `json:"invoice_number"`
	ClientID       uuid.UUID                          `json:"client_id"`
	PatientID      *uuid.UUID                         `json:"patient_id"`
	Status         string                             `json:"status"`
	TotalAmount    decimal.Decimal                    `json:"total_amount"`
	Items          []InvoiceItemResponse              `json:"items"`
	SentAt         *time.Time                         `json:"sent_at"`
	PaidAt         *time.Time                         `json:"paid_at"`
	CancelledAt    *time.Time                         `json:"cancelled_at"`
	CreatedAt      time.Time                          `json:"created_at"`
	UpdatedAt      time.Time                          `json:"updated_at"`
	Reconciliation *appinventory.ReconciliationResult `json:"reconciliation,omitempty"`
}

// NewInvoiceResponse converts an invoice to its API representation
func NewInvoiceResponse(invoice *billing.Invoice) *InvoiceResponse {
	items := make([]InvoiceItemResponse, len(invoice.Items))
	for i, item := range invoice.Items {
		items[i] = InvoiceItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
		}
	}

	return &InvoiceResponse{
		ID:            invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		ClientID:      invoice.ClientID,
		PatientID:     invoice.PatientID,
		Status:        invoice.Status.String(),
		TotalAmount:   invoice.TotalAmount,
		Items:         items,
		SentAt:        invoice.SentAt,
		PaidAt:        invoice.PaidAt,
		CancelledAt:   invoice.CancelledAt,
		CreatedAt:     invoice.CreatedAt,
		UpdatedAt:     invoice.UpdatedAt,
	}
}

// InvoiceListFilter represents filter options for invoice listing
type InvoiceListFilter struct {
	Status   string `form:"status" binding:"omitempty,invoicestatus"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}
