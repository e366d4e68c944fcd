package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetpms/backend/internal/domain/shared"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid returns true if the status is a known invoice status
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusSent || target == InvoiceStatusPaid || target == InvoiceStatusCancelled
	case InvoiceStatusSent:
		return target == InvoiceStatusPaid || target == InvoiceStatusOverdue || target == InvoiceStatusCancelled
	case InvoiceStatusOverdue:
		return target == InvoiceStatusPaid || target == InvoiceStatusCancelled
	case InvoiceStatusPaid, InvoiceStatusCancelled:
		return false // terminal states
	}
	return false
}

// InvoiceItem is a line on an invoice. ProductID is nil for free-form
// lines such as one-off fees; those lines never touch inventory.
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index"`
	Description string          `gorm:"type:varchar(255);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// TracksInventory reports whether this line should deplete stock when
// the invoice is paid
func (i *InvoiceItem) TracksInventory() bool {
	return i.ProductID != nil
}

// Invoice is the billing aggregate. Its paid transition is the trigger
// for stock reconciliation: the transition from any non-paid status to
// paid fires exactly once per invoice.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string          `gorm:"type:varchar(50);not null;index:idx_invoice_number"`
	ClientID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	PatientID     *uuid.UUID      `gorm:"type:uuid;index"`
	Status        InvoiceStatus   `gorm:"type:varchar(20);not null;default:'draft'"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID"`
	SentAt        *time.Time
	PaidAt        *time.Time
	CancelledAt   *time.Time
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a draft invoice with no items
func NewInvoice(tenantID uuid.UUID, invoiceNumber string, clientID uuid.UUID) (*Invoice, error) {
	if strings.TrimSpace(invoiceNumber) == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}

	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       strings.TrimSpace(invoiceNumber),
		ClientID:            clientID,
		Status:              InvoiceStatusDraft,
		TotalAmount:         decimal.Zero,
		Items:               make([]InvoiceItem, 0),
	}, nil
}

// AddItem appends a line to the invoice and recalculates the total.
// Items can only be added while the invoice is still a draft.
func (inv *Invoice) AddItem(productID *uuid.UUID, description string, quantity, unitPrice decimal.Decimal) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot add items to invoice in %s status", inv.Status))
	}
	if strings.TrimSpace(description) == "" {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Item description cannot be empty")
	}
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Item unit price cannot be negative")
	}

	item := InvoiceItem{
		BaseEntity:  shared.NewBaseEntity(),
		InvoiceID:   inv.ID,
		ProductID:   productID,
		Description: strings.TrimSpace(description),
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Total:       quantity.Mul(unitPrice),
	}

	inv.Items = append(inv.Items, item)
	inv.recalculateTotal()
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// RemoveItem removes a line while the invoice is still a draft
func (inv *Invoice) RemoveItem(itemID uuid.UUID) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot remove items from invoice in %s status", inv.Status))
	}

	for idx := range inv.Items {
		if inv.Items[idx].ID == itemID {
			inv.Items = append(inv.Items[:idx], inv.Items[idx+1:]...)
			inv.recalculateTotal()
			inv.UpdatedAt = time.Now()
			inv.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Invoice item not found")
}

// ClearItems removes all lines while the invoice is still a draft
func (inv *Invoice) ClearItems() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot replace items on invoice in %s status", inv.Status))
	}

	inv.Items = inv.Items[:0]
	inv.recalculateTotal()
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// TransitionTo moves the invoice to the target status, enforcing the
// allowed transitions and stamping the relevant timestamp.
func (inv *Invoice) TransitionTo(target InvoiceStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown invoice status %q", target))
	}
	if !inv.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot transition invoice from %s to %s", inv.Status, target))
	}

	now := time.Now()
	switch target {
	case InvoiceStatusSent:
		inv.SentAt = &now
	case InvoiceStatusPaid:
		inv.PaidAt = &now
	case InvoiceStatusCancelled:
		inv.CancelledAt = &now
	}

	inv.Status = target
	inv.UpdatedAt = now
	inv.IncrementVersion()

	return nil
}

// MarkPaid transitions the invoice to paid
func (inv *Invoice) MarkPaid() error {
	return inv.TransitionTo(InvoiceStatusPaid)
}

// Cancel transitions the invoice to cancelled
func (inv *Invoice) Cancel() error {
	return inv.TransitionTo(InvoiceStatusCancelled)
}

// IsPaid returns true if the invoice is in paid status
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// InventoryLines returns the items that deplete stock when the invoice
// is paid
func (inv *Invoice) InventoryLines() []InvoiceItem {
	lines := make([]InvoiceItem, 0, len(inv.Items))
	for _, item := range inv.Items {
		if item.TracksInventory() {
			lines = append(lines, item)
		}
	}
	return lines
}

func (inv *Invoice) recalculateTotal() {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.Total)
	}
	inv.TotalAmount = total
}
