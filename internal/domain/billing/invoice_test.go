package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

func newDraftInvoice(t *testing.T) *Invoice {
	t.Helper()
	invoice, err := NewInvoice(uuid.New(), "INV-2024-0001", uuid.New())
	require.NoError(t, err)
	return invoice
}

func TestNewInvoice(t *testing.T) {
	t.Run("creates draft invoice", func(t *testing.T) {
		tenantID := uuid.New()
		clientID := uuid.New()

		invoice, err := NewInvoice(tenantID, "INV-2024-0001", clientID)
		require.NoError(t, err)

		assert.Equal(t, tenantID, invoice.TenantID)
		assert.Equal(t, "INV-2024-0001", invoice.InvoiceNumber)
		assert.Equal(t, clientID, invoice.ClientID)
		assert.Equal(t, InvoiceStatusDraft, invoice.Status)
		assert.True(t, invoice.TotalAmount.IsZero())
		assert.Empty(t, invoice.Items)
	})

	t.Run("rejects empty invoice number", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), " ", uuid.New())
		require.Error(t, err)
	})

	t.Run("rejects nil client", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "INV-2024-0001", uuid.Nil)
		require.Error(t, err)
	})
}

func TestInvoice_AddItem(t *testing.T) {
	t.Run("adds product line and recalculates total", func(t *testing.T) {
		invoice := newDraftInvoice(t)
		productID := uuid.New()

		err := invoice.AddItem(uuidPtr(productID), "Amoxicillin 250mg", decimal.NewFromInt(8), decimal.NewFromFloat(12.50))
		require.NoError(t, err)

		require.Len(t, invoice.Items, 1)
		assert.Equal(t, productID, *invoice.Items[0].ProductID)
		assert.True(t, invoice.Items[0].Total.Equal(decimal.NewFromInt(100)))
		assert.True(t, invoice.TotalAmount.Equal(decimal.NewFromInt(100)))
		assert.True(t, invoice.Items[0].TracksInventory())
	})

	t.Run("free-form lines do not track inventory", func(t *testing.T) {
		invoice := newDraftInvoice(t)

		err := invoice.AddItem(nil, "After-hours surcharge", decimal.NewFromInt(1), decimal.NewFromInt(40))
		require.NoError(t, err)
		assert.False(t, invoice.Items[0].TracksInventory())
		assert.Empty(t, invoice.InventoryLines())
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		invoice := newDraftInvoice(t)
		err := invoice.AddItem(nil, "Bandage", decimal.Zero, decimal.NewFromInt(5))
		require.Error(t, err)
	})

	t.Run("rejects items on a non-draft invoice", func(t *testing.T) {
		invoice := newDraftInvoice(t)
		require.NoError(t, invoice.AddItem(nil, "Consultation", decimal.NewFromInt(1), decimal.NewFromInt(60)))
		require.NoError(t, invoice.MarkPaid())

		err := invoice.AddItem(nil, "Bandage", decimal.NewFromInt(1), decimal.NewFromInt(5))
		require.Error(t, err)
	})
}

func TestInvoice_RemoveItem(t *testing.T) {
	invoice := newDraftInvoice(t)
	require.NoError(t, invoice.AddItem(nil, "Consultation", decimal.NewFromInt(1), decimal.NewFromInt(60)))
	require.NoError(t, invoice.AddItem(nil, "Bandage", decimal.NewFromInt(2), decimal.NewFromInt(5)))

	err := invoice.RemoveItem(invoice.Items[0].ID)
	require.NoError(t, err)

	require.Len(t, invoice.Items, 1)
	assert.True(t, invoice.TotalAmount.Equal(decimal.NewFromInt(10)))

	err = invoice.RemoveItem(uuid.New())
	require.Error(t, err)
}

func TestInvoiceStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    InvoiceStatus
		to      InvoiceStatus
		allowed bool
	}{
		{InvoiceStatusDraft, InvoiceStatusSent, true},
		{InvoiceStatusDraft, InvoiceStatusPaid, true},
		{InvoiceStatusDraft, InvoiceStatusCancelled, true},
		{InvoiceStatusDraft, InvoiceStatusOverdue, false},
		{InvoiceStatusSent, InvoiceStatusPaid, true},
		{InvoiceStatusSent, InvoiceStatusOverdue, true},
		{InvoiceStatusSent, InvoiceStatusCancelled, true},
		{InvoiceStatusSent, InvoiceStatusDraft, false},
		{InvoiceStatusOverdue, InvoiceStatusPaid, true},
		{InvoiceStatusOverdue, InvoiceStatusCancelled, true},
		{InvoiceStatusOverdue, InvoiceStatusSent, false},
		{InvoiceStatusPaid, InvoiceStatusCancelled, false},
		{InvoiceStatusPaid, InvoiceStatusDraft, false},
		{InvoiceStatusCancelled, InvoiceStatusPaid, false},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestInvoice_TransitionTo(t *testing.T) {
	t.Run("stamps paid timestamp", func(t *testing.T) {
		invoice := newDraftInvoice(t)
		require.NoError(t, invoice.TransitionTo(InvoiceStatusPaid))

		assert.Equal(t, InvoiceStatusPaid, invoice.Status)
		assert.True(t, invoice.IsPaid())
		require.NotNil(t, invoice.PaidAt)
	})

	t.Run("stamps sent timestamp", func(t *testing.T) {
		invoice := newDraftInvoice(t)
		require.NoError(t, invoice.TransitionTo(InvoiceStatusSent))
		require.NotNil(t, invoice.SentAt)
		assert.Nil(t, invoice.PaidAt)
	})

	t.Run("paid is terminal", func(t *testing.T) {
		invoice := newDraftInvoice(t)
		require.NoError(t, invoice.MarkPaid())

		err := invoice.TransitionTo(InvoiceStatusCancelled)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cannot transition")
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		invoice := newDraftInvoice(t)
		err := invoice.TransitionTo(InvoiceStatus("refunded"))
		require.Error(t, err)
	})

	t.Run("increments version", func(t *testing.T) {
		invoice := newDraftInvoice(t)
		before := invoice.GetVersion()
		require.NoError(t, invoice.MarkPaid())
		assert.Equal(t, before+1, invoice.GetVersion())
	})
}

func TestInvoice_InventoryLines(t *testing.T) {
	invoice := newDraftInvoice(t)
	productID := uuid.New()

	require.NoError(t, invoice.AddItem(uuidPtr(productID), "Amoxicillin 250mg", decimal.NewFromInt(8), decimal.NewFromInt(12)))
	require.NoError(t, invoice.AddItem(nil, "Consultation", decimal.NewFromInt(1), decimal.NewFromInt(60)))
	require.NoError(t, invoice.AddItem(uuidPtr(uuid.New()), "Syringe 5ml", decimal.NewFromInt(2), decimal.NewFromInt(1)))

	lines := invoice.InventoryLines()
	require.Len(t, lines, 2)
	assert.Equal(t, productID, *lines[0].ProductID)
}
