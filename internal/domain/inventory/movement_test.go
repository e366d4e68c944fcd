package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockMovement(t *testing.T) {
	tenantID := uuid.New()
	productID := uuid.New()
	staffID := uuid.New()

	t.Run("creates sale movement with negative quantity", func(t *testing.T) {
		movement, err := NewStockMovement(
			tenantID, productID, MovementTypeSale,
			decimal.NewFromInt(-5), decimal.NewFromInt(15), decimal.NewFromInt(10),
			staffID,
		)
		require.NoError(t, err)

		assert.Equal(t, MovementTypeSale, movement.MovementType)
		assert.True(t, movement.Quantity.Equal(decimal.NewFromInt(-5)))
		assert.True(t, movement.PreviousStock.Equal(decimal.NewFromInt(15)))
		assert.True(t, movement.NewStock.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, staffID, movement.StaffMember)
		assert.Nil(t, movement.BatchID)
		assert.Nil(t, movement.ReferenceID)
		assert.False(t, movement.OccurredAt.IsZero())
	})

	t.Run("creates intake movement with positive quantity", func(t *testing.T) {
		movement, err := NewStockMovement(
			tenantID, productID, MovementTypeIntake,
			decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(10),
			staffID,
		)
		require.NoError(t, err)
		assert.True(t, movement.Quantity.IsPositive())
	})

	t.Run("rejects inconsistent stock levels", func(t *testing.T) {
		_, err := NewStockMovement(
			tenantID, productID, MovementTypeSale,
			decimal.NewFromInt(-5), decimal.NewFromInt(15), decimal.NewFromInt(11),
			staffID,
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "previous stock plus quantity")
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := NewStockMovement(
			tenantID, productID, MovementTypeSale,
			decimal.Zero, decimal.NewFromInt(15), decimal.NewFromInt(15),
			staffID,
		)
		require.Error(t, err)
	})

	t.Run("rejects missing staff member", func(t *testing.T) {
		_, err := NewStockMovement(
			tenantID, productID, MovementTypeSale,
			decimal.NewFromInt(-5), decimal.NewFromInt(15), decimal.NewFromInt(10),
			uuid.Nil,
		)
		require.Error(t, err)
	})

	t.Run("rejects invalid movement type", func(t *testing.T) {
		_, err := NewStockMovement(
			tenantID, productID, MovementType("transfer"),
			decimal.NewFromInt(1), decimal.Zero, decimal.NewFromInt(1),
			staffID,
		)
		require.Error(t, err)
	})
}

func TestStockMovement_Builders(t *testing.T) {
	batchID := uuid.New()
	invoiceID := uuid.New()

	movement, err := NewStockMovement(
		uuid.New(), uuid.New(), MovementTypeSale,
		decimal.NewFromInt(-3), decimal.NewFromInt(10), decimal.NewFromInt(7),
		uuid.New(),
	)
	require.NoError(t, err)

	movement.WithBatch(batchID).WithReference(invoiceID).WithNotes("invoice paid")

	require.NotNil(t, movement.BatchID)
	assert.Equal(t, batchID, *movement.BatchID)
	require.NotNil(t, movement.ReferenceID)
	assert.Equal(t, invoiceID, *movement.ReferenceID)
	assert.Equal(t, "invoice paid", movement.Notes)
}
