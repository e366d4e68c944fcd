package inventory

import (
	"context"

	"github.com/vetpms/backend/internal/domain/billing"
	"github.com/vetpms/backend/internal/domain/catalog"
	"github.com/vetpms/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the repositories the
// reconciliation engine writes. When a function is executed within a
// transaction scope, all repository operations are part of the same
// database transaction and commit or roll back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories involved
// in a stock reconciliation, all sharing the same underlying transaction.
type TransactionalRepositories interface {
	// Products returns the product repository scoped to the current transaction
	Products() catalog.ProductRepository
	// Batches returns the batch repository scoped to the current transaction
	Batches() inventory.BatchRepository
	// Movements returns the movement ledger repository scoped to the current transaction
	Movements() inventory.MovementRepository
	// Invoices returns the invoice repository scoped to the current transaction
	Invoices() billing.InvoiceRepository
}

// NoOpTransactionScope is a transaction scope without real transactions.
// Useful in tests and with stores that lack transaction support.
type NoOpTransactionScope struct {
	products  catalog.ProductRepository
	batches   inventory.BatchRepository
	movements inventory.MovementRepository
	invoices  billing.InvoiceRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	products catalog.ProductRepository,
	batches inventory.BatchRepository,
	movements inventory.MovementRepository,
	invoices billing.InvoiceRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		products:  products,
		batches:   batches,
		movements: movements,
		invoices:  invoices,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Products returns the product repository
func (s *NoOpTransactionScope) Products() catalog.ProductRepository {
	return s.products
}

// Batches returns the batch repository
func (s *NoOpTransactionScope) Batches() inventory.BatchRepository {
	return s.batches
}

// Movements returns the movement ledger repository
func (s *NoOpTransactionScope) Movements() inventory.MovementRepository {
	return s.movements
}

// Invoices returns the invoice repository
func (s *NoOpTransactionScope) Invoices() billing.InvoiceRepository {
	return s.invoices
}
