package finance

import (
	"context"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/bakery/ledger/internal/domain/shared"
)

// TransactionScope runs ledger mutations atomically.
// If fn returns an error, every write made through repos is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to one transaction.
// Domain events saved here are written to the outbox in the same transaction.
type TransactionalRepositories interface {
	CustomerRepo() partner.CustomerRepository
	SaleRepo() finance.CreditSaleRepository
	PaymentRepo() finance.PaymentRepository
	SaveEvents(ctx context.Context, events ...shared.DomainEvent) error
}
