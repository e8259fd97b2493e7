package persistence

import (
	"context"

	financeapp "github.com/bakery/ledger/internal/application/finance"
	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/bakery/ledger/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Events passed to SaveEvents go to the outbox in the same transaction.
type GormTransactionScope struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, outbox shared.OutboxEventSaver) *GormTransactionScope {
	return &GormTransactionScope{db: db, outbox: outbox}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos financeapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, outbox: s.outbox})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx     *gorm.DB
	outbox shared.OutboxEventSaver
}

func (r *gormTransactionalRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

func (r *gormTransactionalRepositories) SaleRepo() finance.CreditSaleRepository {
	return NewGormCreditSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) PaymentRepo() finance.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// SaveEvents writes events to the outbox. Without an outbox they are dropped.
func (r *gormTransactionalRepositories) SaveEvents(ctx context.Context, events ...shared.DomainEvent) error {
	if r.outbox == nil || len(events) == 0 {
		return nil
	}
	return r.outbox.SaveEvents(ctx, r.tx, events...)
}

var _ financeapp.TransactionScope = (*GormTransactionScope)(nil)

var _ financeapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
