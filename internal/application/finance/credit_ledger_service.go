package finance

import (
	"context"
	"errors"
	"time"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/bakery/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// CreditLedgerService answers a customer's balance, due date and overdue flag.
// Every read is derived from the stored sales at call time; nothing is cached.
type CreditLedgerService struct {
	customers partner.CustomerRepository
	sales     finance.CreditSaleRepository
	now       func() time.Time
}

// NewCreditLedgerService creates a new CreditLedgerService
func NewCreditLedgerService(customers partner.CustomerRepository, sales finance.CreditSaleRepository) *CreditLedgerService {
	return &CreditLedgerService{customers: customers, sales: sales, now: time.Now}
}

// GetLedger derives the customer's ledger
func (s *CreditLedgerService) GetLedger(ctx context.Context, caller shared.CallerContext, customerID uuid.UUID) (*LedgerDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "get",
		telemetry.SpanAttrCustomerID, customerID.String(),
	)
	defer span.End()

	if err := caller.RequireRead(); err != nil {
		return nil, err
	}

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, asInvalidReference(err)
	}
	sales, err := s.sales.FindByCustomer(ctx, customerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	ledger := ToLedgerDTO(finance.BuildCustomerLedger(customer, sales, s.now()))
	return &ledger, nil
}

// syncCustomerLedger recomputes the customer's stored balance and due date
// from its sales inside the caller's transaction. The customer row is locked
// first so concurrent recomputations for one customer serialize.
func syncCustomerLedger(ctx context.Context, repos TransactionalRepositories, customerID uuid.UUID) (*partner.Customer, []finance.CreditSale, error) {
	customer, err := repos.CustomerRepo().FindByIDForUpdate(ctx, customerID)
	if err != nil {
		return nil, nil, asInvalidReference(err)
	}
	sales, err := repos.SaleRepo().FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	version := customer.Version
	if err := finance.RecomputeCustomerLedger(customer, sales); err != nil {
		return nil, nil, err
	}
	if customer.Version != version {
		if err := repos.CustomerRepo().SaveWithLock(ctx, customer); err != nil {
			return nil, nil, err
		}
	}
	return customer, sales, nil
}

// asInvalidReference reports a missing customer or sale as invalid_reference
func asInvalidReference(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.ErrInvalidReference
	}
	return err
}
