package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditSaleRepository defines credit sale persistence
type CreditSaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CreditSale, error)
	// FindByIDForUpdate loads the sale and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*CreditSale, error)
	// FindByCustomer returns every sale of the customer, oldest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]CreditSale, error)
	// FindOutstandingByCustomer returns Unpaid/Partially Paid sales with balance due > 0,
	// ordered by sale date ascending
	FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]CreditSale, error)
	// NextNumber returns the next human sale number
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, sale *CreditSale) error
	// SaveWithLock updates the sale only if the stored version is sale.Version-1
	SaveWithLock(ctx context.Context, sale *CreditSale) error
}

// PaymentRepository defines payment persistence. Payments are insert-only.
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// FindByCustomer returns the customer's payments, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Payment, error)
	// SumByTransaction totals the payments recorded against a sale
	SumByTransaction(ctx context.Context, transactionID uuid.UUID) (PaymentTotals, error)
}

// PaymentHistoryQuery is the read model behind the cross-customer payment views
type PaymentHistoryQuery interface {
	List(ctx context.Context, filter PaymentHistoryFilter) ([]PaymentView, int64, error)
}

// PaymentTotals summarizes the payments recorded against one sale
type PaymentTotals struct {
	Count  int64
	Amount decimal.Decimal
}
