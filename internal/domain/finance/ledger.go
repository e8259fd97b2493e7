package finance

import (
	"time"

	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerLedger is a customer's credit position derived from their sales at AsOf
type CustomerLedger struct {
	CustomerID       uuid.UUID
	Balance          decimal.Decimal
	DueDate          *time.Time
	Overdue          bool
	CreditLimit      decimal.Decimal
	AvailableCredit  decimal.Decimal
	OverLimit        bool
	OutstandingSales int
	AsOf             time.Time
}

// SummarizeSales returns the customer balance (sum of balance due over
// non-cancelled sales) and the earliest due date among sales still owing.
func SummarizeSales(sales []CreditSale) (decimal.Decimal, *time.Time) {
	balance := decimal.Zero
	var due *time.Time
	for i := range sales {
		s := &sales[i]
		if s.Status == SaleStatusCancelled {
			continue
		}
		balance = balance.Add(s.BalanceDue)
		if !s.BalanceDue.IsPositive() || s.DueDate == nil {
			continue
		}
		if due == nil || s.DueDate.Before(*due) {
			d := *s.DueDate
			due = &d
		}
	}
	return balance, due
}

// IsOverdue reports whether a positive balance is past its due date
func IsOverdue(balance decimal.Decimal, dueDate *time.Time, now time.Time) bool {
	return balance.IsPositive() && dueDate != nil && dueDate.Before(now)
}

// BuildCustomerLedger derives the ledger from the customer's current sales
func BuildCustomerLedger(customer *partner.Customer, sales []CreditSale, now time.Time) CustomerLedger {
	balance, due := SummarizeSales(sales)

	outstanding := 0
	for i := range sales {
		if sales[i].IsOutstanding() {
			outstanding++
		}
	}

	available := customer.CreditLimit.Sub(balance)
	if available.IsNegative() {
		available = decimal.Zero
	}

	return CustomerLedger{
		CustomerID:       customer.ID,
		Balance:          balance,
		DueDate:          due,
		Overdue:          IsOverdue(balance, due, now),
		CreditLimit:      customer.CreditLimit,
		AvailableCredit:  available,
		OverLimit:        customer.CreditLimit.IsPositive() && balance.GreaterThan(customer.CreditLimit),
		OutstandingSales: outstanding,
		AsOf:             now,
	}
}

// RecomputeCustomerLedger writes the derived balance and due date back onto the customer
func RecomputeCustomerLedger(customer *partner.Customer, sales []CreditSale) error {
	balance, due := SummarizeSales(sales)
	return customer.SyncLedger(balance, due)
}
