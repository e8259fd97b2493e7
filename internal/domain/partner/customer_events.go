package partner

import (
	"time"

	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateTypeCustomer = "Customer"

const (
	EventTypeCustomerCreated        = "CustomerCreated"
	EventTypeCustomerBalanceChanged = "CustomerBalanceChanged"
)

// CustomerCreatedEvent is raised when a credit customer is registered
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID  uuid.UUID       `json:"customer_id"`
	FullName    string          `json:"full_name"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// NewCustomerCreatedEvent creates a CustomerCreatedEvent
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, AggregateTypeCustomer, c.ID),
		CustomerID:      c.ID,
		FullName:        c.FullName,
		CreditLimit:     c.CreditLimit,
	}
}

// CustomerBalanceChangedEvent is raised when the derived balance or due date changes
type CustomerBalanceChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID       `json:"customer_id"`
	OldBalance decimal.Decimal `json:"old_balance"`
	NewBalance decimal.Decimal `json:"new_balance"`
	DueDate    *time.Time      `json:"due_date,omitempty"`
}

// NewCustomerBalanceChangedEvent creates a CustomerBalanceChangedEvent
func NewCustomerBalanceChangedEvent(c *Customer, oldBalance decimal.Decimal) *CustomerBalanceChangedEvent {
	return &CustomerBalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerBalanceChanged, AggregateTypeCustomer, c.ID),
		CustomerID:      c.ID,
		OldBalance:      oldBalance,
		NewBalance:      c.Balance,
		DueDate:         c.DueDate,
	}
}
