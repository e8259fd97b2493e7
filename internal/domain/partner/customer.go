package partner

import (
	"regexp"
	"strings"
	"time"

	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var (
	phonePattern = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Customer is a credit customer of the bakery.
//
// Profile fields are owned by customer management. Balance and DueDate are
// derived from the customer's credit sales and only change through SyncLedger.
type Customer struct {
	shared.BaseAggregateRoot
	FullName    string
	Phone       string
	Email       string
	Address     string
	CreditLimit decimal.Decimal
	Balance     decimal.Decimal
	DueDate     *time.Time
}

// NewCustomer creates a customer with a zero balance
func NewCustomer(fullName, phone, email, address string, creditLimit decimal.Decimal) (*Customer, error) {
	c := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Balance:           decimal.Zero,
	}
	if err := c.UpdateProfile(fullName, phone, email, address); err != nil {
		return nil, err
	}
	if err := c.SetCreditLimit(creditLimit); err != nil {
		return nil, err
	}
	c.Version = 1
	c.ClearDomainEvents()

	c.AddDomainEvent(NewCustomerCreatedEvent(c))
	return c, nil
}

// UpdateProfile replaces the contact details
func (c *Customer) UpdateProfile(fullName, phone, email, address string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(fullName) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	if phone != "" && (len(phone) > 50 || !phonePattern.MatchString(phone)) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	if email != "" && (len(email) > 200 || !emailPattern.MatchString(email)) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	if len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}

	c.FullName = fullName
	c.Phone = phone
	c.Email = email
	c.Address = address
	c.Touch()
	c.IncrementVersion()
	return nil
}

// SetCreditLimit sets the advisory credit limit
func (c *Customer) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.NewDomainError("INVALID_CREDIT_LIMIT", "Credit limit cannot be negative")
	}
	c.CreditLimit = limit
	c.Touch()
	c.IncrementVersion()
	return nil
}

// Revise replaces the profile and credit limit as a single change
func (c *Customer) Revise(fullName, phone, email, address string, creditLimit decimal.Decimal) error {
	if creditLimit.IsNegative() {
		return shared.NewDomainError("INVALID_CREDIT_LIMIT", "Credit limit cannot be negative")
	}
	version := c.Version
	if err := c.UpdateProfile(fullName, phone, email, address); err != nil {
		return err
	}
	c.CreditLimit = creditLimit
	c.Version = version + 1
	return nil
}

// SyncLedger stores the balance and earliest outstanding due date derived from
// the customer's sales. It is a no-op when nothing changed.
func (c *Customer) SyncLedger(balance decimal.Decimal, dueDate *time.Time) error {
	if balance.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidState, "Customer balance cannot be negative")
	}
	if c.Balance.Equal(balance) && sameDate(c.DueDate, dueDate) {
		return nil
	}

	old := c.Balance
	c.Balance = balance
	c.DueDate = dueDate
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerBalanceChangedEvent(c, old))
	return nil
}

// AvailableCredit returns how much more credit can be extended, never negative
func (c *Customer) AvailableCredit() decimal.Decimal {
	remaining := c.CreditLimit.Sub(c.Balance)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsOverLimit reports whether the balance exceeds a non-zero credit limit
func (c *Customer) IsOverLimit() bool {
	return c.CreditLimit.IsPositive() && c.Balance.GreaterThan(c.CreditLimit)
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
