package partner

import (
	"time"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerDTO is a customer with its stored balance and the overdue flag derived at read time
type CustomerDTO struct {
	ID              uuid.UUID       `json:"id"`
	FullName        string          `json:"fullname"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	Address         string          `json:"address"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	Balance         decimal.Decimal `json:"balance"`
	DueDate         *time.Time      `json:"due_date"`
	Overdue         bool            `json:"overdue"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// ToCustomerDTO converts a domain customer as of now
func ToCustomerDTO(c *partner.Customer, now time.Time) CustomerDTO {
	return CustomerDTO{
		ID:              c.ID,
		FullName:        c.FullName,
		Phone:           c.Phone,
		Email:           c.Email,
		Address:         c.Address,
		CreditLimit:     c.CreditLimit,
		Balance:         c.Balance,
		DueDate:         c.DueDate,
		Overdue:         finance.IsOverdue(c.Balance, c.DueDate, now),
		AvailableCredit: c.AvailableCredit(),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		Version:         c.Version,
	}
}

// ListCustomersInput filters the customer list
type ListCustomersInput struct {
	Search      string
	WithBalance bool
	Page        int
	PageSize    int
}

// CustomerInput carries the fields owned by customer management
type CustomerInput struct {
	FullName    string
	Phone       string
	Email       string
	Address     string
	CreditLimit decimal.Decimal
}
