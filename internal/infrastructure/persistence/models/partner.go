package models

import (
	"time"

	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer aggregate
type CustomerModel struct {
	AggregateModel
	FullName    string          `gorm:"type:varchar(200);not null;index"`
	Phone       string          `gorm:"type:varchar(50)"`
	Email       string          `gorm:"type:varchar(200)"`
	Address     string          `gorm:"type:text"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Balance     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DueDate     *time.Time      `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		FullName:          m.FullName,
		Phone:             m.Phone,
		Email:             m.Email,
		Address:           m.Address,
		CreditLimit:       m.CreditLimit,
		Balance:           m.Balance,
		DueDate:           m.DueDate,
	}
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.FullName = c.FullName
	m.Phone = c.Phone
	m.Email = c.Email
	m.Address = c.Address
	m.CreditLimit = c.CreditLimit
	m.Balance = c.Balance
	m.DueDate = c.DueDate
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
