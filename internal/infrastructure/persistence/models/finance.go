package models

import (
	"time"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditSaleModel is the persistence model for the CreditSale aggregate
type CreditSaleModel struct {
	AggregateModel
	Number      int64              `gorm:"not null;uniqueIndex"`
	CustomerID  uuid.UUID          `gorm:"type:uuid;not null;index:idx_credit_sales_customer_date,priority:1"`
	SaleDate    time.Time          `gorm:"not null;index:idx_credit_sales_customer_date,priority:2"`
	DueDate     *time.Time         `gorm:"type:date"`
	TotalAmount decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	AmountPaid  decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	BalanceDue  decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	Status      finance.SaleStatus `gorm:"type:varchar(20);not null;default:'Unpaid';index"`
	CancelledAt *time.Time
}

// TableName returns the table name for GORM
func (CreditSaleModel) TableName() string {
	return "credit_sales"
}

// ToDomain converts the persistence model to a domain CreditSale
func (m *CreditSaleModel) ToDomain() *finance.CreditSale {
	return &finance.CreditSale{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		CustomerID:        m.CustomerID,
		SaleDate:          m.SaleDate,
		DueDate:           m.DueDate,
		TotalAmount:       m.TotalAmount,
		AmountPaid:        m.AmountPaid,
		BalanceDue:        m.BalanceDue,
		Status:            m.Status,
		CancelledAt:       m.CancelledAt,
	}
}

// FromDomain populates the persistence model from a domain CreditSale
func (m *CreditSaleModel) FromDomain(s *finance.CreditSale) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.Number = s.Number
	m.CustomerID = s.CustomerID
	m.SaleDate = s.SaleDate
	m.DueDate = s.DueDate
	m.TotalAmount = s.TotalAmount
	m.AmountPaid = s.AmountPaid
	m.BalanceDue = s.BalanceDue
	m.Status = s.Status
	m.CancelledAt = s.CancelledAt
}

// CreditSaleModelFromDomain creates a new persistence model from a domain CreditSale
func CreditSaleModelFromDomain(s *finance.CreditSale) *CreditSaleModel {
	m := &CreditSaleModel{}
	m.FromDomain(s)
	return m
}

// PaymentModel is the persistence model for a Payment. Rows are never updated.
type PaymentModel struct {
	BaseModel
	TransactionID uuid.UUID             `gorm:"type:uuid;not null;index"`
	CustomerID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	PaymentMethod finance.PaymentMethod `gorm:"type:varchar(30);not null"`
	ProofKind     finance.ProofKind     `gorm:"type:varchar(20);not null;default:'none'"`
	ProofValue    *string               `gorm:"type:text"`
	PaymentDate   time.Time             `gorm:"not null;index"`
	RecordedBy    uuid.UUID             `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *finance.Payment {
	proof := finance.NoProof()
	if m.ProofValue != nil && *m.ProofValue != "" {
		proof = finance.Proof{Kind: m.ProofKind, Value: *m.ProofValue}
	}
	return &finance.Payment{
		BaseEntity:    m.BaseModel.ToDomain(),
		TransactionID: m.TransactionID,
		CustomerID:    m.CustomerID,
		Amount:        m.Amount,
		Method:        m.PaymentMethod,
		Proof:         proof,
		PaymentDate:   m.PaymentDate,
		RecordedBy:    m.RecordedBy,
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *finance.Payment) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.TransactionID = p.TransactionID
	m.CustomerID = p.CustomerID
	m.Amount = p.Amount
	m.PaymentMethod = p.Method
	m.ProofKind = p.Proof.Kind
	if m.ProofKind == "" {
		m.ProofKind = finance.ProofKindNone
	}
	m.ProofValue = p.ProofValue()
	m.PaymentDate = p.PaymentDate
	m.RecordedBy = p.RecordedBy
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// PaymentViewRow is the scan target of the payment history join
type PaymentViewRow struct {
	ID            uuid.UUID
	PaymentDate   time.Time
	CustomerID    uuid.UUID
	CustomerName  string
	TransactionID uuid.UUID
	SaleNumber    int64
	Amount        decimal.Decimal
	PaymentMethod finance.PaymentMethod
	ProofKind     finance.ProofKind
	ProofValue    *string
	RecordedBy    uuid.UUID
}

// ToDomain converts the row to a PaymentView
func (r *PaymentViewRow) ToDomain() finance.PaymentView {
	proof := finance.NoProof()
	if r.ProofValue != nil && *r.ProofValue != "" {
		proof = finance.Proof{Kind: r.ProofKind, Value: *r.ProofValue}
	}
	return finance.PaymentView{
		PaymentID:     r.ID,
		PaymentDate:   r.PaymentDate,
		CustomerID:    r.CustomerID,
		CustomerName:  r.CustomerName,
		TransactionID: r.TransactionID,
		SaleNumber:    r.SaleNumber,
		Amount:        r.Amount,
		Method:        r.PaymentMethod,
		Proof:         proof,
		RecordedBy:    r.RecordedBy,
	}
}
