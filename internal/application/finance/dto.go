package finance

import (
	"time"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleDTO is a credit sale as returned to callers
type SaleDTO struct {
	ID          uuid.UUID          `json:"id"`
	Number      int64              `json:"number"`
	CustomerID  uuid.UUID          `json:"customer_id"`
	SaleDate    time.Time          `json:"sale_date"`
	DueDate     *time.Time         `json:"due_date,omitempty"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	AmountPaid  decimal.Decimal    `json:"amount_paid"`
	BalanceDue  decimal.Decimal    `json:"balance_due"`
	Status      finance.SaleStatus `json:"status"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Version     int                `json:"version"`
}

// ToSaleDTO converts a domain sale
func ToSaleDTO(s *finance.CreditSale) SaleDTO {
	return SaleDTO{
		ID:          s.ID,
		Number:      s.Number,
		CustomerID:  s.CustomerID,
		SaleDate:    s.SaleDate,
		DueDate:     s.DueDate,
		TotalAmount: s.TotalAmount,
		AmountPaid:  s.AmountPaid,
		BalanceDue:  s.BalanceDue,
		Status:      s.Status,
		CancelledAt: s.CancelledAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		Version:     s.Version,
	}
}

// ToSaleDTOs converts a slice of domain sales
func ToSaleDTOs(sales []finance.CreditSale) []SaleDTO {
	out := make([]SaleDTO, len(sales))
	for i := range sales {
		out[i] = ToSaleDTO(&sales[i])
	}
	return out
}

// PaymentDTO is a recorded payment
type PaymentDTO struct {
	ID            uuid.UUID             `json:"id"`
	TransactionID uuid.UUID             `json:"transaction_id"`
	CustomerID    uuid.UUID             `json:"customer_id"`
	Amount        decimal.Decimal       `json:"amount"`
	PaymentMethod finance.PaymentMethod `json:"payment_method"`
	Proof         *string               `json:"proof"`
	ProofKind     finance.ProofKind     `json:"proof_kind"`
	PaymentDate   time.Time             `json:"payment_date"`
	RecordedBy    uuid.UUID             `json:"recorded_by"`
	CreatedAt     time.Time             `json:"created_at"`
}

// ToPaymentDTO converts a domain payment
func ToPaymentDTO(p *finance.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            p.ID,
		TransactionID: p.TransactionID,
		CustomerID:    p.CustomerID,
		Amount:        p.Amount,
		PaymentMethod: p.Method,
		Proof:         p.ProofValue(),
		ProofKind:     p.Proof.Kind,
		PaymentDate:   p.PaymentDate,
		RecordedBy:    p.RecordedBy,
		CreatedAt:     p.CreatedAt,
	}
}

// ToPaymentDTOs converts a slice of domain payments
func ToPaymentDTOs(payments []finance.Payment) []PaymentDTO {
	out := make([]PaymentDTO, len(payments))
	for i := range payments {
		out[i] = ToPaymentDTO(&payments[i])
	}
	return out
}

// LedgerDTO is a customer's credit position
type LedgerDTO struct {
	CustomerID       uuid.UUID       `json:"customer_id"`
	Balance          decimal.Decimal `json:"balance"`
	Overdue          bool            `json:"overdue"`
	DueDate          *time.Time      `json:"due_date"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	AvailableCredit  decimal.Decimal `json:"available_credit"`
	OverLimit        bool            `json:"over_limit"`
	OutstandingSales int             `json:"outstanding_sales"`
	AsOf             time.Time       `json:"as_of"`
}

// ToLedgerDTO converts a derived ledger
func ToLedgerDTO(l finance.CustomerLedger) LedgerDTO {
	return LedgerDTO{
		CustomerID:       l.CustomerID,
		Balance:          l.Balance,
		Overdue:          l.Overdue,
		DueDate:          l.DueDate,
		CreditLimit:      l.CreditLimit,
		AvailableCredit:  l.AvailableCredit,
		OverLimit:        l.OverLimit,
		OutstandingSales: l.OutstandingSales,
		AsOf:             l.AsOf,
	}
}

// AllocationResult is the outcome of a successful allocation
type AllocationResult struct {
	Payment PaymentDTO `json:"payment"`
	Sale    SaleDTO    `json:"sale"`
	Ledger  LedgerDTO  `json:"ledger"`
}

// PaymentViewDTO is a payment row of the cross-customer history
type PaymentViewDTO struct {
	ID            uuid.UUID             `json:"id"`
	PaymentDate   time.Time             `json:"payment_date"`
	CustomerID    uuid.UUID             `json:"customer_id"`
	CustomerName  string                `json:"customer_name"`
	TransactionID uuid.UUID             `json:"transaction_id"`
	SaleNumber    int64                 `json:"sale_number"`
	Amount        decimal.Decimal       `json:"amount"`
	PaymentMethod finance.PaymentMethod `json:"payment_method"`
	Proof         *string               `json:"proof"`
	ProofKind     finance.ProofKind     `json:"proof_kind"`
	RecordedBy    uuid.UUID             `json:"recorded_by"`
}

// ToPaymentViewDTO converts a payment view
func ToPaymentViewDTO(v *finance.PaymentView) PaymentViewDTO {
	var proof *string
	if !v.Proof.IsEmpty() {
		p := v.Proof.Value
		proof = &p
	}
	return PaymentViewDTO{
		ID:            v.PaymentID,
		PaymentDate:   v.PaymentDate,
		CustomerID:    v.CustomerID,
		CustomerName:  v.CustomerName,
		TransactionID: v.TransactionID,
		SaleNumber:    v.SaleNumber,
		Amount:        v.Amount,
		PaymentMethod: v.Method,
		Proof:         proof,
		ProofKind:     v.Proof.Kind,
		RecordedBy:    v.RecordedBy,
	}
}
