package finance

import (
	"fmt"
	"time"

	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus is the settlement state of a credit sale
type SaleStatus string

const (
	SaleStatusUnpaid        SaleStatus = "Unpaid"
	SaleStatusPartiallyPaid SaleStatus = "Partially Paid"
	SaleStatusPaid          SaleStatus = "Paid"
	SaleStatusCancelled     SaleStatus = "Cancelled"
)

// IsValid reports whether the status is known
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusUnpaid, SaleStatusPartiallyPaid, SaleStatusPaid, SaleStatusCancelled:
		return true
	}
	return false
}

// IsPayable reports whether payments may still be allocated in this status
func (s SaleStatus) IsPayable() bool {
	return s == SaleStatusUnpaid || s == SaleStatusPartiallyPaid
}

// DefaultCreditTermDays is the due date offset applied when a sale is recorded without one
const DefaultCreditTermDays = 30

// MoneyScale is the number of decimal places money columns store
const MoneyScale = 2

// IsWholeCents reports whether amount fits the stored money scale without rounding
func IsWholeCents(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(MoneyScale))
}

// ValidatePaymentAmount rejects non-positive amounts and fractions of a cent
func ValidatePaymentAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount
	}
	if !IsWholeCents(amount) {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Payment amount cannot have more than 2 decimal places")
	}
	return nil
}

// CreditSale is a sale made on credit to a customer (a "transaction" in the
// payment screens). Only payment allocation and cancellation mutate it.
type CreditSale struct {
	shared.BaseAggregateRoot
	Number      int64 // human-facing sale number, e.g. #100
	CustomerID  uuid.UUID
	SaleDate    time.Time
	DueDate     *time.Time
	TotalAmount decimal.Decimal
	AmountPaid  decimal.Decimal
	BalanceDue  decimal.Decimal
	Status      SaleStatus
	CancelledAt *time.Time
}

// NewCreditSale records a new unpaid credit sale
func NewCreditSale(customerID uuid.UUID, number int64, total decimal.Decimal, saleDate time.Time, dueDate *time.Time) (*CreditSale, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidReference, "Customer ID cannot be empty")
	}
	if !total.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Sale total must be positive")
	}
	if !IsWholeCents(total) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Sale total cannot have more than 2 decimal places")
	}
	if saleDate.IsZero() {
		saleDate = time.Now()
	}
	if dueDate == nil {
		due := saleDate.AddDate(0, 0, DefaultCreditTermDays)
		dueDate = &due
	}
	if dueDate != nil && dueDate.Before(saleDate) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Due date cannot be before the sale date")
	}

	sale := &CreditSale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		CustomerID:        customerID,
		SaleDate:          saleDate,
		DueDate:           dueDate,
		TotalAmount:       total,
		AmountPaid:        decimal.Zero,
		BalanceDue:        total,
		Status:            SaleStatusUnpaid,
	}
	sale.AddDomainEvent(NewCreditSaleRecordedEvent(sale))
	return sale, nil
}

// BelongsTo reports whether the sale was made to the given customer
func (s *CreditSale) BelongsTo(customerID uuid.UUID) bool {
	return s.CustomerID == customerID
}

// IsOutstanding reports whether the sale still carries a payable balance
func (s *CreditSale) IsOutstanding() bool {
	return s.Status.IsPayable() && s.BalanceDue.IsPositive()
}

// CheckPayment validates an amount against the current balance without mutating the sale
func (s *CreditSale) CheckPayment(amount decimal.Decimal) error {
	if err := ValidatePaymentAmount(amount); err != nil {
		return err
	}
	if amount.GreaterThan(s.BalanceDue) {
		return shared.NewDomainError(shared.CodeOverpayment,
			fmt.Sprintf("Payment amount %s exceeds balance due %s on sale #%d", amount.StringFixed(2), s.BalanceDue.StringFixed(2), s.Number))
	}
	return nil
}

// ApplyPayment allocates amount to this sale and re-derives its status
func (s *CreditSale) ApplyPayment(amount decimal.Decimal) error {
	if s.Status == SaleStatusCancelled {
		return shared.NewDomainError(shared.CodeInvalidReference, fmt.Sprintf("Sale #%d is cancelled", s.Number))
	}
	if err := s.CheckPayment(amount); err != nil {
		return err
	}

	s.AmountPaid = s.AmountPaid.Add(amount)
	s.BalanceDue = s.TotalAmount.Sub(s.AmountPaid)
	s.Status = deriveSaleStatus(s.TotalAmount, s.AmountPaid)
	s.Touch()
	s.IncrementVersion()
	return nil
}

// Cancel voids a sale that has not received any payment
func (s *CreditSale) Cancel() error {
	if s.Status == SaleStatusCancelled {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Sale #%d is already cancelled", s.Number))
	}
	if s.AmountPaid.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot cancel a sale that has received payments")
	}

	now := time.Now()
	s.Status = SaleStatusCancelled
	s.CancelledAt = &now
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewCreditSaleCancelledEvent(s))
	return nil
}

// CheckInvariants verifies the balance and status rules hold
func (s *CreditSale) CheckInvariants() error {
	if !s.BalanceDue.Equal(s.TotalAmount.Sub(s.AmountPaid)) {
		return fmt.Errorf("sale #%d: balance due %s != total %s - paid %s", s.Number, s.BalanceDue, s.TotalAmount, s.AmountPaid)
	}
	if s.BalanceDue.IsNegative() {
		return fmt.Errorf("sale #%d: negative balance due %s", s.Number, s.BalanceDue)
	}
	if s.Status != SaleStatusCancelled && s.Status != deriveSaleStatus(s.TotalAmount, s.AmountPaid) {
		return fmt.Errorf("sale #%d: status %q does not match amounts", s.Number, s.Status)
	}
	return nil
}

func deriveSaleStatus(total, paid decimal.Decimal) SaleStatus {
	switch {
	case paid.IsZero():
		return SaleStatusUnpaid
	case paid.GreaterThanOrEqual(total):
		return SaleStatusPaid
	default:
		return SaleStatusPartiallyPaid
	}
}
