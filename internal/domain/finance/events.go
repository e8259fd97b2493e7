package finance

import (
	"time"

	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateTypeCreditSale = "CreditSale"

const (
	EventTypePaymentRecorded     = "PaymentRecorded"
	EventTypeCreditSaleRecorded  = "CreditSaleRecorded"
	EventTypeCreditSaleCancelled = "CreditSaleCancelled"
)

// PaymentRecordedEvent announces an allocated payment so ledger views can refresh
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	CustomerID    uuid.UUID       `json:"customer_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Method        PaymentMethod   `json:"payment_method"`
	SaleStatus    SaleStatus      `json:"sale_status"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	RecordedBy    uuid.UUID       `json:"recorded_by"`
}

// NewPaymentRecordedEvent creates a PaymentRecordedEvent for payment against sale
func NewPaymentRecordedEvent(sale *CreditSale, payment *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeCreditSale, sale.ID),
		CustomerID:      payment.CustomerID,
		TransactionID:   payment.TransactionID,
		Amount:          payment.Amount,
		PaymentID:       payment.ID,
		Method:          payment.Method,
		SaleStatus:      sale.Status,
		BalanceDue:      sale.BalanceDue,
		RecordedBy:      payment.RecordedBy,
	}
}

// CreditSaleRecordedEvent is raised when a sale on credit is recorded
type CreditSaleRecordedEvent struct {
	shared.BaseDomainEvent
	CustomerID  uuid.UUID       `json:"customer_id"`
	SaleNumber  int64           `json:"sale_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
}

// NewCreditSaleRecordedEvent creates a CreditSaleRecordedEvent
func NewCreditSaleRecordedEvent(sale *CreditSale) *CreditSaleRecordedEvent {
	return &CreditSaleRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditSaleRecorded, AggregateTypeCreditSale, sale.ID),
		CustomerID:      sale.CustomerID,
		SaleNumber:      sale.Number,
		TotalAmount:     sale.TotalAmount,
		DueDate:         sale.DueDate,
	}
}

// CreditSaleCancelledEvent is raised when an unpaid sale is voided
type CreditSaleCancelledEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	SaleNumber int64     `json:"sale_number"`
}

// NewCreditSaleCancelledEvent creates a CreditSaleCancelledEvent
func NewCreditSaleCancelledEvent(sale *CreditSale) *CreditSaleCancelledEvent {
	return &CreditSaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditSaleCancelled, AggregateTypeCreditSale, sale.ID),
		CustomerID:      sale.CustomerID,
		SaleNumber:      sale.Number,
	}
}
