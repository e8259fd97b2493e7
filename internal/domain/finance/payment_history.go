package finance

import (
	"strings"
	"time"

	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentView is a payment joined with its customer's name and sale identifiers
type PaymentView struct {
	PaymentID     uuid.UUID
	PaymentDate   time.Time
	CustomerID    uuid.UUID
	CustomerName  string
	TransactionID uuid.UUID
	SaleNumber    int64
	Amount        decimal.Decimal
	Method        PaymentMethod
	Proof         Proof
	RecordedBy    uuid.UUID
}

// PaymentSortKey is a sortable PaymentView field
type PaymentSortKey string

const (
	PaymentSortByID            PaymentSortKey = "id"
	PaymentSortByPaymentDate   PaymentSortKey = "payment_date"
	PaymentSortByCustomerName  PaymentSortKey = "customer_name"
	PaymentSortByTransactionID PaymentSortKey = "transaction_id"
	PaymentSortByAmount        PaymentSortKey = "amount"
)

var paymentSortKeys = map[PaymentSortKey]bool{
	PaymentSortByID:            true,
	PaymentSortByPaymentDate:   true,
	PaymentSortByCustomerName:  true,
	PaymentSortByTransactionID: true,
	PaymentSortByAmount:        true,
}

// PaymentSort is a resolved sort: one key plus direction. Ties break on id ascending.
type PaymentSort struct {
	Key  PaymentSortKey
	Desc bool
}

// DefaultPaymentSort is newest first
var DefaultPaymentSort = PaymentSort{Key: PaymentSortByPaymentDate, Desc: true}

// ResolvePaymentSort validates a caller-supplied key and order.
// Unknown keys fall back to DefaultPaymentSort regardless of order.
func ResolvePaymentSort(key, order string) PaymentSort {
	k := PaymentSortKey(strings.ToLower(strings.TrimSpace(key)))
	if !paymentSortKeys[k] {
		return DefaultPaymentSort
	}
	return PaymentSort{Key: k, Desc: strings.EqualFold(strings.TrimSpace(order), "desc")}
}

// Less orders a before b under this sort, with the id ascending tie-break
func (s PaymentSort) Less(a, b *PaymentView) bool {
	c := s.compare(a, b)
	if s.Desc {
		c = -c
	}
	if c != 0 {
		return c < 0
	}
	return a.PaymentID.String() < b.PaymentID.String()
}

func (s PaymentSort) compare(a, b *PaymentView) int {
	switch s.Key {
	case PaymentSortByID:
		return strings.Compare(a.PaymentID.String(), b.PaymentID.String())
	case PaymentSortByCustomerName:
		return strings.Compare(a.CustomerName, b.CustomerName)
	case PaymentSortByTransactionID:
		return strings.Compare(a.TransactionID.String(), b.TransactionID.String())
	case PaymentSortByAmount:
		return a.Amount.Cmp(b.Amount)
	default:
		return a.PaymentDate.Compare(b.PaymentDate)
	}
}

// PaymentHistoryFilter selects payments across customers. Nil fields are not applied.
type PaymentHistoryFilter struct {
	CustomerID    *uuid.UUID
	TransactionID *uuid.UUID
	StartDate     *time.Time // inclusive
	EndDate       *time.Time // inclusive
	PaymentMethod *PaymentMethod
	Sort          PaymentSort
	shared.PageRequest
}

// Validate rejects filters that can never match
func (f PaymentHistoryFilter) Validate() error {
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return shared.NewDomainError(shared.CodeInvalidInput, "end_date cannot be before start_date")
	}
	if f.PaymentMethod != nil && !f.PaymentMethod.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Unsupported payment method: "+string(*f.PaymentMethod))
	}
	return nil
}

// Matches reports whether v passes every set criterion
func (f PaymentHistoryFilter) Matches(v *PaymentView) bool {
	if f.CustomerID != nil && v.CustomerID != *f.CustomerID {
		return false
	}
	if f.TransactionID != nil && v.TransactionID != *f.TransactionID {
		return false
	}
	if f.StartDate != nil && v.PaymentDate.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && v.PaymentDate.After(*f.EndDate) {
		return false
	}
	if f.PaymentMethod != nil && v.Method != *f.PaymentMethod {
		return false
	}
	return true
}
