package finance

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptObject is a receipt file ready to be written to storage
type ReceiptObject struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ReceiptStore durably stores receipt images and returns a stable URL for them
type ReceiptStore interface {
	Put(ctx context.Context, obj ReceiptObject) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// LedgerNotifier tells open ledger views that a customer's balance changed
type LedgerNotifier interface {
	NotifyLedgerChanged(ctx context.Context, customerID uuid.UUID, balance decimal.Decimal) error
}

// PaymentMetrics counts payment attempts by outcome
type PaymentMetrics interface {
	RecordPaymentAccepted(ctx context.Context, method string, amount decimal.Decimal)
	RecordPaymentRejected(ctx context.Context, method, code string)
}

type noopPaymentMetrics struct{}

func (noopPaymentMetrics) RecordPaymentAccepted(context.Context, string, decimal.Decimal) {}
func (noopPaymentMetrics) RecordPaymentRejected(context.Context, string, string) {}
