package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// PaymentStatus labels the outcome of a payment attempt
type PaymentStatus string

const (
	PaymentStatusAccepted PaymentStatus = "accepted"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// LedgerMetrics counts payment attempts by method and outcome and records
// the distribution of accepted amounts.
type LedgerMetrics struct {
	paymentTotal  *Counter
	paymentAmount *Histogram
}

// NewLedgerMetrics creates the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	paymentTotal, err := NewCounter(meter,
		"ledger_payment_total",
		"Payment attempts by method and outcome",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	paymentAmount, err := NewHistogram(meter, HistogramOpts{
		Name:        "ledger_payment_amount",
		Description: "Amounts of accepted payments",
		Unit:        "{currency}",
		Boundaries:  PaymentAmountBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &LedgerMetrics{
		paymentTotal:  paymentTotal,
		paymentAmount: paymentAmount,
	}, nil
}

// RecordPaymentAccepted counts an allocated payment and records its amount
func (m *LedgerMetrics) RecordPaymentAccepted(ctx context.Context, method string, amount decimal.Decimal) {
	m.paymentTotal.Inc(ctx,
		AttrPaymentMethod.String(method),
		AttrPaymentStatus.String(string(PaymentStatusAccepted)),
	)
	m.paymentAmount.Record(ctx, amount.InexactFloat64(), AttrPaymentMethod.String(method))
}

// RecordPaymentRejected counts a refused payment. code is the ledger error
// code, or "internal" for failures without one.
func (m *LedgerMetrics) RecordPaymentRejected(ctx context.Context, method, code string) {
	if code == "" {
		code = "internal"
	}
	m.paymentTotal.Inc(ctx,
		AttrPaymentMethod.String(method),
		AttrPaymentStatus.String(string(PaymentStatusRejected)),
		AttrErrorCode.String(code),
	)
}
