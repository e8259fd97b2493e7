package finance

import (
	"context"
	"fmt"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/shared"
	"go.uber.org/zap"
)

// PaymentAuditHandler writes one structured audit record per recorded payment
type PaymentAuditHandler struct {
	logger *zap.Logger
}

// NewPaymentAuditHandler creates a handler logging to logger's "audit" child
func NewPaymentAuditHandler(logger *zap.Logger) *PaymentAuditHandler {
	return &PaymentAuditHandler{logger: logger.Named("audit")}
}

// EventTypes returns the event types this handler is interested in
func (h *PaymentAuditHandler) EventTypes() []string {
	return []string{finance.EventTypePaymentRecorded}
}

// Handle logs the payment
func (h *PaymentAuditHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	e, ok := event.(*finance.PaymentRecordedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			finance.EventTypePaymentRecorded, event.EventType())
	}

	h.logger.Info("payment recorded",
		zap.String("event_id", e.EventID().String()),
		zap.Time("occurred_at", e.OccurredAt()),
		zap.String("payment_id", e.PaymentID.String()),
		zap.String("customer_id", e.CustomerID.String()),
		zap.String("transaction_id", e.TransactionID.String()),
		zap.String("amount", e.Amount.StringFixed(2)),
		zap.String("payment_method", string(e.Method)),
		zap.String("sale_status", string(e.SaleStatus)),
		zap.String("balance_due", e.BalanceDue.StringFixed(2)),
		zap.String("actor_id", e.RecordedBy.String()),
	)
	return nil
}

var _ shared.EventHandler = (*PaymentAuditHandler)(nil)
