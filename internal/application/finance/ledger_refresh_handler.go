package finance

import (
	"context"
	"fmt"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/bakery/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerRefreshHandler tells open ledger views to re-read a customer whose
// balance may have changed. It reads the balance fresh, so a redelivered or
// reordered event still announces the current value.
type LedgerRefreshHandler struct {
	customers partner.CustomerRepository
	notifier  LedgerNotifier
	logger    *zap.Logger
}

// NewLedgerRefreshHandler creates a handler. notifier may be nil, in which case changes are only logged.
func NewLedgerRefreshHandler(customers partner.CustomerRepository, notifier LedgerNotifier, logger *zap.Logger) *LedgerRefreshHandler {
	return &LedgerRefreshHandler{customers: customers, notifier: notifier, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *LedgerRefreshHandler) EventTypes() []string {
	return []string{
		finance.EventTypePaymentRecorded,
		finance.EventTypeCreditSaleRecorded,
		finance.EventTypeCreditSaleCancelled,
	}
}

// Handle publishes the customer's current balance
func (h *LedgerRefreshHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var customerID uuid.UUID
	switch e := event.(type) {
	case *finance.PaymentRecordedEvent:
		customerID = e.CustomerID
	case *finance.CreditSaleRecordedEvent:
		customerID = e.CustomerID
	case *finance.CreditSaleCancelledEvent:
		customerID = e.CustomerID
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	customer, err := h.customers.FindByID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to load customer %s: %w", customerID, err)
	}

	h.logger.Info("ledger changed",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("customer_id", customerID.String()),
		zap.String("balance", customer.Balance.String()),
	)
	if h.notifier == nil {
		return nil
	}
	if err := h.notifier.NotifyLedgerChanged(ctx, customerID, customer.Balance); err != nil {
		return fmt.Errorf("failed to notify ledger change: %w", err)
	}
	return nil
}

var _ shared.EventHandler = (*LedgerRefreshHandler)(nil)
