package event

import (
	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/partner"
)

// RegisterAllEvents registers every ledger event type with the serializer so
// the outbox processor can decode stored payloads
func RegisterAllEvents(serializer *EventSerializer) {
	serializer.Register(finance.EventTypePaymentRecorded, &finance.PaymentRecordedEvent{})
	serializer.Register(finance.EventTypeCreditSaleRecorded, &finance.CreditSaleRecordedEvent{})
	serializer.Register(finance.EventTypeCreditSaleCancelled, &finance.CreditSaleCancelledEvent{})

	serializer.Register(partner.EventTypeCustomerCreated, &partner.CustomerCreatedEvent{})
	serializer.Register(partner.EventTypeCustomerBalanceChanged, &partner.CustomerBalanceChangedEvent{})
}
