package event

import (
	"testing"
	"time"

	"github.com/bakery/ledger/internal/domain/finance"
	"github.com/bakery/ledger/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_RoundTrip(t *testing.T) {
	s := NewEventSerializer()
	s.Register("TestEvent", &testEvent{})

	original := newTestEvent("TestEvent")
	payload, err := s.Serialize(original)
	require.NoError(t, err)

	decoded, err := s.Deserialize("TestEvent", payload)
	require.NoError(t, err)

	got, ok := decoded.(*testEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), got.EventID())
	assert.Equal(t, original.AggregateID(), got.AggregateID())
	assert.Equal(t, "test data", got.Data)
}

func TestEventSerializer_UnknownType(t *testing.T) {
	s := NewEventSerializer()

	_, err := s.Deserialize("Nope", []byte(`{}`))
	assert.ErrorContains(t, err, "unknown event type")
}

func TestEventSerializer_BadPayload(t *testing.T) {
	s := NewEventSerializer()
	s.Register("TestEvent", &testEvent{})

	_, err := s.Deserialize("TestEvent", []byte(`{not json`))
	assert.Error(t, err)
}

func TestRegisterAllEvents(t *testing.T) {
	s := NewEventSerializer()
	RegisterAllEvents(s)

	assert.Equal(t, []string{
		finance.EventTypeCreditSaleCancelled,
		finance.EventTypeCreditSaleRecorded,
		partner.EventTypeCustomerBalanceChanged,
		partner.EventTypeCustomerCreated,
		finance.EventTypePaymentRecorded,
	}, s.RegisteredTypes())
}

func TestEventSerializer_PaymentRecordedKeepsDecimals(t *testing.T) {
	s := NewEventSerializer()
	RegisterAllEvents(s)

	sale, err := finance.NewCreditSale(uuid.New(), 100, decimal.RequireFromString("500.00"), time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, sale.ApplyPayment(decimal.RequireFromString("120.50")))
	payment, err := finance.NewPayment(sale, decimal.RequireFromString("120.50"), finance.PaymentMethodCash, finance.NoProof(), uuid.New(), time.Now())
	require.NoError(t, err)

	payload, err := s.Serialize(finance.NewPaymentRecordedEvent(sale, payment))
	require.NoError(t, err)
	decoded, err := s.Deserialize(finance.EventTypePaymentRecorded, payload)
	require.NoError(t, err)

	evt := decoded.(*finance.PaymentRecordedEvent)
	assert.True(t, evt.Amount.Equal(decimal.RequireFromString("120.50")))
	assert.True(t, evt.BalanceDue.Equal(decimal.RequireFromString("379.50")))
	assert.Equal(t, finance.SaleStatusPartiallyPaid, evt.SaleStatus)
	assert.Equal(t, sale.ID, evt.AggregateID())
}
