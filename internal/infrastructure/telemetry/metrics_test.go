package telemetry

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(t.Context(), MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:4317",
		ServiceName:       "ledger-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("ledger"))
	assert.NoError(t, mp.Shutdown(t.Context()))
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	m, err := NewLedgerMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
	assert.Nil(t, m)
}

func TestLedgerMetrics_RecordsPayments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })

	m, err := NewLedgerMetrics(provider.Meter("ledger"))
	require.NoError(t, err)

	ctx := t.Context()
	m.RecordPaymentAccepted(ctx, "Cash", decimal.RequireFromString("40.00"))
	m.RecordPaymentAccepted(ctx, "Cash", decimal.RequireFromString("60.00"))
	m.RecordPaymentRejected(ctx, "POS", "PROOF_REQUIRED")
	m.RecordPaymentRejected(ctx, "Cash", "")

	metrics := collect(t, reader)

	total, ok := metrics["ledger_payment_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := map[string]int64{}
	for _, dp := range total.DataPoints {
		method, _ := dp.Attributes.Value(AttrPaymentMethod)
		status, _ := dp.Attributes.Value(AttrPaymentStatus)
		code, _ := dp.Attributes.Value(AttrErrorCode)
		counts[method.AsString()+"/"+status.AsString()+"/"+code.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{
		"Cash/accepted/":              2,
		"POS/rejected/PROOF_REQUIRED": 1,
		"Cash/rejected/internal":      1,
	}, counts)

	amount, ok := metrics["ledger_payment_amount"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, amount.DataPoints, 1)
	assert.Equal(t, uint64(2), amount.DataPoints[0].Count)
	assert.InDelta(t, 100.0, amount.DataPoints[0].Sum, 0.001)
}
