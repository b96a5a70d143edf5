package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecordersEmitInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := New(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordChatMessage(ctx, "buy")
	m.RecordLLMCall(ctx, "extract", time.Now(), errors.New("deadline exceeded"))
	m.RecordOrderCreated(ctx, 300)
	m.RecordProductCache(ctx, false)

	got := collect(t, reader)
	for _, name := range []string{"chat_messages_total", "llm_failures_total", "llm_latency_ms", "orders_created_total", "order_value_total", "product_cache_misses_total"} {
		assert.Contains(t, got, name)
	}

	sum, ok := got["order_value_total"].Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, 300.0, sum.DataPoints[0].Value)
}

func TestNoopDoesNotPanic(t *testing.T) {
	m := Noop()
	assert.NotPanics(t, func() {
		m.RecordBidCreated(context.Background())
		m.RecordDiscoveryEvent(context.Background(), "bid.posted")
	})
}
