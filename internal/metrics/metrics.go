package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// AppMetrics holds the business and dependency instruments of the service.
type AppMetrics struct {
	ChatMessages     metric.Int64Counter
	LLMFailures      metric.Int64Counter
	LLMLatency       metric.Float64Histogram
	BidsCreated      metric.Int64Counter
	BidTransitions   metric.Int64Counter
	OrdersCreated    metric.Int64Counter
	OrderTransitions metric.Int64Counter
	OrderValue       metric.Float64Counter
	ProductCacheHits metric.Int64Counter
	ProductCacheMiss metric.Int64Counter
	DiscoveryEvents  metric.Int64Counter
}

// Init wires an OTLP/HTTP exporter and returns instruments plus the provider to shut down.
func Init(ctx context.Context, cfg *config.Config) (*AppMetrics, *sdkmetric.MeterProvider, error) {
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.OTELServiceName),
			semconv.ServiceVersion(cfg.OTELServiceVersion),
			attribute.String("deployment.environment", cfg.AppEnv),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporterOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.OTELExporterOTLPEndpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if cfg.OTELExporterOTLPInsecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))),
	)
	otel.SetMeterProvider(provider)

	m, err := New(provider.Meter(cfg.OTELServiceName))
	if err != nil {
		return nil, nil, err
	}
	return m, provider, nil
}

// Noop returns instruments that record nothing.
func Noop() *AppMetrics {
	m, _ := New(noop.NewMeterProvider().Meter("noop"))
	return m
}

// New creates every instrument on the given meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	// milliseconds, up to a minute
	buckets := []float64{10, 50, 100, 200, 400, 800, 1000, 2000, 5000, 10000, 20000, 30000, 60000}

	var (
		m   AppMetrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.ChatMessages, "chat_messages_total", "Chat messages processed, by resolved intent"},
		{&m.LLMFailures, "llm_failures_total", "Text generation calls that failed or returned unusable output"},
		{&m.BidsCreated, "bids_created_total", "Bid requests created"},
		{&m.BidTransitions, "bids_transitions_total", "Bid request status transitions"},
		{&m.OrdersCreated, "orders_created_total", "Orders created from accepted bids"},
		{&m.OrderTransitions, "orders_transitions_total", "Order status transitions"},
		{&m.ProductCacheHits, "product_cache_hits_total", "Product list cache hits"},
		{&m.ProductCacheMiss, "product_cache_misses_total", "Product list cache misses"},
		{&m.DiscoveryEvents, "discovery_events_total", "Change events emitted by the discovery watcher"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
	}

	m.LLMLatency, err = meter.Float64Histogram(
		"llm_latency_ms",
		metric.WithDescription("Text generation latency in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm latency histogram: %w", err)
	}

	m.OrderValue, err = meter.Float64Counter(
		"order_value_total",
		metric.WithDescription("Sum of order totals"),
		metric.WithUnit("INR"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create order value counter: %w", err)
	}

	return &m, nil
}

func (m *AppMetrics) RecordChatMessage(ctx context.Context, intent string) {
	m.ChatMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", intent)))
}

func (m *AppMetrics) RecordLLMCall(ctx context.Context, stage string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	m.LLMLatency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	if err != nil {
		m.LLMFailures.Add(ctx, 1, attrs)
	}
}

func (m *AppMetrics) RecordLLMParseFailure(ctx context.Context, stage string) {
	m.LLMFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *AppMetrics) RecordBidCreated(ctx context.Context) {
	m.BidsCreated.Add(ctx, 1)
}

func (m *AppMetrics) RecordBidTransition(ctx context.Context, status string) {
	m.BidTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *AppMetrics) RecordOrderCreated(ctx context.Context, total float64) {
	m.OrdersCreated.Add(ctx, 1)
	m.OrderValue.Add(ctx, total)
}

func (m *AppMetrics) RecordOrderTransition(ctx context.Context, status string) {
	m.OrderTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *AppMetrics) RecordProductCache(ctx context.Context, hit bool) {
	if hit {
		m.ProductCacheHits.Add(ctx, 1)
		return
	}
	m.ProductCacheMiss.Add(ctx, 1)
}

func (m *AppMetrics) RecordDiscoveryEvent(ctx context.Context, kind string) {
	m.DiscoveryEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
