package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/solescan/solescan"

// Metrics bundles the pipeline's instruments. A nil *Metrics is a valid
// receiver for every Record method, so call sites never need nil checks.
type Metrics struct {
	requests        metric.Int64Counter
	cacheLookups    metric.Int64Counter
	providerLatency metric.Float64Histogram
	degradedSources metric.Int64Counter
}

// NewMetrics registers the pipeline instruments on the provider's meter.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)

	requests, err := meter.Int64Counter("solescan.pipeline.requests",
		metric.WithDescription("Pricing requests by terminal outcome."))
	if err != nil {
		return nil, fmt.Errorf("create requests counter: %w", err)
	}
	cacheLookups, err := meter.Int64Counter("solescan.cache.lookups",
		metric.WithDescription("Cache lookups by hit/miss result."))
	if err != nil {
		return nil, fmt.Errorf("create cache counter: %w", err)
	}
	providerLatency, err := meter.Float64Histogram("solescan.provider.fetch.duration",
		metric.WithDescription("Provider fetch latency in seconds."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create latency histogram: %w", err)
	}
	degradedSources, err := meter.Int64Counter("solescan.aggregate.degraded",
		metric.WithDescription("Providers degraded per aggregation."))
	if err != nil {
		return nil, fmt.Errorf("create degraded counter: %w", err)
	}

	return &Metrics{
		requests:        requests,
		cacheLookups:    cacheLookups,
		providerLatency: providerLatency,
		degradedSources: degradedSources,
	}, nil
}

// RecordOutcome counts one finished pricing request.
func (m *Metrics) RecordOutcome(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordCacheLookup counts one cache lookup.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}

// RecordProviderFetch observes one provider call.
func (m *Metrics) RecordProviderFetch(ctx context.Context, provider string, elapsed time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.providerLatency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("success", ok),
	))
}

// RecordDegradedSource counts one degraded provider within an aggregation.
func (m *Metrics) RecordDegradedSource(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	m.degradedSources.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}
