// Package aggregate fans out to pricing providers and merges their quotes
// into one unified price record.
package aggregate

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/solescan/solescan/errs"
	"github.com/solescan/solescan/internal/adapters"
	"github.com/solescan/solescan/internal/observability"
	"github.com/solescan/solescan/internal/schema"
	"github.com/solescan/solescan/internal/telemetry"
)

// DefaultDeadline bounds one fan-out across all providers.
const DefaultDeadline = 8 * time.Second

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithDeadline overrides the shared fan-out deadline.
func WithDeadline(deadline time.Duration) Option {
	return func(a *Aggregator) {
		if deadline > 0 {
			a.deadline = deadline
		}
	}
}

// WithClock overrides the aggregator clock, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(a *Aggregator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithMetrics attaches pipeline instruments.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = metrics
	}
}

// Aggregator merges provider results deterministically: provider failures
// degrade that source only, never the whole call.
type Aggregator struct {
	deadline time.Duration
	clock    func() time.Time
	metrics  *telemetry.Metrics
}

// New constructs an Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{deadline: DefaultDeadline, clock: time.Now, metrics: nil}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Aggregate invokes every provider concurrently under one shared deadline
// and merges whatever completed. Quotes are ordered retail before resale,
// then price ascending, regardless of completion order. It fails with
// no_pricing_data only when every source degraded and nothing at all came
// back; a partial result is a success.
func (a *Aggregator) Aggregate(ctx context.Context, identity schema.SneakerIdentity, providers []adapters.Provider) (schema.PriceRecord, error) {
	if err := identity.Validate(); err != nil {
		return schema.PriceRecord{}, err
	}
	if len(providers) == 0 {
		return schema.PriceRecord{}, errs.New("aggregator", errs.CodeNoPricingData,
			errs.WithMessage("no pricing sources registered"))
	}
	fanoutCtx, cancel := context.WithTimeout(ctx, a.deadline)
	defer cancel()

	results := make([]schema.ProviderResult, len(providers))
	failures := make([]error, len(providers))

	p := pool.New().WithMaxGoroutines(len(providers))
	for idx, provider := range providers {
		i := idx
		prov := provider
		p.Go(func() {
			start := time.Now()
			result, err := prov.Fetch(fanoutCtx, identity)
			a.metrics.RecordProviderFetch(ctx, prov.Name(), time.Since(start), err == nil)
			if err != nil {
				failures[i] = err
				return
			}
			results[i] = result
		})
	}
	p.Wait()

	record := schema.PriceRecord{
		Identity:   identity,
		Quotes:     nil,
		BestRetail: nil,
		BestResale: nil,
		SizeChart:  nil,
		Degraded:   nil,
		ResolvedAt: a.clock().UTC(),
	}
	for i, provider := range providers {
		if err := failures[i]; err != nil {
			record.Degraded = append(record.Degraded, provider.Name())
			observability.Log().Debug("provider degraded",
				observability.Field{Key: "provider", Value: provider.Name()},
				observability.Field{Key: "error", Value: err.Error()},
			)
			a.metrics.RecordDegradedSource(ctx, provider.Name())
			continue
		}
		record.Quotes = append(record.Quotes, results[i].Quotes...)
		if record.SizeChart == nil && results[i].SizeChart != nil {
			record.SizeChart = results[i].SizeChart
		}
	}

	if len(record.Quotes) == 0 && record.SizeChart == nil {
		return schema.PriceRecord{}, errs.New("aggregator", errs.CodeNoPricingData,
			errs.WithMessage("all pricing sources degraded"))
	}

	schema.SortQuotes(record.Quotes)
	record.BestRetail = schema.BestQuote(record.Quotes, schema.KindRetail)
	record.BestResale = schema.BestQuote(record.Quotes, schema.KindResale)
	return record, nil
}
