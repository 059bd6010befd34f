package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/solescan/solescan/errs"
	"github.com/solescan/solescan/internal/adapters"
	"github.com/solescan/solescan/internal/adapters/fake"
	"github.com/solescan/solescan/internal/schema"
)

var testIdentity = schema.SneakerIdentity{
	Brand:       "Jordan",
	Model:       "Air Jordan 1 Retro High OG",
	Colorway:    "University Blue",
	SKU:         "555088-134",
	DisplayName: "Air Jordan 1 Retro High OG University Blue",
}

func retailQuote(amount float64) schema.PriceQuote {
	return schema.PriceQuote{
		Source:       "sneakerdb",
		Kind:         schema.KindRetail,
		Price:        schema.Money{Currency: "USD", Amount: decimal.NewFromFloat(amount)},
		Availability: schema.AvailabilityInStock,
	}
}

func resaleQuote(size string, amount float64) schema.PriceQuote {
	return schema.PriceQuote{
		Source:       "resale-market",
		Kind:         schema.KindResale,
		Price:        schema.Money{Currency: "USD", Amount: decimal.NewFromFloat(amount)},
		Size:         size,
		Availability: schema.AvailabilityInStock,
	}
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestAggregateMergesAllProviders(t *testing.T) {
	providers := []adapters.Provider{
		&fake.Provider{ProviderName: "sneakerdb", Result: schema.ProviderResult{Quotes: []schema.PriceQuote{retailQuote(170)}}},
		&fake.Provider{ProviderName: "resale-market", Result: schema.ProviderResult{Quotes: []schema.PriceQuote{resaleQuote("9", 245), resaleQuote("10", 238)}}},
		&fake.Provider{ProviderName: "sizechart", Result: schema.ProviderResult{SizeChart: &schema.SizeChart{Source: "sizechart", Rows: []schema.SizeRow{{US: "9"}}}}},
	}

	a := New(WithClock(fixedClock))
	record, err := a.Aggregate(context.Background(), testIdentity, providers)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if len(record.Quotes) != 3 {
		t.Fatalf("expected 3 merged quotes, got %d", len(record.Quotes))
	}
	if record.Quotes[0].Kind != schema.KindRetail {
		t.Fatalf("retail quote should sort first, got %s", record.Quotes[0].Kind)
	}
	if record.BestRetail == nil || !record.BestRetail.Price.Amount.Equal(decimal.NewFromInt(170)) {
		t.Fatalf("unexpected best retail: %+v", record.BestRetail)
	}
	if record.BestResale == nil || !record.BestResale.Price.Amount.Equal(decimal.NewFromInt(238)) {
		t.Fatalf("unexpected best resale: %+v", record.BestResale)
	}
	if record.SizeChart == nil {
		t.Fatalf("expected a size chart")
	}
	if len(record.Degraded) != 0 {
		t.Fatalf("no provider should degrade, got %v", record.Degraded)
	}
	if !record.ResolvedAt.Equal(fixedClock()) {
		t.Fatalf("record should carry the injected clock time, got %v", record.ResolvedAt)
	}
}

func TestAggregatePartialDataIsSuccess(t *testing.T) {
	providers := []adapters.Provider{
		&fake.Provider{ProviderName: "sneakerdb", Result: schema.ProviderResult{Quotes: []schema.PriceQuote{retailQuote(170)}}},
		&fake.Provider{ProviderName: "resale-market", Err: errs.New("resale-market", errs.CodeProviderUnavailable)},
		&fake.Provider{ProviderName: "sizechart", Err: errs.New("sizechart", errs.CodeRateLimited)},
	}

	a := New(WithClock(fixedClock))
	record, err := a.Aggregate(context.Background(), testIdentity, providers)
	if err != nil {
		t.Fatalf("one healthy source should be enough: %v", err)
	}
	if len(record.Quotes) != 1 {
		t.Fatalf("expected the retail quote only, got %d", len(record.Quotes))
	}
	if record.BestResale != nil {
		t.Fatalf("best resale should be absent, got %+v", record.BestResale)
	}
	want := []string{"resale-market", "sizechart"}
	if len(record.Degraded) != len(want) {
		t.Fatalf("expected %v degraded, got %v", want, record.Degraded)
	}
	for i, name := range want {
		if record.Degraded[i] != name {
			t.Fatalf("degraded list should follow registration order: %v", record.Degraded)
		}
	}
}

func TestAggregateAllSourcesDegraded(t *testing.T) {
	providers := []adapters.Provider{
		&fake.Provider{ProviderName: "sneakerdb", Err: errs.New("sneakerdb", errs.CodeProviderUnavailable)},
		&fake.Provider{ProviderName: "resale-market", Err: errs.New("resale-market", errs.CodeProviderEmpty)},
	}

	a := New(WithClock(fixedClock))
	_, err := a.Aggregate(context.Background(), testIdentity, providers)
	if !errs.HasCode(err, errs.CodeNoPricingData) {
		t.Fatalf("expected no_pricing_data, got %v", err)
	}
}

func TestAggregateChartOnlyIsSuccess(t *testing.T) {
	providers := []adapters.Provider{
		&fake.Provider{ProviderName: "sneakerdb", Err: errs.New("sneakerdb", errs.CodeProviderEmpty)},
		&fake.Provider{ProviderName: "sizechart", Result: schema.ProviderResult{SizeChart: &schema.SizeChart{Source: "sizechart", Rows: []schema.SizeRow{{US: "9"}}}}},
	}

	a := New(WithClock(fixedClock))
	record, err := a.Aggregate(context.Background(), testIdentity, providers)
	if err != nil {
		t.Fatalf("a chart without quotes is still data: %v", err)
	}
	if record.HasQuotes() {
		t.Fatalf("expected no quotes, got %v", record.Quotes)
	}
	if record.SizeChart == nil {
		t.Fatalf("expected the size chart to survive")
	}
}

func TestAggregateDeterministicAcrossCompletionOrder(t *testing.T) {
	build := func(fastRetail bool) []adapters.Provider {
		retailDelay, resaleDelay := time.Millisecond, 20*time.Millisecond
		if !fastRetail {
			retailDelay, resaleDelay = 20*time.Millisecond, time.Millisecond
		}
		return []adapters.Provider{
			&fake.Provider{ProviderName: "sneakerdb", Delay: retailDelay, Result: schema.ProviderResult{Quotes: []schema.PriceQuote{retailQuote(170)}}},
			&fake.Provider{ProviderName: "resale-market", Delay: resaleDelay, Result: schema.ProviderResult{Quotes: []schema.PriceQuote{resaleQuote("9", 245), resaleQuote("10", 238)}}},
		}
	}

	a := New(WithClock(fixedClock))
	first, err := a.Aggregate(context.Background(), testIdentity, build(true))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	second, err := a.Aggregate(context.Background(), testIdentity, build(false))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if len(first.Quotes) != len(second.Quotes) {
		t.Fatalf("quote counts diverged: %d vs %d", len(first.Quotes), len(second.Quotes))
	}
	for i := range first.Quotes {
		q1, q2 := first.Quotes[i], second.Quotes[i]
		if q1.Source != q2.Source || q1.Kind != q2.Kind || !q1.Price.Amount.Equal(q2.Price.Amount) || q1.Size != q2.Size {
			t.Fatalf("quote order depends on completion order at %d: %+v vs %+v", i, q1, q2)
		}
	}
}

func TestAggregateDeadlineDegradesSlowProviders(t *testing.T) {
	providers := []adapters.Provider{
		&fake.Provider{ProviderName: "sneakerdb", Result: schema.ProviderResult{Quotes: []schema.PriceQuote{retailQuote(170)}}},
		&fake.Provider{ProviderName: "resale-market", Delay: 500 * time.Millisecond, Result: schema.ProviderResult{Quotes: []schema.PriceQuote{resaleQuote("9", 245)}}},
	}

	a := New(WithClock(fixedClock), WithDeadline(50*time.Millisecond))
	record, err := a.Aggregate(context.Background(), testIdentity, providers)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(record.Quotes) != 1 || record.Quotes[0].Source != "sneakerdb" {
		t.Fatalf("only the fast source should contribute, got %+v", record.Quotes)
	}
	if len(record.Degraded) != 1 || record.Degraded[0] != "resale-market" {
		t.Fatalf("the slow source should degrade, got %v", record.Degraded)
	}
}

func TestAggregateRejectsInvalidIdentity(t *testing.T) {
	a := New()
	_, err := a.Aggregate(context.Background(), schema.SneakerIdentity{}, nil)
	if !errs.HasCode(err, errs.CodeInvalid) {
		t.Fatalf("expected invalid_request, got %v", err)
	}
}
