package schema

import (
	"sort"
	"time"
)

// PriceRecord is the aggregator's unified output for one identity. Records
// are supersession-only: a refresh produces a new record, never an in-place
// mutation of a published one.
type PriceRecord struct {
	Identity   SneakerIdentity `json:"identity"`
	Quotes     []PriceQuote    `json:"quotes"`
	BestRetail *PriceQuote     `json:"best_retail,omitempty"`
	BestResale *PriceQuote     `json:"best_resale,omitempty"`
	SizeChart  *SizeChart      `json:"size_chart,omitempty"`
	Degraded   []string        `json:"degraded,omitempty"`
	ResolvedAt time.Time       `json:"resolved_at"`
}

// Clone returns a deep copy of the record so cached state is never aliased
// by callers.
func (r PriceRecord) Clone() PriceRecord {
	clone := r
	if r.Quotes != nil {
		clone.Quotes = make([]PriceQuote, len(r.Quotes))
		copy(clone.Quotes, r.Quotes)
	}
	if r.BestRetail != nil {
		best := *r.BestRetail
		clone.BestRetail = &best
	}
	if r.BestResale != nil {
		best := *r.BestResale
		clone.BestResale = &best
	}
	if r.SizeChart != nil {
		chart := SizeChart{Source: r.SizeChart.Source, Rows: nil}
		if r.SizeChart.Rows != nil {
			chart.Rows = make([]SizeRow, len(r.SizeChart.Rows))
			copy(chart.Rows, r.SizeChart.Rows)
		}
		clone.SizeChart = &chart
	}
	if r.Degraded != nil {
		clone.Degraded = make([]string, len(r.Degraded))
		copy(clone.Degraded, r.Degraded)
	}
	return clone
}

// HasQuotes reports whether any source contributed at least one quote.
func (r PriceRecord) HasQuotes() bool {
	return len(r.Quotes) > 0
}

// SortQuotes orders quotes deterministically: retail before resale, then
// price ascending, then source and size as stable tie-breakers. The order
// never depends on provider completion order.
func SortQuotes(quotes []PriceQuote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		a, b := quotes[i], quotes[j]
		if a.Kind != b.Kind {
			return a.Kind == KindRetail
		}
		if !a.Price.Amount.Equal(b.Price.Amount) {
			return a.Price.Less(b.Price)
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Size < b.Size
	})
}

// BestQuote selects the minimum-price quote of the given kind whose
// availability is not sold-out, or nil when none qualifies.
func BestQuote(quotes []PriceQuote, kind QuoteKind) *PriceQuote {
	var best *PriceQuote
	for i := range quotes {
		q := quotes[i]
		if q.Kind != kind || q.Availability == AvailabilitySoldOut {
			continue
		}
		if best == nil || q.Price.Less(best.Price) {
			candidate := q
			best = &candidate
		}
	}
	return best
}
