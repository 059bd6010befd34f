package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteKind distinguishes retail feeds from resale marketplaces.
type QuoteKind string

const (
	// KindRetail marks quotes sourced from first-party retail feeds.
	KindRetail QuoteKind = "retail"
	// KindResale marks quotes sourced from resale marketplaces.
	KindResale QuoteKind = "resale"
)

// Availability captures stock state as reported by a pricing source.
type Availability string

const (
	// AvailabilityInStock marks a purchasable listing.
	AvailabilityInStock Availability = "in-stock"
	// AvailabilitySoldOut marks a listing reported as sold out.
	AvailabilitySoldOut Availability = "sold-out"
	// AvailabilityUnknown marks listings whose stock state the source omitted.
	AvailabilityUnknown Availability = "unknown"
)

// Money pairs a decimal amount with its ISO currency code.
type Money struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// Less orders monetary values by amount. Currencies are not converted;
// sources within one aggregation quote in a single currency.
func (m Money) Less(other Money) bool {
	return m.Amount.LessThan(other.Amount)
}

// PriceQuote is one normalized price observation from a single source.
// Unknown upstream fields stay absent or Unknown, never zero-valued.
type PriceQuote struct {
	Source       string       `json:"source"`
	Kind         QuoteKind    `json:"kind"`
	Price        Money        `json:"price"`
	Size         string       `json:"size,omitempty"`
	Availability Availability `json:"availability"`
	URL          string       `json:"url,omitempty"`
	FetchedAt    time.Time    `json:"fetched_at"`
}

// SizeRow is one row of a size-conversion chart.
type SizeRow struct {
	US string `json:"us"`
	UK string `json:"uk"`
	EU string `json:"eu"`
	CM string `json:"cm"`
}

// SizeChart is a size-conversion table attributed to its source feed.
type SizeChart struct {
	Source string    `json:"source"`
	Rows   []SizeRow `json:"rows"`
}

// ProviderResult is the uniform adapter output: zero or more quotes plus an
// optional size chart (only the size-chart feed populates it).
type ProviderResult struct {
	Quotes    []PriceQuote `json:"quotes"`
	SizeChart *SizeChart   `json:"size_chart,omitempty"`
}
