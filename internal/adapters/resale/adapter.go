// Package resale adapts a resale-marketplace market feed to the provider contract.
package resale

import (
	"context"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/solescan/solescan/internal/adapters/shared"
	"github.com/solescan/solescan/internal/schema"
)

// SourceName identifies this marketplace in quotes and degraded-source lists.
const SourceName = "resale-market"

// Fetcher retrieves raw payloads from the marketplace API.
type Fetcher interface {
	GetJSON(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// Config carries the marketplace transport settings.
type Config struct {
	BaseURL    string
	APIKey     string
	ListingURL string
	Timeout    time.Duration
	Politeness time.Duration
}

// Adapter normalizes marketplace ask data into per-size resale quotes.
type Adapter struct {
	fetcher    Fetcher
	listingURL string
	clock      func() time.Time
}

// New constructs the resale adapter with an HTTP fetcher.
func New(cfg Config) *Adapter {
	headers := map[string]string{"X-API-Key": cfg.APIKey}
	fetcher := shared.NewRESTClient(SourceName, cfg.BaseURL, cfg.Timeout, cfg.Politeness, headers)
	return NewWithFetcher(fetcher, cfg.ListingURL, nil)
}

// NewWithFetcher wires an explicit fetcher and clock, primarily for tests.
func NewWithFetcher(fetcher Fetcher, listingURL string, clock func() time.Time) *Adapter {
	if clock == nil {
		clock = time.Now
	}
	return &Adapter{
		fetcher:    fetcher,
		listingURL: strings.TrimRight(listingURL, "/"),
		clock:      clock,
	}
}

// Name implements the provider contract.
func (a *Adapter) Name() string { return SourceName }

// Fetch queries market data for the identity. The marketplace keys listings
// by style code when available and by product slug otherwise.
func (a *Adapter) Fetch(ctx context.Context, identity schema.SneakerIdentity) (schema.ProviderResult, error) {
	query := url.Values{}
	if identity.HasSKU() {
		query.Set("styleId", identity.SKU)
	} else {
		query.Set("slug", Slugify(identity.Label()))
	}

	body, err := a.fetcher.GetJSON(ctx, "/market", query)
	if err != nil {
		return schema.ProviderResult{}, err
	}
	return a.parseMarket(body, identity)
}

// Slugify reduces a display name to the marketplace's URL slug form.
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "-")
}
