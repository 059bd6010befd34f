// Package retail adapts the sneaker-database retail feed to the provider contract.
package retail

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/solescan/solescan/internal/adapters/shared"
	"github.com/solescan/solescan/internal/schema"
)

// SourceName identifies this feed in quotes and degraded-source lists.
const SourceName = "sneakerdb"

const searchLimit = 10

// Fetcher retrieves raw payloads from the retail feed.
type Fetcher interface {
	GetJSON(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// Config carries the feed's transport settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	Politeness time.Duration
}

// Adapter normalizes retail-feed responses into price quotes.
type Adapter struct {
	fetcher Fetcher
	clock   func() time.Time
}

// New constructs the retail adapter with an HTTP fetcher.
func New(cfg Config) *Adapter {
	headers := map[string]string{"X-API-Key": cfg.APIKey}
	fetcher := shared.NewRESTClient(SourceName, cfg.BaseURL, cfg.Timeout, cfg.Politeness, headers)
	return NewWithFetcher(fetcher, nil)
}

// NewWithFetcher wires an explicit fetcher and clock, primarily for tests.
func NewWithFetcher(fetcher Fetcher, clock func() time.Time) *Adapter {
	if clock == nil {
		clock = time.Now
	}
	return &Adapter{fetcher: fetcher, clock: clock}
}

// Name implements the provider contract.
func (a *Adapter) Name() string { return SourceName }

// Fetch searches the feed for the identity and normalizes the best match.
// SKU-carrying identities search by style code for an exact hit.
func (a *Adapter) Fetch(ctx context.Context, identity schema.SneakerIdentity) (schema.ProviderResult, error) {
	query := url.Values{}
	if identity.HasSKU() {
		query.Set("query", identity.SKU)
	} else {
		query.Set("query", identity.Label())
	}
	query.Set("limit", strconv.Itoa(searchLimit))

	body, err := a.fetcher.GetJSON(ctx, "/search", query)
	if err != nil {
		return schema.ProviderResult{}, err
	}
	return parseSearch(body, identity, a.clock().UTC())
}
