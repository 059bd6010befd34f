// Package sizechart adapts the size-chart feed to the provider contract.
package sizechart

import (
	"context"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/solescan/solescan/errs"
	"github.com/solescan/solescan/internal/adapters/shared"
	"github.com/solescan/solescan/internal/schema"
)

// SourceName identifies this feed in degraded-source lists.
const SourceName = "sizechart"

// Fetcher retrieves raw payloads from the size-chart feed.
type Fetcher interface {
	GetJSON(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// Config carries the feed's transport settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Politeness time.Duration
}

// Adapter fetches size-conversion charts. It contributes no price quotes;
// its result only populates the record's size chart.
type Adapter struct {
	fetcher Fetcher
}

// New constructs the size-chart adapter with an HTTP fetcher.
func New(cfg Config) *Adapter {
	fetcher := shared.NewRESTClient(SourceName, cfg.BaseURL, cfg.Timeout, cfg.Politeness, nil)
	return NewWithFetcher(fetcher)
}

// NewWithFetcher wires an explicit fetcher, primarily for tests.
func NewWithFetcher(fetcher Fetcher) *Adapter {
	return &Adapter{fetcher: fetcher}
}

// Name implements the provider contract.
func (a *Adapter) Name() string { return SourceName }

type chartPayload struct {
	Brand string `json:"brand"`
	Sizes []struct {
		US string `json:"us"`
		UK string `json:"uk"`
		EU string `json:"eu"`
		CM string `json:"cm"`
	} `json:"sizes"`
}

// Fetch retrieves the brand's size chart for the identity.
func (a *Adapter) Fetch(ctx context.Context, identity schema.SneakerIdentity) (schema.ProviderResult, error) {
	query := url.Values{}
	query.Set("brand", identity.Brand)
	query.Set("model", identity.Model)

	body, err := a.fetcher.GetJSON(ctx, "/charts", query)
	if err != nil {
		return schema.ProviderResult{}, err
	}

	var payload chartPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return schema.ProviderResult{}, errs.New(SourceName, errs.CodeProviderUnavailable,
			errs.WithMessage("malformed chart payload"), errs.WithCause(err))
	}
	if len(payload.Sizes) == 0 {
		return schema.ProviderResult{}, errs.New(SourceName, errs.CodeProviderEmpty,
			errs.WithMessage("no chart for brand"))
	}

	rows := make([]schema.SizeRow, 0, len(payload.Sizes))
	for _, size := range payload.Sizes {
		rows = append(rows, schema.SizeRow{
			US: strings.TrimSpace(size.US),
			UK: strings.TrimSpace(size.UK),
			EU: strings.TrimSpace(size.EU),
			CM: strings.TrimSpace(size.CM),
		})
	}
	return schema.ProviderResult{
		Quotes:    nil,
		SizeChart: &schema.SizeChart{Source: SourceName, Rows: rows},
	}, nil
}
