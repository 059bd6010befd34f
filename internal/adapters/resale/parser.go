package resale

import (
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/solescan/solescan/errs"
	"github.com/solescan/solescan/internal/schema"
)

// marketPayload mirrors the marketplace market-data response.
type marketPayload struct {
	ProductSlug string `json:"slug"`
	Currency    string `json:"currency"`
	URL         string `json:"url"`
	Asks        []ask  `json:"asks"`
}

type ask struct {
	Size      string `json:"size"`
	Amount    string `json:"amount"`
	Available *bool  `json:"available"`
}

// parseMarket normalizes ask data into per-size resale quotes. Ask amounts
// arrive as decimal strings; unparseable asks are skipped rather than
// surfacing as zero prices.
func (a *Adapter) parseMarket(body []byte, identity schema.SneakerIdentity) (schema.ProviderResult, error) {
	var payload marketPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return schema.ProviderResult{}, errs.New(SourceName, errs.CodeProviderUnavailable,
			errs.WithMessage("malformed market payload"), errs.WithCause(err))
	}
	if len(payload.Asks) == 0 {
		return schema.ProviderResult{}, errs.New(SourceName, errs.CodeProviderEmpty,
			errs.WithMessage("no asks for identity"))
	}

	currency := strings.ToUpper(strings.TrimSpace(payload.Currency))
	if currency == "" {
		currency = "USD"
	}
	listing := a.listingFor(payload, identity)
	fetchedAt := a.clock().UTC()

	quotes := make([]schema.PriceQuote, 0, len(payload.Asks))
	for _, entry := range payload.Asks {
		amount, err := decimal.NewFromString(strings.TrimSpace(entry.Amount))
		if err != nil {
			continue
		}
		availability := schema.AvailabilityUnknown
		if entry.Available != nil {
			if *entry.Available {
				availability = schema.AvailabilityInStock
			} else {
				availability = schema.AvailabilitySoldOut
			}
		}
		quotes = append(quotes, schema.PriceQuote{
			Source:       SourceName,
			Kind:         schema.KindResale,
			Price:        schema.Money{Currency: currency, Amount: amount},
			Size:         strings.TrimSpace(entry.Size),
			Availability: availability,
			URL:          listing,
			FetchedAt:    fetchedAt,
		})
	}
	if len(quotes) == 0 {
		return schema.ProviderResult{}, errs.New(SourceName, errs.CodeProviderEmpty,
			errs.WithMessage("no parseable asks for identity"))
	}
	return schema.ProviderResult{Quotes: quotes, SizeChart: nil}, nil
}

// listingFor prefers the URL the marketplace returned; otherwise it builds
// one from the product slug, falling back to a slug of the display name.
func (a *Adapter) listingFor(payload marketPayload, identity schema.SneakerIdentity) string {
	if link := strings.TrimSpace(payload.URL); link != "" {
		return link
	}
	if a.listingURL == "" {
		return ""
	}
	slug := strings.TrimSpace(payload.ProductSlug)
	if slug == "" {
		slug = Slugify(identity.Label())
	}
	if slug == "" {
		return ""
	}
	return a.listingURL + "/" + slug
}
