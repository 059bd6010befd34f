package retail

import (
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/solescan/solescan/errs"
	"github.com/solescan/solescan/internal/schema"
)

// searchPayload mirrors the feed's search response. Pointers distinguish
// absent prices from legitimate zero values.
type searchPayload struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Name                 string   `json:"name"`
	Brand                string   `json:"brand"`
	StyleID              string   `json:"sku"`
	Currency             string   `json:"currency"`
	RetailPrice          *float64 `json:"retailPrice"`
	EstimatedMarketValue *float64 `json:"estimatedMarketValue"`
	Availability         string   `json:"availability"`
	Links                struct {
		Retail string `json:"retail"`
	} `json:"links"`
}

// parseSearch normalizes the feed payload into quotes. The retail price maps
// to a retail quote; the feed's estimated market value, when present, maps
// to a resale quote attributed to the same source.
func parseSearch(body []byte, identity schema.SneakerIdentity, fetchedAt time.Time) (schema.ProviderResult, error) {
	var payload searchPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return schema.ProviderResult{}, errs.New(SourceName, errs.CodeProviderUnavailable,
			errs.WithMessage("malformed search payload"), errs.WithCause(err))
	}
	if len(payload.Results) == 0 {
		return schema.ProviderResult{}, errs.New(SourceName, errs.CodeProviderEmpty,
			errs.WithMessage("no results for identity"))
	}

	result := pickResult(payload.Results, identity)
	currency := strings.ToUpper(strings.TrimSpace(result.Currency))
	if currency == "" {
		currency = "USD"
	}

	var quotes []schema.PriceQuote
	if result.RetailPrice != nil {
		quotes = append(quotes, schema.PriceQuote{
			Source:       SourceName,
			Kind:         schema.KindRetail,
			Price:        schema.Money{Currency: currency, Amount: decimal.NewFromFloat(*result.RetailPrice)},
			Size:         "",
			Availability: parseAvailability(result.Availability),
			URL:          strings.TrimSpace(result.Links.Retail),
			FetchedAt:    fetchedAt,
		})
	}
	if result.EstimatedMarketValue != nil {
		quotes = append(quotes, schema.PriceQuote{
			Source:       SourceName,
			Kind:         schema.KindResale,
			Price:        schema.Money{Currency: currency, Amount: decimal.NewFromFloat(*result.EstimatedMarketValue)},
			Size:         "",
			Availability: schema.AvailabilityUnknown,
			URL:          strings.TrimSpace(result.Links.Retail),
			FetchedAt:    fetchedAt,
		})
	}
	if len(quotes) == 0 {
		return schema.ProviderResult{}, errs.New(SourceName, errs.CodeProviderEmpty,
			errs.WithMessage("result carried no price fields"))
	}
	return schema.ProviderResult{Quotes: quotes, SizeChart: nil}, nil
}

// pickResult prefers the result whose style code matches the identity SKU;
// otherwise the feed's first (most relevant) result stands.
func pickResult(results []searchResult, identity schema.SneakerIdentity) searchResult {
	if identity.HasSKU() {
		want := strings.ToUpper(strings.TrimSpace(identity.SKU))
		for _, result := range results {
			if strings.ToUpper(strings.TrimSpace(result.StyleID)) == want {
				return result
			}
		}
	}
	return results[0]
}

func parseAvailability(raw string) schema.Availability {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "in_stock", "in-stock", "instock", "available":
		return schema.AvailabilityInStock
	case "sold_out", "sold-out", "soldout", "unavailable":
		return schema.AvailabilitySoldOut
	default:
		return schema.AvailabilityUnknown
	}
}
