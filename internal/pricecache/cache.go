// Package pricecache stores unified price records keyed by canonical identity.
package pricecache

import (
	"context"
	"time"

	"github.com/solescan/solescan/errs"
	"github.com/solescan/solescan/internal/schema"
)

// Store is the cache contract. Get reports a miss for absent or expired
// entries; Put replaces the entry wholesale; Invalidate supports manual
// refresh requests.
type Store interface {
	Get(ctx context.Context, identity schema.SneakerIdentity) (schema.PriceRecord, error)
	Put(ctx context.Context, record schema.PriceRecord, ttl time.Duration) error
	Invalidate(ctx context.Context, identity schema.SneakerIdentity) error
}

// Miss returns the canonical cache-miss error for the identity.
func Miss(identity schema.SneakerIdentity) error {
	return errs.New("pricecache", errs.CodeNotFound,
		errs.WithMessage("no fresh record for "+identity.CacheKey()))
}

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool {
	return errs.HasCode(err, errs.CodeNotFound)
}

// Default freshness windows. Resale asks move fast; retail prices and size
// charts barely move; a record showing sold-out state is rechecked soonest
// because stale sold-out state is worse than a refetch.
const (
	DefaultResaleTTL  = 15 * time.Minute
	DefaultRetailTTL  = 6 * time.Hour
	DefaultSoldOutTTL = 5 * time.Minute
)

// TTLPolicy selects the freshness window for a record.
type TTLPolicy struct {
	Resale  time.Duration
	Retail  time.Duration
	SoldOut time.Duration
}

// DefaultTTLPolicy returns the standard freshness windows.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Resale:  DefaultResaleTTL,
		Retail:  DefaultRetailTTL,
		SoldOut: DefaultSoldOutTTL,
	}
}

// For picks the window for the record: sold-out anywhere wins, then any
// resale quote, then the slow retail/size-chart-only window.
func (p TTLPolicy) For(record schema.PriceRecord) time.Duration {
	hasResale := false
	for _, quote := range record.Quotes {
		if quote.Availability == schema.AvailabilitySoldOut {
			return p.SoldOut
		}
		if quote.Kind == schema.KindResale {
			hasResale = true
		}
	}
	if hasResale {
		return p.Resale
	}
	return p.Retail
}
