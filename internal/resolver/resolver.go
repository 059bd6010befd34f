// Package resolver turns raw classifier labels into ranked canonical sneaker identities.
package resolver

import (
	"sort"

	"github.com/solescan/solescan/errs"
	"github.com/solescan/solescan/internal/schema"
)

const (
	// DefaultThreshold discards classifier labels below this confidence.
	DefaultThreshold = 0.5
	// DefaultTopK bounds how many ranked candidates one resolution returns.
	DefaultTopK = 3
)

// Lexicon is the alias-table collaborator the resolver matches against.
type Lexicon interface {
	Match(text string) (schema.SneakerIdentity, float64, bool)
	LookupSKU(sku string) (schema.SneakerIdentity, bool)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithThreshold overrides the minimum classifier confidence.
func WithThreshold(threshold float64) Option {
	return func(r *Resolver) {
		if threshold > 0 {
			r.threshold = threshold
		}
	}
}

// WithTopK overrides the maximum number of ranked candidates returned.
func WithTopK(k int) Option {
	return func(r *Resolver) {
		if k > 0 {
			r.topK = k
		}
	}
}

// Resolver ranks lexicon matches for classifier output.
type Resolver struct {
	lexicon   Lexicon
	threshold float64
	topK      int
}

// New constructs a Resolver over the provided lexicon.
func New(lexicon Lexicon, opts ...Option) *Resolver {
	r := &Resolver{lexicon: lexicon, threshold: DefaultThreshold, topK: DefaultTopK}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve maps labels onto ranked identity candidates. Labels under the
// confidence threshold are discarded before matching; a label carrying a
// style code resolves through the SKU index ahead of fuzzy name matching.
// Resolution fails with a no_match error rather than guessing.
func (r *Resolver) Resolve(labels []schema.ClassifierLabel) ([]schema.Candidate, error) {
	survivors := labels[:0:0]
	for _, label := range labels {
		if label.Confidence >= r.threshold {
			survivors = append(survivors, label)
		}
	}
	if len(survivors) == 0 {
		return nil, errs.New("resolver", errs.CodeNoMatch,
			errs.WithMessage("no classifier label met the confidence threshold"))
	}

	byKey := make(map[string]schema.Candidate)
	for _, label := range survivors {
		identity, quality, ok := r.match(label.Text)
		if !ok {
			continue
		}
		confidence := label.Confidence * quality
		key := identity.CacheKey()
		if existing, seen := byKey[key]; !seen || confidence > existing.Confidence {
			byKey[key] = schema.Candidate{Identity: identity, Confidence: confidence}
		}
	}
	if len(byKey) == 0 {
		return nil, errs.New("resolver", errs.CodeNoMatch,
			errs.WithMessage("no label matched the lexicon"))
	}

	ranked := make([]schema.Candidate, 0, len(byKey))
	for _, candidate := range byKey {
		ranked = append(ranked, candidate)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		// Identities with a known SKU outrank tuple-keyed ones at equal score.
		if a.Identity.HasSKU() != b.Identity.HasSKU() {
			return a.Identity.HasSKU()
		}
		return a.Identity.Label() < b.Identity.Label()
	})
	if len(ranked) > r.topK {
		ranked = ranked[:r.topK]
	}
	return ranked, nil
}

func (r *Resolver) match(text string) (schema.SneakerIdentity, float64, bool) {
	if sku := ExtractSKU(text); sku != "" {
		if identity, ok := r.lexicon.LookupSKU(sku); ok {
			return identity, 1.0, true
		}
	}
	for _, query := range Expand(text) {
		if identity, quality, ok := r.lexicon.Match(query); ok {
			return identity, quality, true
		}
	}
	return schema.SneakerIdentity{}, 0, false
}
