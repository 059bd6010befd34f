// Package schema defines the canonical domain types shared across SoleScan components.
package schema

import (
	"strings"

	"github.com/solescan/solescan/errs"
)

// ClassifierLabel is one label/confidence pair produced by the image classifier.
type ClassifierLabel struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// SneakerIdentity is the canonical, deduplicated representation of a sneaker
// model/colorway. It is the cache key and the provider-query key.
type SneakerIdentity struct {
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Colorway    string `json:"colorway"`
	SKU         string `json:"sku,omitempty"`
	DisplayName string `json:"display_name"`
}

// Validate ensures the identity carries enough information to key a lookup.
func (id SneakerIdentity) Validate() error {
	if strings.TrimSpace(id.SKU) != "" {
		return nil
	}
	if strings.TrimSpace(id.Brand) == "" || strings.TrimSpace(id.Model) == "" {
		return errs.New("schema/identity", errs.CodeInvalid,
			errs.WithMessage("identity requires a sku or a brand and model"))
	}
	return nil
}

// CacheKey derives the canonical cache key. Identities carrying a SKU key on
// the SKU alone; the fallback tuple key is prefixed so the two namespaces
// can never collide.
func (id SneakerIdentity) CacheKey() string {
	if sku := keyPart(id.SKU); sku != "" {
		return "sku:" + sku
	}
	return "tuple:" + keyPart(id.Brand) + "|" + keyPart(id.Model) + "|" + keyPart(id.Colorway)
}

// Equal reports canonical identity equality: SKU when both carry one,
// otherwise the normalized (brand, model, colorway) tuple.
func (id SneakerIdentity) Equal(other SneakerIdentity) bool {
	return id.CacheKey() == other.CacheKey()
}

// HasSKU reports whether the identity carries a known SKU.
func (id SneakerIdentity) HasSKU() bool {
	return strings.TrimSpace(id.SKU) != ""
}

// Label returns the human-readable name, falling back to brand + model.
func (id SneakerIdentity) Label() string {
	if name := strings.TrimSpace(id.DisplayName); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(id.Brand) + " " + strings.TrimSpace(id.Model))
}

func keyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
