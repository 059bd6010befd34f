// Package lexicon maps free-form sneaker names and SKUs onto canonical identities.
package lexicon

import (
	"sort"
	"strings"
	"sync"

	"github.com/solescan/solescan/internal/schema"
)

// Entry binds a canonical identity to the aliases that should resolve to it.
type Entry struct {
	Identity schema.SneakerIdentity `yaml:"identity"`
	Aliases  []string               `yaml:"aliases"`
}

// Table is an in-memory alias lexicon. Lookups are read-only after
// construction, so reads take the shared lock only.
type Table struct {
	mu      sync.RWMutex
	byAlias map[string]schema.SneakerIdentity
	bySKU   map[string]schema.SneakerIdentity
	aliases map[string][]string
}

// NewTable builds a lexicon from catalog entries. Later entries win alias
// collisions, letting a loaded catalog override built-in seeds.
func NewTable(entries []Entry) *Table {
	t := &Table{
		byAlias: make(map[string]schema.SneakerIdentity),
		bySKU:   make(map[string]schema.SneakerIdentity),
		aliases: make(map[string][]string),
	}
	for _, entry := range entries {
		t.add(entry)
	}
	return t
}

func (t *Table) add(entry Entry) {
	identity := entry.Identity
	key := identity.CacheKey()
	if sku := strings.ToUpper(strings.TrimSpace(identity.SKU)); sku != "" {
		t.bySKU[sku] = identity
	}
	names := append([]string{identity.DisplayName}, entry.Aliases...)
	for _, name := range names {
		alias := Normalize(name)
		if alias == "" {
			continue
		}
		t.byAlias[alias] = identity
		t.aliases[key] = append(t.aliases[key], alias)
	}
}

// Lookup resolves an exact normalized alias to its canonical identity.
func (t *Table) Lookup(normalized string) (schema.SneakerIdentity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	identity, ok := t.byAlias[Normalize(normalized)]
	return identity, ok
}

// LookupSKU resolves a style code to its canonical identity.
func (t *Table) LookupSKU(sku string) (schema.SneakerIdentity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	identity, ok := t.bySKU[strings.ToUpper(strings.TrimSpace(sku))]
	return identity, ok
}

// AliasesOf returns every normalized alias registered for the identity.
func (t *Table) AliasesOf(identity schema.SneakerIdentity) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	registered := t.aliases[identity.CacheKey()]
	out := make([]string, len(registered))
	copy(out, registered)
	return out
}

// Match resolves text to the best-fitting identity together with a match
// quality in (0, 1]. Exact alias hits score 1.0; otherwise aliases are
// compared by word overlap and the highest-overlap alias wins, with
// lexicographic order breaking ties so results never depend on map order.
func (t *Table) Match(text string) (schema.SneakerIdentity, float64, bool) {
	normalized := Normalize(text)
	if normalized == "" {
		return schema.SneakerIdentity{}, 0, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	if identity, ok := t.byAlias[normalized]; ok {
		return identity, 1.0, true
	}

	queryWords := strings.Fields(normalized)
	type scored struct {
		alias   string
		quality float64
	}
	var best scored
	keys := make([]string, 0, len(t.byAlias))
	for alias := range t.byAlias {
		keys = append(keys, alias)
	}
	sort.Strings(keys)
	for _, alias := range keys {
		quality := overlap(queryWords, strings.Fields(alias))
		if quality > best.quality {
			best = scored{alias: alias, quality: quality}
		}
	}
	if best.quality < minPartialQuality {
		return schema.SneakerIdentity{}, 0, false
	}
	return t.byAlias[best.alias], best.quality, true
}

// minPartialQuality is the floor below which a fuzzy alias match is treated
// as no match at all.
const minPartialQuality = 0.5

// overlap computes the Jaccard word overlap between two token sets.
func overlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, w := range a {
		set[w] = struct{}{}
	}
	shared := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, w := range b {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := set[w]; ok {
			shared++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// marketingSuffixes are trailing tokens that vary across listings without
// changing the underlying model.
var marketingSuffixes = []string{
	"(gs)", "gs", "(ps)", "ps", "(td)", "td",
	"mens", "men's", "womens", "women's",
	"sneaker", "sneakers", "shoe", "shoes",
}

// Normalize case-folds, strips marketing suffixes, and collapses whitespace
// so alias comparison is stable across sources.
func Normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	lowered = strings.Map(func(r rune) rune {
		switch r {
		case '’', '`':
			return '\''
		case '-', '_', '/':
			return ' '
		}
		return r
	}, lowered)
	words := strings.Fields(lowered)
	for len(words) > 0 {
		last := words[len(words)-1]
		if !isMarketingSuffix(last) {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func isMarketingSuffix(word string) bool {
	for _, suffix := range marketingSuffixes {
		if word == suffix {
			return true
		}
	}
	return false
}
