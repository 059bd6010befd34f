package resolver

import (
	"regexp"
	"strings"
)

// skuPattern matches Nike/Jordan style codes as printed on box labels,
// e.g. 555088-134 or DZ5485-612.
var skuPattern = regexp.MustCompile(`\b[A-Z0-9]{2,}\d{4}-\d{3}\b`)

// ExtractSKU pulls the first style code out of free-form label text, which
// covers classifiers that OCR the box label. Returns "" when none is found.
func ExtractSKU(text string) string {
	return skuPattern.FindString(strings.ToUpper(text))
}

// rewriteRules canonicalize colloquial model names before lexicon matching.
var rewriteRules = []struct {
	from string
	to   string
}{
	{from: "jordan one", to: "air jordan 1"},
	{from: "jordan 1", to: "air jordan 1"},
	{from: "air air jordan", to: "air jordan"},
	{from: "forces", to: "air force 1"},
}

// Expand produces the ordered lookup queries for one label: the text itself
// first, then canonical rewrites, then coarser variations with marketing
// qualifiers stripped or the brand prefixed. Duplicates are dropped while
// preserving first occurrence.
func Expand(text string) []string {
	base := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if base == "" {
		return nil
	}

	queries := []string{base}

	rewritten := base
	for _, rule := range rewriteRules {
		rewritten = strings.ReplaceAll(rewritten, rule.from, rule.to)
	}
	queries = append(queries, rewritten)

	queries = append(queries,
		strings.TrimSpace(strings.ReplaceAll(rewritten, "retro high", "")),
		strings.TrimSpace(strings.ReplaceAll(rewritten, "retro", "")),
	)
	if !strings.HasPrefix(rewritten, "nike") {
		queries = append(queries, "nike "+rewritten)
	}

	seen := make(map[string]struct{}, len(queries))
	out := queries[:0]
	for _, q := range queries {
		q = strings.Join(strings.Fields(q), " ")
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
