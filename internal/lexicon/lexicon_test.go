package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/solescan/solescan/internal/schema"
)

func testEntries() []Entry {
	return []Entry{
		{
			Identity: schema.SneakerIdentity{
				Brand:       "Jordan",
				Model:       "Air Jordan 1 Retro High OG",
				Colorway:    "University Blue",
				SKU:         "555088-134",
				DisplayName: "Air Jordan 1 Retro High OG University Blue",
			},
			Aliases: []string{"air jordan 1 retro high og", "aj1 university blue"},
		},
		{
			Identity: schema.SneakerIdentity{
				Brand:       "Nike",
				Model:       "Dunk Low",
				Colorway:    "Panda",
				SKU:         "DD1391-100",
				DisplayName: "Nike Dunk Low Panda",
			},
			Aliases: []string{"dunk low panda"},
		},
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Air Jordan 1 Retro High OG", "air jordan 1 retro high og"},
		{"  Nike Dunk-Low   Panda  ", "nike dunk low panda"},
		{"Nike Dunk Low Panda (GS)", "nike dunk low panda"},
		{"Air Force 1 Shoes", "air force 1"},
		{"Women's Dunk Low Sneakers", "women's dunk low"},
		{"nike_dunk/low", "nike dunk low"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLookupSKUIsCaseInsensitive(t *testing.T) {
	table := NewTable(testEntries())
	identity, ok := table.LookupSKU(" dd1391-100 ")
	if !ok {
		t.Fatalf("expected SKU lookup to succeed")
	}
	if identity.Model != "Dunk Low" {
		t.Fatalf("wrong identity for SKU: %+v", identity)
	}
	if _, ok := table.LookupSKU("ZZ0000-000"); ok {
		t.Fatalf("unknown SKU should not resolve")
	}
}

func TestMatchExactAliasScoresFull(t *testing.T) {
	table := NewTable(testEntries())
	identity, quality, ok := table.Match("Air Jordan 1 Retro High OG")
	if !ok {
		t.Fatalf("expected an exact alias match")
	}
	if quality != 1.0 {
		t.Fatalf("exact alias should score 1.0, got %v", quality)
	}
	if identity.SKU != "555088-134" {
		t.Fatalf("wrong identity: %+v", identity)
	}
}

func TestMatchPartialOverlap(t *testing.T) {
	table := NewTable(testEntries())
	identity, quality, ok := table.Match("dunk low panda colorway")
	if !ok {
		t.Fatalf("expected a partial match")
	}
	if identity.SKU != "DD1391-100" {
		t.Fatalf("wrong identity: %+v", identity)
	}
	if quality <= 0 || quality >= 1 {
		t.Fatalf("partial match quality should fall in (0, 1), got %v", quality)
	}
}

func TestMatchBelowFloorFails(t *testing.T) {
	table := NewTable(testEntries())
	if _, _, ok := table.Match("running shorts"); ok {
		t.Fatalf("unrelated text should not match")
	}
	if _, _, ok := table.Match("   "); ok {
		t.Fatalf("blank text should not match")
	}
}

func TestAliasesOf(t *testing.T) {
	table := NewTable(testEntries())
	identity := schema.SneakerIdentity{SKU: "DD1391-100"}

	aliases := table.AliasesOf(identity)
	if len(aliases) != 2 {
		t.Fatalf("expected display name plus one alias, got %v", aliases)
	}
	want := map[string]bool{"nike dunk low panda": true, "dunk low panda": true}
	for _, alias := range aliases {
		if !want[alias] {
			t.Fatalf("unexpected alias %q in %v", alias, aliases)
		}
	}

	if got := table.AliasesOf(schema.SneakerIdentity{SKU: "ZZ0000-000"}); len(got) != 0 {
		t.Fatalf("unknown identity should have no aliases, got %v", got)
	}
}

func TestLaterEntriesWinAliasCollisions(t *testing.T) {
	entries := testEntries()
	override := Entry{
		Identity: schema.SneakerIdentity{
			Brand:       "Nike",
			Model:       "Dunk Low Retro",
			Colorway:    "Panda",
			SKU:         "DD1391-100X",
			DisplayName: "Nike Dunk Low Panda",
		},
		Aliases: []string{"dunk low panda"},
	}
	table := NewTable(append(entries, override))

	identity, ok := table.Lookup("dunk low panda")
	if !ok {
		t.Fatalf("expected alias lookup to succeed")
	}
	if identity.SKU != "DD1391-100X" {
		t.Fatalf("later entry should win the alias: %+v", identity)
	}
}

func TestLoadCatalogAppendsToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	payload := []byte(`entries:
  - identity:
      brand: Asics
      model: Gel-Lyte III
      colorway: White
      sku: 1201A482-100
      display_name: Asics Gel-Lyte III White
    aliases:
      - gel lyte 3
`)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	entries, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(entries) != len(DefaultCatalog())+1 {
		t.Fatalf("expected defaults plus one entry, got %d", len(entries))
	}

	table := NewTable(entries)
	if _, ok := table.LookupSKU("1201A482-100"); !ok {
		t.Fatalf("loaded entry should resolve by SKU")
	}
	if _, ok := table.LookupSKU("555088-134"); !ok {
		t.Fatalf("default entries should survive a catalog load")
	}
}

func TestLoadCatalogRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("entries: {nope"), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Fatalf("malformed catalog should fail to load")
	}
}
