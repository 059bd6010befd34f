package lexicon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solescan/solescan/internal/schema"
)

type catalogFile struct {
	Entries []Entry `yaml:"entries"`
}

// LoadCatalog reads a YAML alias catalog from disk. The default seed catalog
// is prepended so a partial file only needs to list additions or overrides.
func LoadCatalog(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return append(DefaultCatalog(), file.Entries...), nil
}

// DefaultCatalog seeds the lexicon with widely traded silhouettes so the
// service resolves common uploads before any catalog file is provisioned.
func DefaultCatalog() []Entry {
	return []Entry{
		{
			Identity: schema.SneakerIdentity{
				Brand:       "Jordan",
				Model:       "Air Jordan 1 Retro High OG",
				Colorway:    "University Blue",
				SKU:         "555088-134",
				DisplayName: "Air Jordan 1 Retro High OG University Blue",
			},
			Aliases: []string{
				"air jordan 1 retro high og",
				"jordan 1 retro high og",
				"jordan 1 high university blue",
				"aj1 university blue",
			},
		},
		{
			Identity: schema.SneakerIdentity{
				Brand:       "Jordan",
				Model:       "Air Jordan 1 Retro High OG",
				Colorway:    "Chicago Lost and Found",
				SKU:         "DZ5485-612",
				DisplayName: "Air Jordan 1 Retro High OG Chicago Lost and Found",
			},
			Aliases: []string{
				"jordan 1 chicago",
				"jordan 1 lost and found",
				"aj1 chicago lost and found",
			},
		},
		{
			Identity: schema.SneakerIdentity{
				Brand:       "Nike",
				Model:       "Dunk Low",
				Colorway:    "Panda",
				SKU:         "DD1391-100",
				DisplayName: "Nike Dunk Low Retro White Black Panda",
			},
			Aliases: []string{
				"nike dunk low panda",
				"dunk low white black",
				"dunk low panda",
			},
		},
		{
			Identity: schema.SneakerIdentity{
				Brand:       "Nike",
				Model:       "Air Force 1 '07",
				Colorway:    "Triple White",
				SKU:         "CW2288-111",
				DisplayName: "Nike Air Force 1 '07 Triple White",
			},
			Aliases: []string{
				"air force 1 white",
				"af1 triple white",
				"nike air force 1 07",
			},
		},
		{
			Identity: schema.SneakerIdentity{
				Brand:       "adidas",
				Model:       "Samba OG",
				Colorway:    "Cloud White Core Black",
				SKU:         "B75806",
				DisplayName: "adidas Samba OG Cloud White Core Black",
			},
			Aliases: []string{
				"adidas samba og",
				"samba white black",
			},
		},
		{
			Identity: schema.SneakerIdentity{
				Brand:       "New Balance",
				Model:       "550",
				Colorway:    "White Green",
				SKU:         "BB550WT1",
				DisplayName: "New Balance 550 White Green",
			},
			Aliases: []string{
				"new balance 550",
				"nb 550 white green",
			},
		},
	}
}
