// package taxonomy loads and validates the canonical genre taxonomy.
//
// The taxonomy maps a small closed set of category names onto large sets of
// lower-cased subgenre strings. It is loaded once per process from a TOML
// resource (the embedded default or a user-supplied file) and is read-only
// after construction. A subgenre string appearing under two categories is a
// configuration error and fails the load, because it would make
// categorization depend on iteration order.
package taxonomy

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/flowsift/internal/shared"
)

// Other is the reserved overflow category for subgenres no category claims.
const Other = "OTHER"

//go:embed taxonomy.toml
var defaultTaxonomy []byte

// Category is one canonical genre bucket and the subgenre strings it claims.
type Category struct {
	Name      string   `toml:"name"`
	Subgenres []string `toml:"subgenres"`
}

type taxonomyFile struct {
	Categories []Category `toml:"category"`
}

// Taxonomy resolves subgenre strings to canonical category names.
type Taxonomy struct {
	categories []string
	bySubgenre map[string]string
}

// Load parses and validates a TOML taxonomy document.
//
// Category order in the document is preserved for reporting. Subgenres are
// lower-cased on load; a duplicate subgenre across categories returns
// [shared.ErrTaxonomyConflict] naming both categories.
func Load(data []byte) (*Taxonomy, error) {
	var file taxonomyFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}

	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("%w: taxonomy defines no categories", shared.ErrInvalidConfig)
	}

	t := &Taxonomy{bySubgenre: make(map[string]string)}

	for _, cat := range file.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("%w: taxonomy category without a name", shared.ErrInvalidConfig)
		}
		if cat.Name == Other {
			return nil, fmt.Errorf("%w: %q is reserved for unmatched subgenres", shared.ErrInvalidConfig, Other)
		}

		t.categories = append(t.categories, cat.Name)

		for _, sub := range cat.Subgenres {
			sub = strings.ToLower(strings.TrimSpace(sub))
			if sub == "" {
				continue
			}
			if existing, ok := t.bySubgenre[sub]; ok {
				return nil, fmt.Errorf("%w: subgenre %q appears in both %s and %s", shared.ErrTaxonomyConflict, sub, existing, cat.Name)
			}
			t.bySubgenre[sub] = cat.Name
		}
	}

	return t, nil
}

// LoadFile loads a taxonomy from a TOML file on disk.
func LoadFile(path string) (*Taxonomy, error) {
	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// Default loads the embedded taxonomy resource.
func Default() (*Taxonomy, error) {
	return Load(defaultTaxonomy)
}

// Categorize returns the canonical category claiming the subgenre, or [Other].
// Matching is case-insensitive.
func (t *Taxonomy) Categorize(subgenre string) string {
	if cat, ok := t.bySubgenre[strings.ToLower(strings.TrimSpace(subgenre))]; ok {
		return cat
	}
	return Other
}

// Categories returns the category names in document order, followed by [Other].
func (t *Taxonomy) Categories() []string {
	return append(append([]string{}, t.categories...), Other)
}

// Size returns the number of subgenre strings the taxonomy claims.
func (t *Taxonomy) Size() int {
	return len(t.bySubgenre)
}
