package taxonomy

import (
	"errors"
	"testing"

	"github.com/desertthunder/flowsift/internal/shared"
)

func TestLoad(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		doc := `
[[category]]
name = "ELECTRONIC"
subgenres = ["edm", "Dubstep"]

[[category]]
name = "ROCK_METAL"
subgenres = ["punk"]
`
		tax, err := Load([]byte(doc))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if tax.Size() != 3 {
			t.Errorf("expected 3 subgenres, got %d", tax.Size())
		}

		cats := tax.Categories()
		want := []string{"ELECTRONIC", "ROCK_METAL", Other}
		if len(cats) != len(want) {
			t.Fatalf("Categories() = %v, want %v", cats, want)
		}
		for i := range cats {
			if cats[i] != want[i] {
				t.Errorf("Categories()[%d] = %s, want %s", i, cats[i], want[i])
			}
		}
	})

	t.Run("duplicate subgenre fails fast", func(t *testing.T) {
		doc := `
[[category]]
name = "ELECTRONIC"
subgenres = ["edm"]

[[category]]
name = "ROCK_METAL"
subgenres = ["EDM"]
`
		_, err := Load([]byte(doc))
		if err == nil {
			t.Fatal("expected error for duplicate subgenre")
		}
		if !errors.Is(err, shared.ErrTaxonomyConflict) {
			t.Errorf("expected ErrTaxonomyConflict, got %v", err)
		}
	})

	t.Run("empty document fails", func(t *testing.T) {
		if _, err := Load([]byte("")); err == nil {
			t.Error("expected error for empty taxonomy")
		}
	})

	t.Run("reserved category name fails", func(t *testing.T) {
		doc := `
[[category]]
name = "OTHER"
subgenres = ["misc"]
`
		if _, err := Load([]byte(doc)); err == nil {
			t.Error("expected error for reserved OTHER category")
		}
	})
}

func TestCategorize(t *testing.T) {
	doc := `
[[category]]
name = "ELECTRONIC"
subgenres = ["edm", "drum and bass"]

[[category]]
name = "ROCK_METAL"
subgenres = ["punk"]
`
	tax, err := Load([]byte(doc))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tc := []struct {
		subgenre string
		want     string
	}{
		{"edm", "ELECTRONIC"},
		{"EDM", "ELECTRONIC"},
		{"  Drum And Bass ", "ELECTRONIC"},
		{"punk", "ROCK_METAL"},
		{"jazz", Other},
		{"", Other},
	}

	for _, tt := range tc {
		if got := tax.Categorize(tt.subgenre); got != tt.want {
			t.Errorf("Categorize(%q) = %s, want %s", tt.subgenre, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	tax, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	if got := tax.Categorize("edm"); got != "ELECTRONIC" {
		t.Errorf("Categorize(edm) = %s, want ELECTRONIC", got)
	}

	if got := tax.Categorize("punk"); got != "ROCK_METAL" {
		t.Errorf("Categorize(punk) = %s, want ROCK_METAL", got)
	}

	if got := tax.Categorize("vocaloid"); got != "JAPANESE_ANIME" {
		t.Errorf("Categorize(vocaloid) = %s, want JAPANESE_ANIME", got)
	}
}
