package tasks

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flowsift/internal/models"
	"github.com/desertthunder/flowsift/internal/taxonomy"
)

// mockGenreResolver serves canned artist lookups and counts calls.
type mockGenreResolver struct {
	genres      map[string][]string // artist name → genres
	searchCalls map[string]int
}

func newMockResolver(genres map[string][]string) *mockGenreResolver {
	return &mockGenreResolver{genres: genres, searchCalls: make(map[string]int)}
}

func (m *mockGenreResolver) SearchArtistID(ctx context.Context, name string) (string, error) {
	m.searchCalls[name]++
	if _, ok := m.genres[name]; !ok {
		return "", nil
	}
	return "id_" + name, nil
}

func (m *mockGenreResolver) ArtistGenres(ctx context.Context, artistID string) ([]string, error) {
	name := artistID[len("id_"):]
	return m.genres[name], nil
}

func classifiedTrack(id, name, artist string) models.ClassificationResult {
	return models.ClassificationResult{
		TrackID: id,
		Metadata: models.TrackMetadata{
			Name:    name,
			Artists: []string{artist},
		},
		Features:      models.FeatureRecord{Tempo: 174.0, Loudness: -4.0, Energy: 0.9, Mode: 1},
		MeetsCriteria: true,
	}
}

func TestGenreSplitter(t *testing.T) {
	resolver := newMockResolver(map[string][]string{
		"Noisia": {"neurofunk", "drum and bass"},
		"Koven":  {"drum and bass"},
	})
	splitter := NewGenreSplitter(resolver, log.New(io.Discard))

	results := []models.ClassificationResult{
		classifiedTrack("t1", "Ghost Assassin", "Noisia"),
		classifiedTrack("t2", "Voodoo", "Koven"),
		classifiedTrack("t3", "Tommy's Theme", "Noisia"),
		classifiedTrack("t4", "Obscurity", "Nobody Known"),
	}

	split, err := splitter.Split(context.Background(), nil, results)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	groups := split.Groups

	if len(groups) != 2 {
		t.Fatalf("expected 2 genre groups, got %d: %v", len(groups), groups)
	}

	if len(groups["neurofunk"]) != 2 {
		t.Errorf("neurofunk should hold both Noisia tracks, got %d", len(groups["neurofunk"]))
	}
	if len(groups["drum and bass"]) != 3 {
		t.Errorf("drum and bass should hold all three resolved tracks, got %d", len(groups["drum and bass"]))
	}

	// t4's artist resolves to nothing.
	for genre, tracks := range groups {
		for _, track := range tracks {
			if track.ID == "t4" {
				t.Errorf("t4 should not appear under %s", genre)
			}
		}
	}
	if len(split.Unresolved) != 1 || split.Unresolved[0].ID != "t4" {
		t.Errorf("t4 should be reported as unresolved: %+v", split.Unresolved)
	}

	t.Run("artist lookups are memoized", func(t *testing.T) {
		if calls := resolver.searchCalls["Noisia"]; calls != 1 {
			t.Errorf("Noisia should be searched once, got %d", calls)
		}
		if calls := resolver.searchCalls["Nobody Known"]; calls != 1 {
			t.Errorf("misses should be memoized too, got %d calls", calls)
		}
	})

	t.Run("descriptors travel with the track", func(t *testing.T) {
		track := groups["neurofunk"][0]
		if track.Tempo != 174.0 || track.Energy != 0.9 || track.Loudness != -4.0 {
			t.Errorf("descriptors should be carried into the group: %+v", track)
		}
		if track.Artists != "Noisia" {
			t.Errorf("artists should render as a display string, got %q", track.Artists)
		}
	})
}

func consolidationTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()

	doc := `
[[category]]
name = "ELECTRONIC"
subgenres = ["neurofunk", "drum and bass", "edm"]

[[category]]
name = "ROCK_METAL"
subgenres = ["punk"]
`
	tax, err := taxonomy.Load([]byte(doc))
	if err != nil {
		t.Fatalf("failed to load taxonomy: %v", err)
	}
	return tax
}

func TestConsolidate(t *testing.T) {
	tax := consolidationTaxonomy(t)

	ghost := models.GenreTrack{ID: "t1", Name: "Ghost Assassin", Artists: "Noisia"}
	voodoo := models.GenreTrack{ID: "t2", Name: "Voodoo", Artists: "Koven"}
	jazzy := models.GenreTrack{ID: "t3", Name: "Autumn Leaves", Artists: "Someone"}

	groups := map[string][]models.GenreTrack{
		"neurofunk":     {ghost},
		"drum and bass": {ghost, voodoo},
		"jazz":          {jazzy},
	}

	result := Consolidate(nil, groups, tax)

	if result.TotalGenres != 3 {
		t.Errorf("expected 3 consolidated genres, got %d", result.TotalGenres)
	}

	// ROCK_METAL received no genres; only ELECTRONIC and OTHER materialize.
	if len(result.Buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(result.Buckets))
	}
	if result.Buckets[0].Category != "ELECTRONIC" || result.Buckets[1].Category != taxonomy.Other {
		t.Errorf("buckets should follow taxonomy order: %s, %s",
			result.Buckets[0].Category, result.Buckets[1].Category)
	}

	electronic := result.Bucket("ELECTRONIC")
	if electronic.Len() != 2 {
		t.Errorf("ghost appears under two genres but should be admitted once, got %d tracks", electronic.Len())
	}

	other := result.Bucket(taxonomy.Other)
	if other.Len() != 1 || other.Tracks[0].ID != "t3" {
		t.Errorf("unmatched genres should route to OTHER: %+v", other.Tracks)
	}

	if result.Bucket("ROCK_METAL") != nil {
		t.Error("empty categories should be omitted")
	}

	if result.GenreCounts["ELECTRONIC"] != 2 || result.GenreCounts[taxonomy.Other] != 1 {
		t.Errorf("unexpected genre counts: %v", result.GenreCounts)
	}

	if result.TotalTracks != 3 {
		t.Errorf("expected 3 admissions across buckets, got %d", result.TotalTracks)
	}

	t.Run("deterministic across runs", func(t *testing.T) {
		again := Consolidate(nil, groups, tax)
		if fmt.Sprint(again.Buckets) != fmt.Sprint(result.Buckets) {
			t.Error("consolidation should be stable for the same input")
		}
	})

	t.Run("empty grouping", func(t *testing.T) {
		result := Consolidate(nil, nil, tax)
		if len(result.Buckets) != 0 || result.TotalGenres != 0 {
			t.Errorf("empty grouping should consolidate to nothing: %+v", result)
		}
	})
}
