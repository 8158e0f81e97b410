package tasks

import (
	"github.com/desertthunder/flowsift/internal/models"
)

// ProvenanceStore accumulates per-track metadata across playlist sources.
//
// The first listing to mention a track fixes its name and artists; later
// listings only extend the track's source set. Insertion order is preserved
// so downstream stages and exports are deterministic for a given input.
type ProvenanceStore struct {
	order []string
	meta  map[string]*models.TrackMetadata
}

// NewProvenanceStore creates an empty store.
func NewProvenanceStore() *ProvenanceStore {
	return &ProvenanceStore{meta: make(map[string]*models.TrackMetadata)}
}

// Add records a track occurrence from the named source.
// Reports whether the track id was new to the store.
func (s *ProvenanceStore) Add(track models.Track, source string) bool {
	if existing, ok := s.meta[track.ID]; ok {
		existing.AddSource(source)
		return false
	}

	meta := &models.TrackMetadata{
		Name:    track.Name,
		Artists: track.Artists,
	}
	meta.AddSource(source)

	s.meta[track.ID] = meta
	s.order = append(s.order, track.ID)
	return true
}

// Get returns the accumulated metadata for a track id.
func (s *ProvenanceStore) Get(id string) (*models.TrackMetadata, bool) {
	meta, ok := s.meta[id]
	return meta, ok
}

// IDs returns the track ids in first-seen order.
func (s *ProvenanceStore) IDs() []string {
	return append([]string{}, s.order...)
}

// Len returns the number of distinct tracks in the store.
func (s *ProvenanceStore) Len() int {
	return len(s.order)
}

// AggregateResult summarizes one aggregation pass over a set of listings.
type AggregateResult struct {
	Store   *ProvenanceStore
	IDs     []string // distinct track ids in first-seen order
	Dropped int      // listing entries discarded for having no id
	Sources int      // listings aggregated
}

// Aggregate merges playlist listings into a deduplicated track set with
// provenance.
//
// Entries with an empty id cannot be resolved by the feature layer and are
// dropped here; the count is reported so runs can surface what they skipped.
func Aggregate(listings []models.SourceListing) *AggregateResult {
	store := NewProvenanceStore()
	dropped := 0

	for _, listing := range listings {
		source := listing.Name
		if source == "" {
			source = listing.SourceID
		}

		for _, track := range listing.Tracks {
			if track.ID == "" {
				dropped++
				continue
			}
			store.Add(track, source)
		}
	}

	return &AggregateResult{
		Store:   store,
		IDs:     store.IDs(),
		Dropped: dropped,
		Sources: len(listings),
	}
}
