// package models defines the data model for the flow-state analysis pipeline
package models

import (
	"strings"
	"time"
)

// Track is a raw track reference as it appears in a playlist listing.
//
// References with an empty ID correspond to catalogue entries that are
// unavailable to the feature-fetch layer (region-restricted or removed)
// and are dropped during aggregation.
type Track struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
}

// ArtistList renders the artist sequence as a single display string.
func (t Track) ArtistList() string {
	return strings.Join(t.Artists, ", ")
}

// TrackMetadata accumulates per-track information across playlists.
//
// Name and Artists keep the earliest-seen values (first writer wins);
// Sources records every playlist the track appeared in, without duplicates.
type TrackMetadata struct {
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
	Sources []string `json:"sources"`
}

// AddSource appends a source identifier unless it is already recorded.
func (m *TrackMetadata) AddSource(source string) {
	for _, s := range m.Sources {
		if s == source {
			return
		}
	}
	m.Sources = append(m.Sources, source)
}

// ArtistList renders the artist sequence as a single display string.
func (m TrackMetadata) ArtistList() string {
	return strings.Join(m.Artists, ", ")
}

// FeatureRecord holds the audio descriptors for one track.
//
// Immutable once produced by the fetch layer. Danceability and Valence are
// passthrough fields that classification does not read.
type FeatureRecord struct {
	TrackID      string  `json:"id"`
	Tempo        float64 `json:"tempo"`
	Loudness     float64 `json:"loudness"`
	Energy       float64 `json:"energy"`
	Mode         int     `json:"mode"`
	Danceability float64 `json:"danceability"`
	Valence      float64 `json:"valence"`
}

// ClassificationResult is the verdict for one track against the active thresholds.
//
// Reasons is empty exactly when MeetsCriteria is true; otherwise it lists an
// explanation for every violated dimension in tempo, loudness, energy, mode order.
type ClassificationResult struct {
	TrackID       string        `json:"id"`
	Metadata      TrackMetadata `json:"metadata"`
	Features      FeatureRecord `json:"features"`
	MeetsCriteria bool          `json:"meets_criteria"`
	Reasons       []string      `json:"reasons"`
}

// Playlist represents playlist metadata from the catalogue service.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	TrackCount int    `json:"track_count"`
	Public     bool   `json:"public"`
}

// SourceListing is one playlist's ordered track listing, ready for aggregation.
type SourceListing struct {
	SourceID string  `json:"source_id"`
	Name     string  `json:"name"`
	Tracks   []Track `json:"tracks"`
}

// GenreTrack is a row in a genre-keyed track listing.
//
// Carries the numeric descriptors alongside identity so per-genre exports
// stand alone without a join back to the analysis output.
type GenreTrack struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Artists  string  `json:"artists"`
	Tempo    float64 `json:"tempo"`
	Energy   float64 `json:"energy"`
	Loudness float64 `json:"loudness"`
}

// ConsolidatedBucket collects the tracks routed to one canonical category.
//
// A track identifier appears at most once per bucket; later duplicates are
// dropped silently.
type ConsolidatedBucket struct {
	Category string       `json:"category"`
	Tracks   []GenreTrack `json:"tracks"`

	seen map[string]struct{}
}

// NewConsolidatedBucket creates an empty bucket for the given category.
func NewConsolidatedBucket(category string) *ConsolidatedBucket {
	return &ConsolidatedBucket{
		Category: category,
		seen:     make(map[string]struct{}),
	}
}

// Add admits a track unless its identifier was already seen in this bucket.
// Reports whether the track was admitted.
func (b *ConsolidatedBucket) Add(track GenreTrack) bool {
	if _, ok := b.seen[track.ID]; ok {
		return false
	}
	b.seen[track.ID] = struct{}{}
	b.Tracks = append(b.Tracks, track)
	return true
}

// Len returns the number of tracks admitted to the bucket.
func (b *ConsolidatedBucket) Len() int {
	return len(b.Tracks)
}

// Model defines the base interface for all persistent models in the source cache.
// Implementations include CachedPlaylist and CachedTrack.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}
