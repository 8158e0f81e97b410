// package services defines the provider interfaces the analysis pipeline reads from
//
// Spotify (live catalogue), local source cache (offline)
package services

import (
	"context"

	"github.com/desertthunder/flowsift/internal/models"
)

// SourceReader provides playlist listings for aggregation.
//
// Implementations include the live Spotify catalogue and the local source
// cache; the pipeline treats both identically.
type SourceReader interface {
	// Name returns the provider name (e.g., "Spotify", "Cache")
	Name() string

	// GetPlaylists retrieves all playlists visible to the authenticated user.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylist retrieves a specific playlist's metadata by ID.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// ListTracks retrieves a playlist's full ordered track listing.
	ListTracks(ctx context.Context, playlistID string) (*models.SourceListing, error)
}

// FeatureProvider resolves audio descriptors for batches of track ids.
type FeatureProvider interface {
	// AudioFeatures retrieves descriptors for up to one batch of track ids.
	// The returned slice is positionally aligned with ids; entries the
	// provider has no data for are nil.
	AudioFeatures(ctx context.Context, ids []string) ([]*models.FeatureRecord, error)
}

// GenreResolver looks up artist genre labels for consolidation.
type GenreResolver interface {
	// SearchArtistID resolves an artist name to a provider artist id.
	// An empty id with a nil error means no match was found.
	SearchArtistID(ctx context.Context, name string) (string, error)

	// ArtistGenres retrieves the genre labels attached to an artist.
	ArtistGenres(ctx context.Context, artistID string) ([]string, error)
}
