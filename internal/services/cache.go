package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/flowsift/internal/models"
	"github.com/desertthunder/flowsift/internal/repositories"
	"github.com/desertthunder/flowsift/internal/shared"
)

// CacheService implements [SourceReader] over the local source cache so
// analysis runs can read pre-fetched playlist listings offline.
type CacheService struct {
	playlists *repositories.PlaylistRepository
	tracks    *repositories.TrackRepository
}

// NewCacheService creates a cache-backed source reader.
func NewCacheService(playlists *repositories.PlaylistRepository, tracks *repositories.TrackRepository) *CacheService {
	return &CacheService{playlists: playlists, tracks: tracks}
}

func (c *CacheService) Name() string {
	return "Cache"
}

// GetPlaylists retrieves every cached playlist's metadata.
func (c *CacheService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	cached, err := c.playlists.List(map[string]any{})
	if err != nil {
		return nil, err
	}

	var playlists []models.Playlist
	for _, cp := range cached {
		playlists = append(playlists, cp.Playlist())
	}

	return playlists, nil
}

// GetPlaylist retrieves a cached playlist's metadata by its catalogue id.
func (c *CacheService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	cached, err := c.playlists.GetByServiceID(playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not in cache", shared.ErrPlaylistNotFound, playlistID)
	}

	playlist := cached.Playlist()
	return &playlist, nil
}

// ListTracks retrieves a cached playlist's track listing in position order.
func (c *CacheService) ListTracks(ctx context.Context, playlistID string) (*models.SourceListing, error) {
	playlist, err := c.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	cached, err := c.tracks.ListByPlaylist(playlistID)
	if err != nil {
		return nil, err
	}

	listing := &models.SourceListing{
		SourceID: playlist.ID,
		Name:     playlist.Name,
	}
	for _, ct := range cached {
		listing.Tracks = append(listing.Tracks, ct.Track())
	}

	return listing, nil
}

// SavePlaylist caches a playlist's metadata and full track listing,
// replacing any previously cached listing for the same catalogue id.
func (c *CacheService) SavePlaylist(ctx context.Context, playlist models.Playlist, listing *models.SourceListing) error {
	existing, err := c.playlists.GetByServiceID(playlist.ID)
	if err == nil && existing != nil {
		existing.SetTrackCount(len(listing.Tracks))
		if err := c.playlists.Update(existing); err != nil {
			return fmt.Errorf("failed to refresh cached playlist: %w", err)
		}
	} else {
		cached := models.NewCachedPlaylist(0, playlist)
		cached.SetTrackCount(len(listing.Tracks))
		if err := c.playlists.Create(cached); err != nil {
			return fmt.Errorf("failed to cache playlist: %w", err)
		}
	}

	if err := c.tracks.DeleteByPlaylist(playlist.ID); err != nil {
		return err
	}

	var cached []*models.CachedTrack
	for i, track := range listing.Tracks {
		cached = append(cached, models.NewCachedTrack(0, playlist.ID, i, track))
	}

	if err := c.tracks.CreateMany(cached); err != nil {
		return fmt.Errorf("failed to cache track listing: %w", err)
	}

	return nil
}
