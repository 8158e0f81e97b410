package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/flowsift/internal/shared"
	"github.com/urfave/cli/v3"
)

// CachePlaylist fetches a playlist's full listing from Spotify and stores
// it in the local cache for later offline analysis.
func (r *Runner) CachePlaylist(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.Args().First()
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	if r.source == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if r.spotify != nil {
		if err := r.authenticate(ctx); err != nil {
			return err
		}
	}

	r.logger.Info("fetching playlist for caching", "playlist", playlistID)

	playlist, err := r.source.GetPlaylist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	listing, err := r.source.ListTracks(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	cache, db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := cache.SavePlaylist(ctx, *playlist, listing); err != nil {
		return fmt.Errorf("failed to cache playlist: %w", err)
	}

	r.writePlain("✓ Cached '%s' (%d tracks)\n", playlist.Name, len(listing.Tracks))
	r.writePlain("Analyze it offline with: flowsift analyze --offline %s\n", playlistID)

	return nil
}

// CacheList lists the playlists currently held in the local cache.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	cache, db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	playlists, err := cache.GetPlaylists(ctx)
	if err != nil {
		return err
	}

	if len(playlists) == 0 {
		r.writePlain("Cache is empty. Populate it with: flowsift cache playlist <id>\n")
		return nil
	}

	r.writePlain("Cached playlists (%d):\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n\n", p.TrackCount)
	}

	return nil
}
