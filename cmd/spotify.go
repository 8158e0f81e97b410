package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/desertthunder/flowsift/internal/formatter"
	"github.com/desertthunder/flowsift/internal/server"
	"github.com/desertthunder/flowsift/internal/services"
	"github.com/desertthunder/flowsift/internal/shared"
	"github.com/urfave/cli/v3"
)

// SpotifyAuth performs the OAuth2 authorization code flow.
//
// Starts a local HTTP server, opens the browser for user authorization,
// and saves the exchanged tokens back to the config file.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		} else {
			r.logger.Warnf("failed to load config, using defaults %v", err)
		}
	}

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, configPath)
	}

	spotify := r.spotify
	if spotify == nil {
		var err error
		if spotify, err = services.NewSpotifyService(config.Credentials.Spotify.Map()); err != nil {
			return fmt.Errorf("failed to create Spotify service: %w", err)
		}
	}

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}

	callback, err := server.NewCallbackServer(spotify.GetOAuthConfig(), state, r.logger)
	if err != nil {
		return err
	}
	if err := callback.Start(); err != nil {
		return err
	}

	authURL := spotify.GetAuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	token, err := callback.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	if err := spotify.OAuthenticate(ctx, token); err != nil {
		return err
	}
	if err := config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}
	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.config = config

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", configPath)
	r.writePlain("You can now use: flowsift spotify playlists\n")

	return nil
}

// SpotifyPlaylists lists the user's playlists, optionally saving a CSV and
// an id list that feeds the analyze command.
func (r *Runner) SpotifyPlaylists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	if r.source == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if r.spotify != nil {
		if err := r.authenticate(ctx); err != nil {
			return err
		}
	}

	r.logger.Info("listing playlists", "source", r.source.Name())

	playlists, err := r.source.GetPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	// Largest playlists first; they dominate analysis time.
	sort.SliceStable(playlists, func(i, j int) bool {
		return playlists[i].TrackCount > playlists[j].TrackCount
	})

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if save {
		stamp := time.Now().Format("20060102_150405")
		dir := r.config.Output.Dir
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		csvPath := filepath.Join(dir, fmt.Sprintf("playlists_%s.csv", stamp))
		data, err := formatter.ExportPlaylistsCSV(playlists)
		if err != nil {
			return err
		}
		if err := os.WriteFile(csvPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", csvPath, err)
		}

		idPath := filepath.Join(dir, fmt.Sprintf("playlist_ids_%s.txt", stamp))
		if err := formatter.WritePlaylistIDs(idPath, playlists); err != nil {
			return err
		}

		r.writePlain("✓ Saved %s\n", csvPath)
		r.writePlain("✓ Saved %s (feed it to: flowsift analyze --file %s)\n\n", idPath, idPath)
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		r.writePlain("   Visibility: %s\n", shared.VisibilityString(p.Public))
		r.writePlain("\n")
	}

	return nil
}
