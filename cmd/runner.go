package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flowsift/internal/repositories"
	"github.com/desertthunder/flowsift/internal/services"
	"github.com/desertthunder/flowsift/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	spotify  *services.SpotifyService
	source   services.SourceReader
	features services.FeatureProvider
	resolver services.GenreResolver
	logger   *log.Logger
	output   io.Writer
	input    io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Spotify  *services.SpotifyService
	Source   services.SourceReader
	Features services.FeatureProvider
	Resolver services.GenreResolver
	Logger   *log.Logger
	Output   io.Writer
	Input    io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Spotify != nil {
		if opts.Source == nil {
			opts.Source = opts.Spotify
		}
		if opts.Features == nil {
			opts.Features = opts.Spotify
		}
		if opts.Resolver == nil {
			opts.Resolver = opts.Spotify
		}
	}

	return &Runner{
		config:   opts.Config,
		spotify:  opts.Spotify,
		source:   opts.Source,
		features: opts.Features,
		resolver: opts.Resolver,
		logger:   opts.Logger,
		output:   opts.Output,
		input:    opts.Input,
	}
}

// SetLogger replaces the runner's logger, used when the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// authenticate ensures the Spotify client holds a usable token, preferring
// tokens saved by a prior auth run over the client credentials grant.
func (r *Runner) authenticate(ctx context.Context) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, check [credentials.spotify] in config.toml", shared.ErrServiceUnavailable)
	}
	return r.spotify.Authenticate(ctx, r.config.Credentials.Spotify.Map())
}

// openCache opens the source cache database and wraps it in a cache-backed
// source reader. The caller owns the returned closer.
func (r *Runner) openCache() (*services.CacheService, *sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cache := services.NewCacheService(
		repositories.NewPlaylistRepository(db),
		repositories.NewTrackRepository(db),
	)
	return cache, db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
