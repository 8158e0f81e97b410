package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/desertthunder/flowsift/internal/formatter"
	"github.com/desertthunder/flowsift/internal/shared"
	"github.com/desertthunder/flowsift/internal/tasks"
	"github.com/urfave/cli/v3"
)

// collectPlaylistIDs gathers playlist ids from arguments, --file, or piped
// stdin, in that order of precedence.
func (r *Runner) collectPlaylistIDs(cmd *cli.Command) ([]string, error) {
	if args := cmd.Args().Slice(); len(args) > 0 {
		return args, nil
	}

	if path := cmd.String("file"); path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot open id file %s", shared.ErrInvalidInput, path)
		}
		defer file.Close()
		return shared.ReadIDList(file)
	}

	if r.input != nil {
		return shared.ReadIDList(r.input)
	}

	if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		return shared.ReadIDList(os.Stdin)
	}

	return nil, nil
}

// Analyze runs the full pipeline: collect sources, fetch features in
// batches, classify against the thresholds, and export the results.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	ids, err := r.collectPlaylistIDs(cmd)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: provide playlist ids as arguments, via --file, or on stdin", shared.ErrMissingArgument)
	}

	source := r.source
	if cmd.Bool("offline") {
		cache, db, err := r.openCache()
		if err != nil {
			return err
		}
		defer db.Close()
		source = cache
		r.logger.Info("reading sources from the local cache", "path", r.config.Database.Path)
	} else if r.spotify != nil {
		if err := r.authenticate(ctx); err != nil {
			return err
		}
	}

	fetcher := tasks.NewBatchFetcher(r.config.Fetcher, r.logger)
	engine := tasks.NewAnalysisEngine(source, r.features, fetcher, r.config.Thresholds, r.logger)

	progress := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
	}()

	result, runErr := engine.Run(ctx, progress, ids)
	close(progress)
	wg.Wait()

	if result == nil {
		return runErr
	}

	outDir := cmd.String("output")
	if outDir == "" {
		outDir = r.config.Output.Dir
	}

	summary := formatter.RunSummary{
		Sources:         result.SourceNames,
		Thresholds:      r.config.Thresholds,
		TotalTracks:     result.TotalTracks,
		Dropped:         result.Dropped,
		MissingFeatures: result.MissingFeatures,
		FailedSources:   len(result.SourceFailures),
		FailedBatches:   len(result.BatchFailures),
	}

	// Export whatever the run produced, even when it stopped early.
	var exported []string
	if len(result.Results) > 0 {
		export, err := formatter.WriteAnalysisOutputs(outDir, result.Results, summary)
		if err != nil {
			return err
		}
		exported = export.Files()
		r.logger.Info("analysis exported", "dir", outDir)
	}

	if runErr != nil {
		return runErr
	}

	if cmd.Bool("json") {
		return r.writeJSON(result.Results, true)
	}

	r.writePlainHeader("Flow State Analysis")
	r.writePlain("Playlists analyzed: %d\n", result.SourcesRead)
	r.writePlain("Unique tracks: %d\n", result.TotalTracks)
	r.writePlain("Unavailable entries dropped: %d\n", result.Dropped)
	if result.MissingFeatures > 0 {
		r.writePlain("Tracks without audio features: %d\n", result.MissingFeatures)
	}
	if len(result.SourceFailures) > 0 {
		r.writePlain("Unreadable playlists skipped: %d\n", len(result.SourceFailures))
	}
	if len(result.BatchFailures) > 0 {
		r.writePlain("Feature batches abandoned: %d\n", len(result.BatchFailures))
	}
	r.writePlain("Meeting all criteria: %d (%.1f%%)\n", len(result.Passing), result.PassRate())

	for _, passing := range result.Passing {
		r.writePlain("  ✓ %s - %s [%.1f BPM, %.1f dB, %.2f energy]\n",
			passing.Metadata.ArtistList(), passing.Metadata.Name,
			passing.Features.Tempo, passing.Features.Loudness, passing.Features.Energy)
	}
	if len(exported) > 0 {
		r.writePlain("\nOutput files:\n")
		for _, path := range exported {
			r.writePlain("  %s\n", path)
		}
	}

	if len(result.Passing) == 0 {
		return fmt.Errorf("%w: 0 of %d classified tracks", shared.ErrNoMatches, len(result.Results))
	}
	return nil
}
