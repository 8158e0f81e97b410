package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/desertthunder/flowsift/internal/formatter"
	"github.com/desertthunder/flowsift/internal/models"
	"github.com/desertthunder/flowsift/internal/shared"
	"github.com/desertthunder/flowsift/internal/tasks"
	"github.com/desertthunder/flowsift/internal/taxonomy"
	"github.com/urfave/cli/v3"
)

// outputDir resolves the output directory flag against the config default.
func (r *Runner) outputDir(cmd *cli.Command) string {
	if dir := cmd.String("output"); dir != "" {
		return dir
	}
	return r.config.Output.Dir
}

// GenresSplit groups analyzed tracks by their primary artist's genre labels.
func (r *Runner) GenresSplit(ctx context.Context, cmd *cli.Command) error {
	input := cmd.String("input")
	if input == "" {
		input = filepath.Join(r.config.Output.Dir, "analysis.csv")
	}

	results, err := formatter.ReadAnalysisCSV(input)
	if err != nil {
		return err
	}

	if !cmd.Bool("all") {
		var passing []models.ClassificationResult
		for _, result := range results {
			if result.MeetsCriteria {
				passing = append(passing, result)
			}
		}
		results = passing
	}

	if len(results) == 0 {
		return fmt.Errorf("%w: %s holds no tracks to group", shared.ErrNoTracks, input)
	}

	if r.resolver == nil {
		return fmt.Errorf("%w: genre resolver not initialized", shared.ErrServiceUnavailable)
	}
	if r.spotify != nil {
		if err := r.authenticate(ctx); err != nil {
			return err
		}
	}

	r.logger.Info("resolving artist genres", "tracks", len(results))

	splitter := tasks.NewGenreSplitter(r.resolver, r.logger)
	split, err := splitter.Split(ctx, nil, results)
	if err != nil {
		return fmt.Errorf("genre resolution stopped: %w", err)
	}

	outDir := r.outputDir(cmd)
	export, err := formatter.WriteSplitOutputs(outDir, split.Groups, split.Unresolved)
	if err != nil {
		return err
	}

	r.writePlainHeader("Genre Split")
	r.writePlain("Tracks grouped: %d\n", len(results)-len(split.Unresolved))
	r.writePlain("Distinct genres: %d\n", len(split.Groups))
	if len(split.Unresolved) > 0 {
		r.writePlain("Tracks without genre: %d\n", len(split.Unresolved))
	}
	r.writePlain("\nOutput files:\n")
	r.writePlain("  %s\n", export.JSONFile)
	r.writePlain("  %s\n", export.ReportFile)
	if export.UnresolvedFile != "" {
		r.writePlain("  %s\n", export.UnresolvedFile)
	}
	r.writePlain("  %d genre CSVs under %s\n", len(export.GenreFiles), filepath.Join(outDir, "genres"))

	return nil
}

// GenresConsolidate routes a genre grouping into the canonical taxonomy.
func (r *Runner) GenresConsolidate(ctx context.Context, cmd *cli.Command) error {
	input := cmd.String("input")
	if input == "" {
		input = filepath.Join(r.config.Output.Dir, "genre_tracks.json")
	}

	groups, err := formatter.ReadGenreTracksJSON(input)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return fmt.Errorf("%w: %s holds no genre groups", shared.ErrNoTracks, input)
	}

	tax, err := taxonomy.Default()
	if err != nil {
		return err
	}
	if path := cmd.String("taxonomy"); path != "" {
		if tax, err = taxonomy.LoadFile(path); err != nil {
			return err
		}
	}

	result := tasks.Consolidate(nil, groups, tax)

	outDir := r.outputDir(cmd)
	files, err := formatter.WriteBucketCSVs(outDir, result.Buckets)
	if err != nil {
		return err
	}
	report, err := formatter.WriteConsolidationReport(outDir, result.Buckets, result.GenreCounts, result.TotalGenres)
	if err != nil {
		return err
	}

	r.writePlainHeader("Genre Consolidation")
	r.writePlain("Genres consolidated: %d\n", result.TotalGenres)
	for _, bucket := range result.Buckets {
		r.writePlain("  %s: %d tracks (%d genres)\n",
			bucket.Category, bucket.Len(), result.GenreCounts[bucket.Category])
	}
	r.writePlain("\nOutput files:\n")
	for _, path := range files {
		r.writePlain("  %s\n", path)
	}
	r.writePlain("  %s\n", report)

	return nil
}
