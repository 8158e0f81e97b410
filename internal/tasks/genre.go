package tasks

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flowsift/internal/models"
	"github.com/desertthunder/flowsift/internal/services"
	"github.com/desertthunder/flowsift/internal/taxonomy"
)

// GenreSplitter groups analyzed tracks by the genre labels of their primary
// artist.
//
// Artist lookups are memoized by artist name for the life of the splitter,
// so a run touches the resolver at most once per distinct artist.
type GenreSplitter struct {
	resolver services.GenreResolver
	logger   *log.Logger
	cache    map[string][]string
}

// NewGenreSplitter creates a splitter over the given resolver.
func NewGenreSplitter(resolver services.GenreResolver, logger *log.Logger) *GenreSplitter {
	return &GenreSplitter{
		resolver: resolver,
		logger:   logger,
		cache:    make(map[string][]string),
	}
}

// artistGenres resolves and memoizes the genre labels for an artist name.
// Lookup failures are logged and treated as an artist with no labels.
func (g *GenreSplitter) artistGenres(ctx context.Context, name string) []string {
	if name == "" {
		return nil
	}

	if genres, ok := g.cache[name]; ok {
		return genres
	}

	var genres []string

	artistID, err := g.resolver.SearchArtistID(ctx, name)
	switch {
	case err != nil:
		g.logger.Warn("artist search failed", "artist", name, "error", err)
	case artistID == "":
		g.logger.Debug("no artist match", "artist", name)
	default:
		genres, err = g.resolver.ArtistGenres(ctx, artistID)
		if err != nil {
			g.logger.Warn("genre lookup failed", "artist", name, "error", err)
			genres = nil
		}
	}

	g.cache[name] = genres
	return genres
}

// SplitResult is the outcome of grouping tracks by genre label.
type SplitResult struct {
	Groups     map[string][]models.GenreTrack // genre label → member tracks
	Unresolved []models.GenreTrack            // tracks whose artist carries no labels
}

// Split groups tracks under every genre label of their primary artist.
//
// A track with n genre labels appears in n groups; tracks whose artist
// resolves to no labels are collected separately. Cancellation returns
// the groups built so far along with the context error.
func (g *GenreSplitter) Split(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	results []models.ClassificationResult,
) (*SplitResult, error) {
	split := &SplitResult{Groups: make(map[string][]models.GenreTrack)}

	for i, result := range results {
		select {
		case <-ctx.Done():
			return split, ctx.Err()
		default:
		}

		var primary string
		if len(result.Metadata.Artists) > 0 {
			primary = result.Metadata.Artists[0]
		}

		sendProgress(prog, resolveArtistUpdate(i+1, len(results), primary))

		track := models.GenreTrack{
			ID:       result.TrackID,
			Name:     result.Metadata.Name,
			Artists:  result.Metadata.ArtistList(),
			Tempo:    result.Features.Tempo,
			Energy:   result.Features.Energy,
			Loudness: result.Features.Loudness,
		}

		genres := g.artistGenres(ctx, primary)
		if len(genres) == 0 {
			split.Unresolved = append(split.Unresolved, track)
			continue
		}
		for _, genre := range genres {
			split.Groups[genre] = append(split.Groups[genre], track)
		}
	}

	return split, nil
}

// ConsolidationResult is the outcome of routing genre groups into the
// canonical taxonomy.
type ConsolidationResult struct {
	Buckets     []*models.ConsolidatedBucket // taxonomy category order, empty buckets omitted
	GenreCounts map[string]int               // genre labels routed per category
	TotalGenres int                          // distinct genre labels consolidated
	TotalTracks int                          // track admissions across all buckets
}

// Bucket returns the bucket for a category, or nil if it is empty.
func (r *ConsolidationResult) Bucket(category string) *models.ConsolidatedBucket {
	for _, bucket := range r.Buckets {
		if bucket.Category == category {
			return bucket
		}
	}
	return nil
}

// Consolidate routes genre-keyed track groups into the canonical taxonomy.
//
// Genre labels are visited in sorted order so bucket contents are stable
// across runs. Within a bucket a track is admitted once, on its first
// arrival; empty buckets are omitted from the result.
func Consolidate(prog chan<- ProgressUpdate, groups map[string][]models.GenreTrack, tax *taxonomy.Taxonomy) *ConsolidationResult {
	buckets := make(map[string]*models.ConsolidatedBucket)
	counts := make(map[string]int)

	genres := make([]string, 0, len(groups))
	for genre := range groups {
		genres = append(genres, genre)
	}
	sort.Strings(genres)

	admitted := 0
	for _, genre := range genres {
		category := tax.Categorize(genre)
		counts[category]++

		bucket, ok := buckets[category]
		if !ok {
			bucket = models.NewConsolidatedBucket(category)
			buckets[category] = bucket
		}

		for _, track := range groups[genre] {
			if bucket.Add(track) {
				admitted++
			}
		}
	}

	result := &ConsolidationResult{
		GenreCounts: counts,
		TotalGenres: len(genres),
		TotalTracks: admitted,
	}

	for _, category := range tax.Categories() {
		if bucket, ok := buckets[category]; ok && bucket.Len() > 0 {
			result.Buckets = append(result.Buckets, bucket)
		}
	}

	sendProgress(prog, consolidateUpdate(result.TotalGenres, len(result.Buckets)))
	return result
}
