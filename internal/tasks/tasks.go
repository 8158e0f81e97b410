// package tasks implements the flow-state analysis pipeline.
//
// The core abstraction is AnalysisEngine, which orchestrates source
// collection, batched feature retrieval, and threshold classification.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flowsift/internal/models"
	"github.com/desertthunder/flowsift/internal/services"
	"github.com/desertthunder/flowsift/internal/shared"
)

// SourceFailure records a playlist source that could not be read.
// The run continues with the sources that remain.
type SourceFailure struct {
	SourceID string
	Err      error
}

// AnalysisResult contains everything a run produced, including the partial
// outcomes of sources and batches that failed along the way.
type AnalysisResult struct {
	Results []models.ClassificationResult // classified tracks in first-seen order
	Passing []models.ClassificationResult // subset meeting the thresholds

	TotalTracks     int      // distinct tracks aggregated
	Dropped         int      // listing entries discarded for having no id
	SourcesRead     int      // playlist listings successfully collected
	SourceNames     []string // display names of the collected listings
	MissingFeatures int      // aggregated tracks no feature record arrived for

	SourceFailures []SourceFailure
	BatchFailures  []BatchFailure
}

// PassRate returns the share of classified tracks meeting the thresholds.
func (r *AnalysisResult) PassRate() float64 {
	if len(r.Results) == 0 {
		return 0
	}
	return float64(len(r.Passing)) / float64(len(r.Results)) * 100
}

// AnalysisEngine wires the pipeline stages to a source reader and feature
// provider.
type AnalysisEngine struct {
	source     services.SourceReader
	features   services.FeatureProvider
	fetcher    *BatchFetcher
	thresholds shared.Thresholds
	logger     *log.Logger
}

// NewAnalysisEngine creates an engine over the given providers.
func NewAnalysisEngine(
	source services.SourceReader,
	features services.FeatureProvider,
	fetcher *BatchFetcher,
	thresholds shared.Thresholds,
	logger *log.Logger,
) *AnalysisEngine {
	return &AnalysisEngine{
		source:     source,
		features:   features,
		fetcher:    fetcher,
		thresholds: thresholds,
		logger:     logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run analyzes the given playlist ids end to end.
//
// Sources that cannot be read are skipped and recorded; the run fails only
// when no source yields any usable track, or when the feature fetch hits a
// fatal condition. Even on error the returned result carries whatever the
// run collected before stopping.
func (e *AnalysisEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, playlistIDs []string) (*AnalysisResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source reader not initialized", shared.ErrServiceUnavailable)
	}
	if len(playlistIDs) == 0 {
		return nil, fmt.Errorf("%w: no playlist ids given", shared.ErrMissingArgument)
	}

	result := &AnalysisResult{}

	var listings []models.SourceListing
	for i, id := range playlistIDs {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		sendProgress(progress, collectSourceUpdate(i+1, len(playlistIDs), id))

		listing, err := e.source.ListTracks(ctx, id)
		if err != nil {
			e.logger.Warn("skipping unreadable source", "playlist", id, "error", err)
			result.SourceFailures = append(result.SourceFailures, SourceFailure{SourceID: id, Err: err})
			sendProgress(progress, sourceFailedUpdate(i+1, len(playlistIDs), id, err))
			continue
		}

		e.logger.Info("collected source", "playlist", listing.Name, "tracks", len(listing.Tracks))
		listings = append(listings, *listing)

		name := listing.Name
		if name == "" {
			name = listing.SourceID
		}
		result.SourceNames = append(result.SourceNames, name)
	}

	aggregated := Aggregate(listings)
	result.TotalTracks = aggregated.Store.Len()
	result.Dropped = aggregated.Dropped
	result.SourcesRead = len(listings)

	sendProgress(progress, aggregatedUpdate(result.TotalTracks, result.Dropped, result.SourcesRead))

	if result.TotalTracks == 0 {
		return result, fmt.Errorf("%w: no usable tracks across %d source(s)", shared.ErrNoTracks, len(playlistIDs))
	}

	records, batchFailures, err := e.fetcher.Fetch(ctx, progress, e.features, aggregated.IDs)
	result.BatchFailures = batchFailures
	if err != nil {
		result.Results = ClassifyAll(aggregated.Store, records, e.thresholds)
		return result, err
	}

	sendProgress(progress, classifyUpdate(len(records), result.TotalTracks))

	result.Results = ClassifyAll(aggregated.Store, records, e.thresholds)
	result.MissingFeatures = result.TotalTracks - len(result.Results)

	for _, res := range result.Results {
		if res.MeetsCriteria {
			result.Passing = append(result.Passing, res)
		}
	}

	e.logger.Info("analysis complete",
		"tracks", result.TotalTracks,
		"classified", len(result.Results),
		"passing", len(result.Passing),
		"dropped", result.Dropped,
		"missing_features", result.MissingFeatures)

	return result, nil
}
