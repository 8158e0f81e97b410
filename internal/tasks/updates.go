package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	CollectSources Phase = iota
	FetchFeatures
	ClassifyTracks
	ResolveGenres
	ConsolidateGenres
	ExportResults
)

func (p Phase) String() string {
	switch p {
	case CollectSources:
		return "collect_sources"
	case FetchFeatures:
		return "fetch_features"
	case ClassifyTracks:
		return "classify_tracks"
	case ResolveGenres:
		return "resolve_genres"
	case ConsolidateGenres:
		return "consolidate_genres"
	case ExportResults:
		return "export_results"
	default:
		return ""
	}
}

func collectSourceUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CollectSources,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Collecting playlist %s...", step, total, id),
	}
}

func sourceFailedUpdate(step, total int, id string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CollectSources,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, id, err),
	}
}

func aggregatedUpdate(tracks, dropped, sources int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CollectSources,
		Step:    sources,
		Total:   sources,
		Message: fmt.Sprintf("Aggregated %d unique tracks from %d source(s), dropped %d unavailable", tracks, sources, dropped),
	}
}

func batchFetchedUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeatures,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetched feature batch", step, total),
	}
}

func batchFailedUpdate(step, total int, failure *BatchFailure) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeatures,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ batch %d abandoned after %d attempts", step, total, failure.BatchIndex, failure.Attempts),
		Data:    failure,
	}
}

func classifyUpdate(records, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClassifyTracks,
		Step:    records,
		Total:   total,
		Message: fmt.Sprintf("Classifying %d of %d tracks...", records, total),
	}
}

func resolveArtistUpdate(step, total int, artist string) ProgressUpdate {
	if artist == "" {
		return ProgressUpdate{
			Phase:   ResolveGenres,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] No primary artist", step, total),
		}
	}
	return ProgressUpdate{
		Phase:   ResolveGenres,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, artist),
	}
}

func consolidateUpdate(genres, buckets int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ConsolidateGenres,
		Step:    buckets,
		Total:   buckets,
		Message: fmt.Sprintf("Consolidated %d genre(s) into %d bucket(s)", genres, buckets),
	}
}
