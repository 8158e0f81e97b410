package tasks

import (
	"fmt"

	"github.com/desertthunder/flowsift/internal/models"
	"github.com/desertthunder/flowsift/internal/shared"
)

// Classify applies the flow-state thresholds to one feature record.
//
// All bounds are inclusive. When the track fails, reasons carries one entry
// per violated dimension in tempo, loudness, energy, mode order, so two runs
// over the same data produce identical explanations.
func Classify(features models.FeatureRecord, t shared.Thresholds) (bool, []string) {
	var reasons []string

	if features.Tempo < t.MinTempo || features.Tempo > t.MaxTempo {
		reasons = append(reasons, fmt.Sprintf("Tempo: %.1f BPM", features.Tempo))
	}

	if features.Loudness < t.MinLoudness || features.Loudness > t.MaxLoudness {
		reasons = append(reasons, fmt.Sprintf("Loudness: %.1f dB", features.Loudness))
	}

	if features.Energy < t.MinEnergy {
		reasons = append(reasons, fmt.Sprintf("Energy: %.2f", features.Energy))
	}

	if features.Mode != t.RequiredMode {
		reasons = append(reasons, "Minor mode")
	}

	return len(reasons) == 0, reasons
}

// ClassifyAll scores every fetched record against the thresholds, joining
// each with its provenance metadata.
//
// Results follow the store's first-seen order. Tracks without a feature
// record (abandoned batches, ids unknown to the provider) are skipped; the
// caller reports the gap via the counts on [AnalysisResult].
func ClassifyAll(store *ProvenanceStore, records []models.FeatureRecord, t shared.Thresholds) []models.ClassificationResult {
	byID := make(map[string]models.FeatureRecord, len(records))
	for _, record := range records {
		byID[record.TrackID] = record
	}

	var results []models.ClassificationResult
	for _, id := range store.IDs() {
		record, ok := byID[id]
		if !ok {
			continue
		}

		meta, _ := store.Get(id)

		passed, reasons := Classify(record, t)
		results = append(results, models.ClassificationResult{
			TrackID:       id,
			Metadata:      *meta,
			Features:      record,
			MeetsCriteria: passed,
			Reasons:       reasons,
		})
	}

	return results
}
