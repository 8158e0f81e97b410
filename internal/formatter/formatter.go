// package formatter exports analysis results to CSV, JSON and plain text reports
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/flowsift/internal/models"
	"github.com/desertthunder/flowsift/internal/shared"
)

// analysisColumns is the column order of analysis.csv. Readers key on the
// header row, so appending columns is safe; reordering is not.
var analysisColumns = []string{
	"name", "artists", "id", "playlists", "meets_criteria", "reasons",
	"tempo", "loudness", "energy", "mode",
}

// listSep joins multi-valued cells (playlists, reasons) inside one CSV field.
const listSep = "; "

// RunSummary carries the run-level counts the report and manifest files need.
type RunSummary struct {
	Sources         []string // names of the playlists analyzed
	Thresholds      shared.Thresholds
	TotalTracks     int
	Dropped         int
	MissingFeatures int
	FailedSources   int
	FailedBatches   int
}

// ExportAnalysisCSV renders classification results as CSV.
func ExportAnalysisCSV(results []models.ClassificationResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(analysisColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, result := range results {
		record := []string{
			result.Metadata.Name,
			result.Metadata.ArtistList(),
			result.TrackID,
			strings.Join(result.Metadata.Sources, listSep),
			strconv.FormatBool(result.MeetsCriteria),
			strings.Join(result.Reasons, listSep),
			strconv.FormatFloat(result.Features.Tempo, 'f', -1, 64),
			strconv.FormatFloat(result.Features.Loudness, 'f', -1, 64),
			strconv.FormatFloat(result.Features.Energy, 'f', -1, 64),
			strconv.Itoa(result.Features.Mode),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportAnalysisJSON renders classification results as indented JSON.
func ExportAnalysisJSON(results []models.ClassificationResult) ([]byte, error) {
	return shared.MarshalJSON(results, true)
}

// BuildAnalysisReport renders the human-readable run report.
func BuildAnalysisReport(results []models.ClassificationResult, summary RunSummary) []byte {
	var buf bytes.Buffer

	passing := 0
	for _, result := range results {
		if result.MeetsCriteria {
			passing++
		}
	}

	buf.WriteString("Flow State Analysis Report\n")
	buf.WriteString(fmt.Sprintf("Generated: %s\n", time.Now().Format(time.RFC1123)))
	buf.WriteString(strings.Repeat("=", 60) + "\n\n")

	buf.WriteString("Criteria:\n")
	buf.WriteString(fmt.Sprintf("  Tempo: %.1f-%.1f BPM\n", summary.Thresholds.MinTempo, summary.Thresholds.MaxTempo))
	buf.WriteString(fmt.Sprintf("  Loudness: %.1f-%.1f dB\n", summary.Thresholds.MinLoudness, summary.Thresholds.MaxLoudness))
	buf.WriteString(fmt.Sprintf("  Energy: >= %.2f\n", summary.Thresholds.MinEnergy))
	if summary.Thresholds.RequiredMode == 1 {
		buf.WriteString("  Mode: major\n\n")
	} else {
		buf.WriteString("  Mode: minor\n\n")
	}

	buf.WriteString(fmt.Sprintf("Playlists analyzed: %d\n", len(summary.Sources)))
	for _, source := range summary.Sources {
		buf.WriteString(fmt.Sprintf("  - %s\n", source))
	}
	buf.WriteString("\n")

	buf.WriteString(fmt.Sprintf("Unique tracks: %d\n", summary.TotalTracks))
	buf.WriteString(fmt.Sprintf("Unavailable entries dropped: %d\n", summary.Dropped))
	buf.WriteString(fmt.Sprintf("Tracks without audio features: %d\n", summary.MissingFeatures))
	if summary.FailedSources > 0 {
		buf.WriteString(fmt.Sprintf("Unreadable playlists skipped: %d\n", summary.FailedSources))
	}
	if summary.FailedBatches > 0 {
		buf.WriteString(fmt.Sprintf("Feature batches abandoned: %d\n", summary.FailedBatches))
	}
	buf.WriteString("\n")

	buf.WriteString(fmt.Sprintf("Tracks classified: %d\n", len(results)))
	if len(results) > 0 {
		buf.WriteString(fmt.Sprintf("Meeting all criteria: %d (%.1f%%)\n\n",
			passing, float64(passing)/float64(len(results))*100))
	} else {
		buf.WriteString("Meeting all criteria: 0\n\n")
	}

	buf.WriteString("Matching tracks:\n")
	for _, result := range results {
		if !result.MeetsCriteria {
			continue
		}
		buf.WriteString(fmt.Sprintf("  %s - %s [%.1f BPM, %.1f dB, %.2f energy]\n",
			result.Metadata.ArtistList(), result.Metadata.Name,
			result.Features.Tempo, result.Features.Loudness, result.Features.Energy))
	}

	return buf.Bytes()
}

// AnalysisExportResult lists the files one analysis export produced.
type AnalysisExportResult struct {
	CSVFile       string
	JSONFile      string
	ReportFile    string
	PlaylistsFile string
}

// Files returns every path the export wrote.
func (r *AnalysisExportResult) Files() []string {
	return []string{r.CSVFile, r.JSONFile, r.ReportFile, r.PlaylistsFile}
}

// WriteAnalysisOutputs writes the full analysis export set into dir:
// analysis.csv, analysis.json, analysis_report.txt and
// analyzed_playlists.txt.
func WriteAnalysisOutputs(dir string, results []models.ClassificationResult, summary RunSummary) (*AnalysisExportResult, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &AnalysisExportResult{
		CSVFile:       filepath.Join(dir, "analysis.csv"),
		JSONFile:      filepath.Join(dir, "analysis.json"),
		ReportFile:    filepath.Join(dir, "analysis_report.txt"),
		PlaylistsFile: filepath.Join(dir, "analyzed_playlists.txt"),
	}

	csvData, err := ExportAnalysisCSV(results)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(result.CSVFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", result.CSVFile, err)
	}

	jsonData, err := ExportAnalysisJSON(results)
	if err != nil {
		return nil, fmt.Errorf("failed to generate analysis JSON: %w", err)
	}
	if err := os.WriteFile(result.JSONFile, jsonData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", result.JSONFile, err)
	}

	report := BuildAnalysisReport(results, summary)
	if err := os.WriteFile(result.ReportFile, report, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", result.ReportFile, err)
	}

	playlists := strings.Join(summary.Sources, "\n")
	if playlists != "" {
		playlists += "\n"
	}
	if err := os.WriteFile(result.PlaylistsFile, []byte(playlists), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", result.PlaylistsFile, err)
	}

	return result, nil
}

// ReadAnalysisCSV loads a previously exported analysis.csv.
//
// The reader keys on the header row; id, name, artists and meets_criteria
// are required, the remaining columns are optional so older exports stay
// readable.
func ReadAnalysisCSV(path string) ([]models.ClassificationResult, error) {
	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", shared.ErrInvalidInput, path)
	}

	index := make(map[string]int, len(rows[0]))
	for i, column := range rows[0] {
		index[strings.TrimSpace(column)] = i
	}

	for _, required := range []string{"id", "name", "artists", "meets_criteria"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: %s is missing the %q column", shared.ErrInvalidInput, path, required)
		}
	}

	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var results []models.ClassificationResult
	for _, row := range rows[1:] {
		result := models.ClassificationResult{
			TrackID: cell(row, "id"),
			Metadata: models.TrackMetadata{
				Name: cell(row, "name"),
			},
		}

		if artists := cell(row, "artists"); artists != "" {
			result.Metadata.Artists = strings.Split(artists, ", ")
		}
		if playlists := cell(row, "playlists"); playlists != "" {
			result.Metadata.Sources = strings.Split(playlists, listSep)
		}
		if reasons := cell(row, "reasons"); reasons != "" {
			result.Reasons = strings.Split(reasons, listSep)
		}

		result.MeetsCriteria, _ = strconv.ParseBool(cell(row, "meets_criteria"))
		result.Features.TrackID = result.TrackID
		result.Features.Tempo, _ = strconv.ParseFloat(cell(row, "tempo"), 64)
		result.Features.Loudness, _ = strconv.ParseFloat(cell(row, "loudness"), 64)
		result.Features.Energy, _ = strconv.ParseFloat(cell(row, "energy"), 64)
		result.Features.Mode, _ = strconv.Atoi(cell(row, "mode"))

		results = append(results, result)
	}

	return results, nil
}

// ExportPlaylistsCSV renders playlist metadata as CSV.
func ExportPlaylistsCSV(playlists []models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"id", "name", "owner", "tracks", "visibility"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, playlist := range playlists {
		record := []string{
			playlist.ID,
			playlist.Name,
			playlist.Owner,
			strconv.Itoa(playlist.TrackCount),
			shared.VisibilityString(playlist.Public),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WritePlaylistIDs writes one playlist id per line, the format the analyze
// command accepts via --file or stdin.
func WritePlaylistIDs(path string, playlists []models.Playlist) error {
	var buf bytes.Buffer
	for _, playlist := range playlists {
		buf.WriteString(playlist.ID + "\n")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
