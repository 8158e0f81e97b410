package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/flowsift/internal/models"
	"github.com/desertthunder/flowsift/internal/shared"
)

// WriteGenreTracksJSON writes the genre-keyed grouping to
// genre_tracks.json in dir. Map keys serialize sorted, so the file is
// stable across runs.
func WriteGenreTracksJSON(dir string, groups map[string][]models.GenreTrack) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := shared.MarshalJSON(groups, true)
	if err != nil {
		return "", fmt.Errorf("failed to generate genre JSON: %w", err)
	}

	path := filepath.Join(dir, "genre_tracks.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

// ReadGenreTracksJSON loads a previously exported genre_tracks.json.
func ReadGenreTracksJSON(path string) (map[string][]models.GenreTrack, error) {
	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return nil, err
	}

	var groups map[string][]models.GenreTrack
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", shared.ErrInvalidInput, path, err)
	}
	return groups, nil
}

// ExportGenreTrackCSV renders a track list as CSV.
func ExportGenreTrackCSV(tracks []models.GenreTrack) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"name", "artists", "id", "tempo", "energy", "loudness"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.Name,
			track.Artists,
			track.ID,
			strconv.FormatFloat(track.Tempo, 'f', -1, 64),
			strconv.FormatFloat(track.Energy, 'f', -1, 64),
			strconv.FormatFloat(track.Loudness, 'f', -1, 64),
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

// ExportBucketCSV renders one consolidated bucket as CSV.
func ExportBucketCSV(bucket *models.ConsolidatedBucket) ([]byte, error) {
	return ExportGenreTrackCSV(bucket.Tracks)
}

// genreFileName lowercases a genre label and collapses anything outside
// [a-z0-9] into underscores so it is safe as a file name.
func genreFileName(genre string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(genre) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// SplitExportResult lists the files one genre split export produced.
type SplitExportResult struct {
	JSONFile       string
	GenreFiles     []string
	UnresolvedFile string
	ReportFile     string
}

// WriteSplitOutputs writes the full genre split export set into dir:
// genre_tracks.json, one CSV per genre under genres/, an optional
// tracks_without_genre.csv, and split_report.txt.
func WriteSplitOutputs(dir string, groups map[string][]models.GenreTrack, unresolved []models.GenreTrack) (*SplitExportResult, error) {
	result := &SplitExportResult{}

	jsonFile, err := WriteGenreTracksJSON(dir, groups)
	if err != nil {
		return nil, err
	}
	result.JSONFile = jsonFile

	genreDir := filepath.Join(dir, "genres")
	if err := os.MkdirAll(genreDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	genres := make([]string, 0, len(groups))
	for genre := range groups {
		genres = append(genres, genre)
	}
	sort.Strings(genres)

	for _, genre := range genres {
		data, err := ExportGenreTrackCSV(groups[genre])
		if err != nil {
			return nil, err
		}
		path := filepath.Join(genreDir, fmt.Sprintf("%s.csv", genreFileName(genre)))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		result.GenreFiles = append(result.GenreFiles, path)
	}

	if len(unresolved) > 0 {
		data, err := ExportGenreTrackCSV(unresolved)
		if err != nil {
			return nil, err
		}
		result.UnresolvedFile = filepath.Join(dir, "tracks_without_genre.csv")
		if err := os.WriteFile(result.UnresolvedFile, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", result.UnresolvedFile, err)
		}
	}

	result.ReportFile = filepath.Join(dir, "split_report.txt")
	report := buildSplitReport(genres, groups, len(unresolved))
	if err := os.WriteFile(result.ReportFile, report, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", result.ReportFile, err)
	}

	return result, nil
}

// buildSplitReport renders the human-readable split summary.
func buildSplitReport(genres []string, groups map[string][]models.GenreTrack, unresolved int) []byte {
	var buf bytes.Buffer

	buf.WriteString("Genre Split Report\n")
	buf.WriteString(fmt.Sprintf("Generated: %s\n", time.Now().Format(time.RFC1123)))
	buf.WriteString(strings.Repeat("=", 60) + "\n\n")

	buf.WriteString(fmt.Sprintf("Distinct genres: %d\n", len(genres)))
	buf.WriteString(fmt.Sprintf("Tracks without genre: %d\n\n", unresolved))

	buf.WriteString("Tracks per genre:\n")
	for _, genre := range genres {
		buf.WriteString(fmt.Sprintf("  %s: %d\n", genre, len(groups[genre])))
	}

	return buf.Bytes()
}

// WriteBucketCSVs writes one {category}_tracks.csv per consolidated bucket
// into dir and returns the paths written.
func WriteBucketCSVs(dir string, buckets []*models.ConsolidatedBucket) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var files []string
	for _, bucket := range buckets {
		data, err := ExportBucketCSV(bucket)
		if err != nil {
			return files, err
		}

		path := filepath.Join(dir, fmt.Sprintf("%s_tracks.csv", strings.ToLower(bucket.Category)))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return files, fmt.Errorf("failed to write %s: %w", path, err)
		}
		files = append(files, path)
	}

	return files, nil
}

// BuildConsolidationReport renders the human-readable consolidation summary.
func BuildConsolidationReport(buckets []*models.ConsolidatedBucket, genreCounts map[string]int, totalGenres int) []byte {
	var buf bytes.Buffer

	buf.WriteString("Genre Consolidation Report\n")
	buf.WriteString(fmt.Sprintf("Generated: %s\n", time.Now().Format(time.RFC1123)))
	buf.WriteString(strings.Repeat("=", 60) + "\n\n")

	buf.WriteString(fmt.Sprintf("Genres consolidated: %d\n\n", totalGenres))

	categories := make([]string, 0, len(genreCounts))
	for category := range genreCounts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	buf.WriteString("Genres per category:\n")
	for _, category := range categories {
		buf.WriteString(fmt.Sprintf("  %s: %d\n", category, genreCounts[category]))
	}
	buf.WriteString("\n")

	for _, bucket := range buckets {
		buf.WriteString(fmt.Sprintf("%s (%d tracks)\n", bucket.Category, bucket.Len()))
		for _, track := range bucket.Tracks {
			buf.WriteString(fmt.Sprintf("  %s - %s\n", track.Artists, track.Name))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// WriteConsolidationReport writes consolidation_report.txt into dir.
func WriteConsolidationReport(dir string, buckets []*models.ConsolidatedBucket, genreCounts map[string]int, totalGenres int) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, "consolidation_report.txt")
	report := BuildConsolidationReport(buckets, genreCounts, totalGenres)
	if err := os.WriteFile(path, report, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}
