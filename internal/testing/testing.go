// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/desertthunder/flowsift/internal/models"
)

// MockSource is a test double for [services.SourceReader] backed by
// canned listings.
type MockSource struct {
	Listings map[string]*models.SourceListing
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	for _, listing := range m.Listings {
		playlists = append(playlists, models.Playlist{
			ID:         listing.SourceID,
			Name:       listing.Name,
			TrackCount: len(listing.Tracks),
		})
	}
	return playlists, nil
}

func (m *MockSource) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	listing, ok := m.Listings[playlistID]
	if !ok {
		return nil, fmt.Errorf("playlist not found: %s", playlistID)
	}
	return &models.Playlist{
		ID:         listing.SourceID,
		Name:       listing.Name,
		TrackCount: len(listing.Tracks),
	}, nil
}

func (m *MockSource) ListTracks(ctx context.Context, playlistID string) (*models.SourceListing, error) {
	listing, ok := m.Listings[playlistID]
	if !ok {
		return nil, fmt.Errorf("playlist not found: %s", playlistID)
	}
	return listing, nil
}

// MockFeatures is a test double for [services.FeatureProvider] returning
// one canned record per id.
type MockFeatures struct {
	Records map[string]*models.FeatureRecord
}

func (m *MockFeatures) AudioFeatures(ctx context.Context, ids []string) ([]*models.FeatureRecord, error) {
	records := make([]*models.FeatureRecord, len(ids))
	for i, id := range ids {
		records[i] = m.Records[id]
	}
	return records, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
