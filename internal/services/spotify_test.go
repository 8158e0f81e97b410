package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/flowsift/internal/shared"
	"golang.org/x/oauth2"
)

func newTestService(t *testing.T, handler http.Handler) *SpotifyService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("NewSpotifyService() error = %v", err)
	}

	srv.baseURL = server.URL
	srv.token = &oauth2.Token{AccessToken: "test_token"}

	return srv
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("With Valid Credentials", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
			"redirect_uri":  "http://localhost:9999/cb",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if srv.Name() != "Spotify" {
			t.Errorf("expected service name 'Spotify', got %s", srv.Name())
		}

		if srv.config.RedirectURL != "http://localhost:9999/cb" {
			t.Errorf("unexpected redirect URI %s", srv.config.RedirectURL)
		}
	})

	t.Run("Missing Client ID", func(t *testing.T) {
		_, err := NewSpotifyService(map[string]string{"client_secret": "s"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Missing Client Secret", func(t *testing.T) {
		_, err := NewSpotifyService(map[string]string{"client_id": "c"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Default Redirect URI", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "c",
			"client_secret": "s",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if srv.config.RedirectURL != "http://localhost:8080/callback" {
			t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
		}
	})
}

func TestGetAuthURL(t *testing.T) {
	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("NewSpotifyService() error = %v", err)
	}

	authURL := srv.GetAuthURL("state123")
	if !strings.Contains(authURL, "accounts.spotify.com/authorize") {
		t.Errorf("auth URL should point at the authorize endpoint: %s", authURL)
	}
	if !strings.Contains(authURL, "state=state123") {
		t.Errorf("auth URL should carry the state parameter: %s", authURL)
	}
}

func TestDoRequestErrors(t *testing.T) {
	t.Run("not authenticated", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "c",
			"client_secret": "s",
		})
		if err != nil {
			t.Fatalf("NewSpotifyService() error = %v", err)
		}

		if err := srv.doRequest(context.Background(), "/me", nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	tc := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, shared.ErrAuthFailed},
		{"forbidden", http.StatusForbidden, shared.ErrAuthFailed},
		{"rate limited", http.StatusTooManyRequests, shared.ErrRateLimited},
		{"server error", http.StatusInternalServerError, shared.ErrServiceUnavailable},
		{"not found", http.StatusNotFound, shared.ErrAPIRequest},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			err := srv.doRequest(context.Background(), "/me", nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("status %d mapped to %v, want %v", tt.status, err, tt.want)
			}
		})
	}
}

func TestGetPlaylists(t *testing.T) {
	pages := map[string]string{
		"0": `{
			"items": [
				{"id": "pl_1", "name": "Focus", "owner": {"display_name": "alice"}, "public": true, "tracks": {"total": 3}},
				{"id": "pl_2", "name": "Gym", "owner": {"display_name": "alice"}, "public": false, "tracks": {"total": 1}}
			],
			"total": 3,
			"next": "https://api.spotify.com/v1/me/playlists?offset=50"
		}`,
		"50": `{
			"items": [
				{"id": "pl_3", "name": "Sleep", "owner": {"display_name": "alice"}, "public": false, "tracks": {"total": 9}}
			],
			"total": 3,
			"next": null
		}`,
	}

	srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/playlists" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test_token" {
			t.Errorf("unexpected authorization header %q", got)
		}

		page, ok := pages[r.URL.Query().Get("offset")]
		if !ok {
			t.Fatalf("unexpected offset %s", r.URL.Query().Get("offset"))
		}
		fmt.Fprint(w, page)
	}))

	playlists, err := srv.GetPlaylists(context.Background())
	if err != nil {
		t.Fatalf("GetPlaylists() error = %v", err)
	}

	if len(playlists) != 3 {
		t.Fatalf("expected 3 playlists across pages, got %d", len(playlists))
	}

	if playlists[0].ID != "pl_1" || playlists[2].ID != "pl_3" {
		t.Errorf("unexpected playlist order: %v", playlists)
	}

	if playlists[0].Owner != "alice" {
		t.Errorf("expected owner alice, got %s", playlists[0].Owner)
	}
}

func TestListTracks(t *testing.T) {
	playlistJSON := `{"id": "pl_1", "name": "Focus", "owner": {"display_name": "alice"}, "public": true, "tracks": {"total": 3}}`
	trackPages := map[string]string{
		"0": `{
			"items": [
				{"track": {"id": "t1", "name": "First Light", "artists": [{"name": "Camo & Krooked"}, {"name": "Mefjus"}]}},
				{"track": null},
				{"track": {"id": "", "name": "Unavailable", "artists": []}}
			],
			"total": 4,
			"next": "https://api.spotify.com/v1/playlists/pl_1/tracks?offset=100"
		}`,
		"100": `{
			"items": [
				{"track": {"id": "t2", "name": "Ghost Assassin", "artists": [{"name": "Noisia"}]}}
			],
			"total": 4,
			"next": null
		}`,
	}

	srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/playlists/pl_1":
			fmt.Fprint(w, playlistJSON)
		case "/playlists/pl_1/tracks":
			if fields := r.URL.Query().Get("fields"); fields == "" {
				t.Error("track page request should trim response fields")
			}
			fmt.Fprint(w, trackPages[r.URL.Query().Get("offset")])
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	listing, err := srv.ListTracks(context.Background(), "pl_1")
	if err != nil {
		t.Fatalf("ListTracks() error = %v", err)
	}

	if listing.SourceID != "pl_1" || listing.Name != "Focus" {
		t.Errorf("unexpected listing header: %+v", listing)
	}

	// Null track entries are skipped, empty-id entries are kept.
	if len(listing.Tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(listing.Tracks))
	}

	if listing.Tracks[0].ID != "t1" {
		t.Errorf("expected t1 first, got %s", listing.Tracks[0].ID)
	}
	if len(listing.Tracks[0].Artists) != 2 {
		t.Errorf("expected two artists, got %v", listing.Tracks[0].Artists)
	}
	if listing.Tracks[1].ID != "" {
		t.Errorf("unavailable entry should keep an empty id, got %s", listing.Tracks[1].ID)
	}
	if listing.Tracks[2].ID != "t2" {
		t.Errorf("expected t2 from the second page, got %s", listing.Tracks[2].ID)
	}
}

func TestAudioFeatures(t *testing.T) {
	t.Run("aligned response with nulls", func(t *testing.T) {
		srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/audio-features" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if ids := r.URL.Query().Get("ids"); ids != "t1,t2,t3" {
				t.Errorf("unexpected ids parameter %q", ids)
			}
			fmt.Fprint(w, `{
				"audio_features": [
					{"id": "t1", "tempo": 174.0, "loudness": -4.5, "energy": 0.93, "mode": 1, "danceability": 0.55, "valence": 0.4},
					null,
					{"id": "t3", "tempo": 120.0, "loudness": -9.1, "energy": 0.51, "mode": 0, "danceability": 0.7, "valence": 0.8}
				]
			}`)
		}))

		records, err := srv.AudioFeatures(context.Background(), []string{"t1", "t2", "t3"})
		if err != nil {
			t.Fatalf("AudioFeatures() error = %v", err)
		}

		if len(records) != 3 {
			t.Fatalf("expected positional alignment with 3 ids, got %d records", len(records))
		}

		if records[0] == nil || records[0].Tempo != 174.0 || records[0].Mode != 1 {
			t.Errorf("unexpected first record: %+v", records[0])
		}
		if records[1] != nil {
			t.Errorf("null descriptor should map to nil, got %+v", records[1])
		}
		if records[2] == nil || records[2].TrackID != "t3" {
			t.Errorf("unexpected third record: %+v", records[2])
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("empty batch should not hit the API")
		}))

		records, err := srv.AudioFeatures(context.Background(), nil)
		if err != nil {
			t.Fatalf("AudioFeatures() error = %v", err)
		}
		if records != nil {
			t.Errorf("expected no records, got %v", records)
		}
	})
}

func TestGenreResolution(t *testing.T) {
	srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			if q := r.URL.Query().Get("q"); q != "Noisia" {
				t.Errorf("unexpected query %q", q)
			}
			if typ := r.URL.Query().Get("type"); typ != "artist" {
				t.Errorf("unexpected type %q", typ)
			}
			fmt.Fprint(w, `{"artists": {"items": [{"id": "ar_1", "name": "Noisia", "genres": ["neurofunk"]}]}}`)
		case "/artists/ar_1":
			fmt.Fprint(w, `{"id": "ar_1", "name": "Noisia", "genres": ["neurofunk", "drum and bass"]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	id, err := srv.SearchArtistID(context.Background(), "Noisia")
	if err != nil {
		t.Fatalf("SearchArtistID() error = %v", err)
	}
	if id != "ar_1" {
		t.Errorf("expected artist id ar_1, got %s", id)
	}

	genres, err := srv.ArtistGenres(context.Background(), "ar_1")
	if err != nil {
		t.Fatalf("ArtistGenres() error = %v", err)
	}
	if len(genres) != 2 || genres[0] != "neurofunk" {
		t.Errorf("unexpected genres %v", genres)
	}
}

func TestSearchArtistIDNoMatch(t *testing.T) {
	srv := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"artists": {"items": []}}`)
	}))

	id, err := srv.SearchArtistID(context.Background(), "nobody you know")
	if err != nil {
		t.Fatalf("SearchArtistID() error = %v", err)
	}
	if id != "" {
		t.Errorf("expected empty id for no match, got %s", id)
	}
}
