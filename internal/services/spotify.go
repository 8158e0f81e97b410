// Spotify API implementations of [SourceReader], [FeatureProvider] and [GenreResolver]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/flowsift/internal/models"
	"github.com/desertthunder/flowsift/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Endpoint page sizes. Track listings page at 100 items, playlist
	// listings at the API maximum of 50.
	trackPageLimit    = 100
	playlistPageLimit = 50
)

// trackFields trims playlist track responses to the fields aggregation reads.
const trackFields = "items(track(id,name,artists(name))),next,total"

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
	URI    string   `json:"uri"`
}

// SpotifyTrack represents a Spotify track within a playlist listing.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Owner       Owner               `json:"owner"`
	Public      bool                `json:"public"`
	Tracks      simplePlaylistTrack `json:"tracks"`
	URI         string              `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

// SpotifyPlaylist represents a full playlist object.
type SpotifyPlaylist struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Owner       Owner               `json:"owner"`
	Public      bool                `json:"public"`
	Tracks      simplePlaylistTrack `json:"tracks"`
	URI         string              `json:"uri"`
}

// SpotifyPlaylistTrack represents a track entry within a playlist page.
// Track is a pointer because the API returns null for entries it cannot
// resolve (local files, podcast episodes in some markets).
type SpotifyPlaylistTrack struct {
	Track *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents one page of a playlist's track listing.
type SpotifyPaginatedTracks struct {
	Items []SpotifyPlaylistTrack `json:"items"`
	Total int                    `json:"total"`
	Next  *string                `json:"next"`
}

// SpotifyAudioFeatures represents the audio descriptor object for one track.
type SpotifyAudioFeatures struct {
	ID           string  `json:"id"`
	Tempo        float64 `json:"tempo"`
	Loudness     float64 `json:"loudness"`
	Energy       float64 `json:"energy"`
	Mode         int     `json:"mode"`
	Danceability float64 `json:"danceability"`
	Valence      float64 `json:"valence"`
}

// FeatureRecord converts the API object to the pipeline's descriptor type.
func (f SpotifyAudioFeatures) FeatureRecord() models.FeatureRecord {
	return models.FeatureRecord{
		TrackID:      f.ID,
		Tempo:        f.Tempo,
		Loudness:     f.Loudness,
		Energy:       f.Energy,
		Mode:         f.Mode,
		Danceability: f.Danceability,
		Valence:      f.Valence,
	}
}

// SpotifyService implements [SourceReader], [FeatureProvider] and
// [GenreResolver] against the Spotify Web API.
// Uses [oauth2] for authentication.
type SpotifyService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	baseURL     string
	credentials map[string]string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		baseURL:     spotifyBaseURL,
		credentials: credentials,
	}, nil
}

// Authenticate performs OAuth2 authentication with Spotify.
//
// Accepts an "access_token" or "auth_code" in credentials; with neither it
// falls back to the client credentials grant, which is sufficient for public
// playlist and catalogue reads.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	cc := &clientcredentials.Config{
		ClientID:     s.config.ClientID,
		ClientSecret: s.config.ClientSecret,
		TokenURL:     s.config.Endpoint.TokenURL,
	}

	token, err := cc.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: client credentials grant failed: %v", shared.ErrAuthFailed, err)
	}

	s.token = token
	s.httpClient = cc.Client(ctx)
	return nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 config for the callback server.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// OAuthenticate applies a token obtained from a completed OAuth flow.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrAuthFailed)
	}
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
	return nil
}

// doRequest performs an authenticated GET against the Spotify API and maps
// response status classes onto the shared error kinds the pipeline retries on.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	if s.token == nil {
		return shared.ErrNotAuthenticated
	}

	apiURL := s.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d on %s", shared.ErrAuthFailed, resp.StatusCode, endpoint)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status 429 on %s", shared.ErrRateLimited, endpoint)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d on %s", shared.ErrServiceUnavailable, resp.StatusCode, endpoint)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d on %s", shared.ErrAPIRequest, resp.StatusCode, endpoint)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 || limit > playlistPageLimit {
		limit = playlistPageLimit
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// Playlist retrieves a playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, endpoint, &playlist); err != nil {
		return nil, err
	}

	return &playlist, nil
}

// PlaylistTracks retrieves one page of a playlist's track listing.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*SpotifyPaginatedTracks, error) {
	if limit <= 0 || limit > trackPageLimit {
		limit = trackPageLimit
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d&fields=%s",
		playlistID, limit, offset, url.QueryEscape(trackFields))

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// Artist retrieves an artist by ID.
func (s *SpotifyService) Artist(ctx context.Context, artistID string) (*SpotifyArtist, error) {
	endpoint := fmt.Sprintf("/artists/%s", artistID)

	var artist SpotifyArtist
	if err := s.doRequest(ctx, endpoint, &artist); err != nil {
		return nil, err
	}

	return &artist, nil
}

// SourceReader implementation

// GetPlaylists retrieves all playlists for the authenticated user,
// following pagination to exhaustion.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var allPlaylists []models.Playlist
	offset := 0

	for {
		response, err := s.UserPlaylists(ctx, playlistPageLimit, offset)
		if err != nil {
			return nil, err
		}

		for _, sp := range response.Items {
			allPlaylists = append(allPlaylists, models.Playlist{
				ID:         sp.ID,
				Name:       sp.Name,
				Owner:      sp.Owner.DisplayName,
				TrackCount: sp.Tracks.Total,
				Public:     sp.Public,
			})
		}

		if response.Next == nil || len(response.Items) == 0 {
			break
		}
		offset += playlistPageLimit
	}

	return allPlaylists, nil
}

// GetPlaylist retrieves a specific playlist's metadata by ID.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	sp, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:         sp.ID,
		Name:       sp.Name,
		Owner:      sp.Owner.DisplayName,
		TrackCount: sp.Tracks.Total,
		Public:     sp.Public,
	}, nil
}

// ListTracks retrieves a playlist's full ordered track listing, following
// pagination to exhaustion.
//
// Entries whose track object is null are skipped. Entries with an empty id
// (unavailable catalogue items) are kept so downstream aggregation can count
// what it drops.
func (s *SpotifyService) ListTracks(ctx context.Context, playlistID string) (*models.SourceListing, error) {
	playlist, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	listing := &models.SourceListing{
		SourceID: playlist.ID,
		Name:     playlist.Name,
	}

	offset := 0
	for {
		page, err := s.PlaylistTracks(ctx, playlistID, trackPageLimit, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil {
				continue
			}

			track := models.Track{
				ID:   item.Track.ID,
				Name: item.Track.Name,
			}
			for _, artist := range item.Track.Artists {
				track.Artists = append(track.Artists, artist.Name)
			}

			listing.Tracks = append(listing.Tracks, track)
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += trackPageLimit
	}

	return listing, nil
}

// FeatureProvider implementation

// AudioFeatures retrieves audio descriptors for one batch of track ids.
//
// The response array is positionally aligned with ids; Spotify returns null
// for ids it has no descriptors for, which surface here as nil entries.
func (s *SpotifyService) AudioFeatures(ctx context.Context, ids []string) ([]*models.FeatureRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	endpoint := fmt.Sprintf("/audio-features?ids=%s", url.QueryEscape(strings.Join(ids, ",")))

	var response struct {
		AudioFeatures []*SpotifyAudioFeatures `json:"audio_features"`
	}

	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	records := make([]*models.FeatureRecord, len(ids))
	for i, f := range response.AudioFeatures {
		if i >= len(ids) {
			break
		}
		if f == nil {
			continue
		}
		record := f.FeatureRecord()
		records[i] = &record
	}

	return records, nil
}

// GenreResolver implementation

// SearchArtistID resolves an artist name to a Spotify artist id.
// Returns an empty id when the search has no match.
func (s *SpotifyService) SearchArtistID(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", nil
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=artist&limit=1", url.QueryEscape(name))

	var response struct {
		Artists struct {
			Items []SpotifyArtist `json:"items"`
		} `json:"artists"`
	}

	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return "", err
	}

	if len(response.Artists.Items) == 0 {
		return "", nil
	}

	return response.Artists.Items[0].ID, nil
}

// ArtistGenres retrieves the genre labels attached to an artist.
func (s *SpotifyService) ArtistGenres(ctx context.Context, artistID string) ([]string, error) {
	artist, err := s.Artist(ctx, artistID)
	if err != nil {
		return nil, err
	}
	return artist.Genres, nil
}
