package models

import (
	"fmt"
	"strings"
	"time"
)

// CachedPlaylist is a playlist listing persisted to the local source cache.
//
// The cache lets the analysis pipeline read sources from a pre-fetched local
// listing instead of the live catalogue API.
type CachedPlaylist struct {
	id         string
	sequence   int
	serviceID  string
	name       string
	owner      string
	trackCount int
	public     bool
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewCachedPlaylist creates a cache entity from catalogue playlist metadata.
func NewCachedPlaylist(sequence int, playlist Playlist) *CachedPlaylist {
	now := time.Now()
	return &CachedPlaylist{
		sequence:   sequence,
		serviceID:  playlist.ID,
		name:       playlist.Name,
		owner:      playlist.Owner,
		trackCount: playlist.TrackCount,
		public:     playlist.Public,
		createdAt:  now,
		updatedAt:  now,
	}
}

// RestoreCachedPlaylist rebuilds a cache entity from stored column values.
func RestoreCachedPlaylist(id string, sequence int, serviceID, name, owner string, trackCount int, public bool, createdAt, updatedAt time.Time, deletedAt *time.Time) *CachedPlaylist {
	return &CachedPlaylist{
		id:         id,
		sequence:   sequence,
		serviceID:  serviceID,
		name:       name,
		owner:      owner,
		trackCount: trackCount,
		public:     public,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
		deletedAt:  deletedAt,
	}
}

func (p *CachedPlaylist) ID() string           { return p.id }
func (p *CachedPlaylist) Sequence() int        { return p.sequence }
func (p *CachedPlaylist) ServiceID() string    { return p.serviceID }
func (p *CachedPlaylist) Name() string         { return p.name }
func (p *CachedPlaylist) Owner() string        { return p.owner }
func (p *CachedPlaylist) TrackCount() int      { return p.trackCount }
func (p *CachedPlaylist) Public() bool         { return p.public }
func (p *CachedPlaylist) CreatedAt() time.Time { return p.createdAt }
func (p *CachedPlaylist) UpdatedAt() time.Time { return p.updatedAt }

func (p *CachedPlaylist) SetID(id string) { p.id = id }
func (p *CachedPlaylist) SetTrackCount(n int) { p.trackCount = n }
func (p *CachedPlaylist) SetUpdatedAt(t time.Time) { p.updatedAt = t }

// Validate checks required fields before the entity is written.
func (p *CachedPlaylist) Validate() error {
	if p.serviceID == "" {
		return fmt.Errorf("cached playlist requires a service_id")
	}
	if p.name == "" {
		return fmt.Errorf("cached playlist requires a name")
	}
	return nil
}

// Playlist converts the cache entity back to catalogue playlist metadata.
func (p *CachedPlaylist) Playlist() Playlist {
	return Playlist{
		ID:         p.serviceID,
		Name:       p.name,
		Owner:      p.owner,
		TrackCount: p.trackCount,
		Public:     p.public,
	}
}

// CachedTrack is one ordered track reference within a cached playlist listing.
type CachedTrack struct {
	id         string
	sequence   int
	playlistID string
	serviceID  string
	name       string
	artists    string
	position   int
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewCachedTrack creates a cache entity for a track reference at the given
// position within the playlist identified by its catalogue id.
func NewCachedTrack(sequence int, playlistID string, position int, track Track) *CachedTrack {
	now := time.Now()
	return &CachedTrack{
		sequence:   sequence,
		playlistID: playlistID,
		serviceID:  track.ID,
		name:       track.Name,
		artists:    track.ArtistList(),
		position:   position,
		createdAt:  now,
		updatedAt:  now,
	}
}

// RestoreCachedTrack rebuilds a cache entity from stored column values.
func RestoreCachedTrack(id string, sequence int, playlistID, serviceID, name, artists string, position int, createdAt, updatedAt time.Time, deletedAt *time.Time) *CachedTrack {
	return &CachedTrack{
		id:         id,
		sequence:   sequence,
		playlistID: playlistID,
		serviceID:  serviceID,
		name:       name,
		artists:    artists,
		position:   position,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
		deletedAt:  deletedAt,
	}
}

func (t *CachedTrack) ID() string           { return t.id }
func (t *CachedTrack) Sequence() int        { return t.sequence }
func (t *CachedTrack) PlaylistID() string   { return t.playlistID }
func (t *CachedTrack) ServiceID() string    { return t.serviceID }
func (t *CachedTrack) Name() string         { return t.name }
func (t *CachedTrack) Artists() string      { return t.artists }
func (t *CachedTrack) Position() int        { return t.position }
func (t *CachedTrack) CreatedAt() time.Time { return t.createdAt }
func (t *CachedTrack) UpdatedAt() time.Time { return t.updatedAt }

func (t *CachedTrack) SetID(id string) { t.id = id }
func (t *CachedTrack) SetUpdatedAt(at time.Time) { t.updatedAt = at }

// Validate checks required fields before the entity is written.
//
// An empty service_id is allowed: unavailable catalogue entries are cached
// as-is so an offline run drops them the same way a live run would.
func (t *CachedTrack) Validate() error {
	if t.playlistID == "" {
		return fmt.Errorf("cached track requires a playlist_id")
	}
	if t.name == "" && t.serviceID == "" {
		return fmt.Errorf("cached track requires a name or service_id")
	}
	return nil
}

// Track converts the cache entity back to a raw track reference.
func (t *CachedTrack) Track() Track {
	var artists []string
	if t.artists != "" {
		artists = strings.Split(t.artists, ", ")
	}
	return Track{ID: t.serviceID, Name: t.name, Artists: artists}
}
