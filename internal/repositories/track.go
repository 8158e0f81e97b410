package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/flowsift/internal/models"
	"github.com/desertthunder/flowsift/internal/shared"
)

// TrackRepository implements models.Repository[*models.CachedTrack] for the source cache.
//
// Tracks are stored as ordered references within a cached playlist listing.
// The (playlist_id, position) pair is unique so a re-cache of the same
// playlist replaces its listing rather than appending to it.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.CachedTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (id, sequence, playlist_id, service_id, name, artists, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.PlaylistID(),
		track.ServiceID(),
		track.Name(),
		track.Artists(),
		track.Position(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// CreateMany inserts a playlist's track listing in a single transaction.
//
// Positions in the listing must be unique; a constraint violation rolls back
// the whole batch so the cache never holds a partial listing.
func (r *TrackRepository) CreateMany(tracks []*models.CachedTrack) error {
	if len(tracks) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO tracks (id, sequence, playlist_id, service_id, name, artists, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, track := range tracks {
		sequence, err := nextSequenceTx(tx, "tracks")
		if err != nil {
			return err
		}

		id := shared.GenerateID()
		track.SetID(id)

		if err := track.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		if _, err := stmt.Exec(
			id,
			sequence,
			track.PlaylistID(),
			track.ServiceID(),
			track.Name(),
			track.Artists(),
			track.Position(),
			track.CreatedAt(),
			track.UpdatedAt(),
		); err != nil {
			return fmt.Errorf("failed to insert track at position %d: %w", track.Position(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit track batch: %w", err)
	}

	return nil
}

// Get retrieves a cached track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `
		SELECT id, sequence, playlist_id, service_id, name, artists, position, created_at, updated_at, deleted_at
		FROM tracks
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing cached track in the database
func (r *TrackRepository) Update(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		UPDATE tracks
		SET service_id = ?, name = ?, artists = ?, position = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.ServiceID(),
		track.Name(),
		track.Artists(),
		track.Position(),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found or already deleted: %s", track.ID())
	}

	return nil
}

// Delete soft-deletes a cached track by ID
func (r *TrackRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found or already deleted: %s", id)
	}

	return nil
}

// DeleteByPlaylist hard-deletes a playlist's track listing so it can be re-cached
func (r *TrackRepository) DeleteByPlaylist(playlistID string) error {
	if _, err := r.db.Exec("DELETE FROM tracks WHERE playlist_id = ?", playlistID); err != nil {
		return fmt.Errorf("failed to clear playlist tracks: %w", err)
	}
	return nil
}

// List retrieves all cached tracks matching the given criteria, excluding soft-deleted tracks
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `
		SELECT id, sequence, playlist_id, service_id, name, artists, position, created_at, updated_at, deleted_at
		FROM tracks
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}

	query += " ORDER BY playlist_id ASC, position ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CachedTrack
	for rows.Next() {
		track, err := scanCachedTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// ListByPlaylist retrieves a cached playlist's track listing in position order
func (r *TrackRepository) ListByPlaylist(playlistID string) ([]*models.CachedTrack, error) {
	return r.List(map[string]any{"playlist_id": playlistID})
}

// scanOne scans a single [sql.Row] into a [models.CachedTrack]
func (r *TrackRepository) scanOne(row *sql.Row) (*models.CachedTrack, error) {
	var (
		id         string
		sequence   int
		playlistID string
		serviceID  string
		name       string
		artists    string
		position   int
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &playlistID, &serviceID, &name, &artists, &position, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestoreCachedTrack(id, sequence, playlistID, serviceID, name, artists, position, createdAt, updatedAt, deleted), nil
}

// scanCachedTrack scans a row from [sql.Rows] into a [models.CachedTrack]
func scanCachedTrack(rows *sql.Rows) (*models.CachedTrack, error) {
	var (
		id         string
		sequence   int
		playlistID string
		serviceID  string
		name       string
		artists    string
		position   int
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &playlistID, &serviceID, &name, &artists, &position, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestoreCachedTrack(id, sequence, playlistID, serviceID, name, artists, position, createdAt, updatedAt, deleted), nil
}
