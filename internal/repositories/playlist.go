package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/flowsift/internal/models"
	"github.com/desertthunder/flowsift/internal/shared"
)

// PlaylistRepository implements models.Repository[*models.CachedPlaylist] for the source cache.
//
// Handles playlist CRUD operations with soft delete support and catalogue-id lookups.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new cached playlist into the database with generated ID and sequence
func (r *PlaylistRepository) Create(playlist *models.CachedPlaylist) error {
	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	playlist.SetID(id)

	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO playlists (id, sequence, service_id, name, owner, track_count, public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		playlist.ServiceID(),
		playlist.Name(),
		playlist.Owner(),
		playlist.TrackCount(),
		playlist.Public(),
		playlist.CreatedAt(),
		playlist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Get retrieves a cached playlist by ID, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(id string) (*models.CachedPlaylist, error) {
	query := `
		SELECT id, sequence, service_id, name, owner, track_count, public, created_at, updated_at, deleted_at
		FROM playlists
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByServiceID retrieves a cached playlist by its catalogue identifier
func (r *PlaylistRepository) GetByServiceID(serviceID string) (*models.CachedPlaylist, error) {
	query := `
		SELECT id, sequence, service_id, name, owner, track_count, public, created_at, updated_at, deleted_at
		FROM playlists
		WHERE service_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, serviceID))
}

// Update modifies an existing cached playlist in the database
func (r *PlaylistRepository) Update(playlist *models.CachedPlaylist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	playlist.SetUpdatedAt(now)

	query := `
		UPDATE playlists
		SET name = ?, owner = ?, track_count = ?, public = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		playlist.Name(),
		playlist.Owner(),
		playlist.TrackCount(),
		playlist.Public(),
		now,
		playlist.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist not found or already deleted: %s", playlist.ID())
	}

	return nil
}

// Delete soft-deletes a cached playlist by ID
func (r *PlaylistRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE playlists
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all cached playlists matching the given criteria, excluding soft-deleted playlists
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.CachedPlaylist, error) {
	query := `
		SELECT id, sequence, service_id, name, owner, track_count, public, created_at, updated_at, deleted_at
		FROM playlists
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if owner, ok := criteria["owner"].(string); ok && owner != "" {
		query += " AND owner = ?"
		args = append(args, owner)
	}

	if public, ok := criteria["public"].(bool); ok {
		query += " AND public = ?"
		args = append(args, public)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.CachedPlaylist
	for rows.Next() {
		playlist, err := scanCachedPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// scanOne scans a single row into a [models.CachedPlaylist]
func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.CachedPlaylist, error) {
	var (
		id         string
		sequence   int
		serviceID  string
		name       string
		owner      string
		trackCount int
		public     bool
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &serviceID, &name, &owner, &trackCount, &public, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playlist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestoreCachedPlaylist(id, sequence, serviceID, name, owner, trackCount, public, createdAt, updatedAt, deleted), nil
}

// scanCachedPlaylist scans a row from [sql.Rows] into a [models.CachedPlaylist]
func scanCachedPlaylist(rows *sql.Rows) (*models.CachedPlaylist, error) {
	var (
		id         string
		sequence   int
		serviceID  string
		name       string
		owner      string
		trackCount int
		public     bool
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &serviceID, &name, &owner, &trackCount, &public, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestoreCachedPlaylist(id, sequence, serviceID, name, owner, trackCount, public, createdAt, updatedAt, deleted), nil
}
