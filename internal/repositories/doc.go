// Package repositories implements SQLite persistence for the source cache.
//
// The cache holds pre-fetched playlist listings so analysis runs can read
// their sources offline. Each repository handles CRUD operations with atomic
// sequence generation for human-readable ordering.
//
// Key Implementations:
//   - [PlaylistRepository] : Cached playlist metadata with catalogue-id lookups
//   - [TrackRepository] : Ordered track references within cached playlists
//
// Sequence numbers provide stable, human-readable ordering (e.g., playlist #15)
// independent of UUIDs and creation timestamps. The [NextSequence] function
// atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
