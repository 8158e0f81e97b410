// Package models defines domain entities and persistence interfaces for the flowsift analysis pipeline.
//
// The package contains two categories of types:
//
// 1. Pipeline value types: in-memory data flowing between stages
//   - [Track] : Raw track reference from a playlist listing
//   - [SourceListing] : One playlist's ordered listing ready for aggregation
//   - [TrackMetadata] : Accumulated name/artists plus playlist provenance
//   - [FeatureRecord] : Audio descriptors for one track
//   - [ClassificationResult] : Verdict against the flow-state thresholds
//   - [GenreTrack] / [ConsolidatedBucket] : Genre-keyed rows and canonical buckets
//
// 2. Persistent entities: SQLite-backed source cache rows
//   - [CachedPlaylist] : Playlist metadata persisted for offline runs
//   - [CachedTrack] : Ordered track references within a cached listing
//
// Persistent entities implement the Model interface providing ID generation, timestamps, and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
