// Package services provides the data providers the analysis pipeline reads from.
//
// Three small interfaces split provider capabilities along pipeline stages:
// [SourceReader] supplies playlist listings for aggregation, [FeatureProvider]
// resolves audio descriptors in batches, and [GenreResolver] looks up artist
// genre labels for consolidation.
//
// [SpotifyService] implements all three against the Spotify Web API using
// OAuth2 bearer authentication. [CacheService] implements [SourceReader] over
// the local SQLite source cache for offline runs; it also writes the cache
// via SavePlaylist.
//
// Providers map HTTP status classes onto the shared error kinds: 401/403
// become [shared.ErrAuthFailed] (fatal, aborts the run), 429 becomes
// [shared.ErrRateLimited] and 5xx becomes [shared.ErrServiceUnavailable]
// (both recoverable, retried by the fetch layer).
package services
