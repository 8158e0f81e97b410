// Package tasks orchestrates the flow-state analysis pipeline.
//
// A run moves through fixed stages: playlist listings are collected from a
// [services.SourceReader] and merged by [Aggregate] into a deduplicated
// track set with provenance, [BatchFetcher] retrieves audio descriptors in
// provider-sized batches with per-batch retry, and [ClassifyAll] scores each
// record against the configured thresholds. [GenreSplitter] and
// [Consolidate] implement the optional genre stages.
//
// Failure handling is graded: unreadable sources and exhausted batches are
// recorded and skipped, while authentication errors and cancellation abort
// the run. Every operation returns whatever it collected before stopping,
// so partial results are always valid.
//
// Long operations emit [ProgressUpdate] values on a caller-supplied channel;
// sends never block, a slow consumer just misses updates.
package tasks
