// Package repositories implements SQLite persistence for migration history and the match cache.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
//
// Key Implementations:
//   - [MigrationRepository] : Migration history with status tracking, soft deletes and ordered failed tracks
//   - [MatchRepository] : Resolved source → destination tracks keyed by normalized title and artist
//   - [HistoryRecorder] : Adapts [MigrationRepository] to the migration engine's recorder hook
//   - [MatchCacheAdapter] : Adapts [MatchRepository] to the migration engine's cache hook
//
// History is written after the fact. Nothing resumes a migration from it.
//
// Sequence numbers provide stable, human-readable ordering (e.g., migration #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
