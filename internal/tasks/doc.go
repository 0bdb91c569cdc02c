// Package tasks migrates an Amazon Music playlist to Spotify with real-time progress reporting.
//
// # Pipeline
//
// [MigrationEngine.Run] drives one migration on a single goroutine:
//
//  1. Fetch every source edge ([services.Source.FetchPlaylist]) and convert to [models.Track]s
//  2. Create the destination playlist ([Writer.CreatePlaylist]); an empty handle aborts with
//     [shared.ErrPlaylistNotCreated]
//  3. Partition the tracks with [Chunk] (100 per batch by default)
//  4. For each batch, search every track ([Matcher.Match], first result wins) and append the
//     resolved URIs in one request ([Writer.AddTracks]), paced by the batch pacer
//
// Unmatched tracks are recorded on the [Progress] tracker as "artist - title". They are never errors.
// Search and transport failures abort the run; the in-flight batch loses its translations so
// only tracks included in a write request carry one. Nothing is retried or checkpointed.
//
// # Progress Reporting
//
// Two views are offered. [Progress] is a mutex-guarded tracker that observers poll for snapshots
// (the TUI does this). [ProgressUpdate] events are sent on an optional channel with select/default
// so a slow reader never blocks the migration.
//
// # Persistence
//
// The optional [Recorder] stores a [models.MigrationJob] when a run starts and finishes, and the
// optional [TrackCacher] stores resolved tracks after their batch is written. Both are best-effort:
// failures are logged, not returned.
package tasks
