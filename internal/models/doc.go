// Package models defines domain entities and persistence interfaces for the amzx playlist migration tool.
//
// The package contains two categories of types:
//
// 1. Transfer types: values that flow through a single migration
//   - [Track] : Source track with an optional [Translation] to the destination catalog
//   - [TrackBatch] : Ordered slice of tracks sized to the destination payload limit
//   - [SourcePlaylist] : Source playlist metadata plus its paginated [Edge] list
//   - [PlaylistHandle] : Destination playlist identity, created once
//   - [MigrationProgress] : Snapshot of percent complete and failed tracks
//
// 2. Persistent entities: rows written after the fact for history and reporting
//   - [MigrationJob] : One migration run with totals, status, and failed tracks
//   - [TrackMatch] : A resolved source → destination track pair
//
// Persistent entities implement [Model]; the [Repository] interface defines the CRUD surface used by the repositories package.
package models
