package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/amzx/internal/models"
	"github.com/desertthunder/amzx/internal/shared"
)

const migrationColumns = `
	id, sequence, source_playlist_id, source_name, target_playlist_id,
	target_url, status, tracks_total, tracks_migrated, tracks_failed,
	error_message, started_at, completed_at, created_at, updated_at, deleted_at
`

// MigrationRepository implements models.Repository[*models.MigrationJob] for migration history.
//
// Handles migration job CRUD operations with soft delete support and status-based queries.
// Failed track displays are stored alongside each job in failed_tracks, in order.
type MigrationRepository struct {
	db *sql.DB
}

// NewMigrationRepository creates a new MigrationRepository with the given database connection
func NewMigrationRepository(db *sql.DB) *MigrationRepository {
	return &MigrationRepository{db: db}
}

// Create inserts a new migration job into the database with generated ID and sequence
func (r *MigrationRepository) Create(migration *models.MigrationJob) error {
	if err := migration.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "migrations")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	migration.ID = shared.GenerateID()
	migration.Sequence = sequence

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO migrations (
			id, sequence, source_playlist_id, source_name, target_playlist_id,
			target_url, status, tracks_total, tracks_migrated, tracks_failed,
			error_message, started_at, completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		migration.ID,
		migration.Sequence,
		migration.SourcePlaylistID,
		migration.SourceName,
		nullString(migration.TargetPlaylistID),
		nullString(migration.TargetURL),
		migration.Status,
		migration.TracksTotal,
		migration.TracksMigrated,
		migration.TracksFailed,
		nullString(migration.ErrorMessage),
		migration.StartedAt,
		migration.CompletedAt,
		migration.CreatedAt,
		migration.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert migration: %w", err)
	}

	if err := writeFailedTracks(tx, migration.ID, migration.FailedTracks); err != nil {
		return err
	}

	return tx.Commit()
}

// Get retrieves a migration job by ID, excluding soft-deleted migrations
func (r *MigrationRepository) Get(id string) (*models.MigrationJob, error) {
	query := `SELECT ` + migrationColumns + ` FROM migrations WHERE id = ? AND deleted_at IS NULL`

	migration, err := scanMigration(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrMigrationNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if migration.FailedTracks, err = r.failedTracks(migration.ID); err != nil {
		return nil, err
	}
	return migration, nil
}

// GetBySequence retrieves a migration job by its sequence number.
func (r *MigrationRepository) GetBySequence(sequence int) (*models.MigrationJob, error) {
	var id string
	err := r.db.QueryRow(`SELECT id FROM migrations WHERE sequence = ? AND deleted_at IS NULL`, sequence).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: #%d", shared.ErrMigrationNotFound, sequence)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up migration: %w", err)
	}
	return r.Get(id)
}

// Update modifies an existing migration job in the database, replacing its failed tracks.
func (r *MigrationRepository) Update(migration *models.MigrationJob) error {
	if err := migration.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	migration.UpdatedAt = time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE migrations
		SET source_name = ?, target_playlist_id = ?, target_url = ?, status = ?,
			tracks_total = ?, tracks_migrated = ?, tracks_failed = ?, error_message = ?,
			started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := tx.Exec(query,
		migration.SourceName,
		nullString(migration.TargetPlaylistID),
		nullString(migration.TargetURL),
		migration.Status,
		migration.TracksTotal,
		migration.TracksMigrated,
		migration.TracksFailed,
		nullString(migration.ErrorMessage),
		migration.StartedAt,
		migration.CompletedAt,
		migration.UpdatedAt,
		migration.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update migration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrMigrationNotFound, migration.ID)
	}

	if _, err := tx.Exec(`DELETE FROM failed_tracks WHERE migration_id = ?`, migration.ID); err != nil {
		return fmt.Errorf("failed to clear failed tracks: %w", err)
	}
	if err := writeFailedTracks(tx, migration.ID, migration.FailedTracks); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete soft-deletes a migration job by ID
func (r *MigrationRepository) Delete(id string) error {
	query := `
		UPDATE migrations
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete migration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrMigrationNotFound, id)
	}

	return nil
}

// List retrieves all migration jobs matching the given criteria, newest first, excluding soft-deleted migrations.
//
// Supported criteria: "status" (string), "source_playlist_id" (string), "limit" (int).
// Failed tracks are not loaded; use [MigrationRepository.Get] for the full record.
func (r *MigrationRepository) List(criteria map[string]any) ([]*models.MigrationJob, error) {
	query := `SELECT ` + migrationColumns + ` FROM migrations WHERE deleted_at IS NULL`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if sourceID, ok := criteria["source_playlist_id"].(string); ok && sourceID != "" {
		query += " AND source_playlist_id = ?"
		args = append(args, sourceID)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var migrations []*models.MigrationJob
	for rows.Next() {
		migration, err := scanMigration(rows)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, migration)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return migrations, nil
}

func (r *MigrationRepository) failedTracks(migrationID string) ([]string, error) {
	rows, err := r.db.Query(`SELECT display FROM failed_tracks WHERE migration_id = ? ORDER BY position`, migrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query failed tracks: %w", err)
	}
	defer rows.Close()

	var displays []string
	for rows.Next() {
		var display string
		if err := rows.Scan(&display); err != nil {
			return nil, fmt.Errorf("failed to scan failed track: %w", err)
		}
		displays = append(displays, display)
	}
	return displays, rows.Err()
}

func writeFailedTracks(tx *sql.Tx, migrationID string, displays []string) error {
	if len(displays) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`INSERT INTO failed_tracks (migration_id, position, display) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare failed track insert: %w", err)
	}
	defer stmt.Close()

	for i, display := range displays {
		if _, err := stmt.Exec(migrationID, i, display); err != nil {
			return fmt.Errorf("failed to insert failed track: %w", err)
		}
	}
	return nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// scanMigration scans one row into a [models.MigrationJob]; a missing row wraps [sql.ErrNoRows].
func scanMigration(s scanner) (*models.MigrationJob, error) {
	var (
		migration        models.MigrationJob
		targetPlaylistID sql.NullString
		targetURL        sql.NullString
		errorMessage     sql.NullString
		startedAt        sql.NullTime
		completedAt      sql.NullTime
		deletedAt        sql.NullTime
	)

	err := s.Scan(
		&migration.ID, &migration.Sequence, &migration.SourcePlaylistID, &migration.SourceName, &targetPlaylistID,
		&targetURL, &migration.Status, &migration.TracksTotal, &migration.TracksMigrated, &migration.TracksFailed,
		&errorMessage, &startedAt, &completedAt, &migration.CreatedAt, &migration.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan migration: %w", err)
	}

	migration.TargetPlaylistID = targetPlaylistID.String
	migration.TargetURL = targetURL.String
	migration.ErrorMessage = errorMessage.String
	if startedAt.Valid {
		migration.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		migration.CompletedAt = &completedAt.Time
	}
	if deletedAt.Valid {
		migration.DeletedAt = &deletedAt.Time
	}

	return &migration, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
