package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/amzx/internal/models"
	"github.com/desertthunder/amzx/internal/shared"
)

// ErrMatchNotFound is returned when no cached match exists.
var ErrMatchNotFound = errors.New("track match not found")

const matchColumns = `id, source_artist, source_title, dest_id, dest_uri, dest_artist, dest_title, created_at`

// MatchRepository implements models.Repository[*models.TrackMatch] for the match cache.
//
// Matches are keyed by [shared.NormalizeTrackKey] of the source title and artist, so each source
// track has at most one cached destination track.
type MatchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a new MatchRepository with the given database connection
func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create inserts a new match; a match for the same source track is an error.
func (r *MatchRepository) Create(match *models.TrackMatch) error {
	if err := match.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	match.ID = shared.GenerateID()
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO track_matches (id, match_key, source_artist, source_title, dest_id, dest_uri, dest_artist, dest_title, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.args(match)...)
	if err != nil {
		return fmt.Errorf("failed to insert track match: %w", err)
	}
	return nil
}

// Upsert stores the match, replacing the destination side of any existing match for the same source track.
func (r *MatchRepository) Upsert(match *models.TrackMatch) error {
	if err := match.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if match.ID == "" {
		match.ID = shared.GenerateID()
	}
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO track_matches (id, match_key, source_artist, source_title, dest_id, dest_uri, dest_artist, dest_title, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_key) DO UPDATE SET
			dest_id = excluded.dest_id,
			dest_uri = excluded.dest_uri,
			dest_artist = excluded.dest_artist,
			dest_title = excluded.dest_title
	`, r.args(match)...)
	if err != nil {
		return fmt.Errorf("failed to upsert track match: %w", err)
	}
	return nil
}

// Get retrieves a match by ID.
func (r *MatchRepository) Get(id string) (*models.TrackMatch, error) {
	return r.one(`SELECT `+matchColumns+` FROM track_matches WHERE id = ?`, id)
}

// Lookup retrieves the cached match for a source track.
func (r *MatchRepository) Lookup(title, artist string) (*models.TrackMatch, error) {
	return r.one(`SELECT `+matchColumns+` FROM track_matches WHERE match_key = ?`, shared.NormalizeTrackKey(title, artist))
}

// Update replaces the destination side of an existing match.
func (r *MatchRepository) Update(match *models.TrackMatch) error {
	if err := match.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result, err := r.db.Exec(`
		UPDATE track_matches SET dest_id = ?, dest_uri = ?, dest_artist = ?, dest_title = ?
		WHERE id = ?
	`, match.Translation.ID, match.Translation.URI, match.Translation.Artist, match.Translation.Title, match.ID)
	if err != nil {
		return fmt.Errorf("failed to update track match: %w", err)
	}
	return requireRow(result, match.ID)
}

// Delete removes a match by ID.
func (r *MatchRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM track_matches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track match: %w", err)
	}
	return requireRow(result, id)
}

// List retrieves matches, oldest first. Supported criteria: "artist" (exact source artist), "limit" (int).
func (r *MatchRepository) List(criteria map[string]any) ([]*models.TrackMatch, error) {
	query := `SELECT ` + matchColumns + ` FROM track_matches WHERE 1 = 1`
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND source_artist = ?"
		args = append(args, artist)
	}

	query += " ORDER BY created_at, source_artist, source_title"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query track matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.TrackMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return matches, nil
}

// Count returns the number of cached matches.
func (r *MatchRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM track_matches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count track matches: %w", err)
	}
	return n, nil
}

func (r *MatchRepository) one(query string, arg any) (*models.TrackMatch, error) {
	m, err := scanMatch(r.db.QueryRow(query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	return m, err
}

func (r *MatchRepository) args(m *models.TrackMatch) []any {
	return []any{
		m.ID,
		shared.NormalizeTrackKey(m.SourceTitle, m.SourceArtist),
		m.SourceArtist,
		m.SourceTitle,
		m.Translation.ID,
		m.Translation.URI,
		m.Translation.Artist,
		m.Translation.Title,
		m.CreatedAt,
	}
}

func scanMatch(s scanner) (*models.TrackMatch, error) {
	var m models.TrackMatch
	err := s.Scan(
		&m.ID, &m.SourceArtist, &m.SourceTitle,
		&m.Translation.ID, &m.Translation.URI, &m.Translation.Artist, &m.Translation.Title,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan track match: %w", err)
	}
	return &m, nil
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	return nil
}
