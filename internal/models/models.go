// package models defines the data model for the playlist migration tool
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Translation is the destination-catalog track a source [Track] resolved to.
type Translation struct {
	ID     string `json:"id"`
	URI    string `json:"uri"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// Track is a single source track.
//
// Translation is nil until the track is resolved and included in a destination add request.
type Track struct {
	ID          string       `json:"id,omitempty"`
	Artist      string       `json:"artist"`
	Title       string       `json:"title"`
	Translation *Translation `json:"translation,omitempty"`
}

// Display formats the track as "artist - title".
func (t *Track) Display() string {
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// TrackBatch is an ordered run of tracks sized to the destination payload limit.
type TrackBatch []*Track

// PlaylistHandle identifies the playlist created on the destination catalog.
type PlaylistHandle struct {
	ID          string `json:"id"`
	ExternalURL string `json:"external_url"`
}

// MigrationProgress is a point-in-time view of a running migration.
type MigrationProgress struct {
	PercentComplete float64  `json:"percent_complete"`
	FailedTracks    []string `json:"failed_tracks"`
	Processed       int      `json:"processed"`
	Total           int      `json:"total"`
}

// EdgeArtist is an artist credit on a source track.
type EdgeArtist struct {
	Name string `json:"name"`
}

// EdgeNode is the track payload inside a source [Edge].
type EdgeNode struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Artists []EdgeArtist `json:"artists"`
}

// Edge is one entry of a paginated source listing, carrying the cursor for the next page.
type Edge struct {
	Cursor string   `json:"cursor"`
	Node   EdgeNode `json:"node"`
}

// SourcePlaylist is a source playlist with every edge fetched across pages.
type SourcePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"title"`
	Description string `json:"description"`
	Edges       []Edge `json:"edges"`
}

// Tracks converts the edges to tracks, preserving order. The first credited artist is used.
func (p *SourcePlaylist) Tracks() []*Track {
	tracks := make([]*Track, len(p.Edges))
	for i, e := range p.Edges {
		track := &Track{ID: e.Node.ID, Title: e.Node.Title}
		if len(e.Node.Artists) > 0 {
			track.Artist = e.Node.Artists[0].Name
		}
		tracks[i] = track
	}
	return tracks
}

// Migration job statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// MigrationJob records one migration run.
type MigrationJob struct {
	ID               string
	Sequence         int
	SourcePlaylistID string
	SourceName       string
	TargetPlaylistID string
	TargetURL        string
	Status           string
	TracksTotal      int
	TracksMigrated   int
	TracksFailed     int
	FailedTracks     []string
	ErrorMessage     string
	StartedAt        *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// NewMigrationJob creates a running job for the given source playlist.
func NewMigrationJob(sourcePlaylistID, sourceName string) *MigrationJob {
	now := time.Now()
	return &MigrationJob{
		SourcePlaylistID: sourcePlaylistID,
		SourceName:       sourceName,
		Status:           StatusRunning,
		StartedAt:        &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate checks required fields and status.
func (m *MigrationJob) Validate() error {
	if m.SourcePlaylistID == "" {
		return fmt.Errorf("source playlist ID is required")
	}
	switch m.Status {
	case StatusRunning, StatusCompleted, StatusFailed:
	default:
		return fmt.Errorf("invalid status %q", m.Status)
	}
	if m.TracksMigrated+m.TracksFailed > m.TracksTotal {
		return fmt.Errorf("migrated (%d) + failed (%d) exceeds total (%d)", m.TracksMigrated, m.TracksFailed, m.TracksTotal)
	}
	return nil
}

// Complete marks the job finished with the given status and optional error.
func (m *MigrationJob) Complete(status string, err error) {
	now := time.Now()
	m.Status = status
	m.CompletedAt = &now
	m.UpdatedAt = now
	if err != nil {
		m.ErrorMessage = err.Error()
	}
}

// TrackMatch is a cached source → destination resolution.
type TrackMatch struct {
	ID           string
	SourceArtist string
	SourceTitle  string
	Translation  Translation
	CreatedAt    time.Time
}

// Validate checks that both sides of the match are present.
func (m *TrackMatch) Validate() error {
	if m.SourceTitle == "" {
		return fmt.Errorf("source title is required")
	}
	if m.Translation.ID == "" {
		return fmt.Errorf("destination track ID is required")
	}
	return nil
}
