package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amzx/internal/models"
	"github.com/desertthunder/amzx/internal/services"
	"github.com/desertthunder/amzx/internal/shared"
)

// Searcher runs destination track searches.
type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]services.SpotifyTrack, error)
}

// MatchResult is the outcome of one destination search.
type MatchResult struct {
	Found         bool
	DestinationID string
	URI           string
	Artist        string
	Title         string
}

// Matcher resolves source tracks to destination tracks, one search each.
type Matcher struct {
	dest     Searcher
	progress *Progress
	logger   *log.Logger
}

// NewMatcher creates a matcher that reports every attempt to progress.
func NewMatcher(dest Searcher, progress *Progress, logger *log.Logger) *Matcher {
	if progress == nil {
		progress = NewProgress()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Matcher{dest: dest, progress: progress, logger: logger}
}

// SearchQuery builds the destination query for a track: "{title} - {artist}".
func SearchQuery(t *models.Track) string {
	return fmt.Sprintf("%s - %s", t.Title, t.Artist)
}

// Match searches for the track and accepts the first result.
//
// On a match the track's Translation is set. Without one the track is recorded as failed and the
// result is not Found; that is not an error. Either way progress advances by one step.
// Search failures are returned without touching progress.
func (m *Matcher) Match(ctx context.Context, track *models.Track) (MatchResult, error) {
	items, err := m.dest.SearchTracks(ctx, SearchQuery(track), 1)
	if err != nil {
		return MatchResult{}, fmt.Errorf("search for %q failed: %w", track.Display(), err)
	}
	defer m.progress.Step()

	if len(items) == 0 || items[0].ID == "" {
		m.progress.Fail(track.Display())
		m.logger.Error("no match found", "artist", track.Artist, "title", track.Title)
		return MatchResult{}, nil
	}

	first := items[0]
	result := MatchResult{
		Found:         true,
		DestinationID: first.ID,
		URI:           services.TrackURIPrefix + first.ID,
		Artist:        first.PrimaryArtist(),
		Title:         first.Name,
	}
	track.Translation = &models.Translation{
		ID:     result.DestinationID,
		URI:    result.URI,
		Artist: result.Artist,
		Title:  result.Title,
	}

	m.logger.Debug("matched", "source", track.Display(), "uri", result.URI)
	return result, nil
}
