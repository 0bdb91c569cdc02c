package tasks

import (
	"fmt"

	"github.com/desertthunder/amzx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	CreatePlaylist
	SearchTracks
	AddTracks
	Complete
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case CreatePlaylist:
		return "create_playlist"
	case SearchTracks:
		return "search_tracks"
	case AddTracks:
		return "add_tracks"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func fetchingSourceUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching source playlist %s from Amazon Music...", id),
	}
}

func foundPlaylistUpdate(pl *models.SourcePlaylist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", pl.Name, len(pl.Edges)),
		Data:    pl,
	}
}

func createDestinationUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q on Spotify...", name),
	}
}

func createdPlaylistUpdate(h *models.PlaylistHandle) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s", h.ExternalURL),
		Data:    h,
	}
}

func searchTrackUpdate(step, total int, tr *models.Track, found bool) ProgressUpdate {
	mark := "✓"
	if !found {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, tr.Display()),
		Data:    tr,
	}
}

func addTracksUpdate(batch, batches, count int, ok bool) ProgressUpdate {
	msg := fmt.Sprintf("[batch %d/%d] added %d tracks", batch, batches, count)
	switch {
	case count == 0:
		msg = fmt.Sprintf("[batch %d/%d] no matched tracks", batch, batches)
	case !ok:
		msg = fmt.Sprintf("[batch %d/%d] destination rejected %d tracks", batch, batches, count)
	}
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    batch,
		Total:   batches,
		Message: msg,
	}
}

func completeUpdate(snap models.MigrationProgress) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    snap.Processed,
		Total:   snap.Total,
		Message: fmt.Sprintf("Migration complete: %.1f%% processed, %d failed", snap.PercentComplete, len(snap.FailedTracks)),
		Data:    snap,
	}
}
