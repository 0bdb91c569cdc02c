package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amzx/internal/models"
	"github.com/desertthunder/amzx/internal/services"
	"github.com/desertthunder/amzx/internal/shared"
)

// DefaultDescription is set on every playlist the writer creates unless overridden.
const DefaultDescription = "Playlist migrated using amzx"

// PlaylistAPI is the destination surface the writer needs.
type PlaylistAPI interface {
	CurrentUser(ctx context.Context) (*services.SpotifyUser, error)
	CreatePlaylist(ctx context.Context, userID string, req services.CreatePlaylistRequest) (*services.SpotifyPlaylist, error)
	AddTracks(ctx context.Context, playlistID string, uris []string) error
}

// WriterOpts configures a [Writer].
type WriterOpts struct {
	Description string
	Public      bool
	Pacer       services.Waiter // Spaces batch writes; nil disables pacing
	Logger      *log.Logger
}

// Writer creates the destination playlist and appends batches to it.
type Writer struct {
	dest        PlaylistAPI
	description string
	public      bool
	pacer       services.Waiter
	logger      *log.Logger
}

type noPacer struct{}

func (noPacer) Wait(context.Context) error { return nil }

// NewWriter creates a playlist writer.
func NewWriter(dest PlaylistAPI, opts WriterOpts) *Writer {
	if opts.Description == "" {
		opts.Description = DefaultDescription
	}
	if opts.Pacer == nil {
		opts.Pacer = noPacer{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Writer{
		dest:        dest,
		description: opts.Description,
		public:      opts.Public,
		pacer:       opts.Pacer,
		logger:      opts.Logger,
	}
}

// CreatePlaylist resolves the current user and creates a private playlist named name.
//
// A rejected creation (any status but 201) is logged and yields an empty handle with a nil error;
// callers must check the handle's ID. Failures resolving the user propagate.
func (w *Writer) CreatePlaylist(ctx context.Context, name string) (*models.PlaylistHandle, error) {
	user, err := w.dest.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve destination user: %w", err)
	}

	pl, err := w.dest.CreatePlaylist(ctx, user.ID, services.CreatePlaylistRequest{
		Name:        name,
		Description: w.description,
		Public:      w.public,
	})
	if err != nil {
		var se *shared.StatusError
		if errors.As(err, &se) {
			w.logger.Error("playlist creation rejected", "name", name, "status", se.StatusCode, "body", se.Body)
			return &models.PlaylistHandle{}, nil
		}
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	w.logger.Info("created playlist", "name", name, "id", pl.ID, "url", pl.ExternalURLs.Spotify)
	return &models.PlaylistHandle{ID: pl.ID, ExternalURL: pl.ExternalURLs.Spotify}, nil
}

// AddTracks appends uris to the playlist in one request after waiting on the batch pacer.
//
// No uris means no request. A rejected request is logged and reported as false; it is not retried.
// Only transport failures and cancellation are returned as errors.
func (w *Writer) AddTracks(ctx context.Context, playlistID string, uris []string) (bool, error) {
	if len(uris) == 0 {
		w.logger.Warn("no matched tracks in batch, skipping add", "playlist", playlistID)
		return false, nil
	}

	if err := w.pacer.Wait(ctx); err != nil {
		return false, err
	}

	if err := w.dest.AddTracks(ctx, playlistID, uris); err != nil {
		var se *shared.StatusError
		if errors.As(err, &se) {
			w.logger.Error("adding tracks rejected", "playlist", playlistID, "tracks", len(uris), "status", se.StatusCode, "body", se.Body)
			return false, nil
		}
		return false, fmt.Errorf("failed to add tracks: %w", err)
	}

	w.logger.Info("added tracks", "playlist", playlistID, "tracks", len(uris))
	return true, nil
}
