// package services defines the catalog clients used by a migration
//
// Amazon Music (source), Spotify (destination)
package services

import (
	"context"

	"github.com/desertthunder/amzx/internal/models"
)

// Source fetches playlists from the catalog being migrated away from.
type Source interface {
	// FetchPlaylist retrieves a playlist with every track edge across all pages.
	FetchPlaylist(ctx context.Context, playlistID string) (*models.SourcePlaylist, error)

	// Name returns the name of the service (e.g., "Amazon Music")
	Name() string
}

// Destination is the catalog a playlist is rebuilt on.
type Destination interface {
	// SearchTracks runs a track search and returns at most limit results in catalog order.
	SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error)

	// CurrentUser resolves the authenticated user.
	CurrentUser(ctx context.Context) (*SpotifyUser, error)

	// CreatePlaylist creates a playlist for userID. Any status other than 201 is a [*shared.StatusError].
	CreatePlaylist(ctx context.Context, userID string, req CreatePlaylistRequest) (*SpotifyPlaylist, error)

	// AddTracks appends track URIs to a playlist in a single request.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Waiter gates an outbound request, e.g. a [pacing.Pacer].
type Waiter interface {
	Wait(ctx context.Context) error
}

// Holder blocks while a header-driven backoff is in effect.
type Holder interface {
	Hold(ctx context.Context) error
}

type noWait struct{}

func (noWait) Wait(context.Context) error { return nil }
func (noWait) Hold(context.Context) error { return nil }
