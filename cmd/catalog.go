package main

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/amzx/internal/formatter"
	"github.com/desertthunder/amzx/internal/pacing"
	"github.com/desertthunder/amzx/internal/services"
	"github.com/desertthunder/amzx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Fetch retrieves an Amazon Music playlist across all pages and prints it.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	if err := r.configure(cmd); err != nil {
		return err
	}

	strategy, err := pacing.ParseStrategy(r.config.Migration.Strategy)
	if err != nil {
		return err
	}
	source, err := r.amazon(strategy)
	if err != nil {
		return err
	}

	playlistID := cmd.String("source")
	r.logger.Infof("fetching Amazon Music playlist: %s", playlistID)

	playlist, err := source.FetchPlaylist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist: %w", err)
	}
	r.logger.Info("fetched playlist", "name", playlist.Name, "tracks", len(playlist.Edges))

	if cmd.Bool("json") {
		return r.writeJSON(playlist, cmd.Bool("pretty"))
	}

	text, err := formatter.PlaylistToText(playlist)
	if err != nil {
		return err
	}
	return r.writePlain("%s", text)
}

// Search runs one Spotify search the way the matcher does and prints the first result.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if err := r.configure(cmd); err != nil {
		return err
	}

	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	dest, err := r.spotify(ctx, nil)
	if err != nil {
		return err
	}

	r.logger.Debug("searching Spotify", "query", query)
	tracks, err := dest.SearchTracks(ctx, query, 1)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		if len(tracks) == 0 {
			return r.writeJSON(nil, false)
		}
		return r.writeJSON(tracks[0], cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		return r.writePlain("No match on Spotify for %q\n", query)
	}

	t := tracks[0]
	r.writePlain("✓ %s - %s\n", t.PrimaryArtist(), t.Name)
	if t.Album.Name != "" {
		r.writePlain("  Album: %s\n", t.Album.Name)
	}
	return r.writePlain("  URI:   %s\n", cmp.Or(t.URI, services.TrackURIPrefix+t.ID))
}
