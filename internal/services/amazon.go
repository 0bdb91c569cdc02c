// Amazon Music API implementation of [Source]
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amzx/internal/models"
	"github.com/desertthunder/amzx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	amazonBaseURL = "https://api.music.amazon.dev/v1"

	// PageSize is the number of edges the catalog returns for a full page. The catalog
	// does not accept a page size, so any other value would end pagination early.
	PageSize = 50
)

// amazonTracksResponse is the envelope of GET /playlists/{id}/tracks.
type amazonTracksResponse struct {
	Data struct {
		Playlist *struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Tracks      *struct {
				Edges []models.Edge `json:"edges"`
			} `json:"tracks"`
		} `json:"playlist"`
	} `json:"data"`
}

// AmazonOpts configures an [AmazonService].
type AmazonOpts struct {
	BaseURL    string
	Token      string
	APIKey     string
	Pacer      Waiter       // Spaces page requests; nil disables pacing
	HTTPClient *http.Client // Base client; the bearer transport wraps its transport
	Logger     *log.Logger
}

// AmazonService fetches playlists from the Amazon Music catalog.
type AmazonService struct {
	api    *APIService
	pacer  Waiter
	logger *log.Logger
}

// NewAmazonService creates an Amazon Music client authenticating with a bearer token and x-api-key header.
func NewAmazonService(opts AmazonOpts) (*AmazonService, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("%w: amazon token", shared.ErrMissingCredentials)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: amazon api_key", shared.ErrMissingCredentials)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = amazonBaseURL
	}
	if opts.Pacer == nil {
		opts.Pacer = noWait{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	client := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   base.Transport,
		},
		Timeout: base.Timeout,
	}

	api := NewAPIService("amazon", opts.BaseURL, client)
	api.SetHeader("x-api-key", opts.APIKey)
	if o, ok := opts.Pacer.(Observer); ok {
		api.SetObserver(o)
	}

	return &AmazonService{
		api:    api,
		pacer:  opts.Pacer,
		logger: shared.WithLogger(opts.Logger, "service", "amazon"),
	}, nil
}

// Name returns the service name.
func (a *AmazonService) Name() string {
	return "Amazon Music"
}

// FetchPlaylist retrieves the playlist metadata and every track edge, following cursors
// until a page returns fewer than a full page of edges.
//
// The first page supplies the metadata; later pages only contribute edges.
// Nothing is retried: a non-2xx status or unexpected body aborts the fetch.
func (a *AmazonService) FetchPlaylist(ctx context.Context, playlistID string) (*models.SourcePlaylist, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}

	var playlist *models.SourcePlaylist
	cursor := ""

	for page := 1; ; page++ {
		if err := a.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := a.fetchPage(ctx, playlistID, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d of playlist %s: %w", page, playlistID, err)
		}

		src := body.Data.Playlist
		edges := src.Tracks.Edges
		if playlist == nil {
			playlist = &models.SourcePlaylist{
				ID:          src.ID,
				Name:        src.Title,
				Description: src.Description,
				Edges:       make([]models.Edge, 0, len(edges)),
			}
			if playlist.ID == "" {
				playlist.ID = playlistID
			}
		}
		playlist.Edges = append(playlist.Edges, edges...)

		a.logger.Debug("fetched page", "page", page, "edges", len(edges), "total", len(playlist.Edges))

		if len(edges) != PageSize {
			break
		}

		cursor = edges[len(edges)-1].Cursor
		if cursor == "" {
			return nil, fmt.Errorf("%w: full page %d has no cursor on its last edge", shared.ErrMalformedResponse, page)
		}
	}

	a.logger.Debug("fetched playlist", "id", playlist.ID, "name", playlist.Name, "tracks", len(playlist.Edges))
	return playlist, nil
}

func (a *AmazonService) fetchPage(ctx context.Context, playlistID, cursor string) (*amazonTracksResponse, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	if cursor != "" {
		endpoint += "?" + url.Values{"cursor": {cursor}}.Encode()
	}

	resp, err := a.api.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var body amazonTracksResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if body.Data.Playlist == nil || body.Data.Playlist.Tracks == nil {
		return nil, fmt.Errorf("%w: missing data.playlist.tracks", shared.ErrMalformedResponse)
	}
	return &body, nil
}
