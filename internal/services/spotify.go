// Spotify API implementation of [Destination]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/amzx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// TrackURIPrefix prefixes a track ID to form the URI accepted by playlist writes.
	TrackURIPrefix = "spotify:track:"
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// PrimaryArtist returns the first credited artist, or "" when none are listed.
func (t SpotifyTrack) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyPlaylist represents a created Spotify playlist.
type SpotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Public       bool         `json:"public"`
	ExternalURLs externalURLs `json:"external_urls"`
	URI          string       `json:"uri"`
}

// CreatePlaylistRequest is the body of POST /users/{id}/playlists.
type CreatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

type searchResponse struct {
	Tracks *struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

// SpotifyService implements [Destination] against the Spotify Web API.
// Uses [oauth2] for authentication; tokens are supplied by configuration.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	baseURL    string
	baseClient *http.Client
	api        *APIService
	holder     Holder
	observer   Observer
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
//
// Recognised keys: client_id, client_secret, redirect_uri, base_url.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	baseURL := credentials["base_url"]
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-modify-private",
			"playlist-modify-public",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		baseURL:    baseURL,
		baseClient: http.DefaultClient,
		holder:     noWait{},
	}, nil
}

// SetHTTPClient sets the client the OAuth2 transport wraps. Call before [SpotifyService.Authenticate].
func (s *SpotifyService) SetHTTPClient(c *http.Client) {
	if c != nil {
		s.baseClient = c
	}
}

// SetPacer registers a pacer that observes every response and holds searches while a backoff is in effect.
// Anything implementing [Observer] or [Holder] is honoured.
func (s *SpotifyService) SetPacer(p any) {
	if h, ok := p.(Holder); ok {
		s.holder = h
	}
	if o, ok := p.(Observer); ok {
		s.observer = o
		if s.api != nil {
			s.api.SetObserver(o)
		}
	}
}

// Authenticate builds the authorized client from an "access_token" (with optional "refresh_token").
// With a refresh token the [oauth2] transport refreshes expired tokens automatically.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	accessToken := credentials["access_token"]
	refreshToken := credentials["refresh_token"]
	if accessToken == "" && refreshToken == "" {
		return fmt.Errorf("%w: missing access_token or refresh_token", shared.ErrMissingCredentials)
	}

	// An empty access token is invalid to oauth2, so the first request refreshes it.
	s.token = &oauth2.Token{AccessToken: accessToken, RefreshToken: refreshToken, TokenType: "Bearer"}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.baseClient)
	client := s.config.Client(ctx, s.token)
	client.Timeout = s.baseClient.Timeout

	s.api = NewAPIService("spotify", s.baseURL, client)
	if s.observer != nil {
		s.api.SetObserver(s.observer)
	}
	return nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

func (s *SpotifyService) client() (*APIService, error) {
	if s.api == nil {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	return s.api, nil
}

// SearchTracks searches the catalog for tracks and returns the items in catalog order.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error) {
	api, err := s.client()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1
	}
	if err := s.holder.Hold(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {strconv.Itoa(limit)},
	}
	resp, err := api.Get(ctx, "/search?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var body searchResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if body.Tracks == nil {
		return nil, fmt.Errorf("%w: search response has no tracks", shared.ErrMalformedResponse)
	}
	return body.Tracks.Items, nil
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	api, err := s.client()
	if err != nil {
		return nil, err
	}

	resp, err := api.Get(ctx, "/me")
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var user SpotifyUser
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: profile has no id", shared.ErrMalformedResponse)
	}
	return &user, nil
}

// CreatePlaylist creates a playlist owned by userID. Only 201 Created counts as success.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID string, req CreatePlaylistRequest) (*SpotifyPlaylist, error) {
	api, err := s.client()
	if err != nil {
		return nil, err
	}

	resp, err := api.Post(ctx, fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID)), req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, resp.StatusError()
	}

	var playlist SpotifyPlaylist
	if err := resp.Decode(&playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddTracks appends uris to a playlist in one request. Non-2xx statuses return a [*shared.StatusError].
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	api, err := s.client()
	if err != nil {
		return err
	}

	resp, err := api.Post(ctx, fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID)), addTracksRequest{URIs: uris})
	if err != nil {
		return err
	}
	return resp.Err()
}
