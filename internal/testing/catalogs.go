package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/desertthunder/amzx/internal/models"
)

// Edges builds n source edges numbered from offset, with cursors "c{n}".
func Edges(offset, n int) []models.Edge {
	edges := make([]models.Edge, 0, n)
	for i := offset; i < offset+n; i++ {
		edges = append(edges, models.Edge{
			Cursor: fmt.Sprintf("c%d", i),
			Node: models.EdgeNode{
				ID:      fmt.Sprintf("amz-%d", i),
				Title:   fmt.Sprintf("Title %d", i),
				Artists: []models.EdgeArtist{{Name: fmt.Sprintf("Artist %d", i)}},
			},
		})
	}
	return edges
}

// Pages splits consecutive edges into pages of the given sizes.
func Pages(sizes ...int) [][]models.Edge {
	pages := make([][]models.Edge, 0, len(sizes))
	offset := 0
	for _, n := range sizes {
		pages = append(pages, Edges(offset, n))
		offset += n
	}
	return pages
}

// FakeAmazon serves a single playlist split into fixed pages, keyed by the cursor of each page's last edge.
type FakeAmazon struct {
	*httptest.Server

	PlaylistID  string
	Title       string
	Description string
	Pages       [][]models.Edge
	// Status, when set, is returned for every request instead of a page.
	Status int

	mu      sync.Mutex
	cursors []string
	auth    []string
	apiKeys []string
}

// NewFakeAmazon starts a fake Amazon Music catalog; it is closed with the test.
func NewFakeAmazon(t *testing.T, playlistID string, pages [][]models.Edge) *FakeAmazon {
	t.Helper()

	f := &FakeAmazon{PlaylistID: playlistID, Title: "Road Trip", Description: "songs for the car", Pages: pages}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /playlists/{id}/tracks", f.handleTracks)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *FakeAmazon) handleTracks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cursor := r.URL.Query().Get("cursor")
	f.cursors = append(f.cursors, cursor)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.apiKeys = append(f.apiKeys, r.Header.Get("x-api-key"))

	if f.Status != 0 {
		http.Error(w, `{"error":"forced"}`, f.Status)
		return
	}
	if r.PathValue("id") != f.PlaylistID {
		http.Error(w, `{"error":"playlist not found"}`, http.StatusNotFound)
		return
	}

	page := 0
	if cursor != "" {
		page = -1
		for i, p := range f.Pages {
			if len(p) > 0 && p[len(p)-1].Cursor == cursor {
				page = i + 1
				break
			}
		}
	}

	edges := []models.Edge{}
	if page >= 0 && page < len(f.Pages) {
		edges = f.Pages[page]
	}

	body := map[string]any{
		"data": map[string]any{
			"playlist": map[string]any{
				"id":          f.PlaylistID,
				"title":       f.Title,
				"description": f.Description,
				"tracks":      map[string]any{"edges": edges},
			},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

// Cursors returns the cursor query value of every request received, "" for the first page.
func (f *FakeAmazon) Cursors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cursors...)
}

// AuthHeaders returns the Authorization header of every request.
func (f *FakeAmazon) AuthHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

// APIKeys returns the x-api-key header of every request.
func (f *FakeAmazon) APIKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.apiKeys...)
}

// FakeTrack is a destination catalog entry.
type FakeTrack struct {
	ID     string
	Name   string
	Artist string
}

// FakeSpotify is a fake Spotify Web API that resolves searches from an exact query map.
type FakeSpotify struct {
	*httptest.Server

	UserID string
	// Catalog maps a search query ("{title} - {artist}") to its first result.
	Catalog map[string]FakeTrack
	// CreateStatus and AddStatus override the success statuses (201).
	CreateStatus int
	AddStatus    int
	SearchStatus int
	// SearchHeader is added to every search response, e.g. Retry-After.
	SearchHeader http.Header

	mu       sync.Mutex
	searches []string
	limits   []string
	created  []map[string]any
	adds     []FakeAdd
	auth     []string
}

// FakeAdd is a recorded POST /playlists/{id}/tracks.
type FakeAdd struct {
	PlaylistID string
	URIs       []string
}

// NewFakeSpotify starts a fake Spotify catalog; it is closed with the test.
func NewFakeSpotify(t *testing.T, catalog map[string]FakeTrack) *FakeSpotify {
	t.Helper()

	if catalog == nil {
		catalog = map[string]FakeTrack{}
	}
	f := &FakeSpotify{UserID: "user-1", Catalog: catalog}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /me", f.handleMe)
	mux.HandleFunc("GET /search", f.handleSearch)
	mux.HandleFunc("POST /users/{id}/playlists", f.handleCreate)
	mux.HandleFunc("POST /playlists/{id}/tracks", f.handleAdd)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *FakeSpotify) record(r *http.Request) {
	f.auth = append(f.auth, r.Header.Get("Authorization"))
}

func (f *FakeSpotify) handleMe(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(r)

	writeJSON(w, http.StatusOK, map[string]any{"id": f.UserID, "display_name": "Test User"})
}

func (f *FakeSpotify) handleSearch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(r)

	q := r.URL.Query()
	f.searches = append(f.searches, q.Get("q"))
	f.limits = append(f.limits, q.Get("limit"))

	for k, vs := range f.SearchHeader {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if f.SearchStatus != 0 {
		writeJSON(w, f.SearchStatus, map[string]any{"error": map[string]any{"status": f.SearchStatus}})
		return
	}

	items := []map[string]any{}
	if track, ok := f.Catalog[q.Get("q")]; ok {
		items = append(items, map[string]any{
			"id":      track.ID,
			"name":    track.Name,
			"uri":     "spotify:track:" + track.ID,
			"artists": []map[string]any{{"id": "artist-" + track.ID, "name": track.Artist}},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": map[string]any{"items": items}})
}

func (f *FakeSpotify) handleCreate(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(r)

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	f.created = append(f.created, body)

	if f.CreateStatus != 0 && f.CreateStatus != http.StatusCreated {
		writeJSON(w, f.CreateStatus, map[string]any{"error": map[string]any{"status": f.CreateStatus, "message": "rejected"}})
		return
	}

	id := "pl-" + strconv.Itoa(len(f.created))
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":            id,
		"name":          body["name"],
		"description":   body["description"],
		"public":        body["public"],
		"external_urls": map[string]any{"spotify": "https://open.spotify.com/playlist/" + id},
	})
}

func (f *FakeSpotify) handleAdd(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(r)

	var body struct {
		URIs []string `json:"uris"`
	}
	data, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(data, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	f.adds = append(f.adds, FakeAdd{PlaylistID: r.PathValue("id"), URIs: body.URIs})

	status := http.StatusCreated
	if f.AddStatus != 0 {
		status = f.AddStatus
	}
	writeJSON(w, status, map[string]any{"snapshot_id": "snap-" + strconv.Itoa(len(f.adds))})
}

// Searches returns every search query received, in order.
func (f *FakeSpotify) Searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

// SearchLimits returns the limit parameter of every search.
func (f *FakeSpotify) SearchLimits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.limits...)
}

// Created returns the decoded bodies of every playlist creation request.
func (f *FakeSpotify) Created() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.created...)
}

// Adds returns every add-tracks request received.
func (f *FakeSpotify) Adds() []FakeAdd {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeAdd(nil), f.adds...)
}

// AuthHeaders returns the Authorization header of every request.
func (f *FakeSpotify) AuthHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
