package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/amzx/internal/models"
	"github.com/desertthunder/amzx/internal/services"
	"github.com/desertthunder/amzx/internal/shared"
	"github.com/desertthunder/amzx/internal/tasks"
	tu "github.com/desertthunder/amzx/internal/testing"
)

type stubSource struct {
	playlist *models.SourcePlaylist
	err      error
	calls    int
}

func (s *stubSource) FetchPlaylist(context.Context, string) (*models.SourcePlaylist, error) {
	s.calls++
	return s.playlist, s.err
}

func (s *stubSource) Name() string { return "stub" }

// blockingPacer holds every batch write until the run is cancelled.
type blockingPacer struct{}

func (blockingPacer) Wait(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type jobRecorder struct {
	finished []models.MigrationJob
}

func (j *jobRecorder) StartMigration(context.Context, *models.MigrationJob) error { return nil }

func (j *jobRecorder) FinishMigration(_ context.Context, job *models.MigrationJob) error {
	j.finished = append(j.finished, *job)
	return nil
}

func newTestModel(t *testing.T, pages [][]models.Edge, matched ...int) (*Model, *tu.FakeAmazon, *tu.FakeSpotify) {
	t.Helper()
	return newPacedTestModel(t, nil, pages, matched...)
}

func newPacedTestModel(t *testing.T, pacer services.Waiter, pages [][]models.Edge, matched ...int) (*Model, *tu.FakeAmazon, *tu.FakeSpotify) {
	t.Helper()

	catalog := map[string]tu.FakeTrack{}
	for _, i := range matched {
		n := pages[0][i].Node
		catalog[n.Title+" - "+n.Artists[0].Name] = tu.FakeTrack{ID: "sp-" + n.ID, Name: n.Title, Artist: n.Artists[0].Name}
	}

	amz := tu.NewFakeAmazon(t, "pl-src", pages)
	sp := tu.NewFakeSpotify(t, catalog)
	logger := shared.NewLogger(io.Discard)

	source, err := services.NewAmazonService(services.AmazonOpts{BaseURL: amz.URL, Token: "t", APIKey: "k", Logger: logger})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	dest, err := services.NewSpotifyService(map[string]string{"client_id": "c", "client_secret": "s", "base_url": sp.URL})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := dest.Authenticate(context.Background(), map[string]string{"access_token": "tok"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	engine := tasks.NewMigrationEngine(source, dest, tasks.EngineOpts{BatchPacer: pacer, Logger: logger})
	return NewModel(context.Background(), source, engine, "pl-src", ""), amz, sp
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// drain feeds engine messages back into the model until it reaches the result view.
func drain(t *testing.T, m *Model) {
	t.Helper()
	for i := 0; m.State() != ResultView; i++ {
		if i > 1000 {
			t.Fatal("migration did not complete")
		}
		msg := m.waitForProgress()()
		if msg == nil {
			t.Fatal("expected a message while migrating")
		}
		m.Update(msg)
	}
}

func TestModel(t *testing.T) {
	t.Run("full flow", func(t *testing.T) {
		m, amz, sp := newTestModel(t, tu.Pages(3), 0, 2)
		m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

		if m.State() != LoadingView {
			t.Fatalf("expected LoadingView, got %v", m.State())
		}
		if !strings.Contains(m.View(), "pl-src") {
			t.Errorf("expected loading view to mention the playlist, got %q", m.View())
		}

		m.Update(m.Init()())
		if m.State() != TrackListView {
			t.Fatalf("expected TrackListView, got %v", m.State())
		}
		if !strings.Contains(m.View(), "Road Trip") {
			t.Errorf("expected track list title, got %q", m.View())
		}

		m.Update(keyPress("enter"))
		if m.State() != ConfirmView {
			t.Fatalf("expected ConfirmView, got %v", m.State())
		}
		if !strings.Contains(m.View(), "Migrate 'Road Trip' to Spotify?") {
			t.Errorf("unexpected confirm view %q", m.View())
		}

		_, cmd := m.Update(keyPress("y"))
		if cmd == nil {
			t.Fatal("expected a command to start the migration")
		}
		if m.State() != TransferView {
			t.Fatalf("expected TransferView, got %v", m.State())
		}
		drain(t, m)

		if m.Err() != nil {
			t.Fatalf("expected no error, got %v", m.Err())
		}
		if m.Result() == nil || m.Result().Matched() != 2 {
			t.Fatalf("expected 2 matched tracks, got %+v", m.Result())
		}
		if got := len(amz.Cursors()); got != 1 {
			t.Errorf("expected source to be fetched once, got %d requests", got)
		}
		if got := len(sp.Adds()); got != 1 {
			t.Errorf("expected 1 add request, got %d", got)
		}

		view := m.View()
		for _, want := range []string{"Migration Complete", "2/3", "Artist 1 - Title 1"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected result view to contain %q, got %q", want, view)
			}
		}
	})

	t.Run("declining returns to track list", func(t *testing.T) {
		m, _, sp := newTestModel(t, tu.Pages(1))
		m.Update(m.Init()())
		m.Update(keyPress("enter"))
		m.Update(keyPress("n"))

		if m.State() != TrackListView {
			t.Fatalf("expected TrackListView, got %v", m.State())
		}
		if got := len(sp.Created()); got != 0 {
			t.Errorf("expected no playlist to be created, got %d", got)
		}

		m.Update(keyPress("enter"))
		m.Update(keyPress("esc"))
		if m.State() != TrackListView {
			t.Errorf("expected esc to return to TrackListView, got %v", m.State())
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		src := &stubSource{err: errors.New("boom")}
		m := NewModel(context.Background(), src, nil, "pl-src", "")
		m.Update(m.Init()())

		if m.State() != ResultView {
			t.Fatalf("expected ResultView, got %v", m.State())
		}
		if !strings.Contains(m.View(), "boom") {
			t.Errorf("expected error in view, got %q", m.View())
		}
		m.Update(keyPress("j"))
	})

	t.Run("quit cancels context", func(t *testing.T) {
		src := &stubSource{playlist: &models.SourcePlaylist{ID: "pl-src", Name: "Empty"}}
		m := NewModel(context.Background(), src, nil, "pl-src", "")

		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if m.ctx.Err() == nil {
			t.Error("expected context to be cancelled")
		}
	})

	t.Run("quitting mid-transfer waits for the run to be recorded", func(t *testing.T) {
		m, _, sp := newPacedTestModel(t, blockingPacer{}, tu.Pages(3), 0, 1)
		rec := &jobRecorder{}
		m.engine.SetRecorder(rec)
		m.Update(m.Init()())
		m.Update(keyPress("enter"))
		m.Update(keyPress("y"))

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		if cmd != nil {
			t.Fatal("expected the program to keep running until the migration returns")
		}
		if m.ctx.Err() == nil {
			t.Error("expected context to be cancelled")
		}
		if m.State() != TransferView || !strings.Contains(m.View(), "Cancelling") {
			t.Errorf("expected cancelling transfer view, got %v: %q", m.State(), m.View())
		}

		var last tea.Cmd
		for i := 0; m.State() != ResultView; i++ {
			if i > 1000 {
				t.Fatal("migration did not complete")
			}
			_, last = m.Update(m.waitForProgress()())
		}
		if last == nil {
			t.Fatal("expected quit once the migration returned")
		}
		if _, ok := last().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}

		if _, err := m.Wait(); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(rec.finished) != 1 || rec.finished[0].Status != models.StatusFailed {
			t.Errorf("expected the run to be recorded as failed, got %+v", rec.finished)
		}
		if got := len(sp.Adds()); got != 0 {
			t.Errorf("expected no tracks to be added, got %d requests", got)
		}
	})

	t.Run("second quit exits while the run winds down", func(t *testing.T) {
		m, _, _ := newPacedTestModel(t, blockingPacer{}, tu.Pages(2), 0)
		m.Update(m.Init()())
		m.Update(keyPress("enter"))
		m.Update(keyPress("y"))

		m.Update(keyPress("q"))
		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}

		result, err := m.Wait()
		if !errors.Is(err, context.Canceled) || result == nil {
			t.Errorf("expected a cancelled partial result, got %v / %v", result, err)
		}
	})

	t.Run("wait without a migration returns the session error", func(t *testing.T) {
		m := NewModel(context.Background(), &stubSource{err: errors.New("boom")}, nil, "pl-src", "")
		m.Update(m.Init()())

		if result, err := m.Wait(); result != nil || err == nil || err.Error() != "boom" {
			t.Errorf("expected fetch error, got %v / %v", result, err)
		}
	})

	t.Run("filter input keeps typed keys", func(t *testing.T) {
		m, _, _ := newTestModel(t, tu.Pages(3))
		m.Update(m.Init()())

		m.Update(keyPress("/"))
		if m.trackList.FilterState() != list.Filtering {
			t.Fatalf("expected filtering, got %v", m.trackList.FilterState())
		}

		m.Update(keyPress("q"))
		if m.ctx.Err() != nil {
			t.Fatal("expected q to be typed into the filter, not quit")
		}
		if got := m.trackList.FilterValue(); got != "q" {
			t.Errorf("expected filter value q, got %q", got)
		}

		m.Update(keyPress("enter"))
		if m.State() != TrackListView {
			t.Errorf("expected enter to stay in the track list while filtering, got %v", m.State())
		}

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		if cmd == nil || m.ctx.Err() == nil {
			t.Error("expected ctrl+c to quit even while filtering")
		}
	})

	t.Run("name override", func(t *testing.T) {
		src := &stubSource{playlist: &models.SourcePlaylist{ID: "pl-src", Name: "Road Trip"}}
		m := NewModel(context.Background(), src, nil, "pl-src", "Car Songs")
		m.Update(m.Init()())
		m.Update(keyPress("enter"))

		if !strings.Contains(m.View(), "Migrate 'Car Songs' to Spotify?") {
			t.Errorf("expected override name in confirm view, got %q", m.View())
		}
	})

	t.Run("tick stops outside transfer", func(t *testing.T) {
		src := &stubSource{}
		m := NewModel(context.Background(), src, nil, "pl-src", "")
		if _, cmd := m.Update(tickMsg()); cmd != nil {
			t.Error("expected no follow-up tick while not migrating")
		}
	})
}

func TestSummary(t *testing.T) {
	tracks := []*models.Track{
		{ID: "a", Artist: "A", Title: "One", Translation: &models.Translation{ID: "sp-a"}},
		{ID: "b", Artist: "B", Title: "Two"},
	}

	tests := []struct {
		name   string
		result *tasks.MigrationResult
		want   []string
		absent []string
	}{
		{
			name: "Completed",
			result: &tasks.MigrationResult{
				Source:         &models.SourcePlaylist{Name: "Road Trip", Edges: make([]models.Edge, 2)},
				Playlist:       &models.PlaylistHandle{ID: "pl-1", ExternalURL: "https://open.spotify.com/playlist/pl-1"},
				Tracks:         tracks,
				Progress:       models.MigrationProgress{FailedTracks: []string{"B - Two"}},
				BatchesWritten: 1,
				TracksAdded:    1,
			},
			want: []string{"Road Trip (2 tracks)", "https://open.spotify.com/playlist/pl-1", "1/2", "50.0%", "1 tracks in 1 batches", "Failed:"},
		},
		{
			name:   "aborted before create",
			result: &tasks.MigrationResult{},
			want:   []string{"0/0", "0.0%"},
			absent: []string{"Source:", "Destination:", "Failed:"},
		},
		{
			name: "rejected batch",
			result: &tasks.MigrationResult{
				Playlist:        &models.PlaylistHandle{ID: "pl-1"},
				Tracks:          tracks[:1],
				BatchesRejected: 1,
			},
			want: []string{"1 rejected", "100.0%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Summary(tt.result)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("expected %q in summary, got %q", w, out)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(out, a) {
					t.Errorf("expected %q to be absent, got %q", a, out)
				}
			}
		})
	}
}
