package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/amzx/internal/models"
	"github.com/desertthunder/amzx/internal/services"
	"github.com/desertthunder/amzx/internal/tasks"
)

const tickInterval = 100 * time.Millisecond

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	TrackListView
	ConfirmView
	TransferView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	view     ViewState
	source   services.Source
	engine   *tasks.MigrationEngine
	sourceID string
	name     string

	width  int
	height int

	playlist   *models.SourcePlaylist
	trackList  list.Model
	failedList list.Model

	tracker  *tasks.Progress
	bar      progress.Model
	updates  chan tasks.ProgressUpdate
	done     chan migrationComplete
	finished chan struct{}
	outcome  migrationComplete
	last     tasks.ProgressUpdate
	quitting bool

	result *tasks.MigrationResult
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a TUI that previews sourceID and migrates it with engine.
// An empty name keeps the source playlist's name.
func NewModel(ctx context.Context, source services.Source, engine *tasks.MigrationEngine, sourceID, name string) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:      ctx,
		cancel:   cancel,
		view:     LoadingView,
		source:   source,
		engine:   engine,
		sourceID: sourceID,
		name:     name,
		tracker:  tasks.NewProgress(),
		bar:      progress.New(progress.WithDefaultGradient()),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Result returns the finished migration, if any.
func (m *Model) Result() *tasks.MigrationResult { return m.result }

// Err returns the error that ended the session, if any.
func (m *Model) Err() error { return m.err }

// State returns the current view state.
func (m *Model) State() ViewState { return m.view }

// Wait blocks until a started migration has returned and reports its outcome, so callers can
// rely on history being recorded even when the program exited early. Without a migration it
// returns the session's result and error.
func (m *Model) Wait() (*tasks.MigrationResult, error) {
	if m.finished == nil {
		return m.result, m.err
	}
	<-m.finished
	return m.outcome.result, m.outcome.err
}

// Init starts fetching the source playlist.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylist()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-4, 10)
		if m.playlist != nil {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.result != nil {
			m.failedList.SetSize(msg.Width-4, msg.Height/2)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKeys(msg)
	case Msg:
		return m.handleMsg(msg)
	}
	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistFetched:
		data := msg.data.(playlistFetched)
		if data.err != nil {
			m.err = data.err
			m.view = ResultView
			return m, nil
		}
		m.playlist = data.playlist
		m.trackList = newList(trackItems(data.playlist.Tracks()), fmt.Sprintf("Tracks in '%s'", data.playlist.Name))
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = TrackListView
		return m, nil
	case MsgProgressUpdate:
		m.last = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()
	case MsgTick:
		if m.view != TransferView {
			return m, nil
		}
		return m, tick()
	case MsgMigrationComplete:
		data := msg.data.(migrationComplete)
		m.result = data.result
		m.err = data.err
		m.view = ResultView
		m.updates = nil
		m.done = nil
		if m.quitting {
			return m, tea.Quit
		}
		if data.result != nil {
			m.failedList = newList(failedItems(data.result.Progress.FailedTracks), "Not found on Spotify")
			m.failedList.SetSize(m.width-4, m.height/2)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Typed keys belong to the filter input; only ctrl+c still quits.
	filtering := m.view == TrackListView && m.trackList.FilterState() == list.Filtering
	if filtering && msg.Type != tea.KeyCtrlC {
		return m.updateLists(msg)
	}

	if key.Matches(msg, m.keys.quit) {
		m.cancel()
		// A running migration is cancelled and joined before exiting so its outcome gets recorded.
		// A second quit exits at once; callers still join through Wait.
		if m.view == TransferView && m.done != nil && !m.quitting {
			m.quitting = true
			return m, nil
		}
		return m, tea.Quit
	}

	switch m.view {
	case TrackListView:
		if key.Matches(msg, m.keys.enter) {
			m.view = ConfirmView
			return m, nil
		}
	case ConfirmView:
		switch {
		case key.Matches(msg, m.keys.yes):
			m.view = TransferView
			return m, tea.Batch(m.startMigration(), tick())
		case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
			m.view = TrackListView
			return m, nil
		}
		return m, nil
	case TransferView:
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	case ResultView:
		if m.result != nil {
			m.failedList, cmd = m.failedList.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) fetchPlaylist() tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.source.FetchPlaylist(m.ctx, m.sourceID)
		return playlistFetchedMsg(playlist, err)
	}
}

// startMigration runs the engine in its own goroutine. The outcome travels on done
// so the model is only written from Update.
func (m *Model) startMigration() tea.Cmd {
	updates := make(chan tasks.ProgressUpdate, 50)
	done := make(chan migrationComplete, 1)
	finished := make(chan struct{})
	m.updates = updates
	m.done = done
	m.finished = finished

	opts := tasks.RunOpts{Name: m.name, Progress: m.tracker, Source: m.playlist}
	go func() {
		result, err := m.engine.Run(m.ctx, m.sourceID, opts, updates)
		m.outcome = migrationComplete{result: result, err: err}
		close(finished)
		done <- m.outcome
		close(updates)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	updates, done := m.updates, m.done
	return func() tea.Msg {
		if updates == nil {
			return nil
		}
		update, ok := <-updates
		if !ok {
			c := <-done
			return migrationCompleteMsg(c.result, c.err)
		}
		return progressUpdateMsg(update)
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg() })
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return styles.help.Render(fmt.Sprintf("Fetching playlist %s from Amazon Music...", m.sourceID))
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case TransferView:
		return m.renderTransfer()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) destinationName() string {
	if m.name != "" {
		return m.name
	}
	if m.playlist != nil {
		return m.playlist.Name
	}
	return m.sourceID
}

func (m *Model) renderTrackList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Migrate '%s' to Spotify?", m.destinationName()))
	info := fmt.Sprintf("\nSource: %s\nTracks: %d\n", m.playlist.Name, len(m.playlist.Edges))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderTransfer() string {
	title := styles.title.Render("Migrating Playlist")
	snap := m.tracker.Snapshot()

	var phase string
	switch m.last.Phase {
	case tasks.CreatePlaylist:
		phase = "Creating playlist on Spotify..."
	case tasks.SearchTracks:
		phase = fmt.Sprintf("Searching tracks (%d/%d)", snap.Processed, snap.Total)
	case tasks.AddTracks:
		phase = fmt.Sprintf("Adding tracks (batch %d/%d)", m.last.Step, m.last.Total)
	default:
		phase = "Processing..."
	}

	if m.quitting {
		phase = "Cancelling, waiting for the current request..."
	}

	failed := ""
	if n := len(snap.FailedTracks); n > 0 {
		failed = "\n" + styles.warn.Render(fmt.Sprintf("%d not found", n))
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n\n%s\n%s%s\n\n%s",
		title, m.bar.ViewAs(snap.PercentComplete/100), phase, m.last.Message, failed, helpView)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.quit})
	if m.err != nil {
		msg := styles.err.Render(fmt.Sprintf("Migration failed: %v", m.err))
		if m.result != nil {
			msg = fmt.Sprintf("%s\n\n%s", msg, Summary(m.result))
		}
		return fmt.Sprintf("%s\n\n%s", msg, helpView)
	}
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	out := styles.ok.Render("✓ Migration Complete!") + "\n\n" + Summary(m.result)
	if len(m.result.Progress.FailedTracks) > 0 {
		out += "\n\n" + m.failedList.View()
	}
	return fmt.Sprintf("%s\n\n%s", out, helpView)
}

// Summary renders the outcome of a migration with a colour-coded match rate.
func Summary(r *tasks.MigrationResult) string {
	var b strings.Builder
	if r.Source != nil {
		fmt.Fprintf(&b, "Source:      %s (%d tracks)\n", r.Source.Name, len(r.Source.Edges))
	}
	if r.Playlist != nil && r.Playlist.ID != "" {
		fmt.Fprintf(&b, "Destination: %s\n", r.Playlist.ExternalURL)
	}
	rate := r.MatchPercentage()
	fmt.Fprintf(&b, "Matched:     %d/%d (%s)\n", r.Matched(), len(r.Tracks), rateStyle(rate).Render(fmt.Sprintf("%.1f%%", rate)))
	fmt.Fprintf(&b, "Added:       %d tracks in %d batches", r.TracksAdded, r.BatchesWritten)
	if r.BatchesRejected > 0 {
		b.WriteString(", " + styles.err.Render(fmt.Sprintf("%d rejected", r.BatchesRejected)))
	}
	if n := len(r.Progress.FailedTracks); n > 0 {
		b.WriteString("\n" + styles.warn.Render(fmt.Sprintf("Failed:      %d", n)))
	}
	return b.String()
}
