package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/amzx/internal/models"
	"github.com/desertthunder/amzx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistFetched MsgKind = iota
	MsgProgressUpdate
	MsgTick
	MsgMigrationComplete
)

type playlistFetched struct {
	playlist *models.SourcePlaylist
	err      error
}

type migrationComplete struct {
	result *tasks.MigrationResult
	err    error
}

// playlistFetchedMsg is the constructor for [MsgPlaylistFetched]
func playlistFetchedMsg(playlist *models.SourcePlaylist, err error) Msg {
	return Msg{kind: MsgPlaylistFetched, data: playlistFetched{playlist, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg() Msg {
	return Msg{kind: MsgTick}
}

// migrationCompleteMsg is the constructor for [MsgMigrationComplete]
func migrationCompleteMsg(result *tasks.MigrationResult, err error) Msg {
	return Msg{kind: MsgMigrationComplete, data: migrationComplete{result, err}}
}
