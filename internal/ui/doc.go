// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks one playlist migration through a fixed sequence of views:
//  1. [LoadingView] : Fetch the Amazon Music playlist
//  2. [TrackListView] : Preview the source tracks
//  3. [ConfirmView] : Confirm the migration
//  4. [TransferView] : Progress bar and the latest engine update
//  5. [ResultView] : Match rate and the tracks that were not found
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Engine updates arrive on a channel; the progress bar is redrawn from a shared tasks.Progress on a short tick.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
