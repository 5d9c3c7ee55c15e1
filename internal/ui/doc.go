// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks a playlist through matching, review and creation:
//  1. [PlaylistListView] : Browse and select a source playlist
//  2. [MatchingView] : Monitor real-time match progress
//  3. [ReviewView] : Inspect every result, uncertain ones marked with "?"
//  4. [SuggestionView] : Pick a replacement track, recorded as a manual override
//  5. [ConfirmView] : Confirm playlist creation
//  6. [CreatingView] / [ResultView] : Create the playlist and show what was left behind
//
// [NewReviewModel] skips the first two views and opens on an existing match run.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the [Engine], providing non-blocking status reporting while it works.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
