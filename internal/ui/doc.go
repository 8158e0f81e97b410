// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI browses the output of an analysis run:
//  1. [ResultListView] : Scroll and filter classified tracks
//  2. [DetailView] : Inspect one track's features and failure reasons
//  3. [SummaryView] : Run-level counts and the thresholds applied
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Results load asynchronously from a previously exported analysis.csv, so the interface stays responsive while parsing.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, p, s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
