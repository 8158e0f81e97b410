package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flowsift/internal/formatter"
	"github.com/desertthunder/flowsift/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgResultsLoaded MsgKind = iota
)

// loadedPayload carries one loaded analysis export.
type loadedPayload struct {
	results []models.ClassificationResult
	summary formatter.RunSummary
	err     error
}

// resultsLoadedMsg is the constructor for [MsgResultsLoaded]
func resultsLoadedMsg(results []models.ClassificationResult, summary formatter.RunSummary, err error) Msg {
	return Msg{kind: MsgResultsLoaded, data: loadedPayload{results, summary, err}}
}
