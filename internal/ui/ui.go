package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flowsift/internal/formatter"
	"github.com/desertthunder/flowsift/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ResultListView ViewState = iota
	DetailView
	SummaryView
)

// Model represents the TUI application state.
type Model struct {
	view        ViewState
	csvPath     string
	width       int
	height      int
	resultList  list.Model
	results     []models.ClassificationResult
	summary     formatter.RunSummary
	passingOnly bool
	selected    *models.ClassificationResult
	loaded      bool
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a model that loads results from an exported
// analysis.csv when the program starts.
func NewModel(csvPath string) *Model {
	return &Model{
		view:    ResultListView,
		csvPath: csvPath,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// NewModelFromResults creates a model over results already in memory,
// used when the TUI follows an analysis run directly.
func NewModelFromResults(results []models.ClassificationResult, summary formatter.RunSummary) *Model {
	m := NewModel("")
	m.results = results
	m.summary = summary
	m.loaded = true
	m.rebuildList()
	return m
}

// Init loads the analysis export unless results were provided up front.
func (m *Model) Init() tea.Cmd {
	if m.loaded {
		return nil
	}
	return m.loadResults()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.loaded {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ResultListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case SummaryView:
			return m.handleSummaryKeys(msg)
		}

	case Msg:
		if msg.kind == MsgResultsLoaded {
			payload := msg.data.(loadedPayload)
			if payload.err != nil {
				m.err = payload.err
				return m, tea.Quit
			}
			m.results = payload.results
			m.summary = payload.summary
			m.loaded = true
			m.rebuildList()
			return m, nil
		}
	}

	if m.view == ResultListView {
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.fail.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}
	if !m.loaded {
		return "Loading results..."
	}

	switch m.view {
	case ResultListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	case SummaryView:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if item, ok := m.resultList.SelectedItem().(resultItem); ok {
			result := item.result
			m.selected = &result
			m.view = DetailView
		}
		return m, nil
	case "p":
		m.passingOnly = !m.passingOnly
		m.rebuildList()
		return m, nil
	case "s":
		m.view = SummaryView
		return m, nil
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ResultListView
		m.selected = nil
	}
	return m, nil
}

func (m *Model) handleSummaryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ResultListView
	}
	return m, nil
}

// rebuildList recreates the list model from the current filter state.
func (m *Model) rebuildList() {
	var items []list.Item
	for _, result := range m.results {
		if m.passingOnly && !result.MeetsCriteria {
			continue
		}
		items = append(items, resultItem{result: result})
	}

	title := fmt.Sprintf("Analyzed Tracks (%d)", len(items))
	if m.passingOnly {
		title = fmt.Sprintf("Passing Tracks (%d)", len(items))
	}

	m.resultList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.resultList.Title = title
	if m.width > 0 {
		m.resultList.SetSize(m.width-4, m.height-8)
	}
}

func (m *Model) loadResults() tea.Cmd {
	return func() tea.Msg {
		results, err := formatter.ReadAnalysisCSV(m.csvPath)
		summary := formatter.RunSummary{TotalTracks: len(results)}
		return resultsLoadedMsg(results, summary, err)
	}
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.passing, m.keys.summary, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.resultList.View(), helpView)
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}
	result := m.selected

	var b strings.Builder
	b.WriteString(styles.title.Render(result.Metadata.Name))
	b.WriteString(fmt.Sprintf("\n%s\n\n", result.Metadata.ArtistList()))

	if result.MeetsCriteria {
		b.WriteString(styles.pass.Render("✓ Meets all criteria"))
	} else {
		b.WriteString(styles.fail.Render("✗ Does not meet criteria"))
		for _, reason := range result.Reasons {
			b.WriteString(fmt.Sprintf("\n  %s", styles.warn.Render(reason)))
		}
	}
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Tempo: %.1f BPM\n", result.Features.Tempo))
	b.WriteString(fmt.Sprintf("Loudness: %.1f dB\n", result.Features.Loudness))
	b.WriteString(fmt.Sprintf("Energy: %.2f\n", result.Features.Energy))
	if result.Features.Mode == 1 {
		b.WriteString("Mode: major\n")
	} else {
		b.WriteString("Mode: minor\n")
	}

	if len(result.Metadata.Sources) > 0 {
		b.WriteString("\nFound in:\n")
		for _, source := range result.Metadata.Sources {
			b.WriteString(fmt.Sprintf("  - %s\n", source))
		}
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderSummary() string {
	passing := 0
	for _, result := range m.results {
		if result.MeetsCriteria {
			passing++
		}
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Run Summary"))
	b.WriteString("\n")

	if len(m.summary.Sources) > 0 {
		b.WriteString(fmt.Sprintf("Playlists analyzed: %d\n", len(m.summary.Sources)))
		for _, source := range m.summary.Sources {
			b.WriteString(fmt.Sprintf("  - %s\n", source))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("Tracks classified: %d\n", len(m.results)))
	b.WriteString(fmt.Sprintf("Meeting all criteria: %d\n", passing))
	if m.summary.Dropped > 0 {
		b.WriteString(fmt.Sprintf("Unavailable entries dropped: %d\n", m.summary.Dropped))
	}
	if m.summary.MissingFeatures > 0 {
		b.WriteString(fmt.Sprintf("Tracks without audio features: %d\n", m.summary.MissingFeatures))
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}
