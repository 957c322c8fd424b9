package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/routewatch/internal/models"
)

const defaultAnalysisTimeout = 90 * time.Second

// AppState represents the current state of the application
type AppState int

const (
	StateSearch  AppState = iota // Enter an IMO or MMSI
	StateLoading                 // Analysis running
	StateDisplay                 // Show the analysis
	StateError                   // Error state
)

// ActivePane represents which pane is currently shown
type ActivePane int

const (
	PaneRoute ActivePane = iota
	PaneRisk
	PaneRouting
	paneCount
)

var paneTitles = [paneCount]string{"Route", "Risk", "Routing"}

// Model represents the application's state
type Model struct {
	state      AppState
	activePane ActivePane
	width      int
	height     int
	err        error

	searchInput textinput.Model
	vesselID    string

	analyzer VesselAnalyzer
	timeout  time.Duration

	analysis     *models.RouteAnalysis
	waypointList list.Model

	spinner spinner.Model
}

// NewModel creates the dashboard. A non-empty vesselID is analyzed on start.
func NewModel(analyzer VesselAnalyzer, vesselID string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter IMO or MMSI (e.g. 9321483)..."
	ti.Focus()
	ti.CharLimit = 20
	ti.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if timeout <= 0 {
		timeout = defaultAnalysisTimeout
	}

	m := Model{
		state:       StateSearch,
		activePane:  PaneRoute,
		searchInput: ti,
		vesselID:    strings.TrimSpace(vesselID),
		analyzer:    analyzer,
		timeout:     timeout,
		spinner:     s,
	}
	if m.vesselID != "" {
		m.state = StateLoading
	}
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	if m.state == StateLoading {
		return tea.Batch(m.spinner.Tick, analyzeVessel(m.analyzer, m.vesselID, m.timeout))
	}
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.analysis != nil {
			m.waypointList.SetSize(m.listWidth(), m.listHeight())
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		m.state = StateError
		return m, nil

	case analysisMsg:
		if msg.id != m.vesselID {
			// Stale result from an earlier search.
			return m, nil
		}
		if msg.err != nil {
			m.err = fmt.Errorf("analysis of %s failed: %w", msg.id, msg.err)
			m.state = StateError
			return m, nil
		}
		m.analysis = msg.analysis
		m.waypointList = createWaypointList(msg.analysis.Waypoints, m.listWidth(), m.listHeight())
		m.state = StateDisplay
		return m, nil

	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.state {
		case StateSearch:
			return m.handleSearchInput(msg)
		case StateDisplay:
			return m.handleDisplay(msg)
		case StateLoading:
			if msg.String() == "q" {
				return m, tea.Quit
			}
			return m, nil
		case StateError:
			if msg.String() == "q" {
				return m, tea.Quit
			}
			// Any other key returns to search
			return m.resetSearch()
		}
	}

	if m.state == StateSearch {
		m.searchInput, cmd = m.searchInput.Update(msg)
	}
	return m, cmd
}

// handleSearchInput handles keyboard input in search state
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.err != nil && msg.Type != tea.KeyEnter {
		m.err = nil
	}

	if msg.Type == tea.KeyEnter {
		id := strings.TrimSpace(m.searchInput.Value())
		if id == "" {
			return m, nil
		}
		return m.startAnalysis(id)
	}

	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleDisplay handles keyboard input while an analysis is shown
func (m Model) handleDisplay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case msg.String() == "q":
		return m, tea.Quit
	case msg.String() == "s" || msg.Type == tea.KeyEsc:
		return m.resetSearch()
	case msg.String() == "r":
		return m.startAnalysis(m.vesselID)
	case msg.Type == tea.KeyTab:
		m.activePane = (m.activePane + 1) % paneCount
		return m, nil
	case msg.Type == tea.KeyShiftTab:
		m.activePane = (m.activePane + paneCount - 1) % paneCount
		return m, nil
	}

	if m.activePane == PaneRoute {
		m.waypointList, cmd = m.waypointList.Update(msg)
	}
	return m, cmd
}

func (m Model) startAnalysis(id string) (tea.Model, tea.Cmd) {
	m.vesselID = id
	m.err = nil
	m.state = StateLoading
	return m, tea.Batch(m.spinner.Tick, analyzeVessel(m.analyzer, id, m.timeout))
}

func (m Model) resetSearch() (tea.Model, tea.Cmd) {
	m.state = StateSearch
	m.err = nil
	m.analysis = nil
	m.activePane = PaneRoute
	m.searchInput.SetValue("")
	m.searchInput.Focus()
	return m, textinput.Blink
}

func (m Model) listWidth() int {
	if m.width < 20 {
		return 76
	}
	return m.width - 4
}

func (m Model) listHeight() int {
	if m.height < 20 {
		return 12
	}
	return m.height - 16
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateSearch:
		return m.viewSearch()
	case StateLoading:
		return m.viewLoading()
	case StateDisplay:
		return m.viewDisplay()
	case StateError:
		return m.viewError()
	}
	return ""
}

// viewError renders the error view
func (m Model) viewError() string {
	title := lipgloss.NewStyle().
		Foreground(colorDanger).
		Bold(true).
		Render("✗ Error")

	errorMsg := "An unknown error occurred"
	if m.err != nil {
		errorMsg = m.err.Error()
	}

	help := helpStyle.Render("Press any key to return to search • Q: Quit")
	return lipgloss.JoinVertical(lipgloss.Left, title, "", errorMsg, "", help)
}

// viewSearch renders the search view
func (m Model) viewSearch() string {
	title := titleStyle.Render("⚓ Routewatch")
	subtitle := mutedStyle.Render("Vessel route weather risk")

	searchBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(48).
		Render(m.searchInput.View())

	sections := []string{title, subtitle, "", searchBox}
	if m.err != nil {
		sections = append(sections, "", lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true).
			Padding(0, 2).
			Render("✗ "+m.err.Error()))
	}
	sections = append(sections,
		"",
		helpStyle.Render("Press Enter to analyze • Ctrl+C to quit"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// viewLoading renders the loading view
func (m Model) viewLoading() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		fmt.Sprintf("%s Analyzing route for %s...", m.spinner.View(), m.vesselID),
		"",
		mutedStyle.Render("Projecting route, fetching forecasts and advisories"),
	)
}

// viewDisplay renders the analysis with a tab bar over the active pane
func (m Model) viewDisplay() string {
	a := m.analysis
	v := a.Vessel

	header := titleStyle.Render(fmt.Sprintf("⚓ %s", v.Label()))
	if v.IMO != "" && v.Label() != "IMO "+v.IMO {
		header += mutedStyle.Render("  IMO " + v.IMO)
	}
	header += "  " + getRiskStyle(a.OverallRisk).Render(strings.ToUpper(string(a.OverallRisk))+" RISK")

	info := fmt.Sprintf("%s • %.1f kn • %03.0f°", formatPosition(v.Latitude, v.Longitude), v.Speed, v.Course)
	if v.Destination != "" {
		info += " • → " + v.Destination
	}
	if v.ETA != "" {
		info += " • ETA " + v.ETA
	}

	var tabs []string
	for i, t := range paneTitles {
		if ActivePane(i) == m.activePane {
			tabs = append(tabs, activeTitleStyle.Render(" "+t+" "))
		} else {
			tabs = append(tabs, mutedStyle.Render(" "+t+" "))
		}
	}

	var body string
	switch m.activePane {
	case PaneRisk:
		body = m.renderRiskPane()
	case PaneRouting:
		body = m.renderRoutingPane()
	default:
		body = m.renderRoutePane()
	}

	sections := []string{
		header,
		mutedStyle.Render(info),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		paneStyle.Width(m.listWidth()).Render(body),
	}

	if len(a.Errors) > 0 {
		sections = append(sections, labelStyle.Render(fmt.Sprintf("%d provider issues", len(a.Errors))))
		for _, e := range a.Errors {
			sections = append(sections, mutedStyle.Render("  "+e))
		}
	}

	sections = append(sections, helpStyle.Render("Tab: Switch pane • R: Refresh • S: New vessel • Q: Quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
