package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngmaloney/routewatch/internal/models"
)

// VesselAnalyzer runs a route analysis for an IMO or MMSI.
type VesselAnalyzer interface {
	AnalyzeVessel(ctx context.Context, id string) (*models.RouteAnalysis, error)
}

// analysisMsg is sent when an analysis completes
type analysisMsg struct {
	id       string
	analysis *models.RouteAnalysis
	err      error
}

// errMsg is a message type for errors
type errMsg struct {
	err error
}

// analyzeVessel runs the analysis in the background
func analyzeVessel(a VesselAnalyzer, id string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		analysis, err := a.AnalyzeVessel(ctx, id)
		return analysisMsg{id: id, analysis: analysis, err: err}
	}
}
