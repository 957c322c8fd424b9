// Package httpapi exposes the route analysis service over a fiber REST API.
package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/ngmaloney/routewatch/internal/models"
)

// Analyzer is the subset of analysis.Service the handlers use.
type Analyzer interface {
	Vessel(ctx context.Context, id string) (*models.VesselState, error)
	AnalyzeVessel(ctx context.Context, id string) (*models.RouteAnalysis, error)
	Analyze(ctx context.Context, v *models.VesselState) (*models.RouteAnalysis, error)
}

// PortSearcher lists ports matching free text.
type PortSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Port, error)
}

// PortResolver maps a destination string to one port.
type PortResolver interface {
	Resolve(ctx context.Context, query string) (*models.Port, error)
}

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Analysis Analyzer
	Ports    PortSearcher
	Resolver PortResolver

	// Checks are readiness probes keyed by dependency name.
	Checks map[string]func(context.Context) error

	// AnalysisTimeout bounds analysis requests. Zero uses the default.
	AnalysisTimeout time.Duration
	Version         string
	Logger          *slog.Logger
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}
