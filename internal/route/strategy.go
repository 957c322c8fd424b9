// Package route projects a vessel's future waypoints from its current state.
package route

import (
	"context"
	"errors"
	"time"

	"github.com/ngmaloney/routewatch/internal/models"
)

// Interval is the spacing between generated waypoints.
const Interval = 6 * time.Hour

// ErrNotApplicable is returned by a strategy that cannot handle the request.
// The projector moves on to the next strategy without recording it.
var ErrNotApplicable = errors.New("strategy not applicable")

// Request is the input handed to each strategy.
type Request struct {
	Vessel      *models.VesselState
	Destination *models.Port // nil when unresolved
	Now         time.Time
	Horizon     time.Duration
}

// Projection is an ordered waypoint sequence and how it was produced.
type Projection struct {
	Waypoints   []models.Waypoint
	RouteType   models.RouteType
	Strategy    string
	Destination *models.Port
	Horizon     time.Duration

	// Notes carries strategy failures and unresolved inputs, formatted for
	// the analysis errors list.
	Notes []string
}

// Strategy produces waypoints for a request.
type Strategy interface {
	Name() string
	Project(ctx context.Context, req Request) (*Projection, error)
}

// DestinationResolver maps a destination string to port coordinates.
type DestinationResolver interface {
	Resolve(ctx context.Context, query string) (*models.Port, error)
}

func indexWaypoints(wps []models.Waypoint) []models.Waypoint {
	for i := range wps {
		wps[i].Index = i
	}
	return wps
}
