// Package weather attaches provider forecasts to projected waypoints.
package weather

import (
	"context"
	"errors"
	"time"

	"github.com/ngmaloney/routewatch/internal/models"
)

// Kind says which fields a source is authoritative for when merging.
type Kind string

const (
	// KindGeneral sources supply wind, visibility, precipitation and other
	// atmospheric fields.
	KindGeneral Kind = "general"
	// KindMarine sources supply wave and swell fields.
	KindMarine Kind = "marine"
)

// ErrNoData is returned when the provider has no forecast slot for the
// requested time, usually because it is past the provider's horizon.
var ErrNoData = errors.New("no forecast slot for requested time")

// Source is a single weather provider. Implementations normalize their
// schema into models.WeatherObservation and set its position to the
// queried point.
type Source interface {
	Name() string
	Kind() Kind
	Forecast(ctx context.Context, lat, lng float64, at time.Time) (*models.WeatherObservation, error)
}
