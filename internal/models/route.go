package models

import "time"

// RouteType tags how a waypoint sequence was produced
type RouteType string

const (
	RouteTypeMaritime    RouteType = "maritime"
	RouteTypeGreatCircle RouteType = "great-circle"
	RouteTypeStationary  RouteType = "stationary-forecast"
)

// LatLng is a plain coordinate pair
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Waypoint is a projected point-in-time, point-in-space sample of the
// vessel's future path.
type Waypoint struct {
	Index             int                 `json:"index"`
	Latitude          float64             `json:"latitude"`
	Longitude         float64             `json:"longitude"`
	EstimatedTime     time.Time           `json:"estimated_time"`
	DistanceFromStart float64             `json:"distance_from_start"` // nautical miles
	MarineZone        string              `json:"marine_zone,omitempty"`
	Weather           *WeatherObservation `json:"weather,omitempty"`
}

// Position returns the waypoint coordinates
func (w Waypoint) Position() LatLng {
	return LatLng{Lat: w.Latitude, Lng: w.Longitude}
}

// CloneWaypoints returns a shallow copy of the sequence so that stages can
// derive new sequences without mutating their input.
func CloneWaypoints(in []Waypoint) []Waypoint {
	out := make([]Waypoint, len(in))
	copy(out, in)
	return out
}
