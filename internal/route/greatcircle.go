package route

import (
	"context"
	"math"
	"time"

	"github.com/ngmaloney/routewatch/internal/geo"
	"github.com/ngmaloney/routewatch/internal/models"
)

const (
	// courseTolerance is how far the reported course may drift from the
	// bearing to the destination before the bearing is used instead.
	courseTolerance = 30.0

	// driftSpeed is the speed at or below which a vessel with no
	// destination gets a fixed-point forecast instead of a course line.
	driftSpeed = 2.0

	// arrivedDistance is how close (nm) counts as already at the destination.
	arrivedDistance = 0.5
)

// GreatCircle projects along a sphere without routing data. It always
// succeeds.
type GreatCircle struct{}

func (GreatCircle) Name() string { return "great-circle" }

func (g GreatCircle) Project(_ context.Context, req Request) (*Projection, error) {
	v := req.Vessel
	horizon := req.Horizon
	if horizon <= 0 {
		horizon = MaxHorizon
	}

	var wps []models.Waypoint
	routeType := models.RouteTypeGreatCircle

	switch {
	case v.Speed <= models.StationarySpeed,
		req.Destination == nil && v.Speed <= driftSpeed:
		wps = stationarySeries(v, req.Now, horizon)
		routeType = models.RouteTypeStationary
	case req.Destination != nil:
		if geo.Distance(v.Latitude, v.Longitude, req.Destination.Latitude, req.Destination.Longitude) < arrivedDistance {
			wps = stationarySeries(v, req.Now, horizon)
			routeType = models.RouteTypeStationary
		} else {
			wps = destinationRoute(v, req.Destination, req.Now, horizon)
		}
	default:
		wps = courseProjection(v, req.Now, horizon)
	}

	return &Projection{
		Waypoints:   indexWaypoints(wps),
		RouteType:   routeType,
		Strategy:    g.Name(),
		Destination: req.Destination,
		Horizon:     horizon,
	}, nil
}

func start(v *models.VesselState, now time.Time) models.Waypoint {
	return models.Waypoint{
		Latitude:      v.Latitude,
		Longitude:     v.Longitude,
		EstimatedTime: now,
	}
}

func at(now time.Time, hours float64) time.Time {
	return now.Add(time.Duration(hours * float64(time.Hour)))
}

// stationarySeries repeats the current position every Interval up to the
// horizon, giving a time-series forecast at a fixed point.
func stationarySeries(v *models.VesselState, now time.Time, horizon time.Duration) []models.Waypoint {
	wps := []models.Waypoint{start(v, now)}
	for t := Interval; t <= horizon; t += Interval {
		wps = append(wps, models.Waypoint{
			Latitude:      v.Latitude,
			Longitude:     v.Longitude,
			EstimatedTime: now.Add(t),
		})
	}
	return wps
}

func destinationRoute(v *models.VesselState, dest *models.Port, now time.Time, horizon time.Duration) []models.Waypoint {
	total := geo.Distance(v.Latitude, v.Longitude, dest.Latitude, dest.Longitude)
	bearing := geo.Bearing(v.Latitude, v.Longitude, dest.Latitude, dest.Longitude)

	routeBearing := v.Course
	if diff := math.Abs(bearing - v.Course); diff > courseTolerance && diff < 360-courseTolerance {
		routeBearing = bearing
	}

	transit := total / v.Speed
	limit := horizon.Hours()
	step := Interval.Hours()

	wps := []models.Waypoint{start(v, now)}
	for hour := step; hour < transit && hour <= limit; hour += step {
		covered := v.Speed * hour
		lat, lng := geo.Project(v.Latitude, v.Longitude, routeBearing, covered)
		wps = append(wps, models.Waypoint{
			Latitude:          lat,
			Longitude:         lng,
			EstimatedTime:     at(now, hour),
			DistanceFromStart: covered,
		})
	}

	if transit <= limit {
		wps = append(wps, models.Waypoint{
			Latitude:          dest.Latitude,
			Longitude:         dest.Longitude,
			EstimatedTime:     at(now, transit),
			DistanceFromStart: total,
		})
	}
	return wps
}

// courseProjection assumes constant course and speed.
func courseProjection(v *models.VesselState, now time.Time, horizon time.Duration) []models.Waypoint {
	wps := []models.Waypoint{start(v, now)}
	for t := Interval; t <= horizon; t += Interval {
		covered := v.Speed * t.Hours()
		lat, lng := geo.Project(v.Latitude, v.Longitude, v.Course, covered)
		wps = append(wps, models.Waypoint{
			Latitude:          lat,
			Longitude:         lng,
			EstimatedTime:     now.Add(t),
			DistanceFromStart: covered,
		})
	}
	return wps
}
