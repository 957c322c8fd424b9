package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/ngmaloney/routewatch/internal/geo"
	"github.com/ngmaloney/routewatch/internal/models"
)

// offset describes a latitude-shifted variant.
type offset struct {
	variant        models.RouteVariant
	sign           float64
	timeFactor     float64
	distanceFactor float64
	efficiency     float64
	recommendation string
}

var (
	northern = offset{
		variant:        models.VariantNorthern,
		sign:           1,
		timeFactor:     0.20,
		distanceFactor: 0.15,
		efficiency:     7,
		recommendation: "Northern route avoiding severe weather areas",
	}
	southern = offset{
		variant:        models.VariantSouthern,
		sign:           -1,
		timeFactor:     0.18,
		distanceFactor: 0.12,
		efficiency:     7.5,
		recommendation: "Southern route avoiding severe weather areas",
	}
)

// Alternatives returns the primary route first, followed by northern and
// southern variants when any obstacle reaches the avoid severity, and a
// delayed variant when any reaches the delay severity.
func (p *Planner) Alternatives(route Route, obstacles []models.WeatherObstacle) []models.RouteAlternative {
	primarySafety := p.SafetyScore(route.Waypoints, obstacles)
	primary := models.RouteAlternative{
		Variant:        models.VariantPrimary,
		Waypoints:      route.Waypoints,
		Distance:       route.Distance,
		Duration:       route.Duration,
		SafetyScore:    primarySafety,
		FuelEfficiency: 10,
		WeatherRisks:   filterSeverity(obstacles, 6),
		Recommendation: "Consider alternatives due to weather",
	}
	if primarySafety >= 7 {
		primary.Recommendation = "Recommended primary route"
	}
	alts := []models.RouteAlternative{primary}

	highest := MaxSeverity(obstacles)
	if highest < p.cfg.AvoidSeverity {
		return alts
	}
	severe := filterSeverity(obstacles, p.cfg.AvoidSeverity)

	alts = append(alts, p.offsetVariant(route, severe, northern))
	alts = append(alts, p.offsetVariant(route, severe, southern))

	if highest >= p.cfg.DelaySeverity {
		delay := p.cfg.ShortDelay
		if highest >= p.cfg.LongDelaySeverity {
			delay = p.cfg.LongDelay
		}
		alts = append(alts, p.delayedVariant(route, obstacles, delay))
	}
	return alts
}

// offsetVariant keeps the primary timestamps and shifts each waypoint's
// latitude, further near an obstacle. Forecasts belong to the primary
// positions, so the variant carries none.
func (p *Planner) offsetVariant(route Route, severe []models.WeatherObstacle, o offset) models.RouteAlternative {
	wps := make([]models.Waypoint, len(route.Waypoints))
	for i, wp := range route.Waypoints {
		shift := p.cfg.FarOffset
		if nearAny(wp, severe) {
			shift = p.cfg.NearOffset
		}
		wp.Latitude = geo.ClampLatitude(wp.Latitude + o.sign*shift)
		wp.DistanceFromStart *= 1 + o.distanceFactor
		wp.MarineZone = ""
		wp.Weather = nil
		wps[i] = wp
	}

	addDistance := route.Distance * o.distanceFactor
	addTime := route.Duration * o.timeFactor
	return models.RouteAlternative{
		Variant:            o.variant,
		Waypoints:          wps,
		Distance:           route.Distance + addDistance,
		Duration:           route.Duration + addTime,
		SafetyScore:        p.SafetyScore(wps, severe),
		FuelEfficiency:     o.efficiency,
		WeatherRisks:       []models.WeatherObstacle{},
		Recommendation:     o.recommendation,
		AdditionalTime:     addTime,
		AdditionalDistance: addDistance,
	}
}

func (p *Planner) delayedVariant(route Route, obstacles []models.WeatherObstacle, delay time.Duration) models.RouteAlternative {
	wps := make([]models.Waypoint, len(route.Waypoints))
	for i, wp := range route.Waypoints {
		wp.EstimatedTime = wp.EstimatedTime.Add(delay)
		wp.Weather = nil
		wps[i] = wp
	}

	hours := delay.Hours()
	return models.RouteAlternative{
		Variant:        models.VariantDelayed,
		Waypoints:      wps,
		Distance:       route.Distance,
		Duration:       route.Duration,
		SafetyScore:    p.SafetyScore(wps, obstacles),
		FuelEfficiency: 10,
		WeatherRisks:   []models.WeatherObstacle{},
		Recommendation: fmt.Sprintf("Delay departure by %.0f hours to avoid severe weather", hours),
		AdditionalTime: hours,
	}
}

// SafetyScore is 10 when no obstacle is near any waypoint, otherwise 10
// minus the mean severity of the near pairs, floored at 1.
func (p *Planner) SafetyScore(waypoints []models.Waypoint, obstacles []models.WeatherObstacle) float64 {
	var total, n int
	for _, wp := range waypoints {
		for _, o := range obstacles {
			if p.near(wp, o) {
				total += o.Severity
				n++
			}
		}
	}
	if n == 0 {
		return 10
	}
	return math.Max(1, 10-float64(total)/float64(n))
}

func (p *Planner) near(wp models.Waypoint, o models.WeatherObstacle) bool {
	d := math.Abs(wp.Latitude-o.Location.Lat) + math.Abs(wp.Longitude-o.Location.Lng)
	if d >= p.cfg.NearDegrees {
		return false
	}
	if p.cfg.NearWindow <= 0 || o.Timeframe.IsZero() || wp.EstimatedTime.IsZero() {
		return true
	}
	dt := wp.EstimatedTime.Sub(o.Timeframe)
	if dt < 0 {
		dt = -dt
	}
	return dt <= p.cfg.NearWindow
}

// nearAny reports an obstacle within one degree of latitude and longitude.
func nearAny(wp models.Waypoint, obstacles []models.WeatherObstacle) bool {
	for _, o := range obstacles {
		if math.Abs(o.Location.Lat-wp.Latitude) < 1 && math.Abs(o.Location.Lng-wp.Longitude) < 1 {
			return true
		}
	}
	return false
}

func filterSeverity(obstacles []models.WeatherObstacle, min int) []models.WeatherObstacle {
	out := []models.WeatherObstacle{}
	for _, o := range obstacles {
		if o.Severity >= min {
			out = append(out, o)
		}
	}
	return out
}
