package risk

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/ngmaloney/routewatch/internal/geo"
	"github.com/ngmaloney/routewatch/internal/models"
)

// minHeadingDistance is how far (nm) a waypoint must be from the start
// before the start-to-waypoint bearing is used as a heading.
const minHeadingDistance = 0.1

// Analyzer runs the per-waypoint hazard checks.
type Analyzer struct {
	t      Thresholds
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer with the given thresholds.
func NewAnalyzer(t Thresholds, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{t: t, logger: logger}
}

// Analyze scans waypoints in order. Waypoints without weather and absent
// optional fields never produce events.
func (a *Analyzer) Analyze(waypoints []models.Waypoint) []models.RiskEvent {
	var events []models.RiskEvent
	if len(waypoints) == 0 {
		return events
	}
	origin := waypoints[0]

	for i, wp := range waypoints {
		obs := wp.Weather
		if obs == nil {
			continue
		}
		base := models.RiskEvent{
			Location:      wp.Position(),
			Timeframe:     wp.EstimatedTime,
			WaypointIndex: i,
		}

		if ev, ok := a.wind(base, obs); ok {
			events = append(events, ev)
		}
		if i > 0 {
			if ev, ok := a.headWind(base, obs, origin, wp); ok {
				events = append(events, ev)
			}
		}
		if ev, ok := a.waves(base, obs); ok {
			events = append(events, ev)
		}
		if ev, ok := a.visibility(base, obs); ok {
			events = append(events, ev)
		}
		if ev, ok := a.precipitation(base, obs); ok {
			events = append(events, ev)
		}
	}

	a.logger.Debug("risk analysis complete", "waypoints", len(waypoints), "events", len(events))
	return events
}

func (a *Analyzer) wind(ev models.RiskEvent, obs *models.WeatherObservation) (models.RiskEvent, bool) {
	w := obs.WindSpeed
	if w <= a.t.WindSpeed {
		return ev, false
	}
	ev.Category = models.CategoryWind
	ev.Severity = clampSeverity(int(math.Floor(w/5)), 10)
	switch {
	case w > a.t.WindSevere:
		ev.Level = models.RiskSevere
		ev.Recommendation = "Consider shelter or route alteration. Extreme weather conditions."
	case w > a.t.WindHigh:
		ev.Level = models.RiskHigh
		ev.Recommendation = "Monitor conditions closely. Reduce speed if necessary."
	default:
		ev.Level = models.RiskMedium
		ev.Recommendation = "Monitor conditions closely. Reduce speed if necessary."
	}
	if obs.DirectionUnknown {
		ev.Description = fmt.Sprintf("Strong winds expected: %.1f knots", w)
	} else {
		ev.Description = fmt.Sprintf("Strong winds expected: %.1f knots from %.0f°", w, obs.WindDirection)
	}
	return ev, true
}

// headWind uses the bearing from the route start to this waypoint as the
// heading. Wind direction is where the wind blows from, so a small angle
// means the wind is on the bow.
func (a *Analyzer) headWind(ev models.RiskEvent, obs *models.WeatherObservation, origin, wp models.Waypoint) (models.RiskEvent, bool) {
	if obs.DirectionUnknown || obs.WindSpeed <= a.t.HeadWindSpeed {
		return ev, false
	}
	if geo.Distance(origin.Latitude, origin.Longitude, wp.Latitude, wp.Longitude) < minHeadingDistance {
		return ev, false
	}
	heading := geo.Bearing(origin.Latitude, origin.Longitude, wp.Latitude, wp.Longitude)
	angle := geo.AngleDiff(obs.WindDirection, heading)
	if angle >= a.t.HeadWindAngle {
		return ev, false
	}

	ev.Category = models.CategoryWind
	ev.HeadWind = true
	ev.Severity = clampSeverity(int(math.Floor(obs.WindSpeed/3+angle/10)), 10)
	ev.Level = models.RiskMedium
	if angle < a.t.HeadWindHighAngle && obs.WindSpeed > a.t.HeadWindHighSpeed {
		ev.Level = models.RiskHigh
	}
	ev.Description = fmt.Sprintf("Head winds: %.1f knots opposing course by %.0f°", obs.WindSpeed, angle)
	ev.Recommendation = "Expect reduced speed and increased fuel consumption. Consider course adjustment."
	return ev, true
}

func (a *Analyzer) waves(ev models.RiskEvent, obs *models.WeatherObservation) (models.RiskEvent, bool) {
	if obs.WaveHeight == nil || *obs.WaveHeight <= a.t.WaveHeight {
		return ev, false
	}
	h := *obs.WaveHeight
	ev.Category = models.CategoryWaves
	ev.Severity = clampSeverity(int(math.Floor(h*2)), 10)
	ev.Description = fmt.Sprintf("High waves expected: %.1fm", h)
	switch {
	case h > a.t.WaveSevere:
		ev.Level = models.RiskSevere
		ev.Recommendation = "Extreme sea conditions. Consider route alteration or delay."
	case h > a.t.WaveHigh:
		ev.Level = models.RiskHigh
		ev.Recommendation = "Rough seas expected. Secure cargo and reduce speed."
	default:
		ev.Level = models.RiskMedium
		ev.Recommendation = "Rough seas expected. Secure cargo and reduce speed."
	}
	return ev, true
}

func (a *Analyzer) visibility(ev models.RiskEvent, obs *models.WeatherObservation) (models.RiskEvent, bool) {
	if obs.Visibility == nil || *obs.Visibility >= a.t.Visibility {
		return ev, false
	}
	v := *obs.Visibility
	ev.Category = models.CategoryVisibility
	ev.Severity = clampSeverity(int(10-v*4), 10)
	ev.Description = fmt.Sprintf("Poor visibility: %.1fkm", v)
	switch {
	case v < a.t.VisibilitySevere:
		ev.Level = models.RiskSevere
		ev.Recommendation = "Extremely poor visibility. Consider anchoring until conditions improve."
	case v < a.t.VisibilityHigh:
		ev.Level = models.RiskHigh
		ev.Recommendation = "Reduced visibility. Use radar and reduce speed."
	default:
		ev.Level = models.RiskMedium
		ev.Recommendation = "Reduced visibility. Use radar and reduce speed."
	}
	return ev, true
}

func (a *Analyzer) precipitation(ev models.RiskEvent, obs *models.WeatherObservation) (models.RiskEvent, bool) {
	if obs.Precipitation == nil || *obs.Precipitation <= a.t.Precipitation {
		return ev, false
	}
	p := *obs.Precipitation
	ev.Category = models.CategoryWeather
	ev.Severity = clampSeverity(int(math.Floor(p/2)), 8)
	ev.Level = models.RiskMedium
	if p > a.t.PrecipitationHigh {
		ev.Level = models.RiskHigh
	}
	ev.Description = fmt.Sprintf("Heavy precipitation: %.1fmm/h", p)
	ev.Recommendation = "Reduced visibility and deck conditions. Monitor weather closely."
	return ev, true
}

func clampSeverity(s, ceiling int) int {
	if s > ceiling {
		return ceiling
	}
	if s < 1 {
		return 1
	}
	return s
}
