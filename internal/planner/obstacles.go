package planner

import (
	"fmt"
	"sort"

	"github.com/ngmaloney/routewatch/internal/models"
)

// Storm combination: all three must be exceeded at one waypoint.
const (
	stormWind          = 25.0
	stormWaves         = 3.0
	stormPrecipitation = 10.0
	stormSeverity      = 9
)

// ExtractObstacles turns high and severe risk events, plus storm
// combinations, into obstacles. Obstacles at the same location collapse to
// the most severe one. The result is sorted by severity, highest first.
func ExtractObstacles(events []models.RiskEvent, waypoints []models.Waypoint) []models.WeatherObstacle {
	var all []models.WeatherObstacle

	for _, e := range events {
		if !e.Level.AtLeast(models.RiskHigh) {
			continue
		}
		action := models.ActionReduceSpeed
		if e.Level == models.RiskSevere {
			action = models.ActionAvoid
		}
		all = append(all, models.WeatherObstacle{
			Location:          e.Location,
			Severity:          e.Severity,
			Type:              string(e.Category),
			Description:       e.Description,
			Timeframe:         e.Timeframe,
			RecommendedAction: action,
		})
	}

	for _, wp := range waypoints {
		obs := wp.Weather
		if obs == nil || obs.WaveHeight == nil || obs.Precipitation == nil {
			continue
		}
		if obs.WindSpeed > stormWind && *obs.WaveHeight > stormWaves && *obs.Precipitation > stormPrecipitation {
			all = append(all, models.WeatherObstacle{
				Location: wp.Position(),
				Severity: stormSeverity,
				Type:     "storm",
				Description: fmt.Sprintf("Storm conditions: %.1fkn winds, %.1fm waves, heavy rain",
					obs.WindSpeed, *obs.WaveHeight),
				Timeframe:         wp.EstimatedTime,
				RecommendedAction: models.ActionAvoid,
			})
		}
	}

	// Stable sort keeps first-seen order among equal severities, so the
	// dedupe below keeps the earliest of the most severe at each location.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Severity > all[j].Severity
	})

	seen := make(map[models.LatLng]bool, len(all))
	out := make([]models.WeatherObstacle, 0, len(all))
	for _, o := range all {
		if seen[o.Location] {
			continue
		}
		seen[o.Location] = true
		out = append(out, o)
	}
	return out
}

// MaxSeverity returns the highest obstacle severity, or 0.
func MaxSeverity(obstacles []models.WeatherObstacle) int {
	highest := 0
	for _, o := range obstacles {
		if o.Severity > highest {
			highest = o.Severity
		}
	}
	return highest
}
