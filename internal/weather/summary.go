package weather

import (
	"sort"

	"github.com/ngmaloney/routewatch/internal/models"
)

// Hazard thresholds for critical periods.
const (
	criticalWind       = 25.0
	criticalWaves      = 3.0
	criticalVisibility = 2.0

	// trendDelta is the wind change (kn) between the first and last
	// observation that counts as a trend.
	trendDelta = 10.0
)

// Summarize aggregates observed conditions along the route. Waypoints
// without weather are counted but do not contribute.
func Summarize(waypoints []models.Waypoint) *models.WeatherSummary {
	s := &models.WeatherSummary{
		TotalWaypoints: len(waypoints),
		WindTrend:      models.TrendSteady,
	}

	var (
		windSum, waveSum float64
		waveCount        int
		first, last      *models.WeatherObservation
		sources          = map[string]bool{}
	)

	for _, wp := range waypoints {
		obs := wp.Weather
		if obs == nil {
			continue
		}
		s.ObservedWaypoints++
		if first == nil {
			first = obs
		}
		last = obs
		sources[obs.Source] = true

		windSum += obs.WindSpeed
		if obs.WindSpeed > s.MaxWindSpeed {
			s.MaxWindSpeed = obs.WindSpeed
		}
		if obs.WaveHeight != nil {
			waveSum += *obs.WaveHeight
			waveCount++
			if s.MaxWaveHeight == nil || *obs.WaveHeight > *s.MaxWaveHeight {
				s.MaxWaveHeight = models.Float(*obs.WaveHeight)
			}
		}
		if obs.Visibility != nil && (s.MinVisibility == nil || *obs.Visibility < *s.MinVisibility) {
			s.MinVisibility = models.Float(*obs.Visibility)
		}

		if isCritical(obs) {
			s.CriticalPeriods = append(s.CriticalPeriods, models.CriticalPeriod{
				Time:              wp.EstimatedTime,
				Latitude:          wp.Latitude,
				Longitude:         wp.Longitude,
				DistanceFromStart: wp.DistanceFromStart,
				WindSpeed:         obs.WindSpeed,
				WaveHeight:        obs.WaveHeight,
				Visibility:        obs.Visibility,
				Score:             ConditionScore(obs),
			})
		}
	}

	if s.ObservedWaypoints == 0 {
		return s
	}

	s.AverageWindSpeed = windSum / float64(s.ObservedWaypoints)
	if waveCount > 0 {
		s.AverageWaveHeight = models.Float(waveSum / float64(waveCount))
	}

	switch delta := last.WindSpeed - first.WindSpeed; {
	case delta > trendDelta:
		s.WindTrend = models.TrendDeteriorating
	case delta < -trendDelta:
		s.WindTrend = models.TrendImproving
	}

	for src := range sources {
		s.Sources = append(s.Sources, src)
	}
	sort.Strings(s.Sources)
	return s
}

func isCritical(obs *models.WeatherObservation) bool {
	if obs.WindSpeed > criticalWind {
		return true
	}
	if obs.WaveHeight != nil && *obs.WaveHeight > criticalWaves {
		return true
	}
	return obs.Visibility != nil && *obs.Visibility < criticalVisibility
}

// ConditionScore rates an observation from 0 (benign) to 10.
func ConditionScore(obs *models.WeatherObservation) int {
	score := 0

	switch w := obs.WindSpeed; {
	case w > 50:
		score += 4
	case w > 35:
		score += 3
	case w > 25:
		score += 2
	case w > 15:
		score++
	}

	if obs.WaveHeight != nil {
		switch h := *obs.WaveHeight; {
		case h > 6:
			score += 3
		case h > 4:
			score += 2
		case h > 2:
			score++
		}
	}

	if obs.Visibility != nil {
		switch v := *obs.Visibility; {
		case v < 0.5:
			score += 3
		case v < 1:
			score += 2
		case v < 2:
			score++
		}
	}

	if score > 10 {
		score = 10
	}
	return score
}
