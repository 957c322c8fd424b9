package models

import "time"

// RiskCategory groups risk events by hazard type
type RiskCategory string

const (
	CategoryWind       RiskCategory = "wind"
	CategoryWaves      RiskCategory = "waves"
	CategoryVisibility RiskCategory = "visibility"
	CategoryWeather    RiskCategory = "weather"
	CategoryNavigation RiskCategory = "navigation"
)

// RiskLevel is the qualitative rating of a hazard
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
	RiskSevere RiskLevel = "severe"
)

// Rank orders levels from low (0) to severe (3).
func (l RiskLevel) Rank() int {
	switch l {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskSevere:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether l is as serious as other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Rank() >= other.Rank()
}

// RiskEvent is a single hazard derived from one waypoint's forecast.
type RiskEvent struct {
	Category       RiskCategory `json:"category"`
	Level          RiskLevel    `json:"level"`
	Severity       int          `json:"severity"` // 1-10
	Description    string       `json:"description"`
	Recommendation string       `json:"recommendation"`
	Location       LatLng       `json:"location"`
	Timeframe      time.Time    `json:"timeframe"`
	WaypointIndex  int          `json:"waypoint_index"`
	HeadWind       bool         `json:"head_wind,omitempty"`
}
