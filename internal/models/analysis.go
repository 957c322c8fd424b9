package models

import "time"

// RouteAnalysis is the complete result of one route-analysis run.
type RouteAnalysis struct {
	Vessel             VesselState     `json:"vessel"`
	Waypoints          []Waypoint      `json:"waypoints"`
	RiskEvents         []RiskEvent     `json:"risk_events"`
	OverallRisk        RiskLevel       `json:"overall_risk"`
	Recommendations    []string        `json:"recommendations"`
	AlternativeActions []string        `json:"alternative_actions"`
	RouteDuration      float64         `json:"route_duration"` // hours
	TotalDistance      float64         `json:"total_distance"` // nm
	RouteType          RouteType       `json:"route_type"`
	Destination        *Port           `json:"destination,omitempty"`
	WeatherSummary     *WeatherSummary `json:"weather_summary,omitempty"`
	Routing            *RoutingPlan    `json:"routing,omitempty"`
	Advisories         []Alert         `json:"advisories,omitempty"`
	Errors             []string        `json:"errors"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// HasWeather reports whether any waypoint carries an observation.
func (a *RouteAnalysis) HasWeather() bool {
	for _, wp := range a.Waypoints {
		if wp.Weather != nil {
			return true
		}
	}
	return false
}
