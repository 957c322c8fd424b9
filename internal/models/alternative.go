package models

import "time"

// RouteVariant names a generated route alternative
type RouteVariant string

const (
	VariantPrimary  RouteVariant = "primary"
	VariantNorthern RouteVariant = "northern"
	VariantSouthern RouteVariant = "southern"
	VariantDelayed  RouteVariant = "delayed"
	VariantCoastal  RouteVariant = "coastal"
)

// ObstacleAction is the handling suggested for a weather obstacle
type ObstacleAction string

const (
	ActionAvoid       ObstacleAction = "avoid"
	ActionDelay       ObstacleAction = "delay"
	ActionReduceSpeed ObstacleAction = "reduce_speed"
	ActionMonitor     ObstacleAction = "monitor"
)

// WeatherObstacle is a located hazard the planner routes around.
type WeatherObstacle struct {
	Location          LatLng         `json:"location"`
	Severity          int            `json:"severity"`
	Type              string         `json:"type"` // wind, waves, storm, visibility, weather, navigation
	Description       string         `json:"description"`
	Timeframe         time.Time      `json:"timeframe"`
	RecommendedAction ObstacleAction `json:"recommended_action"`
}

// RouteAlternative is one candidate route with its scores.
type RouteAlternative struct {
	Variant            RouteVariant      `json:"variant"`
	Waypoints          []Waypoint        `json:"waypoints"`
	Distance           float64           `json:"distance"` // nm
	Duration           float64           `json:"duration"` // hours
	SafetyScore        float64           `json:"safety_score"`
	FuelEfficiency     float64           `json:"fuel_efficiency"`
	WeatherRisks       []WeatherObstacle `json:"weather_risks"`
	Recommendation     string            `json:"recommendation"`
	AdditionalTime     float64           `json:"additional_time"`     // hours vs primary
	AdditionalDistance float64           `json:"additional_distance"` // nm vs primary
	Score              float64           `json:"score"`
}

// RoutingStrategy classifies the overall routing advice
type RoutingStrategy string

const (
	StrategyDirect             RoutingStrategy = "direct"
	StrategyWeatherAvoidance   RoutingStrategy = "weather_avoidance"
	StrategyDelayRecommended   RoutingStrategy = "delay_recommended"
	StrategyEmergencyDiversion RoutingStrategy = "emergency_diversion"
)

// RoutingPlan is the planner's ranked output.
type RoutingPlan struct {
	Primary           RouteAlternative   `json:"primary"`
	Alternatives      []RouteAlternative `json:"alternatives"`
	Recommended       RouteVariant       `json:"recommended"`
	Obstacles         []WeatherObstacle  `json:"obstacles"`
	Strategy          RoutingStrategy    `json:"strategy"`
	OverallAssessment string             `json:"overall_assessment"`
}

// Find returns the alternative with the given variant, including primary.
func (p *RoutingPlan) Find(v RouteVariant) (*RouteAlternative, bool) {
	if p.Primary.Variant == v {
		return &p.Primary, true
	}
	for i := range p.Alternatives {
		if p.Alternatives[i].Variant == v {
			return &p.Alternatives[i], true
		}
	}
	return nil, false
}
