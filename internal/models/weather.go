package models

import (
	"encoding/json"
	"time"
)

// Provenance tags for weather observations
const (
	SourceWeatherAPIHourly = "weatherapi-hourly"
	SourceWeatherAPIDaily  = "weatherapi-daily"
	SourceStormGlass       = "stormglass"
	SourceNOAAGridpoint    = "noaa-gridpoint"
	SourceSynthetic        = "synthetic"
)

// WeatherObservation is one normalized forecast sample for a point in
// space and time. Optional fields are nil when the provider did not report
// them and must be treated as unknown.
type WeatherObservation struct {
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Time          time.Time `json:"time"`
	WindSpeed     float64   `json:"wind_speed"`     // knots
	WindDirection float64   `json:"wind_direction"` // degrees the wind blows from
	WindGust      *float64  `json:"wind_gust,omitempty"`

	// DirectionUnknown is set for aggregates that carry no wind direction.
	DirectionUnknown bool `json:"direction_unknown,omitempty"`

	WaveHeight     *float64 `json:"wave_height,omitempty"` // meters
	SwellHeight    *float64 `json:"swell_height,omitempty"`
	SwellPeriod    *float64 `json:"swell_period,omitempty"` // seconds
	SwellDirection *float64 `json:"swell_direction,omitempty"`

	Visibility    *float64 `json:"visibility,omitempty"`    // km
	Precipitation *float64 `json:"precipitation,omitempty"` // mm/h
	Temperature   *float64 `json:"temperature,omitempty"`   // Celsius
	Pressure      *float64 `json:"pressure,omitempty"`      // mb
	Humidity      *float64 `json:"humidity,omitempty"`      // percent
	Conditions    string   `json:"conditions,omitempty"`

	Source    string `json:"source"`
	Synthetic bool   `json:"synthetic,omitempty"`

	// Raw is the provider payload for the matched slot. It is not
	// serialized on the primary record; secondary providers keep theirs
	// in Enrichment.
	Raw        json.RawMessage   `json:"-"`
	Enrichment []ProviderPayload `json:"enrichment,omitempty"`
}

// ProviderPayload keeps a secondary provider's raw slot for debugging.
type ProviderPayload struct {
	Source string          `json:"source"`
	Raw    json.RawMessage `json:"raw"`
}

// Float returns a pointer to v, for populating optional observation fields.
func Float(v float64) *float64 {
	return &v
}

// CriticalPeriod is a waypoint whose forecast crosses a hazard threshold.
type CriticalPeriod struct {
	Time              time.Time `json:"time"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	DistanceFromStart float64   `json:"distance_from_start"`
	WindSpeed         float64   `json:"wind_speed"`
	WaveHeight        *float64  `json:"wave_height,omitempty"`
	Visibility        *float64  `json:"visibility,omitempty"`
	Score             int       `json:"score"` // 0-10 combined condition score
}

// WindTrend describes how wind develops over the route
type WindTrend string

const (
	TrendSteady        WindTrend = "steady"
	TrendDeteriorating WindTrend = "deteriorating"
	TrendImproving     WindTrend = "improving"
)

// WeatherSummary aggregates the observed conditions along a route
type WeatherSummary struct {
	ObservedWaypoints int              `json:"observed_waypoints"`
	TotalWaypoints    int              `json:"total_waypoints"`
	AverageWindSpeed  float64          `json:"average_wind_speed"`
	MaxWindSpeed      float64          `json:"max_wind_speed"`
	AverageWaveHeight *float64         `json:"average_wave_height,omitempty"`
	MaxWaveHeight     *float64         `json:"max_wave_height,omitempty"`
	MinVisibility     *float64         `json:"min_visibility,omitempty"`
	CriticalPeriods   []CriticalPeriod `json:"critical_periods,omitempty"`
	WindTrend         WindTrend        `json:"wind_trend"`
	Sources           []string         `json:"sources,omitempty"`
}
