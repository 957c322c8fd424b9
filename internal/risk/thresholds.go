// Package risk derives hazard events and route-level advice from
// weather-annotated waypoints.
package risk

import "github.com/ngmaloney/routewatch/internal/config"

// Thresholds are the heuristic trigger points for each check. They are
// hand-tuned rather than taken from a maritime standard, so each can be
// overridden from configuration.
type Thresholds struct {
	WindSpeed  float64 // kn, wind event above this
	WindHigh   float64 // kn, high above this
	WindSevere float64 // kn, severe above this

	HeadWindAngle     float64 // deg, head wind below this
	HeadWindHighAngle float64 // deg, high when below this and wind above HeadWindHighSpeed
	HeadWindSpeed     float64 // kn, head wind above this
	HeadWindHighSpeed float64 // kn

	WaveHeight float64 // m
	WaveHigh   float64
	WaveSevere float64

	Visibility       float64 // km, event below this
	VisibilityHigh   float64
	VisibilitySevere float64

	Precipitation     float64 // mm/h
	PrecipitationHigh float64
}

// DefaultThresholds returns the standard trigger points.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WindSpeed:         25,
		WindHigh:          35,
		WindSevere:        50,
		HeadWindAngle:     45,
		HeadWindHighAngle: 30,
		HeadWindSpeed:     15,
		HeadWindHighSpeed: 25,
		WaveHeight:        3,
		WaveHigh:          4,
		WaveSevere:        6,
		Visibility:        2,
		VisibilityHigh:    1,
		VisibilitySevere:  0.5,
		Precipitation:     5,
		PrecipitationHigh: 15,
	}
}

// ThresholdsFromConfig applies non-zero overrides to the defaults.
func ThresholdsFromConfig(cfg config.RiskConfig) Thresholds {
	t := DefaultThresholds()
	override(&t.WindSpeed, cfg.WindSpeed)
	override(&t.WindHigh, cfg.WindHigh)
	override(&t.WindSevere, cfg.WindSevere)
	override(&t.HeadWindAngle, cfg.HeadWindAngle)
	override(&t.HeadWindHighAngle, cfg.HeadWindHighAngle)
	override(&t.HeadWindSpeed, cfg.HeadWindSpeed)
	override(&t.HeadWindHighSpeed, cfg.HeadWindHighSpeed)
	override(&t.WaveHeight, cfg.WaveHeight)
	override(&t.WaveHigh, cfg.WaveHigh)
	override(&t.WaveSevere, cfg.WaveSevere)
	override(&t.Visibility, cfg.Visibility)
	override(&t.VisibilityHigh, cfg.VisibilityHigh)
	override(&t.VisibilitySevere, cfg.VisibilitySevere)
	override(&t.Precipitation, cfg.Precipitation)
	override(&t.PrecipitationHigh, cfg.PrecipitationHigh)
	return t
}

func override(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}
