// Package planner synthesizes offset and time-shifted variants of a
// projected route around weather obstacles and recommends one.
package planner

import (
	"log/slog"
	"time"

	"github.com/ngmaloney/routewatch/internal/config"
	"github.com/ngmaloney/routewatch/internal/models"
)

// Config holds the planner's tuning constants.
type Config struct {
	AvoidSeverity     int // obstacles at or above this trigger offset variants
	DelaySeverity     int // delayed variant at or above this
	LongDelaySeverity int // 48 h delay at or above this

	ShortDelay time.Duration
	LongDelay  time.Duration

	NearOffset float64 // degrees latitude near an obstacle
	FarOffset  float64 // degrees latitude elsewhere

	// NearDegrees is the |dlat|+|dlng| radius used by the safety score.
	NearDegrees float64
	// NearWindow, when positive, also requires an obstacle to fall within
	// this long of the waypoint's time. Zero scores on position alone.
	NearWindow time.Duration
}

// DefaultConfig returns the standard planner constants.
func DefaultConfig() Config {
	return Config{
		AvoidSeverity:     7,
		DelaySeverity:     8,
		LongDelaySeverity: 9,
		ShortDelay:        24 * time.Hour,
		LongDelay:         48 * time.Hour,
		NearOffset:        2.5,
		FarOffset:         1.0,
		NearDegrees:       0.5,
	}
}

// ConfigFromRisk applies the configured obstacle severity and time window.
func ConfigFromRisk(cfg config.RiskConfig) Config {
	c := DefaultConfig()
	if cfg.ObstacleSeverity > 0 {
		c.AvoidSeverity = cfg.ObstacleSeverity
	}
	if cfg.ObstacleWindow > 0 {
		c.NearWindow = time.Duration(cfg.ObstacleWindow) * time.Hour
	}
	return c
}

// Route is the primary route the planner works from.
type Route struct {
	Waypoints []models.Waypoint
	Distance  float64 // nm
	Duration  float64 // hours
}

// Planner builds and ranks route alternatives.
type Planner struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a planner.
func New(cfg Config, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{cfg: cfg, logger: logger}
}

// Config returns the planner constants.
func (p *Planner) Config() Config {
	return p.cfg
}

// Plan extracts obstacles from events, generates alternatives and
// recommends one.
func (p *Planner) Plan(route Route, events []models.RiskEvent) *models.RoutingPlan {
	obstacles := ExtractObstacles(events, route.Waypoints)
	alts := p.Alternatives(route, obstacles)
	plan := p.Recommend(alts, obstacles)

	p.logger.Debug("routing plan",
		"obstacles", len(obstacles),
		"alternatives", len(alts),
		"recommended", plan.Recommended,
		"strategy", plan.Strategy,
	)
	return plan
}
