// Package analysis runs the route-weather-risk pipeline: projection,
// weather correlation, advisory annotation, risk analysis and routing
// alternatives.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/metrics"
	"github.com/ngmaloney/routewatch/internal/models"
	"github.com/ngmaloney/routewatch/internal/noaa"
	"github.com/ngmaloney/routewatch/internal/planner"
	"github.com/ngmaloney/routewatch/internal/risk"
	"github.com/ngmaloney/routewatch/internal/route"
	"github.com/ngmaloney/routewatch/internal/vessel"
	"github.com/ngmaloney/routewatch/internal/weather"
)

const zoneWorkers = 4

var tracer = otel.Tracer("routewatch/analysis")

// Publisher receives every completed analysis.
type Publisher interface {
	PublishAnalysis(ctx context.Context, a *models.RouteAnalysis) error
}

// Deps are the stages and collaborators of a Service. Projector,
// Correlator, Analyzer and Planner are required; the rest are optional.
type Deps struct {
	Projector  *route.Projector
	Correlator *weather.Correlator
	Analyzer   *risk.Analyzer
	Planner    *planner.Planner

	Vessels vessel.Lookup

	// Zones are tried in order for each waypoint.
	Zones      []noaa.ZoneLocator
	Advisories noaa.AdvisoryClient
	Publisher  Publisher

	Logger *slog.Logger
	Now    func() time.Time
}

// Service runs analyses.
type Service struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	s := &Service{deps: d, logger: d.Logger, now: d.Now}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Vessel looks a vessel up by IMO or MMSI.
func (s *Service) Vessel(ctx context.Context, id string) (*models.VesselState, error) {
	if s.deps.Vessels == nil {
		return nil, apperr.Configuration("vessel", "no vessel lookup provider configured")
	}
	return s.deps.Vessels.Vessel(ctx, id)
}

// AnalyzeVessel looks the vessel up and analyzes its route. Lookup failures,
// a missing credential included, are returned to the caller.
func (s *Service) AnalyzeVessel(ctx context.Context, id string) (*models.RouteAnalysis, error) {
	v, err := s.Vessel(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Analyze(ctx, v)
}

// Analyze runs the pipeline for v. Only an unusable vessel position is an
// error; provider failures are collected in the result's Errors.
func (s *Service) Analyze(ctx context.Context, v *models.VesselState) (*models.RouteAnalysis, error) {
	started := time.Now()
	ctx, span := tracer.Start(ctx, "analysis.Analyze", trace.WithAttributes(
		attribute.String("vessel", v.Label()),
		attribute.Float64("speed", v.Speed),
	))
	defer span.End()

	if err := v.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperr.Unresolvable("vessel", err)
	}

	now := s.now().UTC()
	errs := &apperr.List{}

	proj, err := s.project(ctx, v, now)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	errs.Add(proj.Notes...)

	waypoints := s.annotateZones(ctx, proj.Waypoints, errs)
	waypoints = s.correlate(ctx, waypoints, errs)

	advisories := s.advisories(ctx, waypoints, errs)

	events := s.deps.Analyzer.Analyze(waypoints)
	events = append(events, risk.AdvisoryEvents(advisories, waypoints)...)
	overall := risk.OverallLevel(events)

	distance, duration := Totals(waypoints, v, proj.Horizon)

	_, planSpan := tracer.Start(ctx, "analysis.plan")
	plan := s.deps.Planner.Plan(planner.Route{Waypoints: waypoints, Distance: distance, Duration: duration}, events)
	planSpan.SetAttributes(attribute.String("strategy", string(plan.Strategy)))
	planSpan.End()

	a := &models.RouteAnalysis{
		Vessel:             *v,
		Waypoints:          waypoints,
		RiskEvents:         events,
		OverallRisk:        overall,
		Recommendations:    risk.Recommendations(events, overall),
		AlternativeActions: risk.AlternativeActions(overall),
		RouteDuration:      duration,
		TotalDistance:      distance,
		RouteType:          proj.RouteType,
		Destination:        proj.Destination,
		WeatherSummary:     weather.Summarize(waypoints),
		Routing:            plan,
		Advisories:         advisories,
		GeneratedAt:        now,
	}
	if a.RiskEvents == nil {
		a.RiskEvents = []models.RiskEvent{}
	}

	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.PublishAnalysis(ctx, a); err != nil {
			s.logger.Warn("publishing analysis failed", "vessel", v.Label(), "error", err)
			errs.Add(fmt.Sprintf("events: %v", err))
		}
	}
	a.Errors = errs.Messages()

	metrics.AnalysesTotal.WithLabelValues(string(a.RouteType), string(a.OverallRisk)).Inc()
	metrics.AnalysisDuration.Observe(time.Since(started).Seconds())
	for _, ev := range events {
		metrics.RiskEvents.WithLabelValues(string(ev.Category), string(ev.Level)).Inc()
	}

	span.SetAttributes(
		attribute.String("route_type", string(a.RouteType)),
		attribute.String("overall_risk", string(a.OverallRisk)),
		attribute.Int("waypoints", len(a.Waypoints)),
		attribute.Int("errors", len(a.Errors)),
	)
	s.logger.Info("route analysis complete",
		"vessel", v.Label(),
		"route_type", a.RouteType,
		"waypoints", len(a.Waypoints),
		"risk_events", len(a.RiskEvents),
		"overall_risk", a.OverallRisk,
		"errors", len(a.Errors),
		"duration", time.Since(started),
	)
	return a, nil
}

func (s *Service) project(ctx context.Context, v *models.VesselState, now time.Time) (*route.Projection, error) {
	ctx, span := tracer.Start(ctx, "analysis.project")
	defer span.End()

	proj, err := s.deps.Projector.Project(ctx, v, now)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("strategy", proj.Strategy),
		attribute.Int("waypoints", len(proj.Waypoints)),
	)
	return proj, nil
}

func (s *Service) correlate(ctx context.Context, waypoints []models.Waypoint, errs *apperr.List) []models.Waypoint {
	ctx, span := tracer.Start(ctx, "analysis.correlate")
	defer span.End()

	out, weatherErrs := s.deps.Correlator.Correlate(ctx, waypoints)
	errs.Add(weatherErrs...)
	span.SetAttributes(attribute.Int("errors", len(weatherErrs)))
	return out
}

// annotateZones sets MarineZone on each waypoint from the first locator
// that knows it. A point with no zone is not an error.
func (s *Service) annotateZones(ctx context.Context, waypoints []models.Waypoint, errs *apperr.List) []models.Waypoint {
	out := models.CloneWaypoints(waypoints)
	if len(s.deps.Zones) == 0 {
		return out
	}
	ctx, span := tracer.Start(ctx, "analysis.zones")
	defer span.End()

	var g errgroup.Group
	g.SetLimit(zoneWorkers)
	for i := range out {
		i := i
		g.Go(func() error {
			for _, loc := range s.deps.Zones {
				zone, err := loc.MarineZone(ctx, out[i].Latitude, out[i].Longitude)
				if err == nil && zone != "" {
					out[i].MarineZone = zone
					return nil
				}
				if err != nil && !errors.Is(err, apperr.ErrNoDataAvailable) && !errors.Is(err, apperr.ErrNotFound) {
					errs.Add(err.Error())
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) advisories(ctx context.Context, waypoints []models.Waypoint, errs *apperr.List) []models.Alert {
	if s.deps.Advisories == nil {
		return nil
	}
	var zones []string
	for _, wp := range waypoints {
		if wp.MarineZone != "" {
			zones = append(zones, wp.MarineZone)
		}
	}
	if len(zones) == 0 {
		return nil
	}

	ctx, span := tracer.Start(ctx, "analysis.advisories")
	defer span.End()

	alerts, err := noaa.ActiveAlerts(ctx, s.deps.Advisories, zones)
	if err != nil {
		errs.Add(strings.Split(err.Error(), "\n")...)
	}
	span.SetAttributes(attribute.Int("alerts", len(alerts)))
	return alerts
}

// Totals returns the route distance (last waypoint) and duration. Moving
// vessels take distance over speed; a stationary series spans the horizon.
func Totals(waypoints []models.Waypoint, v *models.VesselState, horizon time.Duration) (distance, duration float64) {
	if len(waypoints) == 0 {
		return 0, 0
	}
	distance = waypoints[len(waypoints)-1].DistanceFromStart
	if v.IsStationary() || distance == 0 {
		return distance, horizon.Hours()
	}
	return distance, distance / v.Speed
}
