package route

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/models"
)

// Projector resolves the destination and ETA, then runs its strategies in
// order until one succeeds.
type Projector struct {
	strategies []Strategy
	resolver   DestinationResolver
	logger     *slog.Logger
}

// NewProjector builds a projector. GreatCircle is appended when missing so
// that projection always succeeds. resolver may be nil.
func NewProjector(resolver DestinationResolver, logger *slog.Logger, strategies ...Strategy) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	hasFallback := false
	for _, s := range strategies {
		if _, ok := s.(GreatCircle); ok {
			hasFallback = true
		}
	}
	if !hasFallback {
		strategies = append(strategies, GreatCircle{})
	}
	return &Projector{strategies: strategies, resolver: resolver, logger: logger}
}

// Strategies returns the strategy names in the order they are tried.
func (p *Projector) Strategies() []string {
	names := make([]string, len(p.strategies))
	for i, s := range p.strategies {
		names[i] = s.Name()
	}
	return names
}

// Project produces the waypoint sequence for v at time now.
func (p *Projector) Project(ctx context.Context, v *models.VesselState, now time.Time) (*Projection, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	var notes []string

	req := Request{Vessel: v, Now: now, Horizon: MaxHorizon}

	if v.ETA != "" {
		eta, err := ParseETA(v.ETA, now)
		if err != nil {
			p.logger.Warn("could not parse ETA", "vessel", v.Label(), "eta", v.ETA)
			notes = append(notes, err.Error())
		} else {
			req.Horizon = Horizon(eta, now)
		}
	}

	if q := v.DestinationQuery(); q != "" && p.resolver != nil {
		port, err := p.resolver.Resolve(ctx, q)
		switch {
		case err != nil:
			p.logger.Warn("destination not resolved", "vessel", v.Label(), "destination", q, "error", err)
			notes = append(notes, apperr.Unresolvable("destination", err).Error())
		case port != nil:
			req.Destination = port
		}
	}

	for _, s := range p.strategies {
		proj, err := s.Project(ctx, req)
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		if err != nil {
			p.logger.Warn("route strategy failed, falling back", "strategy", s.Name(), "error", err)
			notes = append(notes, err.Error())
			continue
		}
		if len(proj.Waypoints) == 0 {
			notes = append(notes, s.Name()+": empty route")
			continue
		}
		proj.Notes = append(notes, proj.Notes...)
		p.logger.Debug("route projected",
			"strategy", s.Name(),
			"route_type", proj.RouteType,
			"waypoints", len(proj.Waypoints),
		)
		return proj, nil
	}

	// Unreachable while GreatCircle is in the list.
	return nil, apperr.NoData("route", errors.New("no strategy produced a route"))
}
