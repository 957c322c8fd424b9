// Package events publishes completed route analyses to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ngmaloney/routewatch/internal/models"
)

const (
	streamName      = "ROUTEWATCH_ANALYSES"
	analysisSubject = "routewatch.analysis"
	alertSubject    = "routewatch.alert"
)

// AnalysisEvent is the message published for every completed analysis.
type AnalysisEvent struct {
	VesselID    string                 `json:"vessel_id"`
	VesselName  string                 `json:"vessel_name,omitempty"`
	OverallRisk models.RiskLevel       `json:"overall_risk"`
	RiskEvents  int                    `json:"risk_events"`
	RouteType   models.RouteType       `json:"route_type"`
	Strategy    models.RoutingStrategy `json:"strategy,omitempty"`
	Errors      []string               `json:"errors,omitempty"`
	GeneratedAt time.Time              `json:"generated_at"`
	Analysis    *models.RouteAnalysis  `json:"analysis"`
}

// NewAnalysisEvent summarizes a for publishing.
func NewAnalysisEvent(a *models.RouteAnalysis) AnalysisEvent {
	ev := AnalysisEvent{
		VesselID:    VesselID(&a.Vessel),
		VesselName:  a.Vessel.Name,
		OverallRisk: a.OverallRisk,
		RiskEvents:  len(a.RiskEvents),
		RouteType:   a.RouteType,
		Errors:      a.Errors,
		GeneratedAt: a.GeneratedAt,
		Analysis:    a,
	}
	if a.Routing != nil {
		ev.Strategy = a.Routing.Strategy
	}
	return ev
}

var subjectUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// VesselID picks the identifier used in subjects: IMO, then MMSI, then a
// sanitized name.
func VesselID(v *models.VesselState) string {
	switch {
	case v.IMO != "":
		return subjectUnsafe.ReplaceAllString(v.IMO, "_")
	case v.MMSI != "":
		return subjectUnsafe.ReplaceAllString(v.MMSI, "_")
	case v.Name != "":
		return strings.ToLower(subjectUnsafe.ReplaceAllString(strings.TrimSpace(v.Name), "_"))
	default:
		return "unknown"
	}
}

// Subjects returns the subjects an analysis is published on. High and
// severe analyses are also sent to the alert subject for their level.
func Subjects(a *models.RouteAnalysis) []string {
	id := VesselID(&a.Vessel)
	subjects := []string{analysisSubject + "." + id}
	if a.OverallRisk.AtLeast(models.RiskHigh) {
		subjects = append(subjects, fmt.Sprintf("%s.%s.%s", alertSubject, a.OverallRisk, id))
	}
	return subjects
}

// Publisher publishes analyses using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the analysis stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("routewatch"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{analysisSubject + ".>", alertSubject + ".>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist; try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishAnalysis sends a to every subject from Subjects.
func (p *Publisher) PublishAnalysis(ctx context.Context, a *models.RouteAnalysis) error {
	data, err := json.Marshal(NewAnalysisEvent(a))
	if err != nil {
		return fmt.Errorf("encoding analysis event: %w", err)
	}
	for _, subject := range Subjects(a) {
		if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
			return fmt.Errorf("publishing %s: %w", subject, err)
		}
	}
	return nil
}

// Ping reports whether the connection is up.
func (p *Publisher) Ping(context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats: %s", p.conn.Status())
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
