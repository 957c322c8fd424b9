package analysis

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/config"
	"github.com/ngmaloney/routewatch/internal/geo"
	"github.com/ngmaloney/routewatch/internal/logging"
	"github.com/ngmaloney/routewatch/internal/models"
	"github.com/ngmaloney/routewatch/internal/noaa"
	"github.com/ngmaloney/routewatch/internal/planner"
	"github.com/ngmaloney/routewatch/internal/risk"
	"github.com/ngmaloney/routewatch/internal/route"
	"github.com/ngmaloney/routewatch/internal/weather"
)

var testNow = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

type failingSource struct {
	name string
	kind weather.Kind
}

func (f failingSource) Name() string       { return f.name }
func (f failingSource) Kind() weather.Kind { return f.kind }
func (f failingSource) Forecast(context.Context, float64, float64, time.Time) (*models.WeatherObservation, error) {
	return nil, errors.New("connection refused")
}

type portResolver struct{ port *models.Port }

func (r portResolver) Resolve(context.Context, string) (*models.Port, error) {
	if r.port == nil {
		return nil, apperr.ErrNotFound
	}
	return r.port, nil
}

type fakeZones struct {
	zoneFn func(lat, lng float64) (string, error)
}

func (f fakeZones) MarineZone(_ context.Context, lat, lng float64) (string, error) {
	return f.zoneFn(lat, lng)
}

type fakeAdvisories struct {
	alerts map[string][]models.Alert
	err    error
}

func (f fakeAdvisories) ActiveAlertsByZone(_ context.Context, zone string) ([]models.Alert, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.alerts[zone], nil
}

type fakeVessels struct {
	vesselFn func(id string) (*models.VesselState, error)
}

func (f fakeVessels) Vessel(_ context.Context, id string) (*models.VesselState, error) {
	return f.vesselFn(id)
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []*models.RouteAnalysis
	err       error
}

func (p *recordingPublisher) PublishAnalysis(_ context.Context, a *models.RouteAnalysis) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, a)
	return p.err
}

func newTestService(t *testing.T, dest *models.Port, sources []weather.Source, mod func(*Deps)) *Service {
	t.Helper()
	logger := logging.Discard()
	d := Deps{
		Projector:  route.NewProjector(portResolver{port: dest}, logger),
		Correlator: weather.NewCorrelator(weather.Options{Workers: 4, ProviderTimeout: time.Second, Logger: logger}, sources...),
		Analyzer:   risk.NewAnalyzer(risk.ThresholdsFromConfig(config.RiskConfig{}), logger),
		Planner:    planner.New(planner.ConfigFromRisk(config.RiskConfig{}), logger),
		Logger:     logger,
		Now:        func() time.Time { return testNow },
	}
	if mod != nil {
		mod(&d)
	}
	return NewService(d)
}

func TestAnalyze_NoWeatherData(t *testing.T) {
	sources := []weather.Source{
		failingSource{"weatherapi", weather.KindGeneral},
		failingSource{"stormglass", weather.KindMarine},
	}
	svc := newTestService(t, nil, sources, nil)

	v := &models.VesselState{Name: "Drifter", Latitude: 40.5, Longitude: -70.2, Course: 45, Speed: 12}
	a, err := svc.Analyze(context.Background(), v)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(a.Waypoints) == 0 {
		t.Fatal("no waypoints projected")
	}
	for i, wp := range a.Waypoints {
		if wp.Weather != nil {
			t.Errorf("waypoint %d has weather %+v", i, wp.Weather)
		}
	}
	if len(a.RiskEvents) != 0 {
		t.Errorf("risk events = %v, want none", a.RiskEvents)
	}
	if a.RiskEvents == nil {
		t.Error("RiskEvents should be an empty list, not nil")
	}
	if a.OverallRisk != models.RiskLow {
		t.Errorf("OverallRisk = %s, want low", a.OverallRisk)
	}
	if len(a.Errors) != 2 {
		t.Errorf("errors = %v, want one per provider", a.Errors)
	}
	if a.Routing == nil || a.Routing.Strategy != models.StrategyDirect {
		t.Errorf("routing = %+v, want direct", a.Routing)
	}
}

func TestAnalyze_DestinationEndToEnd(t *testing.T) {
	dest := &models.Port{Name: "Test Port", Latitude: 51.0, Longitude: 2.0}
	svc := newTestService(t, dest, []weather.Source{weather.Synthetic{}}, nil)

	v := &models.VesselState{Name: "Channel Runner", Latitude: 50.0, Longitude: -1.0, Course: 90, Speed: 15, Destination: "TEST PORT"}
	a, err := svc.Analyze(context.Background(), v)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if a.RouteType != models.RouteTypeGreatCircle {
		t.Errorf("RouteType = %s, want %s", a.RouteType, models.RouteTypeGreatCircle)
	}
	want := geo.Distance(50, -1, 51, 2)
	if math.Abs(want-135) > 5 {
		t.Fatalf("reference distance %.1f nm is not ~135 nm", want)
	}
	if math.Abs(a.TotalDistance-want) > 1e-6 {
		t.Errorf("TotalDistance = %.3f, want %.3f", a.TotalDistance, want)
	}
	if math.Abs(a.RouteDuration-want/15) > 1e-6 {
		t.Errorf("RouteDuration = %.3f, want %.3f", a.RouteDuration, want/15)
	}
	last := a.Waypoints[len(a.Waypoints)-1]
	if last.Latitude != 51.0 || last.Longitude != 2.0 {
		t.Errorf("last waypoint = (%v,%v), want (51,2)", last.Latitude, last.Longitude)
	}
	if a.Destination == nil || a.Destination.Name != "Test Port" {
		t.Errorf("Destination = %+v", a.Destination)
	}
	if !a.HasWeather() {
		t.Error("synthetic source produced no weather")
	}
	if a.Errors == nil {
		t.Error("Errors should be an empty list, not nil")
	}
	if !a.GeneratedAt.Equal(testNow) {
		t.Errorf("GeneratedAt = %v, want %v", a.GeneratedAt, testNow)
	}
}

func TestAnalyze_Stationary(t *testing.T) {
	svc := newTestService(t, nil, []weather.Source{weather.Synthetic{}}, nil)

	v := &models.VesselState{Name: "Anchored", Latitude: 42.3, Longitude: -70.9, Speed: 0.2, ETA: "garbage"}
	a, err := svc.Analyze(context.Background(), v)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.RouteType != models.RouteTypeStationary {
		t.Errorf("RouteType = %s", a.RouteType)
	}
	if a.TotalDistance != 0 {
		t.Errorf("TotalDistance = %v, want 0", a.TotalDistance)
	}
	if a.RouteDuration != route.MaxHorizon.Hours() {
		t.Errorf("RouteDuration = %v, want %v", a.RouteDuration, route.MaxHorizon.Hours())
	}
	if len(a.Errors) == 0 {
		t.Error("unparseable ETA should be reported")
	}
}

func TestAnalyze_InvalidVessel(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)

	tests := []struct {
		name string
		v    *models.VesselState
	}{
		{"unknown position", &models.VesselState{Name: "Ghost", PositionUnknown: true, Speed: 10}},
		{"latitude out of range", &models.VesselState{Name: "Ghost", Latitude: 95, Speed: 10}},
		{"NaN speed", &models.VesselState{Name: "Ghost", Latitude: 10, Longitude: 10, Speed: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), tt.v)
			if !errors.Is(err, apperr.ErrUnresolvableInput) {
				t.Errorf("err = %v, want unresolvable input", err)
			}
		})
	}
}

func TestAnalyze_ZonesAndAdvisories(t *testing.T) {
	gale := models.Alert{
		ID:       "gale-1",
		Event:    "Gale Warning",
		Headline: "Gale warning in effect",
		Severity: models.SeveritySevere,
		Zone:     "ANZ251",
		Onset:    testNow.Add(-time.Hour),
		Expires:  testNow.Add(48 * time.Hour),
	}
	offline := fakeZones{zoneFn: func(float64, float64) (string, error) {
		return "", apperr.Unavailable("zone-api", errors.New("timeout"))
	}}
	local := fakeZones{zoneFn: func(lat, lng float64) (string, error) {
		if lat > 42 {
			return "ANZ251", nil
		}
		return "", apperr.NoData("marine-zones", errors.New("no zone near point"))
	}}

	svc := newTestService(t, nil, nil, func(d *Deps) {
		d.Zones = []noaa.ZoneLocator{offline, local}
		d.Advisories = fakeAdvisories{alerts: map[string][]models.Alert{"ANZ251": {gale}}}
	})

	v := &models.VesselState{Name: "Coaster", Latitude: 42.4, Longitude: -70.6, Course: 0, Speed: 8}
	a, err := svc.Analyze(context.Background(), v)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	for i, wp := range a.Waypoints {
		if wp.MarineZone != "ANZ251" {
			t.Errorf("waypoint %d zone = %q, want ANZ251", i, wp.MarineZone)
		}
	}
	if len(a.Advisories) != 1 || a.Advisories[0].ID != "gale-1" {
		t.Fatalf("advisories = %+v", a.Advisories)
	}
	if len(a.RiskEvents) != 1 {
		t.Fatalf("risk events = %+v, want one advisory event", a.RiskEvents)
	}
	if ev := a.RiskEvents[0]; ev.Category != models.CategoryNavigation || ev.Level != models.RiskHigh {
		t.Errorf("event = %+v", ev)
	}
	if a.OverallRisk != models.RiskHigh {
		t.Errorf("OverallRisk = %s, want high", a.OverallRisk)
	}
	var zoneErrs int
	for _, e := range a.Errors {
		if strings.Contains(e, "zone-api") {
			zoneErrs++
		}
	}
	if zoneErrs != 1 {
		t.Errorf("errors = %v, want the zone-api failure once", a.Errors)
	}
}

func TestAnalyze_AdvisoryFailureIsReported(t *testing.T) {
	zones := fakeZones{zoneFn: func(float64, float64) (string, error) { return "PZZ135", nil }}
	svc := newTestService(t, nil, nil, func(d *Deps) {
		d.Zones = []noaa.ZoneLocator{zones}
		d.Advisories = fakeAdvisories{err: apperr.Unavailable("nws-alerts", errors.New("503"))}
	})

	a, err := svc.Analyze(context.Background(), &models.VesselState{Name: "Tug", Latitude: 47.6, Longitude: -122.4, Speed: 5})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(a.Advisories) != 0 || len(a.RiskEvents) != 0 {
		t.Errorf("advisories = %v events = %v", a.Advisories, a.RiskEvents)
	}
	found := false
	for _, e := range a.Errors {
		if strings.Contains(e, "nws-alerts") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want the advisory failure", a.Errors)
	}
}

func TestAnalyze_Publishes(t *testing.T) {
	tests := []struct {
		name       string
		publishErr error
		wantErrs   int
	}{
		{"success", nil, 0},
		{"publish failure is reported", errors.New("nats: no responders"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{err: tt.publishErr}
			svc := newTestService(t, nil, []weather.Source{weather.Synthetic{}}, func(d *Deps) {
				d.Publisher = pub
			})

			a, err := svc.Analyze(context.Background(), &models.VesselState{Name: "Feeder", Latitude: 1.2, Longitude: 103.8, Course: 270, Speed: 14})
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if len(pub.published) != 1 || pub.published[0] != a {
				t.Fatalf("published %d analyses", len(pub.published))
			}
			if len(a.Errors) != tt.wantErrs {
				t.Errorf("errors = %v, want %d", a.Errors, tt.wantErrs)
			}
		})
	}
}

func TestAnalyzeVessel(t *testing.T) {
	t.Run("no lookup configured", func(t *testing.T) {
		svc := newTestService(t, nil, nil, nil)
		_, err := svc.AnalyzeVessel(context.Background(), "9321483")
		if !errors.Is(err, apperr.ErrConfiguration) {
			t.Errorf("err = %v, want configuration error", err)
		}
	})

	t.Run("lookup error is returned", func(t *testing.T) {
		svc := newTestService(t, nil, nil, func(d *Deps) {
			d.Vessels = fakeVessels{vesselFn: func(string) (*models.VesselState, error) {
				return nil, apperr.Configuration("vessel", "api key not set")
			}}
		})
		_, err := svc.AnalyzeVessel(context.Background(), "9321483")
		if !errors.Is(err, apperr.ErrConfiguration) {
			t.Errorf("err = %v, want configuration error", err)
		}
	})

	t.Run("found", func(t *testing.T) {
		var gotID string
		svc := newTestService(t, nil, []weather.Source{weather.Synthetic{}}, func(d *Deps) {
			d.Vessels = fakeVessels{vesselFn: func(id string) (*models.VesselState, error) {
				gotID = id
				return &models.VesselState{Name: "Ever Given", IMO: id, Latitude: 30.0, Longitude: 32.5, Course: 180, Speed: 10}, nil
			}}
		})
		a, err := svc.AnalyzeVessel(context.Background(), "9811000")
		if err != nil {
			t.Fatalf("AnalyzeVessel: %v", err)
		}
		if gotID != "9811000" || a.Vessel.IMO != "9811000" {
			t.Errorf("looked up %q, analysis vessel %+v", gotID, a.Vessel)
		}
	})
}

func TestTotals(t *testing.T) {
	wps := []models.Waypoint{{DistanceFromStart: 0}, {DistanceFromStart: 60}, {DistanceFromStart: 150}}

	tests := []struct {
		name         string
		waypoints    []models.Waypoint
		speed        float64
		wantDistance float64
		wantDuration float64
	}{
		{"moving", wps, 15, 150, 10},
		{"stationary", wps[:1], 0, 0, 48},
		{"zero distance while moving", wps[:1], 12, 0, 48},
		{"empty", nil, 12, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, h := Totals(tt.waypoints, &models.VesselState{Speed: tt.speed}, 48*time.Hour)
			if d != tt.wantDistance || h != tt.wantDuration {
				t.Errorf("Totals = (%v, %v), want (%v, %v)", d, h, tt.wantDistance, tt.wantDuration)
			}
		})
	}
}

func TestBuild_OfflineTestMode(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Weather: config.WeatherConfig{TestMode: true, Workers: 2},
		Ports:   config.PortsConfig{Backend: "sqlite", SQLitePath: filepath.Join(dir, "routewatch.db")},
		Zones:   config.ZonesConfig{DBPath: filepath.Join(dir, "routewatch.db"), MaxDistanceMiles: 60},
		Providers: config.ProvidersConfig{
			GeneralWeather: config.ProviderConfig{Timeout: 2},
			MarineWeather:  config.ProviderConfig{Timeout: 2},
		},
	}

	rt, err := Build(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer rt.Close()

	n, err := rt.Ports.Count(context.Background())
	if err != nil || n == 0 {
		t.Fatalf("port count = %d, %v; want seeded built-ins", n, err)
	}
	if _, ok := rt.Checks["sqlite"]; !ok {
		t.Errorf("checks = %v, want sqlite", rt.Checks)
	}

	v := &models.VesselState{Name: "Feeder", Latitude: 51.5, Longitude: 2.5, Course: 60, Speed: 14, DestinationLocode: "NLRTM"}
	a, err := rt.Service.Analyze(context.Background(), v)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.Destination == nil || a.Destination.Locode != "NLRTM" {
		t.Errorf("Destination = %+v, want Rotterdam", a.Destination)
	}
	if a.RouteType != models.RouteTypeGreatCircle {
		t.Errorf("RouteType = %s", a.RouteType)
	}
	if !a.HasWeather() {
		t.Error("test mode should attach synthetic weather")
	}
}
