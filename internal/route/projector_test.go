package route

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/config"
	"github.com/ngmaloney/routewatch/internal/logging"
	"github.com/ngmaloney/routewatch/internal/models"
)

type fakeResolver struct {
	resolveFn func(ctx context.Context, query string) (*models.Port, error)
}

func (f *fakeResolver) Resolve(ctx context.Context, query string) (*models.Port, error) {
	return f.resolveFn(ctx, query)
}

func portResolver(p *models.Port) *fakeResolver {
	return &fakeResolver{resolveFn: func(context.Context, string) (*models.Port, error) { return p, nil }}
}

const maritimeOK = `{
  "success": true,
  "route": {
    "waypoints": [
      {"lat": 50.0, "lng": -1.0, "estimated_time": "2024-10-01T12:00:00", "distance_from_start": 0},
      {"lat": 50.4, "lng": 0.5, "estimated_time": "2024-10-01T16:00:00.500000", "distance_from_start": 62.1},
      {"lat": 51.0, "lng": 2.0, "estimated_time": "2024-10-01T21:10:00", "distance_from_start": 137.6}
    ],
    "total_distance_nm": 137.6
  }
}`

func newMaritime(url string) *MaritimeService {
	return NewMaritimeService(config.ProviderConfig{BaseURL: url, Timeout: 2})
}

func TestProjector_MaritimeSuccess(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/route" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		b := new(bytes.Buffer)
		_, _ = b.ReadFrom(r.Body)
		gotBody = b.String()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(maritimeOK))
	}))
	defer server.Close()

	p := NewProjector(portResolver(&models.Port{Name: "Dest", Latitude: 51, Longitude: 2}), logging.Discard(), newMaritime(server.URL))
	v := &models.VesselState{Name: "Test", Latitude: 50, Longitude: -1, Course: 90, Speed: 15, Destination: "DEST"}

	proj, err := p.Project(context.Background(), v, testNow)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if proj.RouteType != models.RouteTypeMaritime {
		t.Errorf("RouteType = %s, want maritime", proj.RouteType)
	}
	if len(proj.Waypoints) != 3 {
		t.Fatalf("got %d waypoints, want 3", len(proj.Waypoints))
	}
	if proj.Waypoints[2].DistanceFromStart != 137.6 {
		t.Errorf("distance = %v, want verbatim 137.6", proj.Waypoints[2].DistanceFromStart)
	}
	if len(proj.Notes) != 0 {
		t.Errorf("unexpected notes: %v", proj.Notes)
	}
	if !strings.Contains(gotBody, `"end_lat":51`) || !strings.Contains(gotBody, `"speed":15`) {
		t.Errorf("request body missing fields: %s", gotBody)
	}
}

func TestProjector_MaritimeFallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"unsuccessful", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": false, "error": "No valid route found"}`))
		}},
		{"malformed", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": tru`))
		}},
		{"empty waypoints", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": true, "route": {"waypoints": []}}`))
		}},
		{"time goes backwards", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": true, "route": {"waypoints": [
				{"lat": 50, "lng": -1, "estimated_time": "2024-10-01T12:00:00Z", "distance_from_start": 0},
				{"lat": 51, "lng": 2, "estimated_time": "2024-10-01T06:00:00Z", "distance_from_start": 130}
			]}}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			p := NewProjector(portResolver(&models.Port{Latitude: 51, Longitude: 2}), logging.Discard(), newMaritime(server.URL))
			v := &models.VesselState{Latitude: 50, Longitude: -1, Course: 90, Speed: 15, Destination: "X"}

			proj, err := p.Project(context.Background(), v, testNow)
			if err != nil {
				t.Fatalf("Project must not fail on routing errors: %v", err)
			}
			if proj.RouteType != models.RouteTypeGreatCircle {
				t.Errorf("RouteType = %s, want great-circle", proj.RouteType)
			}
			if len(proj.Notes) != 1 || !strings.HasPrefix(proj.Notes[0], "maritime-routing: provider unavailable") {
				t.Errorf("notes = %v", proj.Notes)
			}
			last := proj.Waypoints[len(proj.Waypoints)-1]
			if last.Latitude != 51 || last.Longitude != 2 {
				t.Errorf("fallback route should end at destination, got (%v,%v)", last.Latitude, last.Longitude)
			}
		})
	}
}

func TestProjector_MaritimeNotApplicable(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	p := NewProjector(nil, logging.Discard(), newMaritime(server.URL))
	v := &models.VesselState{Latitude: 50, Longitude: -1, Course: 90, Speed: 15}

	proj, err := p.Project(context.Background(), v, testNow)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if called {
		t.Error("routing service called without a destination")
	}
	if len(proj.Notes) != 0 {
		t.Errorf("skipped strategy should not add notes: %v", proj.Notes)
	}
}

func TestProjector_UnresolvedDestination(t *testing.T) {
	r := &fakeResolver{resolveFn: func(context.Context, string) (*models.Port, error) {
		return nil, apperr.ErrNotFound
	}}
	p := NewProjector(r, logging.Discard())
	v := &models.VesselState{Latitude: 10, Longitude: 10, Course: 180, Speed: 12, Destination: "NOWHERE", ETA: "gibberish"}

	proj, err := p.Project(context.Background(), v, testNow)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if proj.Destination != nil {
		t.Error("destination should be nil")
	}
	if proj.Horizon != MaxHorizon {
		t.Errorf("Horizon = %v, want default", proj.Horizon)
	}
	if len(proj.Notes) != 2 {
		t.Errorf("notes = %v, want ETA and destination notes", proj.Notes)
	}
	// course projection over 240h at 6h steps
	if len(proj.Waypoints) != 41 {
		t.Errorf("got %d waypoints, want 41", len(proj.Waypoints))
	}
	assertMonotonic(t, proj.Waypoints)
}

func TestProjector_ETALimitsHorizon(t *testing.T) {
	p := NewProjector(nil, logging.Discard())
	v := &models.VesselState{Latitude: 10, Longitude: 10, Speed: 0, ETA: testNow.Add(30 * time.Hour).Format(time.RFC3339)}

	proj, err := p.Project(context.Background(), v, testNow)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if proj.Horizon != 48*time.Hour {
		t.Errorf("Horizon = %v, want 48h", proj.Horizon)
	}
	if len(proj.Waypoints) != 9 {
		t.Errorf("got %d waypoints, want 9", len(proj.Waypoints))
	}
}

func TestProjector_InvalidPosition(t *testing.T) {
	p := NewProjector(nil, logging.Discard())
	v := &models.VesselState{Name: "Ghost", PositionUnknown: true}

	if _, err := p.Project(context.Background(), v, testNow); err == nil {
		t.Fatal("expected error for vessel without position")
	}
}

func TestNewProjector_AppendsGreatCircle(t *testing.T) {
	p := NewProjector(nil, nil, newMaritime("http://example.invalid"))
	got := p.Strategies()
	if len(got) != 2 || got[0] != "maritime-routing" || got[1] != "great-circle" {
		t.Errorf("Strategies() = %v", got)
	}
}
