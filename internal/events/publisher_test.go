package events

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ngmaloney/routewatch/internal/models"
)

func TestVesselID(t *testing.T) {
	tests := []struct {
		name string
		v    models.VesselState
		want string
	}{
		{"imo first", models.VesselState{IMO: "9811000", MMSI: "353136000", Name: "EVER GIVEN"}, "9811000"},
		{"mmsi", models.VesselState{MMSI: "353136000"}, "353136000"},
		{"name sanitized", models.VesselState{Name: "Sea Breeze. II"}, "sea_breeze_ii"},
		{"nothing", models.VesselState{}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VesselID(&tt.v); got != tt.want {
				t.Errorf("VesselID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubjects(t *testing.T) {
	tests := []struct {
		level models.RiskLevel
		want  []string
	}{
		{models.RiskLow, []string{"routewatch.analysis.9811000"}},
		{models.RiskMedium, []string{"routewatch.analysis.9811000"}},
		{models.RiskHigh, []string{"routewatch.analysis.9811000", "routewatch.alert.high.9811000"}},
		{models.RiskSevere, []string{"routewatch.analysis.9811000", "routewatch.alert.severe.9811000"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			a := &models.RouteAnalysis{Vessel: models.VesselState{IMO: "9811000"}, OverallRisk: tt.level}
			if got := Subjects(a); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Subjects() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewAnalysisEvent(t *testing.T) {
	a := &models.RouteAnalysis{
		Vessel:      models.VesselState{Name: "EVER GIVEN", MMSI: "353136000"},
		OverallRisk: models.RiskHigh,
		RiskEvents:  []models.RiskEvent{{Category: models.CategoryWind}, {Category: models.CategoryWaves}},
		RouteType:   models.RouteTypeGreatCircle,
		Routing:     &models.RoutingPlan{Strategy: models.StrategyWeatherAvoidance},
		Errors:      []string{"stormglass: provider unavailable"},
	}

	ev := NewAnalysisEvent(a)
	if ev.VesselID != "353136000" || ev.RiskEvents != 2 || ev.Strategy != models.StrategyWeatherAvoidance {
		t.Errorf("event = %+v", ev)
	}

	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"vessel_id", "overall_risk", "route_type", "analysis", "errors"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("encoded event missing %q", key)
		}
	}
}
