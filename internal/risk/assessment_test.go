package risk

import (
	"reflect"
	"testing"
	"time"

	"github.com/ngmaloney/routewatch/internal/models"
)

func TestOverallLevel(t *testing.T) {
	tests := []struct {
		severities []int
		want       models.RiskLevel
	}{
		{nil, models.RiskLow},
		{[]int{2}, models.RiskLow},
		{[]int{3}, models.RiskMedium},
		{[]int{2, 6}, models.RiskHigh},
		{[]int{5, 8, 3}, models.RiskSevere},
		{[]int{10}, models.RiskSevere},
	}
	for _, tt := range tests {
		var events []models.RiskEvent
		for _, s := range tt.severities {
			events = append(events, models.RiskEvent{Severity: s})
		}
		if got := OverallLevel(events); got != tt.want {
			t.Errorf("OverallLevel(%v) = %s, want %s", tt.severities, got, tt.want)
		}
	}
}

func TestRecommendations(t *testing.T) {
	t.Run("no events", func(t *testing.T) {
		got := Recommendations(nil, models.RiskLow)
		want := []string{"Current route shows acceptable weather conditions"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("mixed", func(t *testing.T) {
		events := []models.RiskEvent{
			{Category: models.CategoryWind, Level: models.RiskMedium, Severity: 6},
			{Category: models.CategoryWind, Level: models.RiskHigh, Severity: 10, HeadWind: true},
			{Category: models.CategoryWind, Level: models.RiskSevere, Severity: 10},
			{Category: models.CategoryWaves, Level: models.RiskMedium, Severity: 6},
		}
		got := Recommendations(events, OverallLevel(events))
		want := []string{
			"2 high-risk weather event(s) identified along route",
			"Multiple wind events expected - consider speed adjustments",
			"Rough seas forecast - secure all deck equipment",
			"Head winds will impact arrival time - inform port of possible delays",
			"SEVERE weather conditions identified - consider route alteration or delay",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v\nwant %v", got, want)
		}
	})

	t.Run("medium only", func(t *testing.T) {
		events := []models.RiskEvent{{Category: models.CategoryWeather, Level: models.RiskMedium, Severity: 3}}
		got := Recommendations(events, OverallLevel(events))
		if len(got) != 1 || got[0] != "Moderate weather expected - monitor forecasts along route" {
			t.Errorf("got %v", got)
		}
	})
}

func TestAlternativeActions(t *testing.T) {
	if got := AlternativeActions(models.RiskSevere); len(got) != 5 {
		t.Errorf("severe actions = %v", got)
	}
	if !reflect.DeepEqual(AlternativeActions(models.RiskHigh), AlternativeActions(models.RiskSevere)) {
		t.Error("high and severe share a menu")
	}
	if got := AlternativeActions(models.RiskMedium); len(got) != 4 {
		t.Errorf("medium actions = %v", got)
	}
	if got := AlternativeActions(models.RiskLow); got == nil || len(got) != 0 {
		t.Errorf("low actions = %v, want empty", got)
	}
}

func TestAdvisoryEvents(t *testing.T) {
	wps := []models.Waypoint{
		{Latitude: 41, Longitude: -70, EstimatedTime: t0, MarineZone: "ANZ250"},
		{Latitude: 41.2, Longitude: -69.5, EstimatedTime: t0.Add(6 * time.Hour), MarineZone: "ANZ250"},
		{Latitude: 41.5, Longitude: -69, EstimatedTime: t0.Add(12 * time.Hour), MarineZone: "ANZ254"},
		{Latitude: 42, Longitude: -68, EstimatedTime: t0.Add(18 * time.Hour)},
	}
	alerts := []models.Alert{
		{ID: "gale", Event: "Gale Warning", Headline: "Gale Warning until Thursday", Severity: models.SeveritySevere, Zone: "ANZ250", Onset: t0.Add(-time.Hour), Expires: t0.Add(24 * time.Hour)},
		{ID: "later", Event: "Small Craft Advisory", Severity: models.SeverityMinor, Zone: "anz254", Onset: t0.Add(10 * time.Hour)},
		{ID: "expired", Event: "Storm Warning", Severity: models.SeverityExtreme, Zone: "ANZ250", Onset: t0.Add(-48 * time.Hour), Expires: t0.Add(-24 * time.Hour)},
		{ID: "land", Event: "Flood Watch", Severity: models.SeveritySevere, Zone: "ANZ250", Onset: t0.Add(-time.Hour)},
	}

	events := AdvisoryEvents(alerts, wps)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}

	gale := events[0]
	if gale.WaypointIndex != 0 || gale.Severity != 7 || gale.Level != models.RiskHigh || gale.Category != models.CategoryNavigation {
		t.Errorf("gale event = %+v", gale)
	}
	if gale.Description != "Gale Warning: Gale Warning until Thursday" {
		t.Errorf("Description = %q", gale.Description)
	}

	sca := events[1]
	if sca.WaypointIndex != 2 || sca.Severity != 3 || sca.Level != models.RiskMedium {
		t.Errorf("small craft event = %+v", sca)
	}
}
