package weather

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ngmaloney/routewatch/internal/config"
	"github.com/ngmaloney/routewatch/internal/models"
)

const stormGlassFixture = `{
  "hours": [
    {"time": "2024-10-16T09:00:00+00:00", "windSpeed": {"sg": 10.0, "noaa": 9.5}, "windDirection": {"sg": 250}, "waveHeight": {"sg": 2.1}, "visibility": {"noaa": 12}},
    {"time": "2024-10-16T12:00:00+00:00", "windSpeed": {"sg": 15.0}, "windDirection": {"sg": 260}, "gust": {"sg": 20}, "waveHeight": {"sg": 3.8}, "swellHeight": {"sg": 2.5}, "swellPeriod": {"sg": 9}, "precipitation": {"sg": 1.2}},
    {"time": "2024-10-16T15:00:00+00:00", "windSpeed": {"sg": 12.0}, "waveHeight": {"sg": 3.1}}
  ],
  "meta": {"cost": 1}
}`

func TestStormGlass_ClosestHour(t *testing.T) {
	at := time.Date(2024, 10, 16, 12, 40, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/weather/point" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "sg-key" {
			t.Errorf("Authorization header = %q", r.Header.Get("Authorization"))
		}
		q := r.URL.Query()
		start, _ := strconv.ParseInt(q.Get("start"), 10, 64)
		end, _ := strconv.ParseInt(q.Get("end"), 10, 64)
		if end-start != int64(6*time.Hour/time.Second) {
			t.Errorf("window = %ds, want 6h", end-start)
		}
		w.Write([]byte(stormGlassFixture))
	}))
	defer server.Close()

	src := NewStormGlass(config.ProviderConfig{APIKey: "sg-key", BaseURL: server.URL, Timeout: 2})
	obs, err := src.Forecast(context.Background(), 50, -1, at)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	if obs.Source != models.SourceStormGlass {
		t.Errorf("Source = %s", obs.Source)
	}
	if !obs.Time.Equal(time.Date(2024, 10, 16, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Time = %v", obs.Time)
	}
	if math.Abs(obs.WindSpeed-29.16) > 0.05 {
		t.Errorf("WindSpeed = %.2f kn, want 29.16 (15 m/s)", obs.WindSpeed)
	}
	if obs.WaveHeight == nil || *obs.WaveHeight != 3.8 {
		t.Errorf("WaveHeight = %v", obs.WaveHeight)
	}
	if obs.SwellPeriod == nil || *obs.SwellPeriod != 9 {
		t.Errorf("SwellPeriod = %v", obs.SwellPeriod)
	}
	if obs.Visibility != nil {
		t.Error("visibility was absent in the matched hour")
	}
	if obs.Latitude != 50 || obs.Longitude != -1 {
		t.Errorf("position = (%v,%v)", obs.Latitude, obs.Longitude)
	}
}

func TestStormGlass_FallbackModelAndMissingDirection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(stormGlassFixture))
	}))
	defer server.Close()

	src := NewStormGlass(config.ProviderConfig{APIKey: "k", BaseURL: server.URL, Timeout: 2})

	obs, err := src.Forecast(context.Background(), 50, -1, time.Date(2024, 10, 16, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if obs.Visibility == nil || *obs.Visibility != 12 {
		t.Errorf("Visibility = %v, want noaa model value", obs.Visibility)
	}

	obs, err = src.Forecast(context.Background(), 50, -1, time.Date(2024, 10, 16, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if !obs.DirectionUnknown {
		t.Error("expected DirectionUnknown when windDirection is absent")
	}
}

func TestStormGlass_EmptyHours(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hours": []}`))
	}))
	defer server.Close()

	src := NewStormGlass(config.ProviderConfig{APIKey: "k", BaseURL: server.URL, Timeout: 2})
	_, err := src.Forecast(context.Background(), 0, 0, testNow)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}
