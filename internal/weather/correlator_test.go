package weather

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ngmaloney/routewatch/internal/logging"
	"github.com/ngmaloney/routewatch/internal/models"
)

type fakeSource struct {
	name       string
	kind       Kind
	calls      atomic.Int32
	forecastFn func(ctx context.Context, lat, lng float64, at time.Time) (*models.WeatherObservation, error)
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) Kind() Kind   { return f.kind }
func (f *fakeSource) Forecast(ctx context.Context, lat, lng float64, at time.Time) (*models.WeatherObservation, error) {
	f.calls.Add(1)
	return f.forecastFn(ctx, lat, lng, at)
}

func failingSource(name string, kind Kind) *fakeSource {
	return &fakeSource{name: name, kind: kind, forecastFn: func(context.Context, float64, float64, time.Time) (*models.WeatherObservation, error) {
		return nil, errors.New("connection refused")
	}}
}

func echoSource(name string, kind Kind, fill func(*models.WeatherObservation)) *fakeSource {
	return &fakeSource{name: name, kind: kind, forecastFn: func(_ context.Context, lat, lng float64, at time.Time) (*models.WeatherObservation, error) {
		obs := &models.WeatherObservation{Latitude: lat, Longitude: lng, Time: at, Source: name, Raw: []byte(`{"src":"` + name + `"}`)}
		fill(obs)
		return obs, nil
	}}
}

func testRoute(n int) []models.Waypoint {
	wps := make([]models.Waypoint, n)
	for i := range wps {
		wps[i] = models.Waypoint{
			Index:             i,
			Latitude:          50 + float64(i)*0.2,
			Longitude:         -1 + float64(i)*0.5,
			EstimatedTime:     testNow.Add(time.Duration(i) * 6 * time.Hour),
			DistanceFromStart: float64(i) * 90,
		}
	}
	return wps
}

func TestCorrelate_AllProvidersFail(t *testing.T) {
	general := failingSource("weatherapi", KindGeneral)
	marine := failingSource("stormglass", KindMarine)
	c := NewCorrelator(Options{Workers: 3, Logger: logging.Discard()}, general, marine)

	in := testRoute(7)
	out, errs := c.Correlate(context.Background(), in)

	if len(out) != len(in) {
		t.Fatalf("got %d waypoints, want %d", len(out), len(in))
	}
	for i, wp := range out {
		if wp.Index != i || wp.Latitude != in[i].Latitude {
			t.Errorf("waypoint %d out of order", i)
		}
		if wp.Weather != nil {
			t.Errorf("waypoint %d has fabricated weather %+v", i, wp.Weather)
		}
	}
	if len(errs) != 2 {
		t.Fatalf("errs = %v, want one deduplicated entry per provider", errs)
	}
	for _, e := range errs {
		if !strings.Contains(e, "provider unavailable") {
			t.Errorf("error %q not classified as unavailable", e)
		}
	}
	if general.calls.Load() != 7 || marine.calls.Load() != 7 {
		t.Errorf("calls = %d/%d, want one attempt per waypoint per provider", general.calls.Load(), marine.calls.Load())
	}
	for i := range in {
		if in[i].Weather != nil {
			t.Fatal("input waypoints were mutated")
		}
	}
}

func TestCorrelate_MergesGeneralAndMarine(t *testing.T) {
	general := echoSource(models.SourceWeatherAPIHourly, KindGeneral, func(o *models.WeatherObservation) {
		o.WindSpeed = 22
		o.WindDirection = 270
		o.Visibility = models.Float(8)
	})
	marine := echoSource(models.SourceStormGlass, KindMarine, func(o *models.WeatherObservation) {
		o.WindSpeed = 40
		o.WaveHeight = models.Float(3.5)
		o.SwellHeight = models.Float(2)
		o.Visibility = models.Float(1)
		o.Pressure = models.Float(999)
	})

	c := NewCorrelator(Options{Logger: logging.Discard()}, marine, general)
	out, errs := c.Correlate(context.Background(), testRoute(2))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	obs := out[1].Weather
	if obs == nil {
		t.Fatal("expected merged observation")
	}
	if obs.WindSpeed != 22 {
		t.Errorf("WindSpeed = %v, want general 22", obs.WindSpeed)
	}
	if obs.Visibility == nil || *obs.Visibility != 8 {
		t.Errorf("Visibility = %v, want general 8", obs.Visibility)
	}
	if obs.WaveHeight == nil || *obs.WaveHeight != 3.5 {
		t.Errorf("WaveHeight = %v, want marine 3.5", obs.WaveHeight)
	}
	if obs.Pressure == nil || *obs.Pressure != 999 {
		t.Errorf("Pressure = %v, want gap filled from marine", obs.Pressure)
	}
	if obs.Source != "weatherapi-hourly+stormglass" {
		t.Errorf("Source = %s", obs.Source)
	}
	if len(obs.Enrichment) != 1 || obs.Enrichment[0].Source != models.SourceStormGlass {
		t.Errorf("Enrichment = %+v", obs.Enrichment)
	}
	if string(obs.Raw) != `{"src":"weatherapi-hourly"}` {
		t.Errorf("primary raw payload overwritten: %s", obs.Raw)
	}
}

func TestCorrelate_FallbackWithinKind(t *testing.T) {
	first := failingSource("weatherapi", KindGeneral)
	second := echoSource(models.SourceNOAAGridpoint, KindGeneral, func(o *models.WeatherObservation) { o.WindSpeed = 12 })

	c := NewCorrelator(Options{Logger: logging.Discard()}, first, second)
	out, errs := c.Correlate(context.Background(), testRoute(3))

	for i, wp := range out {
		if wp.Weather == nil || wp.Weather.Source != models.SourceNOAAGridpoint {
			t.Errorf("waypoint %d weather = %+v, want gridpoint fallback", i, wp.Weather)
		}
	}
	if len(errs) != 1 || !strings.HasPrefix(errs[0], "weatherapi:") {
		t.Errorf("errs = %v", errs)
	}
}

func TestCorrelate_DiscardsOutsideTolerance(t *testing.T) {
	tests := []struct {
		name  string
		shift func(o *models.WeatherObservation)
	}{
		{"too far north", func(o *models.WeatherObservation) { o.Latitude += 0.2 }},
		{"too far east", func(o *models.WeatherObservation) { o.Longitude += 0.15 }},
		{"too late", func(o *models.WeatherObservation) { o.Time = o.Time.Add(7 * time.Hour) }},
		{"too early", func(o *models.WeatherObservation) { o.Time = o.Time.Add(-6*time.Hour - time.Minute) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := echoSource("weatherapi", KindGeneral, tt.shift)
			c := NewCorrelator(Options{Logger: logging.Discard()}, src)
			out, errs := c.Correlate(context.Background(), testRoute(1))
			if out[0].Weather != nil {
				t.Error("observation outside tolerance should be discarded")
			}
			if len(errs) != 1 || !strings.Contains(errs[0], "no data available") {
				t.Errorf("errs = %v", errs)
			}
		})
	}

	t.Run("within tolerance", func(t *testing.T) {
		src := echoSource("weatherapi", KindGeneral, func(o *models.WeatherObservation) {
			o.Latitude += 0.09
			o.Time = o.Time.Add(5 * time.Hour)
		})
		c := NewCorrelator(Options{Logger: logging.Discard()}, src)
		out, _ := c.Correlate(context.Background(), testRoute(1))
		if out[0].Weather == nil {
			t.Error("observation within tolerance should be kept")
		}
	})
}

func TestCorrelate_ProviderTimeout(t *testing.T) {
	slow := &fakeSource{name: "slow", kind: KindGeneral, forecastFn: func(ctx context.Context, _, _ float64, _ time.Time) (*models.WeatherObservation, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c := NewCorrelator(Options{ProviderTimeout: 20 * time.Millisecond, Logger: logging.Discard()}, slow)

	start := time.Now()
	out, errs := c.Correlate(context.Background(), testRoute(4))
	if time.Since(start) > 2*time.Second {
		t.Fatal("provider timeout not enforced")
	}
	for _, wp := range out {
		if wp.Weather != nil {
			t.Error("timed out provider produced weather")
		}
	}
	if len(errs) != 1 || !strings.Contains(errs[0], "deadline exceeded") {
		t.Errorf("errs = %v", errs)
	}
}

func TestCorrelate_SyntheticIsolated(t *testing.T) {
	live := echoSource("weatherapi", KindGeneral, func(o *models.WeatherObservation) {})
	c := NewCorrelator(Options{Logger: logging.Discard()}, live, Synthetic{})

	if got := c.Sources(); len(got) != 1 || got[0] != models.SourceSynthetic {
		t.Fatalf("Sources() = %v, want synthetic only", got)
	}

	out, errs := c.Correlate(context.Background(), testRoute(5))
	if len(errs) != 0 {
		t.Errorf("errs = %v", errs)
	}
	if live.calls.Load() != 0 {
		t.Error("real provider called in test mode")
	}
	for i, wp := range out {
		if wp.Weather == nil || !wp.Weather.Synthetic || wp.Weather.Source != models.SourceSynthetic {
			t.Errorf("waypoint %d weather = %+v, want synthetic", i, wp.Weather)
		}
	}
}

func TestSynthetic_Deterministic(t *testing.T) {
	at := time.Date(2024, 10, 16, 12, 0, 0, 0, time.UTC)
	a, _ := Synthetic{}.Forecast(context.Background(), 45, -30, at)
	b, _ := Synthetic{}.Forecast(context.Background(), 45, -30, at)
	if a.WindSpeed != b.WindSpeed || *a.WaveHeight != *b.WaveHeight {
		t.Error("synthetic observations differ for identical input")
	}
	if a.WindSpeed < 0 || *a.Visibility <= 0 {
		t.Errorf("implausible synthetic values: %+v", a)
	}
}

func TestMerge_Nil(t *testing.T) {
	if Merge(nil, nil) != nil {
		t.Error("Merge(nil, nil) should be nil")
	}
	m := &models.WeatherObservation{Source: models.SourceStormGlass}
	if Merge(nil, m) != m {
		t.Error("marine-only merge should return the marine observation")
	}
}
