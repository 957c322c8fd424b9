package weather

import (
	"context"
	"testing"
	"time"

	"github.com/ngmaloney/routewatch/internal/cache"
	"github.com/ngmaloney/routewatch/internal/logging"
	"github.com/ngmaloney/routewatch/internal/models"
)

func TestCached_ServesRepeatLookups(t *testing.T) {
	src := echoSource(models.SourceStormGlass, KindMarine, func(o *models.WeatherObservation) {
		o.WaveHeight = models.Float(2.2)
	})
	cached := NewCached(src, cache.NewMemory(), time.Hour, logging.Discard())

	if cached.Name() != models.SourceStormGlass || cached.Kind() != KindMarine {
		t.Fatalf("decorator must keep name and kind")
	}

	ctx := context.Background()
	at := time.Date(2024, 10, 16, 12, 10, 0, 0, time.UTC)

	first, err := cached.Forecast(ctx, 50.001, -1.001, at)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	second, err := cached.Forecast(ctx, 50.002, -1.002, at.Add(20*time.Minute))
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	if src.calls.Load() != 1 {
		t.Errorf("source called %d times, want 1", src.calls.Load())
	}
	if second.WaveHeight == nil || *second.WaveHeight != *first.WaveHeight {
		t.Errorf("cached observation = %+v", second)
	}
	if string(second.Raw) != string(first.Raw) {
		t.Errorf("raw payload lost in cache: %s", second.Raw)
	}

	if _, err := cached.Forecast(ctx, 50.001, -1.001, at.Add(2*time.Hour)); err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if src.calls.Load() != 2 {
		t.Errorf("different hour should miss the cache")
	}
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	src := failingSource("weatherapi", KindGeneral)
	cached := NewCached(src, cache.NewMemory(), time.Hour, logging.Discard())

	for i := 0; i < 2; i++ {
		if _, err := cached.Forecast(context.Background(), 1, 1, testNow); err == nil {
			t.Fatal("expected error")
		}
	}
	if src.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", src.calls.Load())
	}
}
