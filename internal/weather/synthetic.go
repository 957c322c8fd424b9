package weather

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/ngmaloney/routewatch/internal/models"
)

// Synthetic produces deterministic placeholder observations derived from
// position and time. It is only wired in test mode and every observation
// it returns is tagged synthetic.
type Synthetic struct{}

func (Synthetic) Name() string { return models.SourceSynthetic }

// Kind is general, but synthetic observations also carry marine fields so
// that a test-mode route exercises every risk check.
func (Synthetic) Kind() Kind { return KindGeneral }

func (Synthetic) Forecast(_ context.Context, lat, lng float64, at time.Time) (*models.WeatherObservation, error) {
	hours := float64(at.Unix()) / 3600
	phase := lat*0.37 + lng*0.11 + hours/18

	wind := 12 + 14*math.Abs(math.Sin(phase))
	dir := math.Mod(math.Abs(lng*7+hours*3), 360)
	waves := 0.5 + wind/10
	vis := 4 + 6*math.Abs(math.Cos(phase))
	precip := 3 * math.Abs(math.Sin(phase*1.7))
	temp := 24 - math.Abs(lat)*0.35
	pressure := 1013 - (wind-12)*0.8

	obs := &models.WeatherObservation{
		Latitude:      lat,
		Longitude:     lng,
		Time:          at.UTC(),
		WindSpeed:     round1(wind),
		WindDirection: math.Round(dir),
		WaveHeight:    models.Float(round1(waves)),
		SwellHeight:   models.Float(round1(waves * 0.6)),
		Visibility:    models.Float(round1(vis)),
		Precipitation: models.Float(round1(precip)),
		Temperature:   models.Float(round1(temp)),
		Pressure:      models.Float(round1(pressure)),
		Humidity:      models.Float(70),
		Conditions:    "Synthetic",
		Source:        models.SourceSynthetic,
		Synthetic:     true,
	}
	obs.Raw, _ = json.Marshal(map[string]float64{"phase": phase})
	return obs, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
