package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/config"
	"github.com/ngmaloney/routewatch/internal/geo"
	"github.com/ngmaloney/routewatch/internal/models"
)

const stormGlassName = "stormglass"

// stormGlassWindow is the half-width of the queried time range.
const stormGlassWindow = 3 * time.Hour

var stormGlassParams = []string{
	"windSpeed", "windDirection", "gust",
	"waveHeight", "waveDirection", "wavePeriod",
	"swellHeight", "swellDirection", "swellPeriod",
	"visibility", "precipitation", "airTemperature",
	"pressure", "humidity",
}

// StormGlass is a marine source backed by the stormglass.io point API.
type StormGlass struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewStormGlass creates a StormGlass source.
func NewStormGlass(cfg config.ProviderConfig) *StormGlass {
	return &StormGlass{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
	}
}

func (s *StormGlass) Name() string { return stormGlassName }
func (s *StormGlass) Kind() Kind   { return KindMarine }

// sgValue holds one parameter keyed by model name. "sg" is StormGlass's own
// blend and is preferred.
type sgValue map[string]float64

var sgModels = []string{"sg", "noaa", "icon", "dwd", "meteo", "meto"}

func (v sgValue) value() (float64, bool) {
	for _, m := range sgModels {
		if x, ok := v[m]; ok {
			return x, true
		}
	}
	return 0, false
}

func (v sgValue) ptr() *float64 {
	if x, ok := v.value(); ok {
		return models.Float(x)
	}
	return nil
}

type sgHour struct {
	Time           string  `json:"time"`
	WindSpeed      sgValue `json:"windSpeed"`
	WindDirection  sgValue `json:"windDirection"`
	Gust           sgValue `json:"gust"`
	WaveHeight     sgValue `json:"waveHeight"`
	SwellHeight    sgValue `json:"swellHeight"`
	SwellPeriod    sgValue `json:"swellPeriod"`
	SwellDirection sgValue `json:"swellDirection"`
	Visibility     sgValue `json:"visibility"`
	Precipitation  sgValue `json:"precipitation"`
	AirTemperature sgValue `json:"airTemperature"`
	Pressure       sgValue `json:"pressure"`
	Humidity       sgValue `json:"humidity"`
}

type sgResponse struct {
	Hours  []json.RawMessage `json:"hours"`
	Errors map[string]string `json:"errors"`
}

// Forecast returns the hour closest to at within a six hour window.
func (s *StormGlass) Forecast(ctx context.Context, lat, lng float64, at time.Time) (*models.WeatherObservation, error) {
	if s.apiKey == "" {
		return nil, apperr.Configuration(stormGlassName, "no API key configured")
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", lat))
	q.Set("lng", fmt.Sprintf("%.4f", lng))
	q.Set("params", strings.Join(stormGlassParams, ","))
	q.Set("start", fmt.Sprintf("%d", at.Add(-stormGlassWindow).Unix()))
	q.Set("end", fmt.Sprintf("%d", at.Add(stormGlassWindow).Unix()))
	reqURL := s.baseURL + "/v2/weather/point?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &apperr.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var data sgResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var (
		best     *sgHour
		bestRaw  json.RawMessage
		bestTime time.Time
	)
	for _, raw := range data.Hours {
		var h sgHour
		if err := json.Unmarshal(raw, &h); err != nil {
			continue
		}
		t, err := time.Parse(time.RFC3339, h.Time)
		if err != nil {
			continue
		}
		if best == nil || absDuration(t.Sub(at)) < absDuration(bestTime.Sub(at)) {
			hh := h
			best, bestRaw, bestTime = &hh, raw, t
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no hours returned: %w", ErrNoData)
	}

	obs := &models.WeatherObservation{
		Latitude:       lat,
		Longitude:      lng,
		Time:           bestTime,
		WaveHeight:     best.WaveHeight.ptr(),
		SwellHeight:    best.SwellHeight.ptr(),
		SwellPeriod:    best.SwellPeriod.ptr(),
		SwellDirection: best.SwellDirection.ptr(),
		Visibility:     best.Visibility.ptr(),
		Precipitation:  best.Precipitation.ptr(),
		Temperature:    best.AirTemperature.ptr(),
		Pressure:       best.Pressure.ptr(),
		Humidity:       best.Humidity.ptr(),
		Source:         models.SourceStormGlass,
		Raw:            bestRaw,
	}
	if ws, ok := best.WindSpeed.value(); ok {
		obs.WindSpeed = ws * geo.MPSToKnots
	}
	if wd, ok := best.WindDirection.value(); ok {
		obs.WindDirection = wd
	} else {
		obs.DirectionUnknown = true
	}
	if g, ok := best.Gust.value(); ok {
		obs.WindGust = models.Float(g * geo.MPSToKnots)
	}
	return obs, nil
}
