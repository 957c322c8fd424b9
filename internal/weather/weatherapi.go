package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/cache"
	"github.com/ngmaloney/routewatch/internal/config"
	"github.com/ngmaloney/routewatch/internal/geo"
	"github.com/ngmaloney/routewatch/internal/models"
)

const (
	weatherAPIName = "weatherapi"

	// weatherAPIMaxDays is the forecast.json horizon.
	weatherAPIMaxDays = 10

	// hourMatchWindow is how far the nearest hourly slot may be from the
	// target before the daily aggregate is used instead.
	hourMatchWindow = 90 * time.Minute

	// defaultResponseTTL bounds reuse of a decoded forecast.json response.
	defaultResponseTTL = 30 * time.Minute
)

// WeatherAPI is a general-forecast source backed by weatherapi.com. One
// forecast.json response covers every slot at a position, so decoded
// responses are cached per rounded position and slots are picked from the
// cached copy.
type WeatherAPI struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time

	responses   cache.Store
	responseTTL time.Duration
	inflight    singleflight.Group
}

// NewWeatherAPI creates a WeatherAPI source with an in-process response
// cache.
func NewWeatherAPI(cfg config.ProviderConfig) *WeatherAPI {
	return &WeatherAPI{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
		now:         time.Now,
		responses:   cache.NewMemory(),
		responseTTL: defaultResponseTTL,
	}
}

// WithResponseCache shares decoded responses through store.
func (w *WeatherAPI) WithResponseCache(store cache.Store, ttl time.Duration) *WeatherAPI {
	if store != nil {
		w.responses = store
	}
	if ttl > 0 {
		w.responseTTL = ttl
	}
	return w
}

func (w *WeatherAPI) Name() string { return weatherAPIName }
func (w *WeatherAPI) Kind() Kind   { return KindGeneral }

type waCondition struct {
	Text string `json:"text"`
}

type waHour struct {
	TimeEpoch  int64       `json:"time_epoch"`
	Time       string      `json:"time"`
	TempC      float64     `json:"temp_c"`
	WindKPH    float64     `json:"wind_kph"`
	WindDegree float64     `json:"wind_degree"`
	GustKPH    *float64    `json:"gust_kph"`
	PressureMB *float64    `json:"pressure_mb"`
	PrecipMM   *float64    `json:"precip_mm"`
	Humidity   *float64    `json:"humidity"`
	VisKM      *float64    `json:"vis_km"`
	Condition  waCondition `json:"condition"`
}

type waDay struct {
	MaxTempC      float64     `json:"maxtemp_c"`
	AvgTempC      *float64    `json:"avgtemp_c"`
	MaxWindKPH    float64     `json:"maxwind_kph"`
	TotalPrecipMM *float64    `json:"totalprecip_mm"`
	AvgVisKM      *float64    `json:"avgvis_km"`
	AvgHumidity   *float64    `json:"avghumidity"`
	Condition     waCondition `json:"condition"`
}

type waForecastDay struct {
	Date string          `json:"date"`
	Day  waDay           `json:"day"`
	Hour json.RawMessage `json:"hour"`
}

type waResponse struct {
	Forecast struct {
		ForecastDay []waForecastDay `json:"forecastday"`
	} `json:"forecast"`
}

// Forecast returns the hourly slot nearest to at, or the daily aggregate
// for that date when no hourly slot is close enough.
func (w *WeatherAPI) Forecast(ctx context.Context, lat, lng float64, at time.Time) (*models.WeatherObservation, error) {
	if w.apiKey == "" {
		return nil, apperr.Configuration(weatherAPIName, "no API key configured")
	}

	daysAhead := int(math.Ceil(at.Sub(w.now()).Hours() / 24))
	if daysAhead > weatherAPIMaxDays {
		return nil, fmt.Errorf("%d days ahead exceeds %d-day horizon: %w", daysAhead, weatherAPIMaxDays, ErrNoData)
	}
	days, err := w.forecastDays(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	return selectWeatherAPISlot(days, lat, lng, at)
}

func responseKey(lat, lng float64, days int) string {
	return fmt.Sprintf("weatherapi:forecast:%.2f:%.2f:%d", lat, lng, days)
}

// forecastDays returns the full-horizon forecast for a position, from the
// response cache when present. Concurrent misses for the same key share one
// request.
func (w *WeatherAPI) forecastDays(ctx context.Context, lat, lng float64) ([]waForecastDay, error) {
	key := responseKey(lat, lng, weatherAPIMaxDays)
	if days, ok := w.cachedDays(ctx, key); ok {
		return days, nil
	}

	v, err, _ := w.inflight.Do(key, func() (any, error) {
		// A call that finished between the miss above and Do has filled it.
		if days, ok := w.cachedDays(ctx, key); ok {
			return days, nil
		}
		days, err := w.fetch(ctx, lat, lng, weatherAPIMaxDays)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(days); err == nil {
			_ = w.responses.Set(ctx, key, b, w.responseTTL)
		}
		return days, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]waForecastDay), nil
}

func (w *WeatherAPI) cachedDays(ctx context.Context, key string) ([]waForecastDay, bool) {
	b, ok, err := w.responses.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var days []waForecastDay
	if json.Unmarshal(b, &days) != nil {
		return nil, false
	}
	return days, true
}

func (w *WeatherAPI) fetch(ctx context.Context, lat, lng float64, days int) ([]waForecastDay, error) {
	q := url.Values{}
	q.Set("key", w.apiKey)
	q.Set("q", fmt.Sprintf("%.4f,%.4f", lat, lng))
	q.Set("days", fmt.Sprintf("%d", days))
	reqURL := w.baseURL + "/v1/forecast.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &apperr.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var data waResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return data.Forecast.ForecastDay, nil
}

func selectWeatherAPISlot(days []waForecastDay, lat, lng float64, at time.Time) (*models.WeatherObservation, error) {
	var (
		best     *waHour
		bestRaw  json.RawMessage
		bestDiff time.Duration
	)
	for _, day := range days {
		var raws []json.RawMessage
		if len(day.Hour) == 0 || json.Unmarshal(day.Hour, &raws) != nil {
			continue
		}
		for _, raw := range raws {
			var h waHour
			if err := json.Unmarshal(raw, &h); err != nil || h.TimeEpoch == 0 {
				continue
			}
			diff := absDuration(time.Unix(h.TimeEpoch, 0).Sub(at))
			if best == nil || diff < bestDiff {
				hh := h
				best, bestRaw, bestDiff = &hh, raw, diff
			}
		}
	}

	if best != nil && bestDiff <= hourMatchWindow {
		return hourObservation(best, bestRaw, lat, lng), nil
	}

	date := at.UTC().Format("2006-01-02")
	for _, day := range days {
		if day.Date == date {
			return dayObservation(day, lat, lng, at), nil
		}
	}
	return nil, fmt.Errorf("no slot for %s: %w", at.UTC().Format(time.RFC3339), ErrNoData)
}

func hourObservation(h *waHour, raw json.RawMessage, lat, lng float64) *models.WeatherObservation {
	obs := &models.WeatherObservation{
		Latitude:      lat,
		Longitude:     lng,
		Time:          time.Unix(h.TimeEpoch, 0).UTC(),
		WindSpeed:     h.WindKPH * geo.KPHToKnots,
		WindDirection: h.WindDegree,
		Visibility:    h.VisKM,
		Precipitation: h.PrecipMM,
		Temperature:   models.Float(h.TempC),
		Pressure:      h.PressureMB,
		Humidity:      h.Humidity,
		Conditions:    h.Condition.Text,
		Source:        models.SourceWeatherAPIHourly,
		Raw:           raw,
	}
	if h.GustKPH != nil {
		obs.WindGust = models.Float(*h.GustKPH * geo.KPHToKnots)
	}
	return obs
}

// dayObservation builds an aggregate for the whole date. Wind is the day's
// maximum and precipitation the daily total spread over 24 hours.
func dayObservation(day waForecastDay, lat, lng float64, at time.Time) *models.WeatherObservation {
	raw, _ := json.Marshal(day.Day)
	obs := &models.WeatherObservation{
		Latitude:         lat,
		Longitude:        lng,
		Time:             at.UTC(),
		WindSpeed:        day.Day.MaxWindKPH * geo.KPHToKnots,
		DirectionUnknown: true,
		Visibility:       day.Day.AvgVisKM,
		Humidity:         day.Day.AvgHumidity,
		Conditions:       day.Day.Condition.Text,
		Source:           models.SourceWeatherAPIDaily,
		Raw:              raw,
	}
	if day.Day.AvgTempC != nil {
		obs.Temperature = day.Day.AvgTempC
	} else {
		obs.Temperature = models.Float(day.Day.MaxTempC)
	}
	if day.Day.TotalPrecipMM != nil {
		obs.Precipitation = models.Float(*day.Day.TotalPrecipMM / 24)
	}
	return obs
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
