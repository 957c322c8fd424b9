package noaa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/geo"
	"github.com/ngmaloney/routewatch/internal/models"
	"github.com/ngmaloney/routewatch/internal/weather"
)

const (
	gridpointName = "noaa-gridpoint"

	// periodMatchWindow is how far the nearest hourly period may start
	// from the target when no period contains it.
	periodMatchWindow = 90 * time.Minute
)

var (
	windSpeedRegex = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)(?:\s+to\s+(\d+(?:\.\d+)?))?\s*(mph|kt|knots?|km/h)`)

	compassPoints = map[string]float64{
		"N": 0, "NNE": 22.5, "NE": 45, "ENE": 67.5,
		"E": 90, "ESE": 112.5, "SE": 135, "SSE": 157.5,
		"S": 180, "SSW": 202.5, "SW": 225, "WSW": 247.5,
		"W": 270, "WNW": 292.5, "NW": 315, "NNW": 337.5,
	}
)

type forecastEntry struct {
	periods   []hourlyPeriod
	fetchedAt time.Time
}

// GridpointSource is a general-forecast weather source backed by the NOAA
// hourly gridpoint forecast. It covers US waters only; points outside
// coverage yield no data.
type GridpointSource struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time

	mu        sync.RWMutex
	points    map[string]string // rounded point -> forecastHourly URL
	forecasts map[string]forecastEntry
}

// NewGridpointSource creates a NOAA gridpoint source.
func NewGridpointSource(timeout time.Duration) *GridpointSource {
	return &GridpointSource{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now:       time.Now,
		points:    make(map[string]string),
		forecasts: make(map[string]forecastEntry),
	}
}

func (g *GridpointSource) Name() string       { return gridpointName }
func (g *GridpointSource) Kind() weather.Kind { return weather.KindGeneral }

// Forecast returns the hourly period containing at, or the nearest one
// starting within the match window.
func (g *GridpointSource) Forecast(ctx context.Context, lat, lng float64, at time.Time) (*models.WeatherObservation, error) {
	hourlyURL, err := g.forecastURL(ctx, lat, lng)
	if err != nil {
		return nil, err
	}

	periods, err := g.hourly(ctx, hourlyURL)
	if err != nil {
		return nil, err
	}

	p, ok := selectPeriod(periods, at)
	if !ok {
		return nil, fmt.Errorf("no hourly period near %s: %w", at.UTC().Format(time.RFC3339), weather.ErrNoData)
	}
	return periodObservation(p, lat, lng), nil
}

// forecastURL resolves the point to its hourly forecast endpoint.
func (g *GridpointSource) forecastURL(ctx context.Context, lat, lng float64) (string, error) {
	key := fmt.Sprintf("%.2f,%.2f", lat, lng)

	g.mu.RLock()
	u, ok := g.points[key]
	g.mu.RUnlock()
	if ok {
		return u, nil
	}

	var resp pointResponse
	err := getJSON(ctx, g.httpClient, fmt.Sprintf("%s/points/%.4f,%.4f", g.baseURL, lat, lng), &resp)
	if err != nil {
		var se *apperr.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("point %s outside coverage: %w", key, weather.ErrNoData)
		}
		return "", fmt.Errorf("failed to get grid point: %w", err)
	}
	if resp.Properties.ForecastHourly == "" {
		return "", fmt.Errorf("point %s has no hourly forecast: %w", key, weather.ErrNoData)
	}

	g.mu.Lock()
	g.points[key] = resp.Properties.ForecastHourly
	g.mu.Unlock()
	return resp.Properties.ForecastHourly, nil
}

// hourly fetches the forecast periods for a grid, caching them per URL.
func (g *GridpointSource) hourly(ctx context.Context, hourlyURL string) ([]hourlyPeriod, error) {
	g.mu.RLock()
	entry, ok := g.forecasts[hourlyURL]
	g.mu.RUnlock()
	if ok && g.now().Sub(entry.fetchedAt) < cacheDuration {
		return entry.periods, nil
	}

	var resp hourlyResponse
	if err := getJSON(ctx, g.httpClient, hourlyURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch hourly forecast: %w", err)
	}

	g.mu.Lock()
	g.forecasts[hourlyURL] = forecastEntry{periods: resp.Properties.Periods, fetchedAt: g.now()}
	g.mu.Unlock()
	return resp.Properties.Periods, nil
}

func selectPeriod(periods []hourlyPeriod, at time.Time) (hourlyPeriod, bool) {
	var (
		best     hourlyPeriod
		bestDiff time.Duration
		found    bool
	)
	for _, p := range periods {
		start, err := time.Parse(time.RFC3339, p.StartTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, p.EndTime)
		if err == nil && !at.Before(start) && at.Before(end) {
			return p, true
		}
		diff := start.Sub(at)
		if diff < 0 {
			diff = -diff
		}
		if !found || diff < bestDiff {
			best, bestDiff, found = p, diff, true
		}
	}
	if !found || bestDiff > periodMatchWindow {
		return hourlyPeriod{}, false
	}
	return best, true
}

func periodObservation(p hourlyPeriod, lat, lng float64) *models.WeatherObservation {
	raw, _ := json.Marshal(p)
	start, _ := time.Parse(time.RFC3339, p.StartTime)

	obs := &models.WeatherObservation{
		Latitude:   lat,
		Longitude:  lng,
		Time:       start.UTC(),
		Conditions: p.ShortForecast,
		Source:     models.SourceNOAAGridpoint,
		Raw:        raw,
	}

	if speed, ok := ParseWindSpeed(p.WindSpeed); ok {
		obs.WindSpeed = speed
	}
	if dir, ok := CompassDegrees(p.WindDirection); ok {
		obs.WindDirection = dir
	} else {
		obs.DirectionUnknown = true
	}

	temp := p.Temperature
	if strings.EqualFold(p.TemperatureUnit, "F") {
		temp = (temp - 32) * 5 / 9
	}
	obs.Temperature = models.Float(temp)

	if p.RelativeHumidity.Value != nil {
		obs.Humidity = models.Float(*p.RelativeHumidity.Value)
	}
	return obs
}

// ParseWindSpeed reads NOAA wind strings such as "10 mph" or
// "10 to 15 kt" and returns the upper bound in knots.
func ParseWindSpeed(s string) (float64, bool) {
	match := windSpeedRegex.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}
	speed, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	if match[2] != "" {
		if hi, err := strconv.ParseFloat(match[2], 64); err == nil {
			speed = hi
		}
	}

	switch strings.ToLower(match[3]) {
	case "mph":
		speed *= geo.MPHToKnots
	case "km/h":
		speed *= geo.KPHToKnots
	}
	return speed, true
}

// CompassDegrees converts a 16-point compass direction to degrees.
func CompassDegrees(s string) (float64, bool) {
	deg, ok := compassPoints[strings.ToUpper(strings.TrimSpace(s))]
	return deg, ok
}

// Internal types for NOAA API responses

type pointResponse struct {
	Properties struct {
		GridID         string `json:"gridId"`
		GridX          int    `json:"gridX"`
		GridY          int    `json:"gridY"`
		ForecastHourly string `json:"forecastHourly"`
	} `json:"properties"`
}

type quantity struct {
	UnitCode string   `json:"unitCode,omitempty"`
	Value    *float64 `json:"value"`
}

type hourlyPeriod struct {
	StartTime                  string   `json:"startTime"`
	EndTime                    string   `json:"endTime"`
	Temperature                float64  `json:"temperature"`
	TemperatureUnit            string   `json:"temperatureUnit"`
	WindSpeed                  string   `json:"windSpeed"`
	WindDirection              string   `json:"windDirection"`
	ShortForecast              string   `json:"shortForecast"`
	ProbabilityOfPrecipitation quantity `json:"probabilityOfPrecipitation"`
	RelativeHumidity           quantity `json:"relativeHumidity"`
}

type hourlyResponse struct {
	Properties struct {
		Periods []hourlyPeriod `json:"periods"`
	} `json:"properties"`
}
