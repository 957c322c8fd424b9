// Package geocoding resolves free-text place names through Nominatim.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/config"
	"github.com/ngmaloney/routewatch/internal/metrics"
)

const (
	providerName = "nominatim"
	userAgent    = "RouteWatch/1.0 (github.com/ngmaloney/routewatch)" // Required by Nominatim ToS
)

// Geocoder converts place names to coordinates
type Geocoder struct {
	baseURL    string
	httpClient *http.Client

	// minInterval spaces requests; Nominatim allows one per second.
	minInterval time.Duration
	lastCall    time.Time
	mu          sync.Mutex
}

// Location represents a geocoded location
type Location struct {
	Latitude    float64
	Longitude   float64
	Name        string
	CountryCode string
}

// NewGeocoder creates a new geocoder
func NewGeocoder(cfg config.ProviderConfig) *Geocoder {
	return &Geocoder{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
		minInterval: time.Second,
	}
}

// nominatimResponse represents the Nominatim API response
type nominatimResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Address     struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Geocode converts a place name to coordinates. Harbour results are
// preferred over other matches.
func (g *Geocoder) Geocode(ctx context.Context, query string) (*Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Unresolvable("destination", errors.New("query cannot be empty"))
	}

	params := url.Values{}
	params.Add("format", "jsonv2")
	params.Add("limit", "5")
	params.Add("addressdetails", "1")
	params.Add("q", query)
	reqURL := fmt.Sprintf("%s/search?%s", g.baseURL, params.Encode())

	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Set required User-Agent header (Nominatim ToS requirement)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		metrics.ObserveProvider(providerName, metrics.OutcomeUnavailable, started)
		return nil, apperr.Unavailable(providerName, fmt.Errorf("executing request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ObserveProvider(providerName, metrics.OutcomeUnavailable, started)
		return nil, apperr.Unavailable(providerName, &apperr.StatusError{StatusCode: resp.StatusCode})
	}

	var results []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		metrics.ObserveProvider(providerName, metrics.OutcomeError, started)
		return nil, apperr.Unavailable(providerName, fmt.Errorf("decoding response: %w", err))
	}

	if len(results) == 0 {
		metrics.ObserveProvider(providerName, metrics.OutcomeNoData, started)
		return nil, fmt.Errorf("no results found for '%s': %w", query, apperr.ErrNotFound)
	}
	metrics.ObserveProvider(providerName, metrics.OutcomeOK, started)

	result := results[0]
	for _, r := range results {
		if isHarbour(r) {
			result = r
			break
		}
	}

	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude: %w", err)
	}

	return &Location{
		Latitude:    lat,
		Longitude:   lon,
		Name:        result.DisplayName,
		CountryCode: strings.ToUpper(result.Address.CountryCode),
	}, nil
}

// wait enforces the request spacing.
func (g *Geocoder) wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastCall.IsZero() {
		if elapsed := time.Since(g.lastCall); elapsed < g.minInterval {
			timer := time.NewTimer(g.minInterval - elapsed)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	g.lastCall = time.Now()
	return nil
}

func isHarbour(r nominatimResponse) bool {
	switch {
	case r.Type == "harbour" || r.Type == "port":
		return true
	case r.Category == "landuse" && r.Type == "port":
		return true
	case r.Category == "industrial" && r.Type == "port":
		return true
	}
	return false
}
