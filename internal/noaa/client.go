// Package noaa talks to the api.weather.gov services: active marine
// advisories by zone, hourly gridpoint forecasts and zone lookup by point.
package noaa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/models"
)

const (
	defaultBaseURL = "https://api.weather.gov"
	userAgent      = "RouteWatch/1.0 (github.com/ngmaloney/routewatch)"
)

// AdvisoryClient fetches active marine advisories
type AdvisoryClient interface {
	// ActiveAlertsByZone retrieves active alerts for one marine zone
	ActiveAlertsByZone(ctx context.Context, zone string) ([]models.Alert, error)
}

// ZoneLocator maps a point onto a marine forecast zone code
type ZoneLocator interface {
	MarineZone(ctx context.Context, lat, lng float64) (string, error)
}

// getJSON issues a GET with the weather.gov headers and decodes the body
// into v. Non-200 responses come back as *apperr.StatusError.
func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apperr.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
