package noaa

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
)

const zonesProvider = "noaa-zones"

// ZoneClient finds marine zones through the weather.gov zones endpoint.
// It is the online fallback for the shapefile-backed lookup.
type ZoneClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewZoneClient creates a zone lookup client
func NewZoneClient(timeout time.Duration) *ZoneClient {
	return &ZoneClient{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// MarineZone finds the marine forecast zone for a given location
func (c *ZoneClient) MarineZone(ctx context.Context, lat, lng float64) (string, error) {
	url := fmt.Sprintf("%s/zones?type=marine&point=%.4f,%.4f", c.baseURL, lat, lng)

	var zonesResp struct {
		Features []struct {
			Properties struct {
				ID   string `json:"id"`
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := getJSON(ctx, c.httpClient, url, &zonesResp); err != nil {
		return "", apperr.Unavailable(zonesProvider, err)
	}

	for _, feature := range zonesResp.Features {
		props := feature.Properties
		name := strings.ToLower(props.Name)

		// IDs may be bare ("ANZ254") or URLs ending in the code.
		parts := strings.Split(props.ID, "/")
		code := parts[len(parts)-1]
		if code == "" {
			continue
		}

		if strings.EqualFold(props.Type, "marine") || strings.EqualFold(props.Type, "offshore") ||
			strings.Contains(name, "waters") ||
			strings.Contains(name, "marine") ||
			strings.Contains(name, "offshore") ||
			strings.Contains(name, "coastal") {
			return strings.ToUpper(code), nil
		}
	}

	return "", apperr.NoData(zonesProvider, fmt.Errorf("no marine zone found for location %.4f, %.4f", lat, lng))
}
