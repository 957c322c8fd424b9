package noaa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/metrics"
	"github.com/ngmaloney/routewatch/internal/models"
)

const (
	alertsProvider = "noaa-alerts"
	cacheDuration  = 15 * time.Minute
)

type cacheEntry struct {
	alerts    []models.Alert
	fetchedAt time.Time
}

// AlertClient implements AdvisoryClient using the NOAA alerts endpoint.
// Responses are cached per zone.
type AlertClient struct {
	baseURL    string
	httpClient *http.Client
	cache      map[string]cacheEntry
	mu         sync.RWMutex
	now        func() time.Time
}

// NewAlertClient creates a new NOAA alert client
func NewAlertClient(timeout time.Duration) *AlertClient {
	return &AlertClient{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache: make(map[string]cacheEntry),
		now:   time.Now,
	}
}

// ActiveAlertsByZone retrieves active alerts for a specific marine zone
func (c *AlertClient) ActiveAlertsByZone(ctx context.Context, zone string) ([]models.Alert, error) {
	zone = strings.ToUpper(strings.TrimSpace(zone))
	if zone == "" {
		return nil, apperr.Unresolvable("marine zone", errors.New("zone is required"))
	}

	c.mu.RLock()
	entry, ok := c.cache[zone]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < cacheDuration {
		metrics.CacheHits.WithLabelValues("advisories").Inc()
		return entry.alerts, nil
	}
	metrics.CacheMisses.WithLabelValues("advisories").Inc()

	started := time.Now()
	var resp alertResponse
	reqURL := fmt.Sprintf("%s/alerts/active?zone=%s", c.baseURL, url.QueryEscape(zone))
	if err := getJSON(ctx, c.httpClient, reqURL, &resp); err != nil {
		metrics.ObserveProvider(alertsProvider, metrics.OutcomeUnavailable, started)
		return nil, apperr.Unavailable(alertsProvider, err)
	}
	metrics.ObserveProvider(alertsProvider, metrics.OutcomeOK, started)

	alerts := make([]models.Alert, 0, len(resp.Features))
	for _, feature := range resp.Features {
		props := feature.Properties
		onset := parseAlertTime(props.Onset, props.Effective)
		expires := parseAlertTime(props.Ends, props.Expires)

		id := props.ID
		if id == "" {
			id = feature.ID
		}
		alerts = append(alerts, models.Alert{
			ID:          id,
			Event:       props.Event,
			Headline:    props.Headline,
			Description: props.Description,
			Severity:    mapSeverity(props.Severity),
			Onset:       onset,
			Expires:     expires,
			Zone:        zone,
			Instruction: props.Instruction,
		})
	}

	c.mu.Lock()
	c.cache[zone] = cacheEntry{alerts: alerts, fetchedAt: c.now()}
	c.mu.Unlock()

	return alerts, nil
}

// ActiveAlerts fetches advisories for each distinct zone. Alerts issued for
// several zones are reported once per zone. Zones that fail are skipped and
// their errors joined.
func ActiveAlerts(ctx context.Context, client AdvisoryClient, zones []string) ([]models.Alert, error) {
	seen := make(map[string]bool)
	var distinct []string
	for _, z := range zones {
		z = strings.ToUpper(strings.TrimSpace(z))
		if z == "" || seen[z] {
			continue
		}
		seen[z] = true
		distinct = append(distinct, z)
	}
	sort.Strings(distinct)

	var (
		all  []models.Alert
		errs []error
	)
	for _, z := range distinct {
		alerts, err := client.ActiveAlertsByZone(ctx, z)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, alerts...)
	}
	return all, errors.Join(errs...)
}

// parseAlertTime returns the first value that parses as RFC3339.
func parseAlertTime(values ...string) time.Time {
	for _, v := range values {
		if v == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func mapSeverity(s string) models.AlertSeverity {
	switch s {
	case "Extreme":
		return models.SeverityExtreme
	case "Severe":
		return models.SeveritySevere
	case "Moderate":
		return models.SeverityModerate
	case "Minor":
		return models.SeverityMinor
	default:
		return models.SeverityUnknown
	}
}

// Internal types for NOAA Alert API responses

type alertResponse struct {
	Features []struct {
		ID         string `json:"id"`
		Properties struct {
			ID          string `json:"id"`
			Event       string `json:"event"`
			Headline    string `json:"headline"`
			Description string `json:"description"`
			Severity    string `json:"severity"`
			Effective   string `json:"effective"`
			Onset       string `json:"onset"`
			Expires     string `json:"expires"`
			Ends        string `json:"ends"`
			Instruction string `json:"instruction"`
		} `json:"properties"`
	} `json:"features"`
}
