// Package vessel looks up live vessel positions from the DataDocked API.
package vessel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/config"
	"github.com/ngmaloney/routewatch/internal/metrics"
	"github.com/ngmaloney/routewatch/internal/models"
)

const (
	providerName   = "datadocked"
	defaultBaseURL = "https://datadocked.com/api/vessels_operations"
)

// Lookup returns the current state of a vessel by IMO or MMSI.
type Lookup interface {
	Vessel(ctx context.Context, id string) (*models.VesselState, error)
}

// Client is a DataDocked vessel-location client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client from the vessel provider settings.
func NewClient(cfg config.ProviderConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(string(b))
	return nil
}

type vesselDetail struct {
	Name               flexString `json:"name"`
	IMO                flexString `json:"imo"`
	MMSI               flexString `json:"mmsi"`
	Latitude           flexString `json:"latitude"`
	Longitude          flexString `json:"longitude"`
	Speed              flexString `json:"speed"`
	Course             flexString `json:"course"`
	NavigationalStatus flexString `json:"navigationalStatus"`
	UpdateTime         flexString `json:"updateTime"`
	Destination        flexString `json:"destination"`
	LastPort           flexString `json:"lastPort"`
	ETAUTC             flexString `json:"etaUtc"`

	// The locode fields appear under several spellings.
	UnlocodeDestination  flexString `json:"unlocode_destination"`
	DestinationUnlocode  flexString `json:"destinationUnlocode"`
	DestinationUnlocode2 flexString `json:"destination_unlocode"`
	UnlocodeLastPort     flexString `json:"unlocode_lastport"`
	LastPortUnlocode     flexString `json:"lastPortUnlocode"`
	LastPortUnlocode2    flexString `json:"last_port_unlocode"`
}

type locationResponse struct {
	Detail *vesselDetail `json:"detail"`
}

// Vessel fetches the latest reported state of the vessel with the given
// IMO or MMSI.
func (c *Client) Vessel(ctx context.Context, id string) (vs *models.VesselState, err error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.Unresolvable("vessel id", errors.New("IMO or MMSI is required"))
	}
	if c.apiKey == "" {
		return nil, apperr.Configuration(providerName, "no API key configured")
	}

	started := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			outcome = metrics.OutcomeNoData
		case err != nil:
			outcome = metrics.OutcomeError
		}
		metrics.ObserveProvider(providerName, outcome, started)
	}()

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("imo_or_mmsi", id)
	reqURL := c.baseURL + "/get-vessel-location?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Unavailable(providerName, fmt.Errorf("failed to fetch vessel: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("vessel %s: %w", id, apperr.ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperr.Configuration(providerName, "API key rejected (status %d)", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.Unavailable(providerName, &apperr.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}

	var data locationResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperr.Unavailable(providerName, fmt.Errorf("failed to decode response: %w", err))
	}
	if data.Detail == nil {
		return nil, fmt.Errorf("vessel %s: %w", id, apperr.ErrNotFound)
	}
	return data.Detail.toState(), nil
}

func (d *vesselDetail) toState() *models.VesselState {
	vs := &models.VesselState{
		Name:              string(d.Name),
		IMO:               string(d.IMO),
		MMSI:              string(d.MMSI),
		Status:            string(d.NavigationalStatus),
		Destination:       string(d.Destination),
		DestinationLocode: firstNonEmpty(d.UnlocodeDestination, d.DestinationUnlocode, d.DestinationUnlocode2),
		ETA:               string(d.ETAUTC),
		LastPort:          string(d.LastPort),
		LastPortLocode:    firstNonEmpty(d.UnlocodeLastPort, d.LastPortUnlocode, d.LastPortUnlocode2),
		UpdatedAt:         parseUpdateTime(string(d.UpdateTime)),
	}

	lat, latOK := ParseMeasure(string(d.Latitude))
	lng, lngOK := ParseMeasure(string(d.Longitude))
	vs.Latitude, vs.Longitude = lat, lng
	vs.PositionUnknown = !latOK || !lngOK

	vs.Speed, _ = ParseMeasure(string(d.Speed))
	vs.Course, _ = ParseMeasure(string(d.Course))
	return vs
}

var leadingNumber = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)`)

// ParseMeasure reads the number at the start of values like "12.3 kn" or
// "87 °". ok is false when there is none.
func ParseMeasure(s string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func firstNonEmpty(vals ...flexString) string {
	for _, v := range vals {
		if s := strings.ToUpper(strings.TrimSpace(string(v))); s != "" {
			return s
		}
	}
	return ""
}

func parseUpdateTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "Jan 2, 2006 15:04 UTC"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
