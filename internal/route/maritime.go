package route

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/config"
	"github.com/ngmaloney/routewatch/internal/metrics"
	"github.com/ngmaloney/routewatch/internal/models"
)

const maritimeProvider = "maritime-routing"

// MaritimeService asks an external sea-routing service for a path that
// follows shipping lanes around land.
type MaritimeService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
}

// NewMaritimeService creates a routing client. An empty base URL makes the
// strategy inapplicable.
func NewMaritimeService(cfg config.ProviderConfig) *MaritimeService {
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MaritimeService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "RouteWatch/1.0 (github.com/ngmaloney/routewatch)",
	}
}

func (s *MaritimeService) Name() string { return maritimeProvider }

type routeRequest struct {
	StartLat    float64 `json:"start_lat"`
	StartLng    float64 `json:"start_lng"`
	EndLat      float64 `json:"end_lat"`
	EndLng      float64 `json:"end_lng"`
	Destination string  `json:"destination,omitempty"`
	Speed       float64 `json:"speed"`
}

type routeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Route   *struct {
		Waypoints []struct {
			Lat               float64 `json:"lat"`
			Lng               float64 `json:"lng"`
			EstimatedTime     string  `json:"estimated_time"`
			DistanceFromStart float64 `json:"distance_from_start"`
		} `json:"waypoints"`
		TotalDistanceNM float64 `json:"total_distance_nm"`
	} `json:"route"`
}

// Project requests a path from the vessel to the resolved destination.
func (s *MaritimeService) Project(ctx context.Context, req Request) (*Projection, error) {
	if s.baseURL == "" || req.Destination == nil || req.Vessel.Speed <= models.StationarySpeed {
		return nil, ErrNotApplicable
	}

	started := time.Now()
	wps, err := s.fetch(ctx, req)
	if err != nil {
		metrics.ObserveProvider(maritimeProvider, metrics.OutcomeUnavailable, started)
		return nil, apperr.Unavailable(maritimeProvider, err)
	}
	metrics.ObserveProvider(maritimeProvider, metrics.OutcomeOK, started)

	return &Projection{
		Waypoints:   indexWaypoints(wps),
		RouteType:   models.RouteTypeMaritime,
		Strategy:    s.Name(),
		Destination: req.Destination,
		Horizon:     req.Horizon,
	}, nil
}

func (s *MaritimeService) fetch(ctx context.Context, req Request) ([]models.Waypoint, error) {
	body, err := json.Marshal(routeRequest{
		StartLat:    req.Vessel.Latitude,
		StartLng:    req.Vessel.Longitude,
		EndLat:      req.Destination.Latitude,
		EndLng:      req.Destination.Longitude,
		Destination: req.Vessel.DestinationQuery(),
		Speed:       req.Vessel.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/route", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", s.userAgent)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch route: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &apperr.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var rr routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !rr.Success || rr.Route == nil || len(rr.Route.Waypoints) == 0 {
		msg := rr.Error
		if msg == "" {
			msg = "no route data received"
		}
		return nil, errors.New(msg)
	}

	wps := make([]models.Waypoint, 0, len(rr.Route.Waypoints))
	for i, p := range rr.Route.Waypoints {
		t, err := ParseTimestamp(p.EstimatedTime)
		if err != nil {
			return nil, fmt.Errorf("waypoint %d: %w", i, err)
		}
		wps = append(wps, models.Waypoint{
			Latitude:          p.Lat,
			Longitude:         p.Lng,
			EstimatedTime:     t,
			DistanceFromStart: p.DistanceFromStart,
		})
	}

	if err := checkMonotonic(wps); err != nil {
		return nil, err
	}
	return wps, nil
}

// checkMonotonic rejects sequences whose time or distance goes backwards.
func checkMonotonic(wps []models.Waypoint) error {
	for i := 1; i < len(wps); i++ {
		if wps[i].EstimatedTime.Before(wps[i-1].EstimatedTime) {
			return fmt.Errorf("waypoint %d: estimated time goes backwards", i)
		}
		if wps[i].DistanceFromStart < wps[i-1].DistanceFromStart {
			return fmt.Errorf("waypoint %d: distance goes backwards", i)
		}
	}
	return nil
}
