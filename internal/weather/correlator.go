package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/metrics"
	"github.com/ngmaloney/routewatch/internal/models"
)

const (
	// MatchDegrees is the largest lat/lng offset between an observation
	// and its waypoint.
	MatchDegrees = 0.1
	// MatchWindow is the largest time offset between an observation and
	// its waypoint.
	MatchWindow = 6 * time.Hour

	defaultWorkers = 8
	defaultTimeout = 8 * time.Second
)

// Options tunes a Correlator.
type Options struct {
	Workers         int
	ProviderTimeout time.Duration
	Logger          *slog.Logger
}

// Correlator fans waypoint lookups out across sources and merges the
// results per waypoint.
type Correlator struct {
	general []Source
	marine  []Source
	workers int
	timeout time.Duration
	logger  *slog.Logger
}

// NewCorrelator groups sources by kind, keeping their order as the
// fallback order within each kind. If a Synthetic source is present every
// other source is dropped so placeholder and real data never mix.
func NewCorrelator(opts Options, sources ...Source) *Correlator {
	c := &Correlator{
		workers: opts.Workers,
		timeout: opts.ProviderTimeout,
		logger:  opts.Logger,
	}
	if c.workers <= 0 {
		c.workers = defaultWorkers
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	for _, s := range sources {
		if isSynthetic(s) {
			if len(sources) > 1 {
				c.logger.Warn("synthetic weather source configured; ignoring real providers")
			}
			c.general = []Source{s}
			c.marine = nil
			return c
		}
	}

	for _, s := range sources {
		switch s.Kind() {
		case KindMarine:
			c.marine = append(c.marine, s)
		default:
			c.general = append(c.general, s)
		}
	}
	return c
}

func isSynthetic(s Source) bool {
	switch v := s.(type) {
	case Synthetic, *Synthetic:
		return true
	case *Cached:
		return isSynthetic(v.source)
	}
	return false
}

// Sources returns the configured source names, general first.
func (c *Correlator) Sources() []string {
	var names []string
	for _, s := range c.general {
		names = append(names, s.Name())
	}
	for _, s := range c.marine {
		names = append(names, s.Name())
	}
	return names
}

// Correlate returns a copy of waypoints with Weather attached where a
// provider matched within tolerance. Waypoints keep their order and are
// never dropped. Provider failures come back as error strings.
func (c *Correlator) Correlate(ctx context.Context, waypoints []models.Waypoint) ([]models.Waypoint, []string) {
	out := models.CloneWaypoints(waypoints)
	errs := &apperr.List{}

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i := range out {
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			out[i].Weather = c.lookup(ctx, out[i], errs)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		errs.Add(apperr.NoData("weather", err).Error())
	}

	missing := 0
	for _, wp := range out {
		if wp.Weather == nil {
			missing++
		}
	}
	if missing > 0 {
		metrics.WaypointsWithoutWeather.Add(float64(missing))
		c.logger.Debug("waypoints without weather", "missing", missing, "total", len(out))
	}

	return out, errs.Messages()
}

func (c *Correlator) lookup(ctx context.Context, wp models.Waypoint, errs *apperr.List) *models.WeatherObservation {
	general := c.firstMatch(ctx, c.general, wp, errs)
	marine := c.firstMatch(ctx, c.marine, wp, errs)
	return Merge(general, marine)
}

// firstMatch tries sources in order and returns the first observation
// within tolerance of wp.
func (c *Correlator) firstMatch(ctx context.Context, sources []Source, wp models.Waypoint, errs *apperr.List) *models.WeatherObservation {
	for _, s := range sources {
		obs, err := c.call(ctx, s, wp)
		if err != nil {
			errs.Add(classify(s.Name(), err).Error())
			continue
		}
		if !Matches(obs, wp) {
			errs.Add(apperr.NoData(s.Name(), errors.New("forecast outside match tolerance")).Error())
			continue
		}
		return obs
	}
	return nil
}

func (c *Correlator) call(ctx context.Context, s Source, wp models.Waypoint) (*models.WeatherObservation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	obs, err := s.Forecast(ctx, wp.Latitude, wp.Longitude, wp.EstimatedTime)
	switch {
	case err == nil && obs == nil:
		err = ErrNoData
		metrics.ObserveProvider(s.Name(), metrics.OutcomeNoData, started)
	case errors.Is(err, ErrNoData):
		metrics.ObserveProvider(s.Name(), metrics.OutcomeNoData, started)
	case err != nil:
		metrics.ObserveProvider(s.Name(), metrics.OutcomeError, started)
		c.logger.Debug("weather provider failed", "provider", s.Name(), "waypoint", wp.Index, "error", err)
	default:
		metrics.ObserveProvider(s.Name(), metrics.OutcomeOK, started)
	}
	return obs, err
}

// classify maps a source error onto the error taxonomy.
func classify(provider string, err error) error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, ErrNoData):
		return apperr.NoData(provider, err)
	default:
		return apperr.Unavailable(provider, err)
	}
}

// Matches reports whether obs is close enough to wp in space and time.
func Matches(obs *models.WeatherObservation, wp models.Waypoint) bool {
	if obs == nil {
		return false
	}
	dLng := math.Abs(obs.Longitude - wp.Longitude)
	if dLng > 180 {
		dLng = 360 - dLng
	}
	if math.Abs(obs.Latitude-wp.Latitude) > MatchDegrees || dLng > MatchDegrees {
		return false
	}
	return absDuration(obs.Time.Sub(wp.EstimatedTime)) <= MatchWindow
}

// Merge combines a general and a marine observation. Atmospheric fields
// come from general and wave fields from marine; the marine payload is
// kept as enrichment. Either argument may be nil.
func Merge(general, marine *models.WeatherObservation) *models.WeatherObservation {
	switch {
	case general == nil && marine == nil:
		return nil
	case general == nil:
		return marine
	case marine == nil:
		return general
	}

	out := *general
	out.Enrichment = append([]models.ProviderPayload(nil), general.Enrichment...)

	if marine.WaveHeight != nil {
		out.WaveHeight = marine.WaveHeight
	}
	if marine.SwellHeight != nil {
		out.SwellHeight = marine.SwellHeight
	}
	if marine.SwellPeriod != nil {
		out.SwellPeriod = marine.SwellPeriod
	}
	if marine.SwellDirection != nil {
		out.SwellDirection = marine.SwellDirection
	}

	// Gaps in the general record are filled, never overwritten.
	if out.Visibility == nil {
		out.Visibility = marine.Visibility
	}
	if out.Precipitation == nil {
		out.Precipitation = marine.Precipitation
	}
	if out.Temperature == nil {
		out.Temperature = marine.Temperature
	}
	if out.Pressure == nil {
		out.Pressure = marine.Pressure
	}
	if out.Humidity == nil {
		out.Humidity = marine.Humidity
	}
	if out.WindGust == nil {
		out.WindGust = marine.WindGust
	}
	if out.DirectionUnknown && !marine.DirectionUnknown {
		out.WindDirection = marine.WindDirection
		out.DirectionUnknown = false
	}

	out.Source = joinSources(general.Source, marine.Source)
	out.Synthetic = general.Synthetic || marine.Synthetic
	out.Enrichment = append(out.Enrichment, models.ProviderPayload{Source: marine.Source, Raw: marine.Raw})
	return &out
}

func joinSources(a, b string) string {
	if strings.Contains(a, b) {
		return a
	}
	return fmt.Sprintf("%s+%s", a, b)
}
