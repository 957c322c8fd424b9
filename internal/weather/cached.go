package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ngmaloney/routewatch/internal/cache"
	"github.com/ngmaloney/routewatch/internal/metrics"
	"github.com/ngmaloney/routewatch/internal/models"
)

// Cached memoizes a Source per rounded position and hour.
type Cached struct {
	source Source
	store  cache.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps source with store.
func NewCached(source Source, store cache.Store, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{source: source, store: store, ttl: ttl, logger: logger}
}

func (c *Cached) Name() string { return c.source.Name() }
func (c *Cached) Kind() Kind   { return c.source.Kind() }

// cachedObservation keeps the raw payload, which the observation itself
// does not serialize.
type cachedObservation struct {
	Observation *models.WeatherObservation `json:"observation"`
	Raw         json.RawMessage            `json:"raw,omitempty"`
}

func cacheKey(source string, lat, lng float64, at time.Time) string {
	return fmt.Sprintf("weather:%s:%.2f:%.2f:%s", source, lat, lng, at.UTC().Truncate(time.Hour).Format("2006010215"))
}

func (c *Cached) Forecast(ctx context.Context, lat, lng float64, at time.Time) (*models.WeatherObservation, error) {
	key := cacheKey(c.source.Name(), lat, lng, at)

	if b, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("weather cache read failed", "key", key, "error", err)
	} else if ok {
		var co cachedObservation
		if err := json.Unmarshal(b, &co); err == nil && co.Observation != nil {
			metrics.CacheHits.WithLabelValues("weather").Inc()
			co.Observation.Raw = co.Raw
			return co.Observation, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("weather").Inc()

	obs, err := c.source.Forecast(ctx, lat, lng, at)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(cachedObservation{Observation: obs, Raw: obs.Raw})
	if err == nil {
		if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
			c.logger.Warn("weather cache write failed", "key", key, "error", err)
		}
	}
	return obs, nil
}
