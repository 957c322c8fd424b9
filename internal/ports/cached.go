package ports

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/ngmaloney/routewatch/internal/cache"
	"github.com/ngmaloney/routewatch/internal/metrics"
	"github.com/ngmaloney/routewatch/internal/models"
)

// CachedResolver memoizes successful resolutions. Failures are not cached
// so a recovering geocoder is retried.
type CachedResolver struct {
	next   Resolver
	store  cache.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedResolver wraps next with store.
func NewCachedResolver(next Resolver, store cache.Store, ttl time.Duration, logger *slog.Logger) *CachedResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedResolver{next: next, store: store, ttl: ttl, logger: logger}
}

func (c *CachedResolver) Resolve(ctx context.Context, query string) (*models.Port, error) {
	key := "port:" + strings.ToLower(strings.TrimSpace(query))

	if b, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("port cache read failed", "key", key, "error", err)
	} else if ok {
		var p models.Port
		if err := json.Unmarshal(b, &p); err == nil {
			metrics.CacheHits.WithLabelValues("ports").Inc()
			return &p, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("ports").Inc()

	p, err := c.next.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
			c.logger.Warn("port cache write failed", "key", key, "error", err)
		}
	}
	return p, nil
}
