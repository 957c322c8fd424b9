package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ngmaloney/routewatch/internal/cache"
	"github.com/ngmaloney/routewatch/internal/config"
	"github.com/ngmaloney/routewatch/internal/database"
	"github.com/ngmaloney/routewatch/internal/events"
	"github.com/ngmaloney/routewatch/internal/geocoding"
	"github.com/ngmaloney/routewatch/internal/noaa"
	"github.com/ngmaloney/routewatch/internal/planner"
	"github.com/ngmaloney/routewatch/internal/ports"
	"github.com/ngmaloney/routewatch/internal/risk"
	"github.com/ngmaloney/routewatch/internal/route"
	"github.com/ngmaloney/routewatch/internal/vessel"
	"github.com/ngmaloney/routewatch/internal/weather"
	"github.com/ngmaloney/routewatch/internal/zonelookup"
)

const (
	portCacheTTL      = 24 * time.Hour
	advisoryTimeout   = 10 * time.Second
	zoneLookupTimeout = 10 * time.Second
)

// Runtime is a Service together with the resources it was built on.
type Runtime struct {
	Service   *Service
	Ports     ports.Repository
	Resolver  ports.Resolver
	Zones     *zonelookup.Lookup
	Publisher *events.Publisher

	// Checks are readiness probes keyed by dependency name.
	Checks map[string]func(context.Context) error

	closers []func()
}

// Close releases every resource in reverse order of acquisition.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

func (r *Runtime) onClose(fn func()) {
	r.closers = append(r.closers, fn)
}

// Build wires a Service from configuration. Optional infrastructure that
// cannot be reached (valkey, nats) is logged and skipped; the port store is
// required.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{Checks: make(map[string]func(context.Context) error)}

	store := buildCache(ctx, cfg, logger, rt)

	repo, err := buildPortRepository(ctx, cfg, logger, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Ports = repo

	resolvers := []ports.Resolver{
		ports.NewRepositoryResolver(repo, cfg.Ports.Backend),
		ports.NewFallback(),
	}
	if cfg.Ports.GeocoderEnabled {
		resolvers = append(resolvers, ports.NewGeocoderResolver(geocoding.NewGeocoder(cfg.Providers.PortResolver)))
	}
	rt.Resolver = ports.NewCachedResolver(ports.NewChain(logger, resolvers...), store, portCacheTTL, logger)

	zoneLocators, err := buildZones(ctx, cfg, logger, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}

	deps := Deps{
		Projector: route.NewProjector(rt.Resolver, logger,
			route.NewMaritimeService(cfg.Providers.Routing),
			route.GreatCircle{},
		),
		Correlator: weather.NewCorrelator(weather.Options{
			Workers:         cfg.Weather.Workers,
			ProviderTimeout: providerTimeout(cfg),
			Logger:          logger,
		}, WeatherSources(cfg, store, logger)...),
		Analyzer: risk.NewAnalyzer(risk.ThresholdsFromConfig(cfg.Risk), logger),
		Planner:  planner.New(planner.ConfigFromRisk(cfg.Risk), logger),
		Vessels:  vessel.NewClient(cfg.Providers.Vessel),
		Zones:    zoneLocators,
		Logger:   logger,
	}
	if cfg.Zones.AdvisoriesEnabled {
		deps.Advisories = noaa.NewAlertClient(advisoryTimeout)
	}

	if cfg.NATS.Enabled {
		pub, err := events.NewPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Warn("nats unavailable, analyses will not be published", "error", err)
		} else {
			rt.Publisher = pub
			deps.Publisher = pub
			rt.Checks["nats"] = pub.Ping
			rt.onClose(pub.Close)
		}
	}

	rt.Service = NewService(deps)
	return rt, nil
}

// WeatherSources returns the configured sources, each behind the cache.
// Test mode uses the synthetic source alone. Sources without credentials
// stay in the list so the missing key is reported in the analysis errors.
func WeatherSources(cfg *config.Config, store cache.Store, logger *slog.Logger) []weather.Source {
	if cfg.Weather.TestMode {
		logger.Warn("weather test mode enabled, using synthetic data")
		return []weather.Source{weather.Synthetic{}}
	}

	ttl := time.Duration(cfg.Weather.CacheTTL) * time.Second
	var sources []weather.Source
	sources = append(sources, weather.NewCached(weather.NewWeatherAPI(cfg.Providers.GeneralWeather).WithResponseCache(store, ttl), store, ttl, logger))
	if cfg.Weather.NOAAEnabled {
		sources = append(sources, weather.NewCached(noaa.NewGridpointSource(cfg.Providers.GeneralWeather.TimeoutDuration()), store, ttl, logger))
	}
	sources = append(sources, weather.NewCached(weather.NewStormGlass(cfg.Providers.MarineWeather), store, ttl, logger))
	return sources
}

func providerTimeout(cfg *config.Config) time.Duration {
	t := cfg.Providers.GeneralWeather.TimeoutDuration()
	if m := cfg.Providers.MarineWeather.TimeoutDuration(); m > t {
		t = m
	}
	return t
}

func buildCache(ctx context.Context, cfg *config.Config, logger *slog.Logger, rt *Runtime) cache.Store {
	if cfg.Valkey.Enabled {
		v, err := cache.NewValkey(cfg.Valkey.Addr, "routewatch")
		if err == nil {
			err = v.Ping(ctx)
			if err != nil {
				v.Close()
			}
		}
		if err == nil {
			rt.Checks["valkey"] = v.Ping
			rt.onClose(v.Close)
			return v
		}
		logger.Warn("valkey unavailable, using in-process cache", "addr", cfg.Valkey.Addr, "error", err)
	}
	return cache.NewMemory()
}

func buildPortRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger, rt *Runtime) (ports.Repository, error) {
	var repo ports.Repository

	switch cfg.Ports.Backend {
	case "postgres":
		pg, err := database.OpenPostgres(ctx, cfg.Ports.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening port database: %w", err)
		}
		rt.onClose(pg.Close)
		if err := pg.EnsurePortSchema(ctx); err != nil {
			return nil, err
		}
		rt.Checks["postgres"] = pg.Ping
		repo = ports.NewPostgresRepository(pg)
	default:
		db, err := database.Open(cfg.Ports.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening port database: %w", err)
		}
		rt.onClose(func() { db.Close() })
		if err := database.EnsurePortSchema(ctx, db); err != nil {
			return nil, err
		}
		rt.Checks["sqlite"] = db.PingContext
		repo = ports.NewSQLiteRepository(db)
	}

	if err := SeedPorts(ctx, repo, cfg.Ports.SeedCSV, logger); err != nil {
		return nil, err
	}
	return repo, nil
}

// SeedPorts fills an empty repository from csvPath when given, then from
// the built-in table if it is still empty.
func SeedPorts(ctx context.Context, repo ports.Repository, csvPath string, logger *slog.Logger) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if csvPath != "" {
		if _, err := ports.LoadCSVFile(ctx, repo, csvPath, logger); err != nil {
			return fmt.Errorf("seeding ports: %w", err)
		}
	}
	seeded, err := ports.SeedBuiltin(ctx, repo)
	if err != nil {
		return fmt.Errorf("seeding built-in ports: %w", err)
	}
	if seeded > 0 {
		logger.Info("seeded built-in ports", "count", seeded)
	}
	return nil
}

func buildZones(ctx context.Context, cfg *config.Config, logger *slog.Logger, rt *Runtime) ([]noaa.ZoneLocator, error) {
	var locators []noaa.ZoneLocator

	if cfg.Zones.DBPath != "" {
		db, err := database.Open(cfg.Zones.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening zone database: %w", err)
		}
		rt.onClose(func() { db.Close() })
		if err := zonelookup.EnsureSchema(ctx, db); err != nil {
			return nil, err
		}
		rt.Zones = zonelookup.New(db, cfg.Zones.MaxDistanceMiles, logger)
		if n, err := rt.Zones.Count(ctx); err == nil && n == 0 {
			logger.Info("marine zone table is empty; run routewatch-data zones to provision it")
		}
		locators = append(locators, rt.Zones)
	}
	if cfg.Weather.NOAAEnabled {
		locators = append(locators, noaa.NewZoneClient(zoneLookupTimeout))
	}
	return locators, nil
}
