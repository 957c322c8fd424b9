// Package config loads routewatch settings from defaults, an optional
// config.yaml, a .env file and ROUTEWATCH_* environment variables.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Ports     PortsConfig     `mapstructure:"ports"`
	Zones     ZonesConfig     `mapstructure:"zones"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`

	// AnalysisTimeout bounds a full analysis request, in seconds.
	AnalysisTimeout int `mapstructure:"analysis_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProviderConfig is the credential and endpoint for one external collaborator.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`

	// Timeout is the per-call bound in seconds.
	Timeout int `mapstructure:"timeout"`
}

// TimeoutDuration returns the call timeout as a duration.
func (p ProviderConfig) TimeoutDuration() time.Duration {
	return time.Duration(p.Timeout) * time.Second
}

// Configured reports whether a credential is present.
func (p ProviderConfig) Configured() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

// ProvidersConfig enumerates the recognized provider credentials.
type ProvidersConfig struct {
	Vessel         ProviderConfig `mapstructure:"vessel"`
	MarineWeather  ProviderConfig `mapstructure:"marine_weather"`
	GeneralWeather ProviderConfig `mapstructure:"general_weather"`
	Routing        ProviderConfig `mapstructure:"routing"`
	PortResolver   ProviderConfig `mapstructure:"port_resolver"`
}

type WeatherConfig struct {
	// TestMode swaps every provider for the synthetic source.
	TestMode    bool `mapstructure:"test_mode"`
	Workers     int  `mapstructure:"workers"`
	CacheTTL    int  `mapstructure:"cache_ttl"` // seconds
	NOAAEnabled bool `mapstructure:"noaa_enabled"`
}

type PortsConfig struct {
	Backend         string `mapstructure:"backend"` // sqlite | postgres
	SQLitePath      string `mapstructure:"sqlite_path"`
	PostgresDSN     string `mapstructure:"postgres_dsn"`
	GeocoderEnabled bool   `mapstructure:"geocoder_enabled"`
	SeedCSV         string `mapstructure:"seed_csv"`
}

type ZonesConfig struct {
	DBPath            string  `mapstructure:"db_path"`
	AdvisoriesEnabled bool    `mapstructure:"advisories_enabled"`
	MaxDistanceMiles  float64 `mapstructure:"max_distance_miles"`
}

// RiskConfig overrides the analyzer thresholds. Zero values keep defaults.
type RiskConfig struct {
	WindSpeed         float64 `mapstructure:"wind_speed"`
	WindHigh          float64 `mapstructure:"wind_high"`
	WindSevere        float64 `mapstructure:"wind_severe"`
	HeadWindAngle     float64 `mapstructure:"head_wind_angle"`
	HeadWindHighAngle float64 `mapstructure:"head_wind_high_angle"`
	HeadWindSpeed     float64 `mapstructure:"head_wind_speed"`
	HeadWindHighSpeed float64 `mapstructure:"head_wind_high_speed"`
	WaveHeight        float64 `mapstructure:"wave_height"`
	WaveHigh          float64 `mapstructure:"wave_high"`
	WaveSevere        float64 `mapstructure:"wave_severe"`
	Visibility        float64 `mapstructure:"visibility"`
	VisibilityHigh    float64 `mapstructure:"visibility_high"`
	VisibilitySevere  float64 `mapstructure:"visibility_severe"`
	Precipitation     float64 `mapstructure:"precipitation"`
	PrecipitationHigh float64 `mapstructure:"precipitation_high"`
	ObstacleSeverity  int     `mapstructure:"obstacle_severity"`
	// ObstacleWindow limits safety scoring to obstacles within this many
	// hours of a waypoint. Zero scores on position alone.
	ObstacleWindow int `mapstructure:"obstacle_window"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Load reads configuration from .env, config file and environment variables.
func Load(service string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Environment variables: ROUTEWATCH_PROVIDERS_VESSEL_API_KEY -> providers.vessel.api_key
	v.SetEnvPrefix("ROUTEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.analysis_timeout", 45)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Keys must be registered for AutomaticEnv to reach them on Unmarshal.
	v.SetDefault("providers.vessel.api_key", "")
	v.SetDefault("providers.vessel.base_url", "https://datadocked.com/api/vessels_operations")
	v.SetDefault("providers.vessel.timeout", 10)
	v.SetDefault("providers.marine_weather.api_key", "")
	v.SetDefault("providers.marine_weather.base_url", "https://api.stormglass.io")
	v.SetDefault("providers.marine_weather.timeout", 8)
	v.SetDefault("providers.general_weather.api_key", "")
	v.SetDefault("providers.general_weather.base_url", "https://api.weatherapi.com")
	v.SetDefault("providers.general_weather.timeout", 8)
	v.SetDefault("providers.routing.api_key", "")
	v.SetDefault("providers.routing.base_url", "")
	v.SetDefault("providers.routing.timeout", 10)
	v.SetDefault("providers.port_resolver.api_key", "")
	v.SetDefault("providers.port_resolver.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("providers.port_resolver.timeout", 10)

	v.SetDefault("weather.test_mode", false)
	v.SetDefault("weather.workers", 8)
	v.SetDefault("weather.cache_ttl", 1800)
	v.SetDefault("weather.noaa_enabled", true)

	v.SetDefault("ports.backend", "sqlite")
	v.SetDefault("ports.sqlite_path", "data/routewatch.db")
	v.SetDefault("ports.postgres_dsn", "")
	v.SetDefault("ports.geocoder_enabled", true)
	v.SetDefault("ports.seed_csv", "")

	v.SetDefault("zones.db_path", "data/routewatch.db")
	v.SetDefault("zones.advisories_enabled", true)
	v.SetDefault("zones.max_distance_miles", 60.0)

	v.SetDefault("risk.wind_speed", 0)
	v.SetDefault("risk.wind_high", 0)
	v.SetDefault("risk.wind_severe", 0)
	v.SetDefault("risk.head_wind_angle", 0)
	v.SetDefault("risk.head_wind_high_angle", 0)
	v.SetDefault("risk.head_wind_speed", 0)
	v.SetDefault("risk.head_wind_high_speed", 0)
	v.SetDefault("risk.wave_height", 0)
	v.SetDefault("risk.wave_high", 0)
	v.SetDefault("risk.wave_severe", 0)
	v.SetDefault("risk.visibility", 0)
	v.SetDefault("risk.visibility_high", 0)
	v.SetDefault("risk.visibility_severe", 0)
	v.SetDefault("risk.precipitation", 0)
	v.SetDefault("risk.precipitation_high", 0)
	v.SetDefault("risk.obstacle_severity", 0)
	v.SetDefault("risk.obstacle_window", 0)

	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

// Validate checks that configuration fields are present and sane. Missing
// provider credentials are not errors here: they surface as configuration
// errors at the call site of the capability that needs them.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.AnalysisTimeout <= 0 {
		errs = append(errs, "server.analysis_timeout must be positive")
	}

	providers := map[string]ProviderConfig{
		"providers.vessel":          c.Providers.Vessel,
		"providers.marine_weather":  c.Providers.MarineWeather,
		"providers.general_weather": c.Providers.GeneralWeather,
		"providers.routing":         c.Providers.Routing,
		"providers.port_resolver":   c.Providers.PortResolver,
	}
	for name, p := range providers {
		if p.Timeout <= 0 {
			errs = append(errs, fmt.Sprintf("%s.timeout must be positive", name))
		}
	}

	if c.Weather.Workers <= 0 {
		errs = append(errs, "weather.workers must be positive")
	}
	switch c.Ports.Backend {
	case "sqlite":
		if c.Ports.SQLitePath == "" {
			errs = append(errs, "ports.sqlite_path is required for the sqlite backend")
		}
	case "postgres":
		if c.Ports.PostgresDSN == "" {
			errs = append(errs, "ports.postgres_dsn is required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("ports.backend must be sqlite or postgres, got %q", c.Ports.Backend))
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey is enabled")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}
	if c.Risk.ObstacleWindow < 0 {
		errs = append(errs, "risk.obstacle_window must not be negative")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, "telemetry.sample_ratio must be within 0-1")
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
