package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mobil-koeln/efa-cli/internal/api"
	"github.com/mobil-koeln/efa-cli/internal/cache"
	"github.com/mobil-koeln/efa-cli/internal/departures"
	"github.com/mobil-koeln/efa-cli/internal/models"
)

// Cache backends
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config holds all application configuration.
type Config struct {
	API          APIConfig     `mapstructure:"api"`
	ScanInterval time.Duration `mapstructure:"scan_interval"`
	Log          LogConfig     `mapstructure:"log"`
	Cache        CacheConfig   `mapstructure:"cache"`
	Server       ServerConfig  `mapstructure:"server"`
	Departures   []StopConfig  `mapstructure:"departures"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	Dir           string        `mapstructure:"dir"`
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// StopConfig is one monitored stop. Unset transport switches mean enabled.
type StopConfig struct {
	Name        string `mapstructure:"name"`
	StopID      string `mapstructure:"stop_id"`
	WalkingTime int    `mapstructure:"walking_time"`
	Limit       int    `mapstructure:"limit"`

	Suburban *bool `mapstructure:"suburban"`
	Subway   *bool `mapstructure:"subway"`
	Tram     *bool `mapstructure:"tram"`
	Bus      *bool `mapstructure:"bus"`
	Ferry    *bool `mapstructure:"ferry"`
	Express  *bool `mapstructure:"express"`
	Regional *bool `mapstructure:"regional"`
}

func (s StopConfig) switches() map[models.TransportType]*bool {
	return map[models.TransportType]*bool{
		models.TransportSuburban: s.Suburban,
		models.TransportSubway:   s.Subway,
		models.TransportTram:     s.Tram,
		models.TransportBus:      s.Bus,
		models.TransportFerry:    s.Ferry,
		models.TransportExpress:  s.Express,
		models.TransportRegional: s.Regional,
	}
}

// Enabled reports whether departures of type tt are shown for this stop
func (s StopConfig) Enabled(tt models.TransportType) bool {
	sw, ok := s.switches()[tt]
	return !ok || sw == nil || *sw
}

// Sensor converts the stop into a sensor configuration
func (s StopConfig) Sensor() departures.SensorConfig {
	types := make(map[models.TransportType]bool, len(models.TransportTypes))
	for _, tt := range models.TransportTypes {
		types[tt] = s.Enabled(tt)
	}
	return departures.SensorConfig{
		Name:           s.Name,
		StopID:         s.StopID,
		WalkingTime:    time.Duration(s.WalkingTime) * time.Minute,
		Limit:          s.Limit,
		TransportTypes: types,
	}
}

// Load reads configuration from defaults, an optional YAML file and
// environment variables. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("api.base_url", api.BaseURL)
	v.SetDefault("api.timeout", api.DefaultTimeout)
	v.SetDefault("scan_interval", departures.DefaultScanInterval)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("cache.backend", CacheFile)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.ttl", 20*time.Second)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("server.addr", ":8080")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range searchPaths() {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: EFA_API_TIMEOUT → api.timeout
	v.SetEnvPrefix("EFA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = cache.DefaultCacheDir()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func searchPaths() []string {
	paths := []string{"."}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "efa"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "efa"))
	}
	return paths
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, "api.timeout must be positive")
	}
	if c.ScanInterval <= 0 {
		errs = append(errs, "scan_interval must be positive")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q is not a valid level", c.Log.Level))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Sprintf("log.format must be console or json, got %q", c.Log.Format))
	}

	switch c.Cache.Backend {
	case CacheNone:
	case CacheFile, CacheRedis:
		if c.Cache.TTL <= 0 {
			errs = append(errs, "cache.ttl must be positive")
		}
		if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
			errs = append(errs, "cache.redis_addr is required for the redis backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.backend must be file, redis or none, got %q", c.Cache.Backend))
	}

	seen := make(map[string]bool)
	for i, stop := range c.Departures {
		if stop.StopID == "" {
			errs = append(errs, fmt.Sprintf("departures[%d].stop_id is required", i))
			continue
		}
		if seen[stop.StopID] {
			errs = append(errs, fmt.Sprintf("departures[%d].stop_id %q is configured twice", i, stop.StopID))
		}
		seen[stop.StopID] = true
		if stop.WalkingTime < 0 {
			errs = append(errs, fmt.Sprintf("departures[%d].walking_time must not be negative", i))
		}
		if stop.Limit < 0 {
			errs = append(errs, fmt.Sprintf("departures[%d].limit must not be negative", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Sensors returns the sensor configuration of every configured stop
func (c *Config) Sensors() []departures.SensorConfig {
	sensors := make([]departures.SensorConfig, 0, len(c.Departures))
	for _, stop := range c.Departures {
		sensors = append(sensors, stop.Sensor())
	}
	return sensors
}
