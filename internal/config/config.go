package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Mock    bool   `yaml:"mock"`
	} `yaml:"data_source"`
	Cache struct {
		Key        string        `yaml:"key"`
		MaxAge     time.Duration `yaml:"max_age"`
		EagerFetch bool          `yaml:"eager_fetch"`
	} `yaml:"cache"`
	Storage struct {
		Backend    string `yaml:"backend"`
		FilePath   string `yaml:"file_path"`
		SQLitePath string `yaml:"sqlite_path"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"storage"`
	Chart struct {
		DefaultDays int    `yaml:"default_days"`
		Coin        string `yaml:"coin"`
		Compare     string `yaml:"compare"`
		Comparison  bool   `yaml:"comparison"`
	} `yaml:"chart"`
	Schedule struct {
		SeriesRefreshCron string `yaml:"series_refresh_cron"`
		CacheSweepCron    string `yaml:"cache_sweep_cron"`
	} `yaml:"schedule"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("CACHE_MAX_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse CACHE_MAX_AGE: %w", err)
		}
		cfg.Cache.MaxAge = d
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("CRON_SERIES_REFRESH"); v != "" {
		cfg.Schedule.SeriesRefreshCron = v
	}

	// Defaults
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "https://api.coingecko.com/api/v3/coins"
	}
	if cfg.Cache.Key == "" {
		cfg.Cache.Key = "coinListCache"
	}
	if cfg.Cache.MaxAge == 0 {
		cfg.Cache.MaxAge = 24 * time.Hour
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendFile
	}
	if cfg.Storage.FilePath == "" {
		cfg.Storage.FilePath = "data/cache.json"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/asset_tracker.db"
	}
	if cfg.Storage.Redis.Addr == "" {
		cfg.Storage.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "asset-tracker:"
	}
	if cfg.Chart.DefaultDays == 0 {
		cfg.Chart.DefaultDays = 7
	}
	if cfg.Schedule.SeriesRefreshCron == "" {
		cfg.Schedule.SeriesRefreshCron = "0 */5 * * * *"
	}
	if cfg.Schedule.CacheSweepCron == "" {
		cfg.Schedule.CacheSweepCron = "0 0 * * * *"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.DataSource.BaseURL == "" && !c.DataSource.Mock {
		return fmt.Errorf("data_source.base_url is required")
	}
	if c.Cache.MaxAge <= 0 {
		return fmt.Errorf("cache.max_age must be positive")
	}
	switch c.Chart.DefaultDays {
	case 7, 30, 365:
	default:
		return fmt.Errorf("chart.default_days must be one of 7, 30, 365")
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	return nil
}
