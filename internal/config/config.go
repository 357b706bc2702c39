// Package config loads settings from defaults, an optional YAML file,
// XSTATS_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. XSTATS_HTTP_ADDR or
// XSTATS_STORAGE_BACKEND.
const EnvPrefix = "XSTATS"

// Storage backends.
const (
	BackendNone       = "none"
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickHouse = "clickhouse"
)

type Config struct {
	Endpoint     string        `mapstructure:"endpoint" validate:"required_unless=UseFixtures true"`
	HTTPAddr     string        `mapstructure:"http_addr" validate:"required"`
	Locale       string        `mapstructure:"locale" validate:"required"`
	LogLevel     string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat    string        `mapstructure:"log_format" validate:"oneof=tint text json"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" validate:"min=0"`
	FetchRetries int           `mapstructure:"fetch_retries" validate:"min=0,max=10"`
	UseFixtures  bool          `mapstructure:"use_fixtures"`

	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type DashboardConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"min=1s"`
	Asset           string        `mapstructure:"asset" validate:"required"`
	Layout          string        `mapstructure:"layout"`
	HashratePeriod  int           `mapstructure:"hashrate_period" validate:"min=0"`
}

type StorageConfig struct {
	Backend       string `mapstructure:"backend" validate:"oneof=none memory postgres clickhouse"`
	PostgresDSN   string `mapstructure:"postgres_dsn" validate:"required_if=Backend postgres"`
	ClickHouseDSN string `mapstructure:"clickhouse_dsn" validate:"required_if=Backend clickhouse"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace" validate:"required"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"endpoint":                   "endpoint",
	"http-addr":                  "http_addr",
	"locale":                     "locale",
	"log-level":                  "log_level",
	"log-format":                 "log_format",
	"fetch-timeout":              "fetch_timeout",
	"fetch-retries":              "fetch_retries",
	"use-fixtures":               "use_fixtures",
	"dashboard-refresh-interval": "dashboard.refresh_interval",
	"dashboard-asset":            "dashboard.asset",
	"dashboard-layout":           "dashboard.layout",
	"storage-backend":            "storage.backend",
	"postgres-dsn":               "storage.postgres_dsn",
	"clickhouse-dsn":             "storage.clickhouse_dsn",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint", "")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("locale", "en")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "tint")
	v.SetDefault("fetch_timeout", time.Duration(0))
	v.SetDefault("fetch_retries", 0)
	v.SetDefault("use_fixtures", false)
	v.SetDefault("dashboard.refresh_interval", 60*time.Second)
	v.SetDefault("dashboard.asset", "USDT")
	v.SetDefault("dashboard.layout", "")
	v.SetDefault("dashboard.hashrate_period", 14400)
	v.SetDefault("storage.backend", BackendNone)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("metrics.namespace", "xelis_stats")
}

// RegisterFlags adds the config flags to fs. Flag defaults are left empty;
// viper defaults apply unless a flag is set explicitly.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("endpoint", "", "index REST endpoint serving /views/{name}")
	fs.String("http-addr", "", "HTTP listen address")
	fs.String("locale", "", "display locale")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-format", "", "tint, text or json")
	fs.Duration("fetch-timeout", 0, "per request timeout, 0 disables it")
	fs.Int("fetch-retries", 0, "retries for transport errors, 429 and 5xx")
	fs.Bool("use-fixtures", false, "serve deterministic in-memory data instead of the index")
	fs.Duration("dashboard-refresh-interval", 0, "dashboard auto update interval")
	fs.String("dashboard-asset", "", "market asset shown on the dashboard")
	fs.String("dashboard-layout", "", "YAML file replacing the built-in dashboard boxes")
	fs.String("storage-backend", "", "none, memory, postgres or clickhouse")
	fs.String("postgres-dsn", "", "PostgreSQL connection string")
	fs.String("clickhouse-dsn", "", "ClickHouse connection string")
}

// Load reads .env, then builds the config. fs may be nil; when given it
// must already be parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	configFile := os.Getenv(EnvPrefix + "_CONFIG")
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Changed {
			configFile = f.Value.String()
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("xelis-stats")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/xelis-stats/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		slog.Debug("configuration file loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LogValue lists the settings without DSNs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("endpoint", c.Endpoint),
		slog.String("http_addr", c.HTTPAddr),
		slog.String("locale", c.Locale),
		slog.Duration("fetch_timeout", c.FetchTimeout),
		slog.Int("fetch_retries", c.FetchRetries),
		slog.Bool("use_fixtures", c.UseFixtures),
		slog.Duration("refresh_interval", c.Dashboard.RefreshInterval),
		slog.String("storage", c.Storage.Backend),
	)
}
