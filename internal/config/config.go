package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

const (
	StoreDisk     = "disk"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	Environment string
	Host        string
	Port        int
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// records store
	StoreBackend string `toml:"store_backend"`
	DataDir      string `toml:"data_dir"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	RedisDB   int    `toml:"redis_db"`
	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	// metrics
	MetricsHost string `toml:"metrics_host"`
	MetricsPort string `toml:"metrics_port"`
	// http api
	RateLimitPerMinute int      `toml:"rate_limit_per_minute"`
	AllowedOrigins     []string `toml:"allowed_origins"`
	MaxBodyBytes       int64    `toml:"max_body_bytes"`
	// Timezone decides what "today" is, e.g. "Europe/Berlin". Empty means local time.
	Timezone string `toml:"timezone"`
	// APITokenHash is the bcrypt hash of the API token; GYMRANK_API_TOKEN_HASH overrides it.
	APITokenHash string `toml:"api_token_hash"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env, with
// defaults applied and values validated.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9090
	}
	if c.StoreBackend == "" {
		c.StoreBackend = StoreDisk
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.MetricsPort == "" {
		c.MetricsPort = "2112"
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 64 * 1024
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case StoreDisk:
		if c.DataDir == "" {
			errs = append(errs, errors.New("data_dir is required for the disk store"))
		}
	case StoreRedis:
		if c.RedisHost == "" || c.RedisPort == "" {
			errs = append(errs, errors.New("redis_host and redis_port are required for the redis store"))
		}
	case StorePostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			errs = append(errs, errors.New("postgres_host, postgres_port and postgres_db_name are required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend: %q", c.StoreBackend))
	}

	if c.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Errorf("invalid rate_limit_per_minute: %d", c.RateLimitPerMinute))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return multierr.Combine(errs...)
}

// Location resolves Timezone; an empty timezone is the machine's local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RedisConfigured reports whether a redis server is available, either as the
// records store or only for rate limiting.
func (c *Config) RedisConfigured() bool {
	return c.RedisHost != "" && c.RedisPort != ""
}
