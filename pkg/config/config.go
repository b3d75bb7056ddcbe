package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	Environment    string `env:"APP_ENV" envDefault:"development"`
	ServiceName    string `env:"SERVICE_NAME" envDefault:"taskmanagement"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
	Port           string `env:"PORT" envDefault:"8080"`

	Database DatabaseConfig `envPrefix:"DATABASE_"`
	SeedData bool           `env:"SEED_DATA" envDefault:"true"`

	CacheEnabled bool          `env:"CACHE_ENABLED" envDefault:"false"`
	CacheBackend string        `env:"CACHE_BACKEND" envDefault:"memory"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"5s"`
	CacheConfigs map[string]CacheConfig
	Redis        RedisConfig `envPrefix:"REDIS_"`

	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitConfigs map[string]RateLimitConfig

	EnforceHTTPS bool `env:"ENFORCE_HTTPS" envDefault:"false"`

	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"false"`
	JWTSecret   string `env:"JWT_SECRET"`

	Telemetry TelemetryConfig
}

type DatabaseConfig struct {
	Driver     string `env:"DRIVER" envDefault:"sqlite"`
	Path       string `env:"PATH" envDefault:"database.db"`
	URL        string `env:"URL"`
	LogQueries bool   `env:"LOG_QUERIES" envDefault:"false"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type TelemetryConfig struct {
	Enabled      bool   `env:"TELEMETRY_ENABLED" envDefault:"false"`
	MetricsPort  string `env:"METRICS_PORT" envDefault:"9091"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT"`
	LokiURL      string `env:"LOKI_URL"`
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CacheConfig struct {
	TTL     time.Duration
	Enabled bool
}

func GetDefaultConfig() *AppConfig {
	return &AppConfig{
		Environment:    "development",
		ServiceName:    "taskmanagement",
		ServiceVersion: "1.0.0",
		Port:           "8080",
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "database.db",
		},
		SeedData:     true,
		CacheEnabled: false,
		CacheBackend: "memory",
		CacheTTL:     5 * time.Second,
		CacheConfigs: map[string]CacheConfig{
			"/task": {
				TTL:     5 * time.Second,
				Enabled: true,
			},
			"/task/completedTasks": {
				TTL:     5 * time.Second,
				Enabled: true,
			},
			"/task/:id": {
				TTL:     5 * time.Second,
				Enabled: true,
			},
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		RateLimitEnabled: true,
		RateLimitConfigs: map[string]RateLimitConfig{
			"GET /task": {
				Requests: 100,
				Window:   time.Minute,
			},
			"POST /task": {
				Requests: 20,
				Window:   time.Minute,
			},
			"POST /task/completeTasks": {
				Requests: 10,
				Window:   time.Minute,
			},
			"PUT /task/:id": {
				Requests: 20,
				Window:   time.Minute,
			},
			"DELETE /task/:id": {
				Requests: 10,
				Window:   time.Minute,
			},
		},
		EnforceHTTPS: false,
		Telemetry: TelemetryConfig{
			MetricsPort: "9091",
		},
	}
}

// Load reads an optional .env file and then the process environment on top
// of the defaults.
func Load(files ...string) (*AppConfig, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	cfg := GetDefaultConfig()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}

	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.AuthEnabled && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when AUTH_ENABLED is set")
	}

	return nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
