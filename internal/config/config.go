package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const defaultJWTSecret = "dev-secret-change-in-production"

// Storage drivers understood by DatabaseDriver.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

var ErrDefaultSecretInProduction = errors.New("JWT_SECRET must be set in production environment")

// Config holds process-wide settings. It is loaded once at startup and
// passed by pointer to the constructors that need it.
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`
	Env  string `envconfig:"ENV" default:"development"`

	DatabaseDriver  string `envconfig:"DATABASE_DRIVER" default:"mysql"`
	DatabaseDSN     string `envconfig:"DATABASE_DSN" default:"root:password@tcp(127.0.0.1:3306)/addrbook?parseTime=true"`
	DatabaseMigrate bool   `envconfig:"DATABASE_MIGRATE" default:"true"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	JWTIssuer string        `envconfig:"JWT_ISSUER" default:"addrbook"`
	JWTExpiry time.Duration `envconfig:"JWT_EXPIRY" default:"24h"`

	LogFormat string `envconfig:"LOG_FORMAT"`

	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	AuthRateRPS        float64       `envconfig:"AUTH_RATE_RPS" default:"5"`
	AuthRateBurst      int           `envconfig:"AUTH_RATE_BURST" default:"10"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
		if cfg.IsProduction() {
			cfg.LogFormat = "json"
		}
	}

	switch cfg.DatabaseDriver {
	case DriverMySQL, DriverMemory:
	default:
		return nil, fmt.Errorf("config: unknown DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	if cfg.IsProduction() && cfg.JWTSecret == defaultJWTSecret {
		return nil, ErrDefaultSecretInProduction
	}

	return &cfg, nil
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}
