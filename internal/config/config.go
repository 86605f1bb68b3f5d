package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"github.com/shopspring/decimal"
)

// DefaultCSRFSecret is used when CSRF_SECRET is unset. It is public, so
// tokens signed with it can be forged.
const DefaultCSRFSecret = "change-me-in-production"

// Config holds application configuration
type Config struct {
	ServerPort      string        `env:"PORT,default=8080"`
	DatabaseType    string        `env:"DATABASE_TYPE,default=sqlite"`
	DatabasePath    string        `env:"DB_PATH,default=./cybercafe.db"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	SessionDuration time.Duration `env:"SESSION_DURATION,default=24h"`
	CSRFSecret      string        `env:"CSRF_SECRET,default=change-me-in-production"`
	Timezone        string        `env:"TIMEZONE,default=Local"`

	MonthlyFee decimal.Decimal `env:"MONTHLY_FEE,default=3000"`
	RatePerDay decimal.Decimal `env:"RATE_PER_DAY,default=100"`

	// Seeded on startup when no operator exists yet.
	BootstrapUsername string `env:"BOOTSTRAP_USERNAME"`
	BootstrapPassword string `env:"BOOTSTRAP_PASSWORD"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=console"`

	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT,default=10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW,default=1m"`

	// Proxies (IPs or CIDRs) allowed to set X-Forwarded-For and X-Real-IP
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// Load reads configuration from an optional .env file and the environment
func Load(ctx context.Context) (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from the given lookuper
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// UsesDefaultCSRFSecret reports whether CSRF_SECRET was left at its default
func (c *Config) UsesDefaultCSRFSecret() bool {
	return c.CSRFSecret == "" || c.CSRFSecret == DefaultCSRFSecret
}

// Location resolves the configured timezone used for calendar month boundaries
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
