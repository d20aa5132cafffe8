package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config is read from the environment; a .env file in the working directory is
// loaded first when present.
type Config struct {
	DatabaseURL    string        `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns     int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	ServerPort     string        `envconfig:"SERVER_PORT" default:"8080"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS"`
	JWTSecret      string        `envconfig:"JWT_SECRET"`
	JWTTTL         time.Duration `envconfig:"JWT_TTL" default:"8h"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string        `envconfig:"LOG_FORMAT" default:"json"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"12h"`

	// Used when the store settings row is missing.
	DefaultTaxPercent  decimal.Decimal `envconfig:"DEFAULT_TAX_PERCENT" default:"16"`
	DefaultIGTFPercent decimal.Decimal `envconfig:"DEFAULT_IGTF_PERCENT" default:"3"`

	// ExchangeRate overrides the latest stored rate when set.
	ExchangeRate string `envconfig:"EXCHANGE_RATE"`
}

// Load reads the configuration.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if c.DefaultTaxPercent.IsNegative() || c.DefaultIGTFPercent.IsNegative() {
		return fmt.Errorf("DEFAULT_TAX_PERCENT and DEFAULT_IGTF_PERCENT cannot be negative")
	}
	if _, _, err := c.RateOverride(); err != nil {
		return err
	}
	if c.DBMaxConns < 0 {
		return fmt.Errorf("DB_MAX_CONNS cannot be negative, got %d", c.DBMaxConns)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// RateOverride returns the EXCHANGE_RATE value, if any.
func (c *Config) RateOverride() (decimal.Decimal, bool, error) {
	if c.ExchangeRate == "" {
		return decimal.Zero, false, nil
	}
	rate, err := decimal.NewFromString(c.ExchangeRate)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("EXCHANGE_RATE %q is not a number: %w", c.ExchangeRate, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, false, fmt.Errorf("EXCHANGE_RATE must be positive, got %s", rate)
	}
	return rate, true, nil
}

// RequireJWTSecret fails when the server is started without a signing secret.
func (c *Config) RequireJWTSecret() error {
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be set to at least 16 characters")
	}
	return nil
}
