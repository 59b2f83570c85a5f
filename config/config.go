package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port          string        `env:"PORT" envDefault:"8080"`
	DBType        string        `env:"DB_TYPE" envDefault:"sqlite"`
	MongoURL      string        `env:"MONGO_URL"`
	MongoDatabase string        `env:"MONGO_DATABASE" envDefault:"expensetracker"`
	PostgresURL   string        `env:"POSTGRES_URL"`
	SQLitePath    string        `env:"SQLITE_PATH" envDefault:"expenses.db"`
	JWTSecret     string        `env:"JWT_SECRET"`
	JWTIssuer     string        `env:"JWT_ISSUER" envDefault:"expensetracker"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	BcryptCost    int           `env:"BCRYPT_COST" envDefault:"10"`
	R2            R2Config
	Telemetry     TelemetryConfig
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// R2Config holds optional Cloudflare R2 settings for report uploads.
type R2Config struct {
	Bucket          string `env:"R2_BUCKET"`
	AccountID       string `env:"R2_ACCOUNT_ID"`
	PublicURL       string `env:"R2_PUBLIC_URL"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
}

// Enabled reports whether enough R2 settings are present to upload.
func (c R2Config) Enabled() bool {
	return c.Bucket != "" && c.AccountID != "" && c.PublicURL != ""
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv is Parse without validation, for callers that override fields
// before validating.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBType = strings.ToLower(strings.TrimSpace(cfg.DBType))
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBType {
	case "mongo":
		if c.MongoURL == "" {
			return errors.New("MONGO_URL is required when DB_TYPE=mongo")
		}
	case "postgres":
		if c.PostgresURL == "" {
			return errors.New("POSTGRES_URL is required when DB_TYPE=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when DB_TYPE=sqlite")
		}
	default:
		return fmt.Errorf("DB_TYPE %q not supported", c.DBType)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}

// RequireJWTSecret is checked by binaries that issue or verify tokens.
func (c *Config) RequireJWTSecret() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}
