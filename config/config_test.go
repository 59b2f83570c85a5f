package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestParseDefaults(t *testing.T) {
	unsetEnv(t, "PORT", "DB_TYPE", "SQLITE_PATH", "TOKEN_TTL", "R2_BUCKET", "R2_ACCOUNT_ID", "R2_PUBLIC_URL")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "expenses.db", cfg.SQLitePath)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.R2.Enabled())
	assert.NoError(t, cfg.RequireJWTSecret())
}

func TestParseRequiresBackendURL(t *testing.T) {
	t.Setenv("DB_TYPE", "Mongo")
	t.Setenv("MONGO_URL", "")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URL is required")
}

func TestParseRejectsUnknownBackend(t *testing.T) {
	t.Setenv("DB_TYPE", "dynamo")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestRequireJWTSecret(t *testing.T) {
	cfg := &Config{JWTSecret: "  "}
	assert.Error(t, cfg.RequireJWTSecret())
}

func TestFromEnvSkipsValidation(t *testing.T) {
	t.Setenv("DB_TYPE", "POSTGRES")
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, "collector:4317", cfg.Telemetry.Endpoint)
	assert.True(t, cfg.Telemetry.Insecure)
	assert.Error(t, cfg.Validate())
}
