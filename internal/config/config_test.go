package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("TOKEN_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, SessionBackendRedis, cfg.SessionBackend)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Len(t, cfg.SessionSecret, 64, "debug mode generates a secret")
	assert.NotEqual(t, cfg.SessionSecret, cfg.TokenSecret)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("SESSION_TTL_HOURS", "2")
	t.Setenv("SESSION_BACKEND", "db")
	t.Setenv("SWEEP_INTERVAL_MINUTES", "5")
	t.Setenv("BCRYPT_COST", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, SessionBackendDB, cfg.SessionBackend)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestValidateReleaseRequiresSecrets(t *testing.T) {
	cfg := &Config{
		GinMode:         "release",
		SessionBackend:  SessionBackendRedis,
		SessionRedisURL: "redis://localhost:6379/0",
		DatabaseDriver:  DriverPostgres,
		DatabaseDSN:     "postgres://localhost/issuehub",
		SessionTTL:      time.Hour,
		BcryptCost:      10,
	}
	require.Error(t, cfg.Validate())

	cfg.SessionSecret = "cookie-secret"
	require.Error(t, cfg.Validate())

	cfg.TokenSecret = "token-secret"
	require.NoError(t, cfg.Validate())

	cfg.SessionBackend = SessionBackendMemory
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := &Config{
		SessionBackend: "memcached",
		DatabaseDriver: DriverSQLite,
		SessionTTL:     time.Hour,
		BcryptCost:     10,
	}
	assert.Error(t, cfg.Validate())

	cfg.SessionBackend = SessionBackendDB
	cfg.DatabaseDriver = "mysql"
	assert.Error(t, cfg.Validate())
}
