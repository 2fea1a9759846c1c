package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, DriverMySQL, cfg.DatabaseDriver)
	assert.True(t, cfg.DatabaseMigrate)
	assert.Equal(t, "addrbook", cfg.JWTIssuer)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRY", "15m")
	t.Setenv("AUTH_RATE_BURST", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.DatabaseDriver)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.JWTExpiry)
	assert.Equal(t, 3, cfg.AuthRateBurst)
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")

	_, err := Load()
	require.ErrorIs(t, err, ErrDefaultSecretInProduction)
}

func TestLoadProductionDefaultsToJSONLogs(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "real-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "forever")

	_, err := Load()
	require.Error(t, err)
}
