package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Cache.Mode)
	assert.Equal(t, time.Minute, cfg.Cache.TTLDuration())
	assert.Equal(t, "Europe/Oslo", cfg.App.Timezone)
	assert.False(t, cfg.DataWarehouse.Enabled)
	assert.Equal(t, 30*time.Second, cfg.DataWarehouse.QueryTimeoutDuration())
	assert.True(t, cfg.Server.EnableSwagger)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("ADMIN_API_KEY", "key-from-env")
	t.Setenv("JWT_SECRET", "secret-from-env")
	t.Setenv("REDIS_URL", "cache.internal:6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "key-from-env", cfg.Auth.APIKey)
	assert.Equal(t, "secret-from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "cache.internal:6380", cfg.Cache.RedisAddr)
}

func TestAppConfig_Location(t *testing.T) {
	a := AppConfig{Timezone: "Europe/Oslo"}
	assert.Equal(t, "Europe/Oslo", a.Location().String())

	a = AppConfig{Timezone: "Not/AZone"}
	assert.Equal(t, time.Local, a.Location())
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
