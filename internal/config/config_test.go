package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultline/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	c, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "prod", c.Env)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, "svc", c.Errors.ServicePrefix)
	assert.False(t, c.Errors.Debug)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, "file://migrations/sqlite", c.DB.Migrations)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("ERROR_SERVICE_PREFIX", "billing")
	t.Setenv("DEBUG_ERRORS", "1")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("PG_DSN", "postgres://u:p@localhost:5432/db")

	c, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", c.HTTP.Addr)
	assert.Equal(t, "billing", c.Errors.ServicePrefix)
	assert.True(t, c.Errors.Debug)
	assert.Equal(t, "postgres", c.DB.Driver)
}

func TestLoadRejectsPostgresWithoutDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("PG_DSN", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadRejectsDebugOutsideDev(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("DEBUG_ERRORS", "1")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidLevel(t *testing.T) {
	t.Setenv("LOG_CONSOLE_LEVEL", "loud")

	_, err := config.Load()
	assert.Error(t, err)
}
