package config_test

import (
	"testing"
	"time"

	"steamprofile-rest-api/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.Steam.MinCallInterval)
	assert.Equal(t, 60*time.Second, cfg.Steam.SnapshotTTL)
	assert.Equal(t, 30*time.Second, cfg.Steam.StatusCooldown)
	assert.Equal(t, 3*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 1, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.TrustProxy)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, "sqlite", cfg.IndexDB.Type)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STEAM_MIN_CALL_INTERVAL", "2s")
	t.Setenv("INDEX_DB_TYPE", "mysql")
	t.Setenv("INDEX_DB_HOST", "db")
	t.Setenv("INDEX_DB_PORT", "3306")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
	assert.Equal(t, 2*time.Second, cfg.Steam.MinCallInterval)
	assert.Equal(t, "postgres:@tcp(db:3306)/steamprofile?parseTime=true", cfg.IndexDB.MySQLDSN())
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("STEAM_SNAPSHOT_TTL", "soon")

	_, err := config.Load()
	require.Error(t, err)
}
