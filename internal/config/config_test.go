package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaultsLocal(t *testing.T) {
	cfg := &Config{BuildTarget: "local", DBDriver: "auto", SyncMaxBatch: 100}
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, "sqlite", cfg.DBDriver)
}

func TestResolveDefaultsCloud(t *testing.T) {
	cfg := &Config{BuildTarget: "cloud", DBDriver: "", SyncMaxBatch: 100}
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestExplicitDriverKept(t *testing.T) {
	cfg := &Config{BuildTarget: "local", DBDriver: "memory", SyncMaxBatch: 100}
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, "memory", cfg.DBDriver)
}

func TestUnsupportedBuildTarget(t *testing.T) {
	cfg := &Config{BuildTarget: "mainframe", SyncMaxBatch: 100}
	assert.Error(t, cfg.ResolveDefaults())
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := &Config{BuildTarget: "local", DBDriver: "oracle", SyncMaxBatch: 100}
	assert.Error(t, cfg.ResolveDefaults())
}

func TestBatchBoundMustBePositive(t *testing.T) {
	cfg := &Config{BuildTarget: "local", DBDriver: "memory", SyncMaxBatch: 0}
	assert.Error(t, cfg.ResolveDefaults())
}

func TestEnvParsing(t *testing.T) {
	t.Setenv("SKYLOG_HTTP_PORT", "9191")
	t.Setenv("SKYLOG_DB_DRIVER", "memory")
	t.Setenv("SKYLOG_SYNC_MAX_BATCH", "25")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.HTTPPort)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, 25, cfg.SyncMaxBatch)
	assert.Equal(t, ":9191", cfg.GetHTTPAddr())
}

func TestTestingConfig(t *testing.T) {
	cfg := NewForTesting()
	assert.True(t, cfg.IsTesting())
	assert.Equal(t, "memory", cfg.DBDriver)
	require.NoError(t, cfg.ResolveDefaults())
}
