package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{"PORT", "DB_PATH", "LOG_LEVEL", "SWEEP_SCHEDULE", "STRICT_GENERATION"}

// clearEnv unsets keys for the duration of the test.
func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./data/leases.db", cfg.DBPath)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "@daily", cfg.SweepSchedule)
	assert.False(t, cfg.StrictGeneration)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nSTRICT_GENERATION=true\nLOG_LEVEL=debug\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.StrictGeneration)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SWEEP_SCHEDULE", "every tuesday")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SWEEP_SCHEDULE", "@hourly")
	t.Setenv("STRICT_GENERATION", "maybe")
	_, err = Load()
	assert.Error(t, err)
}
