package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingDotenv(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(missingDotenv(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.GetAddr())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 60*time.Second, cfg.Game.NightWindow)
	assert.Equal(t, 60*time.Second, cfg.Game.DayWindow)
	assert.Equal(t, 5*time.Second, cfg.Game.RoundPause)
	assert.Equal(t, "en", cfg.Game.Locale)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.HistoryEnabled())
	assert.Equal(t, 5.0, cfg.Limits.CommandRate)
	assert.Equal(t, 10, cfg.Limits.CommandBurst)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("NIGHT_WINDOW", "30s")
	t.Setenv("DAY_WINDOW", "2m")
	t.Setenv("ROUND_PAUSE", "0s")
	t.Setenv("LOCALE", "es")
	t.Setenv("HISTORY_DB_PATH", "/tmp/mafia.db")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(missingDotenv(t))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30*time.Second, cfg.Game.NightWindow)
	assert.Equal(t, 2*time.Minute, cfg.Game.DayWindow)
	assert.Zero(t, cfg.Game.RoundPause)
	assert.Equal(t, "es", cfg.Game.Locale)
	assert.True(t, cfg.HistoryEnabled())
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("COMMAND_BURST=3\n"), 0o600))
	t.Setenv("COMMAND_BURST", "")
	require.NoError(t, os.Unsetenv("COMMAND_BURST"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Limits.CommandBurst)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unparsable duration", key: "NIGHT_WINDOW", value: "soon"},
		{name: "zero window", key: "DAY_WINDOW", value: "0s"},
		{name: "negative pause", key: "ROUND_PAUSE", value: "-1s"},
		{name: "zero rate", key: "COMMAND_RATE", value: "0"},
		{name: "bad log format", key: "LOG_FORMAT", value: "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(missingDotenv(t))
			assert.Error(t, err)
		})
	}
}
