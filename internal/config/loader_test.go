package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(&logger, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, Default().Addr, cfg.Addr)
	assert.Equal(t, Default().SendBuffer, cfg.SendBuffer)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config should be written")
}

func TestLoadReadsAppsAndEnv(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
addr: ":9000"
metrics_interval: 30s
apps:
  - key: app-one
    secret: s1
  - key: app-two
    secret: s2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("WIREPUSH_LOG_LEVEL", "debug")

	cfg, _, err := Load(&logger, path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.MetricsInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	require.Len(t, cfg.Apps, 2)
	assert.Equal(t, AppConfig{Key: "app-two", Secret: "s2"}, cfg.Apps[1])

	apps := cfg.CoreApps()
	assert.Equal(t, "app-one", apps[0].Key)
	assert.Equal(t, "s1", apps[0].Secret)
}

func TestLoadRejectsAppWithoutSecret(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apps:\n  - key: lonely\n"), 0o600))

	_, _, err := Load(&logger, path)
	assert.Error(t, err)
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1", DatabasePath: "apps.db"})

	assert.Equal(t, ":1", cfg.Addr)
	assert.Equal(t, "apps.db", cfg.DatabasePath)
	assert.Equal(t, Default().ShutdownTimeout, cfg.ShutdownTimeout)
}
