package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirepush/internal/config"
	"github.com/vovakirdan/wirepush/internal/core"
	"github.com/vovakirdan/wirepush/internal/store/sqlite"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.MetricsInterval = 0
	cfg.ShutdownTimeout = time.Second
	cfg.Apps = []config.AppConfig{{Key: "from-config", Secret: "c"}}
	return cfg
}

func TestNewMergesStoredApps(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "apps.db")

	st, err := sqlite.New(dbPath)
	require.NoError(t, err)
	_, err = st.CreateApp(ctx, "from-store", "s")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	cfg := testConfig(t)
	cfg.DatabasePath = dbPath

	a, err := New(ctx, &cfg, &logger)
	require.NoError(t, err)
	t.Cleanup(a.cleanup)

	assert.Equal(t, []string{"from-config", "from-store"}, a.Registry().AppIDs())
}

func TestNewRejectsDuplicateApps(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "apps.db")

	st, err := sqlite.New(dbPath)
	require.NoError(t, err)
	_, err = st.CreateApp(ctx, "from-config", "other")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	cfg := testConfig(t)
	cfg.DatabasePath = dbPath

	_, err = New(ctx, &cfg, &logger)
	assert.ErrorIs(t, err, core.ErrDuplicateApp)
}

func TestRunStopsOnCancel(t *testing.T) {
	logger := zerolog.Nop()
	cfg := testConfig(t)

	a, err := New(context.Background(), &cfg, &logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
