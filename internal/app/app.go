package app

import (
	"bytes"
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepush/internal/config"
	"github.com/vovakirdan/wirepush/internal/core"
	"github.com/vovakirdan/wirepush/internal/metrics"
	"github.com/vovakirdan/wirepush/internal/store"
	"github.com/vovakirdan/wirepush/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wirepush/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	registry        *core.Registry
	metrics         *metrics.Metrics
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	apps := cfg.CoreApps()

	var st store.Store
	if cfg.DatabasePath != "" {
		sqliteStore, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		st = sqliteStore

		stored, err := st.ListApps(ctx)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("load apps: %w", err)
		}
		for _, a := range stored {
			apps = append(apps, core.App{Key: a.Key, Secret: a.Secret})
		}
		logger.Info().Str("db_path", cfg.DatabasePath).Int("stored_apps", len(stored)).Msg("app store initialized")
	}

	registry, err := core.NewRegistry(apps)
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, fmt.Errorf("build registry: %w", err)
	}
	if len(apps) == 0 {
		logger.Warn().Msg("no apps registered; every connection will be refused")
	}

	m := metrics.New(metricsLogWriter{log: logger}, cfg.MetricsInterval)
	rooms := transporthttp.NewRooms(m, logger)
	router := core.NewRouter(registry, rooms, logger, core.WithCounters(m))
	server := transporthttp.NewServer(router, rooms, m, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		registry:        registry,
		metrics:         m,
		store:           st,
		log:             logger,
	}, nil
}

// Registry returns the namespace registry built at startup.
func (a *App) Registry() *core.Registry {
	return a.registry
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	go a.metrics.Run(metricsCtx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	a.log.Info().Str("addr", a.server.Addr).Strs("apps", a.registry.AppIDs()).Msg("push server listening")

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}

// metricsLogWriter turns periodic metric reports into log lines.
type metricsLogWriter struct {
	log *zerolog.Logger
}

func (w metricsLogWriter) Write(p []byte) (int, error) {
	w.log.Info().RawJSON("metrics", bytes.TrimSpace(p)).Msg("metrics report")
	return len(p), nil
}
