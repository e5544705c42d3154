package panelagent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kurumisoft/panel-agent/internal/account"
	"github.com/kurumisoft/panel-agent/internal/api"
	"github.com/kurumisoft/panel-agent/internal/config"
	"github.com/kurumisoft/panel-agent/internal/metrics"
	"github.com/kurumisoft/panel-agent/internal/session"
	"github.com/kurumisoft/panel-agent/internal/settings"
	"github.com/kurumisoft/panel-agent/internal/storage"
	"github.com/kurumisoft/panel-agent/internal/storage/filekv"
	"github.com/kurumisoft/panel-agent/internal/storage/rediskv"
	"github.com/kurumisoft/panel-agent/internal/theme"
)

// App агент панели управления хостингом.
type App struct {
	server *http.Server
	logger *slog.Logger
	source *theme.GSettingsSource
	syncer *theme.Synchronizer
}

// New инициализирует все зависимости агента и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	kv, err := newKV(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sess := session.New(ctx, kv, logger)
	prefs := settings.New(ctx, kv, logger)

	pipeline := metrics.NewPipeline(prometheus.DefaultRegisterer)
	client := api.New(cfg.RemoteAPI, sess, pipeline, logger, func() {
		logger.Warn("session expired, client will be redirected to login")
	})

	flow := account.NewFlow(client, sess, logger)

	resolved := &theme.Resolved{}
	source := theme.NewGSettingsSource(cfg.Theme.PollInterval, logger)
	syncer := theme.Start(prefs, source, resolved, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, client, sess, prefs, resolved, flow)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		source: source,
		syncer: syncer,
	}, nil
}

// Run запускает локальный сервер и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.syncer.Stop()
		a.source.Close()
		return err
	}
}

// newKV выбирает бэкенд локального хранилища состояния.
func newKV(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	switch cfg.Storage.Backend {
	case "redis":
		return rediskv.New(ctx, cfg.RedisConnection)
	case "file", "":
		return filekv.New(cfg.Storage.StateDir, cfg.Storage.SealKeyHex)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}
