package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/flowdash/internal/domain/preview"
	"github.com/yanqian/flowdash/internal/infra/config"
	"github.com/yanqian/flowdash/internal/infra/queue"
)

// App encapsulates the HTTP server and queue worker lifecycle.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	jobs     queue.HandlerQueue
	previews preview.Service
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, jobs queue.HandlerQueue, previews preview.Service) *App {
	return &App{
		cfg:      cfg,
		logger:   logger.With("component", "bootstrap"),
		server:   server,
		jobs:     jobs,
		previews: previews,
	}
}

// Run starts the queue worker and the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	a.jobs.SetHandler(a.handleJob)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.shutdown()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		_ = a.jobs.Close()
		return err
	}
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	serverErr := a.server.Shutdown(shutdownCtx)
	queueErr := a.jobs.Close()
	return errors.Join(serverErr, queueErr)
}

func (a *App) handleJob(ctx context.Context, name string, payload map[string]any) {
	if err := a.previews.HandleJob(ctx, name, payload); err != nil {
		a.logger.Error("job failed", "job", name, "payload", payload, "error", err)
	}
}
