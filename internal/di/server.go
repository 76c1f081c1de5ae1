package di

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ritu11x/cortex-ai/internal/config"
	"github.com/ritu11x/cortex-ai/internal/observability"
)

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// within the configured shutdown timeout.
func Serve(ctx context.Context, c *Container) error {
	srv := &http.Server{
		Addr:         c.Config.Server.Addr(),
		Handler:      c.Router,
		ReadTimeout:  c.Config.Server.ReadTimeout,
		WriteTimeout: c.Config.Server.WriteTimeout,
		IdleTimeout:  c.Config.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Logger.Info("starting server",
			zap.String("address", srv.Addr),
			zap.String("store", c.Config.Store.Driver),
			zap.Bool("auth", c.Config.Security.EnableAuth))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		c.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Config.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// WatchConfig hot-reloads the log level when configuration files change.
// Outside development the returned watcher is inert.
func WatchConfig(c *Container, loader *config.Loader) (*config.Watcher, error) {
	w, err := config.NewWatcher(loader, c.Config, c.Logger)
	if err != nil {
		return nil, err
	}
	w.OnChange(func(next *config.Config) {
		if err := observability.SetLevel(c.LogLevel, next.Logging.Level); err != nil {
			c.Logger.Warn("ignoring invalid log level", zap.String("level", next.Logging.Level), zap.Error(err))
			return
		}
		c.Logger.Info("log level updated", zap.String("level", next.Logging.Level))
	})
	return w, nil
}
