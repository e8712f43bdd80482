package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	shutdownTimeout     = 30 * time.Second
	limiterCleanupEvery = time.Minute
	limiterIdleTTL      = 10 * time.Minute
)

// runServer засевает справочники и обслуживает HTTP до отмены ctx
func (a *App) runServer(ctx context.Context) error {
	if err := a.res.Categories.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("не удалось засеять категории: %w", err)
	}

	if a.res.LoginLimiter != nil {
		go a.res.LoginLimiter.Run(ctx, limiterCleanupEvery, limiterIdleTTL)
	}

	serverAddr := fmt.Sprintf(":%s", a.Config.ServerPort)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           a.res.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server started", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка при запуске сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received, stopping HTTP server")

	ctxServer, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxServer); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.logger.Info("HTTP server stopped")
	return nil
}
