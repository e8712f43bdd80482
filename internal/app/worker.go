package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/metrics"
	"github.com/GoArmGo/OrnaCloud/internal/usecase"
	"github.com/robfig/cron/v3"
)

const cronStopTimeout = 10 * time.Second

// runWorker доставляет уведомления из очереди и по расписанию чистит истёкшие сессии
func (a *App) runWorker(ctx context.Context) error {
	scheduler, err := newScheduler(a.Config.SessionCleanupSpec, func() {
		purgeSessions(ctx, a.res.Auth, a.logger)
	})
	if err != nil {
		return err
	}

	if err := a.res.Consumer.StartConsumingNotifications(ctx, a.res.Notifications.Deliver); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}

	scheduler.Start()
	a.logger.Info("worker started, waiting for notifications",
		"session_cleanup", a.Config.SessionCleanupSpec,
	)

	<-ctx.Done()
	a.logger.Info("shutdown signal received, stopping worker")

	// ждём завершения запущенной задачи очистки
	select {
	case <-scheduler.Stop().Done():
	case <-time.After(cronStopTimeout):
		a.logger.Warn("session cleanup did not finish in time")
	}

	a.logger.Info("worker stopped")
	return nil
}

// newScheduler создаёт cron-планировщик с одной задачей
func newScheduler(spec string, job func()) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, fmt.Errorf("некорректное расписание %q: %w", spec, err)
	}
	return c, nil
}

func purgeSessions(ctx context.Context, auth usecase.AuthUseCase, logger *slog.Logger) {
	start := time.Now()
	n, err := auth.PurgeExpiredSessions(ctx)
	if err != nil {
		logger.Error("failed to purge expired sessions", "error", err)
		return
	}
	metrics.SessionsPurged(n)
	logger.Info("expired sessions purged",
		"count", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
