package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/OrnaCloud/internal/config"
	"github.com/GoArmGo/OrnaCloud/internal/core/ports"
	"github.com/GoArmGo/OrnaCloud/internal/handler"
	"github.com/GoArmGo/OrnaCloud/internal/usecase"
)

// Режимы запуска
const (
	ModeServer = "server"
	ModeWorker = "worker"
)

// ErrUnknownMode — неизвестный режим запуска
var ErrUnknownMode = errors.New("unknown mode")

// Resources — зависимости, нужные серверу и воркеру
type Resources struct {
	Router        http.Handler
	LoginLimiter  *handler.LoginLimiter
	Auth          usecase.AuthUseCase
	Categories    usecase.CategoryUseCase
	Notifications usecase.NotificationUseCase
	Consumer      ports.NotificationConsumer
	// Closers вызываются при завершении в обратном порядке
	Closers []func() error
}

type App struct {
	Config *config.Config
	logger *slog.Logger
	res    Resources
}

func NewApp(cfg *config.Config, logger *slog.Logger, res Resources) *App {
	return &App{
		Config: cfg,
		logger: logger,
		res:    res,
	}
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Run запускает приложение в режиме server или worker и блокируется до сигнала завершения.
func (a *App) Run(ctx context.Context, mode string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting app", "mode", mode)

	var err error
	switch mode {
	case ModeServer:
		err = a.runServer(ctx)
	case ModeWorker:
		err = a.runWorker(ctx)
	default:
		err = fmt.Errorf("%w: %s (используйте 'server' или 'worker')", ErrUnknownMode, mode)
	}

	// аккуратно закрываем ресурсы
	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown finished with errors", "error", closeErr)
	}

	if err != nil {
		return err
	}
	a.logger.Info("app stopped gracefully")
	return nil
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.res.Closers) - 1; i >= 0; i-- {
		if err := a.res.Closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.res.Closers = nil
	return errors.Join(errs...)
}
