package di

import (
	"context"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/adapter/mailer"
	"github.com/GoArmGo/OrnaCloud/internal/adapter/storage/minio"
	"github.com/GoArmGo/OrnaCloud/internal/app"
	"github.com/GoArmGo/OrnaCloud/internal/config"
	"github.com/GoArmGo/OrnaCloud/internal/core/ports"
	"github.com/GoArmGo/OrnaCloud/internal/database/client"
	"github.com/GoArmGo/OrnaCloud/internal/database/postgres"
	"github.com/GoArmGo/OrnaCloud/internal/database/storage"
	"github.com/GoArmGo/OrnaCloud/internal/domain"
	"github.com/GoArmGo/OrnaCloud/internal/handler"
	"github.com/GoArmGo/OrnaCloud/internal/logger"
	"github.com/GoArmGo/OrnaCloud/internal/rabbitmq"
	"github.com/GoArmGo/OrnaCloud/internal/usecase"
)

const minioInitTimeout = 15 * time.Second

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp() (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogCfg := logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}
	slogger := logger.NewSlog(slogCfg)

	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	var closers []func() error
	fail := func(err error) (*app.App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	// 2. Инициализация PostgreSQL клиента и миграции
	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, dbClient.Close)

	if err := client.ApplyMigrations(cfg.DatabaseURL, cfg.MigrationsPath, slogger); err != nil {
		return fail(err)
	}

	gormDB, err := postgres.OpenGorm(dbClient.DB.DB)
	if err != nil {
		return fail(err)
	}

	// 3. Инициализация хранилищ
	userStorage := storage.NewUserStorage(dbClient.DB, slogger)
	sessionStorage := storage.NewSessionStorage(dbClient.DB, slogger)
	memoStorage := storage.NewMemoStorage(dbClient.DB, slogger)
	invoiceStorage := storage.NewInvoiceStorage(dbClient.DB, slogger)
	companyStorage := storage.NewCompanyStorage(dbClient.DB, slogger)
	categoryStorage := postgres.NewGormCategoryStorage(gormDB, slogger)

	// 4. Инициализация RabbitMQ клиента (publisher для сервера, consumer для воркера)
	rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() error { rabbitMQClient.Close(); return nil })

	// 5. Доставка писем и архив в S3 / MinIO
	var sender ports.NotificationSender
	if cfg.SMTP.Host != "" {
		sender = mailer.NewSMTPSender(cfg.SMTP, slogger)
	} else {
		slogger.Warn("SMTP_HOST is not set, notifications will only be logged")
		sender = mailer.NewLogSender(slogger)
	}

	var archive ports.FileStorage
	if cfg.Minio.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), minioInitTimeout)
		fileStorage, err := minio.NewMinioClient(ctx, cfg.Minio, slogger)
		cancel()
		if err != nil {
			return fail(err)
		}
		archive = fileStorage
	} else {
		slogger.Info("MINIO_ENDPOINT is not set, notification archive disabled")
	}

	// 6. Инициализация бизнес-логики (usecases)
	authUseCase := usecase.NewAuthUseCase(userStorage, sessionStorage, categoryStorage, usecase.AuthConfig{
		SessionTTL: cfg.SessionTTL,
		BcryptCost: cfg.BcryptCost,
	}, slogger)
	categoryUseCase := usecase.NewCategoryUseCase(categoryStorage)
	recordCfg := usecase.RecordConfig{NotifyTimeout: cfg.NotifyTimeout}
	memoUseCase := usecase.NewMemoUseCase(memoStorage, rabbitMQClient, recordCfg, slogger)
	invoiceUseCase := usecase.NewInvoiceUseCase(invoiceStorage, rabbitMQClient, recordCfg, slogger)
	companyUseCase := usecase.NewCompanyUseCase(companyStorage)
	notificationUseCase := usecase.NewNotificationUseCase(sender, archive, cfg.SMTP.From, slogger)

	// 7. HTTP-слой
	loginLimiter := handler.NewLoginLimiter(cfg.LoginRatePerSec, cfg.LoginRateBurst, slogger)
	router := handler.NewRouter(handler.RouterDeps{
		Auth: handler.NewAuthHandler(authUseCase, handler.CookieConfig{Secure: cfg.SessionCookieSecure}, slogger),
		Memos: handler.NewRecordHandler[*domain.Memo](memoUseCase, domain.KindMemo,
			func() domain.Patch[*domain.Memo] { return &domain.MemoPatch{} }, slogger),
		Invoices: handler.NewRecordHandler[*domain.Invoice](invoiceUseCase, domain.KindInvoice,
			func() domain.Patch[*domain.Invoice] { return &domain.InvoicePatch{} }, slogger),
		Directory:    handler.NewDirectoryHandler(memoUseCase, companyUseCase, categoryUseCase, slogger),
		LoginLimiter: loginLimiter,
		DB:           dbClient.DB,
		Timeout:      cfg.RequestTimeout,
		TrustProxy:   cfg.TrustProxyHeaders,
		Logger:       slogger,
	})

	// 8. Сборка итогового приложения
	application := app.NewApp(cfg, slogger, app.Resources{
		Router:        router,
		LoginLimiter:  loginLimiter,
		Auth:          authUseCase,
		Categories:    categoryUseCase,
		Notifications: notificationUseCase,
		Consumer:      rabbitMQClient,
		Closers:       closers,
	})

	slogger.Info("all dependencies initialized")
	return application, nil
}
