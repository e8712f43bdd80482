package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	ServerPort     string        `env:"SERVER_PORT"`
	LogLevel       string        `env:"LOG_LEVEL"`
	LogFormat      string        `env:"LOG_FORMAT"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	MigrationsPath string        `env:"MIGRATIONS_PATH"`

	// Сессии и аутентификация
	SessionTTL          time.Duration `env:"SESSION_TTL"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE"`
	SessionCleanupSpec  string        `env:"SESSION_CLEANUP_SPEC"`
	BcryptCost          int           `env:"BCRYPT_COST"`
	LoginRatePerSec     float64       `env:"LOGIN_RATE_PER_SEC"`
	LoginRateBurst      int           `env:"LOGIN_RATE_BURST"`
	// TrustProxyHeaders: брать адрес клиента из X-Forwarded-For / X-Real-IP.
	// Включать только за доверенным reverse proxy.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS"`

	// Таймаут публикации уведомления после создания записи
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT"`

	RabbitMQ RabbitMQConfig

	// SMTP нужен только воркеру; пустой хост означает доставку в лог
	SMTP SMTPConfig

	// MinIO архив отправленных уведомлений, тоже только для воркера
	Minio MinioConfig
}

type RabbitMQConfig struct {
	RabbitMQURL       string `env:"RABBITMQ_URL,required"`
	RabbitMQQueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"notification_queue"`
	// DeliveryTimeout ограничивает обработку одного уведомления воркером
	DeliveryTimeout time.Duration `env:"NOTIFY_DELIVERY_TIMEOUT" envDefault:"30s"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"no-reply@ornacloud.local"`
}

type MinioConfig struct {
	Endpoint        string `env:"MINIO_ENDPOINT"`
	AccessKeyID     string `env:"MINIO_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY"`
	UseSSL          bool   `env:"MINIO_USE_SSL"`
	BucketName      string `env:"MINIO_BUCKET_NAME" envDefault:"notifications"`
	Region          string `env:"MINIO_REGION" envDefault:"us-east-1"`
}

// Enabled сообщает, что архив настроен
func (m MinioConfig) Enabled() bool {
	return m.Endpoint != ""
}

// LoadConfig загружает конфигурацию из переменных окружения.
// В режиме разработки пытается загрузить .env файл.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults проставляет значения по умолчанию для незаданных полей
func (c *Config) applyDefaults() {
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.MigrationsPath == "" {
		c.MigrationsPath = "file://internal/database/migrations"
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * 24 * time.Hour
	}
	if c.SessionCleanupSpec == "" {
		c.SessionCleanupSpec = "@every 1h"
	}
	// 0 оставляем: usecase подставит bcrypt.DefaultCost
	if c.LoginRatePerSec <= 0 {
		c.LoginRatePerSec = 5
	}
	if c.LoginRateBurst <= 0 {
		c.LoginRateBurst = 10
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = 3 * time.Second
	}
	if c.RabbitMQ.DeliveryTimeout <= 0 {
		c.RabbitMQ.DeliveryTimeout = 30 * time.Second
	}
}
