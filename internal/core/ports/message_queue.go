package ports

import (
	"context"
	"io"

	"github.com/GoArmGo/OrnaCloud/internal/messaging/payloads"
)

// NotificationPublisher публикует уведомление о созданной записи.
// Используется usecase'ом записей после успешного create.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, payload payloads.NotificationPayload) error
}

// NotificationConsumer используется воркером для получения уведомлений из очереди.
// handler вызывается для каждого сообщения; ошибка handler'а возвращает сообщение в очередь.
type NotificationConsumer interface {
	StartConsumingNotifications(ctx context.Context, handler func(context.Context, payloads.NotificationPayload) error) error
}

// NotificationSender доставляет письмо получателю (SMTP или лог)
type NotificationSender interface {
	Send(ctx context.Context, payload payloads.NotificationPayload) error
}

// FileStorage сохраняет архивные копии уведомлений (AWS S3, MinIO)
type FileStorage interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
}
