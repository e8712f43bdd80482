package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/OrnaCloud/internal/core/ports"
	"github.com/GoArmGo/OrnaCloud/internal/messaging/payloads"
	"github.com/GoArmGo/OrnaCloud/internal/metrics"
)

const emlContentType = "message/rfc822"

// NotificationUseCase доставляет уведомления, полученные воркером из очереди
type NotificationUseCase interface {
	// Deliver отправляет письмо и архивирует его. Ошибка отправки возвращается,
	// чтобы сообщение вернулось в очередь; ошибка архивации только логируется.
	Deliver(ctx context.Context, payload payloads.NotificationPayload) error
}

// notificationUseCase implements NotificationUseCase
type notificationUseCase struct {
	sender  ports.NotificationSender
	archive ports.FileStorage
	from    string
	logger  *slog.Logger
}

// NewNotificationUseCase создает usecase доставки; archive может быть nil
func NewNotificationUseCase(sender ports.NotificationSender, archive ports.FileStorage, from string, logger *slog.Logger) NotificationUseCase {
	return &notificationUseCase{
		sender:  sender,
		archive: archive,
		from:    from,
		logger:  logger,
	}
}

func (uc *notificationUseCase) Deliver(ctx context.Context, payload payloads.NotificationPayload) error {
	if payload.Recipient == "" {
		uc.logger.Warn("notification without recipient skipped", "id", payload.ID)
		return nil
	}

	err := uc.sender.Send(ctx, payload)
	metrics.Notification(payload.Kind, "send", err)
	if err != nil {
		return fmt.Errorf("usecase: ошибка отправки уведомления %s: %w", payload.ID, err)
	}

	if uc.archive != nil {
		key := payload.ArchiveKey()
		_, err := uc.archive.UploadFile(ctx, key, bytes.NewReader(payload.RenderEML(uc.from)), emlContentType)
		metrics.Notification(payload.Kind, "archive", err)
		if err != nil {
			uc.logger.Error("failed to archive notification", "id", payload.ID, "key", key, "error", err)
		}
	}

	uc.logger.Info("notification delivered",
		"id", payload.ID,
		"kind", payload.Kind,
		"record_id", payload.RecordID,
	)
	return nil
}
