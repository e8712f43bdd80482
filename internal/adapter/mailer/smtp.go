package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/config"
	"github.com/GoArmGo/OrnaCloud/internal/messaging/payloads"
)

// sendFunc совпадает с smtp.SendMail; подменяется в тестах
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender отправляет уведомления через SMTP-сервер
type SMTPSender struct {
	addr   string
	auth   smtp.Auth
	from   string
	send   sendFunc
	logger *slog.Logger
}

// NewSMTPSender создает отправителя. Без логина письма отправляются без аутентификации.
func NewSMTPSender(cfg config.SMTPConfig, logger *slog.Logger) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		addr:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth:   auth,
		from:   cfg.From,
		send:   smtp.SendMail,
		logger: logger,
	}
}

// Send реализует ports.NotificationSender.
// smtp.SendMail не принимает контекст, поэтому отмена ctx лишь перестаёт ждать результата.
func (s *SMTPSender) Send(ctx context.Context, payload payloads.NotificationPayload) error {
	start := time.Now()
	msg := payload.RenderEML(s.from)

	done := make(chan error, 1)
	go func() {
		done <- s.send(s.addr, s.auth, s.from, []string{payload.Recipient}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Error("failed to send email", "to", payload.Recipient, "id", payload.ID, "error", err)
			return fmt.Errorf("ошибка отправки письма: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("ошибка отправки письма: %w", ctx.Err())
	}

	s.logger.Info("email sent",
		"to", payload.Recipient,
		"id", payload.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// LogSender пишет уведомления в лог вместо отправки; используется, когда SMTP не настроен
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, payload payloads.NotificationPayload) error {
	s.logger.Info("email delivery is not configured, notification logged",
		"to", payload.Recipient,
		"subject", payload.Subject,
		"body", payload.Body,
	)
	return nil
}
