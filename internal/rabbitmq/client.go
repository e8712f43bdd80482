package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/OrnaCloud/internal/config"
	"github.com/GoArmGo/OrnaCloud/internal/messaging/payloads"

	amqp "github.com/rabbitmq/amqp091-go"
)

const prefetchCount = 10

// NotificationHandler обрабатывает одно уведомление из очереди
type NotificationHandler func(context.Context, payloads.NotificationPayload) error

// Client представляет собой клиент RabbitMQ
type Client struct {
	conn            *amqp.Connection
	channel         *amqp.Channel
	queue           amqp.Queue
	deliveryTimeout time.Duration
	logger          *slog.Logger
}

// NewClient создает и инициализирует новый клиент RabbitMQ
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	client := &Client{logger: logger, deliveryTimeout: cfg.RabbitMQ.DeliveryTimeout}

	conn, err := amqp.Dial(cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	client.conn = conn
	logger.Info("connected to RabbitMQ")

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	client.channel = ch

	// Отклонённые без requeue сообщения уходят в <queue>.dead
	deadName := deadLetterQueue(cfg.RabbitMQ.RabbitMQQueueName)
	if _, err := ch.QueueDeclare(deadName, true, false, false, false, nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to declare dead-letter queue: %w", err)
	}

	// Идемпотентно: очередь создаётся, только если её ещё нет
	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.RabbitMQQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		deadLetterArgs(deadName),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}
	client.queue = q
	logger.Info("queue declared", "queue", q.Name, "messages", q.Messages)

	return client, nil
}

func deadLetterQueue(queue string) string {
	return queue + ".dead"
}

// deadLetterArgs направляет отклонённые сообщения через default exchange в очередь dead
func deadLetterArgs(dead string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dead,
	}
}

// Close закрывает соединение и канал RabbitMQ
func (c *Client) Close() {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error("error closing RabbitMQ channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error("error closing RabbitMQ connection", "error", err)
		} else {
			c.logger.Info("RabbitMQ connection closed")
		}
	}
}

// PublishNotification публикует уведомление в очередь.
// Реализует интерфейс ports.NotificationPublisher; время ограничивает ctx вызывающего.
func (c *Client) PublishNotification(ctx context.Context, payload payloads.NotificationPayload) error {
	msg, err := newPublishing(payload)
	if err != nil {
		return err
	}

	if err := c.channel.PublishWithContext(ctx, "", c.queue.Name, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}
	c.logger.Info("notification published to queue",
		"queue", c.queue.Name,
		"id", payload.ID,
		"kind", payload.Kind,
	)
	return nil
}

func newPublishing(payload payloads.NotificationPayload) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal payload to JSON: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    payload.ID.String(),
		Timestamp:    time.Now().UTC(),
		Type:         payload.Kind,
		Body:         body,
	}, nil
}

// StartConsumingNotifications начинает потребление уведомлений.
// Реализует интерфейс ports.NotificationConsumer. Обработка идёт в отдельной горутине до отмены ctx.
func (c *Client) StartConsumingNotifications(ctx context.Context, handler func(context.Context, payloads.NotificationPayload) error) error {
	if err := c.channel.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queue.Name,
		"",    // consumer
		false, // auto-ack: подтверждаем вручную
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("consumer registered, waiting for messages", "queue", c.queue.Name)

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn("RabbitMQ delivery channel closed, stopping consumer")
					return
				}
				handleDelivery(ctx, msg, handler, c.deliveryTimeout, c.logger)
			case <-ctx.Done():
				c.logger.Info("context cancelled, stopping RabbitMQ consumer")
				return
			}
		}
	}()

	return nil
}

// handleDelivery разбирает сообщение и подтверждает его по результату обработки.
// Битое сообщение отклоняется без возврата в очередь. Ошибка обработки возвращает сообщение
// в очередь один раз, повторная ошибка отправляет его в dead-letter очередь.
// Каждая обработка ограничена timeout.
func handleDelivery(ctx context.Context, msg amqp.Delivery, handler NotificationHandler, timeout time.Duration, logger *slog.Logger) {
	var payload payloads.NotificationPayload
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		logger.Error("malformed notification message", "error", err, "body", string(msg.Body))
		if err := msg.Nack(false, false); err != nil {
			logger.Error("error NACKing malformed message", "error", err)
		}
		return
	}

	hctx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		hctx, cancel = context.WithTimeout(ctx, timeout)
	}
	err := handler(hctx, payload)
	cancel()

	if err != nil {
		requeue := !msg.Redelivered
		logger.Error("error processing notification",
			"id", payload.ID,
			"redelivered", msg.Redelivered,
			"requeue", requeue,
			"error", err,
		)
		if err := msg.Nack(false, requeue); err != nil {
			logger.Error("error NACKing message after processing failure", "error", err)
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("error ACKing message", "id", payload.ID, "error", err)
		return
	}
	logger.Info("notification processed", "id", payload.ID)
}
