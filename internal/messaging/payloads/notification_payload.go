package payloads

import (
	"time"

	"github.com/google/uuid"
)

// NotificationPayload — письмо покупателю о созданном документе, передаётся через RabbitMQ
type NotificationPayload struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	RecordID  uuid.UUID `json:"record_id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
