package payloads

import (
	"bytes"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewNotification собирает уведомление о созданном документе вида kind ("Memo", "Invoice")
func NewNotification(kind string, recordID uuid.UUID, recipient, body string, now time.Time) NotificationPayload {
	return NotificationPayload{
		ID:        uuid.New(),
		Kind:      strings.ToLower(kind),
		RecordID:  recordID,
		Recipient: recipient,
		Subject:   fmt.Sprintf("New %s Created", kind),
		Body:      body,
		CreatedAt: now,
	}
}

// ArchiveKey — ключ письма в архиве объектного хранилища
func (p NotificationPayload) ArchiveKey() string {
	return fmt.Sprintf("notifications/%s/%s.eml", p.Kind, p.RecordID)
}

// RenderEML формирует письмо в формате RFC 5322 (text/plain, UTF-8)
func (p NotificationPayload) RenderEML(from string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", p.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", p.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", p.CreatedAt.UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@ornacloud>\r\n", p.ID)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(p.Body, "\r\n", "\n"), "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}
