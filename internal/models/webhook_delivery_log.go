package models

import (
	"encoding/json"
	"time"
)

// WebhookDeliveryLog is an append-only record of one outbound delivery
// attempt. Rows are never mutated or deleted by the dispatcher;
// retention is an external concern. WebhookID is a weak reference so
// deleting a subscription keeps its audit trail intact.
type WebhookDeliveryLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	WebhookID uint   `gorm:"index" json:"webhook_id"`
	EventType string `gorm:"type:varchar(100);index" json:"event_type"`
	// Payload is the exact envelope bytes that were sent, signature
	// verification on the receiver side hashes these bytes.
	Payload json.RawMessage `gorm:"type:jsonb" json:"payload"`
	// ResponseStatus is nil when the HTTP call itself failed (timeout,
	// DNS, connection refused).
	ResponseStatus *int    `json:"response_status"`
	ResponseBody   string  `gorm:"type:text" json:"response_body"`
	ErrorMessage   *string `gorm:"type:text" json:"error_message"`
	IsSuccess      bool    `gorm:"index" json:"is_success"`
}
