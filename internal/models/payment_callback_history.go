package models

import (
	"encoding/json"
	"time"
)

// PaymentCallbackHistory keeps every raw inbound gateway notification
// for audit and replay, regardless of how it was classified. Append
// only.
type PaymentCallbackHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	PaymentGateway PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	Payload        json.RawMessage `gorm:"type:jsonb" json:"payload"`
	RequestID      string          `gorm:"type:varchar(100)" json:"request_id"`
}
