package models

import (
	"time"

	"gorm.io/gorm"
)

// WebhookSubscription is a registered external endpoint that receives
// fan-out domain events. Managed via the admin CRUD; read-only from the
// dispatcher's perspective.
type WebhookSubscription struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name string `gorm:"type:varchar(255)" json:"name"`
	URL  string `gorm:"type:text" json:"url"`
	// Events is the event-type allow-list, e.g. ["payment.succeeded",
	// "course.created"]. A subscription is eligible for an event iff the
	// event type is a member.
	Events   []string `gorm:"serializer:json;type:jsonb" json:"events"`
	IsActive bool     `gorm:"default:true" json:"is_active"`
	// SecretKey, when set, makes every delivery carry an HMAC-SHA256
	// signature over the exact request body.
	SecretKey string `gorm:"type:text" json:"secret_key,omitempty"`
}

// Subscribes reports whether the subscription allow-lists eventType.
func (s WebhookSubscription) Subscribes(eventType string) bool {
	for _, e := range s.Events {
		if e == eventType {
			return true
		}
	}
	return false
}
