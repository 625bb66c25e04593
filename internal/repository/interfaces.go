package repository

import (
	"context"
	"encoding/json"
	"time"

	"academy_app_echo/internal/models"
)

// SubscriptionRepository provides access to the webhook subscription
// registry. The dispatcher only ever reads; the admin CRUD writes.
type SubscriptionRepository interface {
	Active(ctx context.Context) ([]models.WebhookSubscription, error)
	ActiveForEvent(ctx context.Context, eventType string) ([]models.WebhookSubscription, error)
	List(ctx context.Context) ([]models.WebhookSubscription, error)
	FindByID(ctx context.Context, id uint) (*models.WebhookSubscription, error)
	Create(ctx context.Context, sub *models.WebhookSubscription) error
	Update(ctx context.Context, sub *models.WebhookSubscription) error
	Delete(ctx context.Context, id uint) error
}

// DeliveryLogRepository appends and reads the outbound delivery audit
// trail. Entries are append-only.
type DeliveryLogRepository interface {
	Append(ctx context.Context, entry *models.WebhookDeliveryLog) error
	ListByWebhook(ctx context.Context, webhookID uint, limit, offset int) ([]models.WebhookDeliveryLog, int64, error)
	// FailedSince returns failed entries created at or after since that
	// have no later successful delivery of the same payload to the same
	// subscription. Used by the redispatch reaper.
	FailedSince(ctx context.Context, since time.Time, limit int) ([]models.WebhookDeliveryLog, error)
	CountAttempts(ctx context.Context, webhookID uint, eventType string, payload json.RawMessage) (int64, error)
}

// PaymentRepository provides access to payment records. ApplyStatus is
// the only mutation after creation.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uint) (*models.Payment, error)
	// FindByGatewayRef resolves a gateway notification to a local
	// payment by matching the gateway payment id against the metadata
	// correlation field or the external reference.
	FindByGatewayRef(ctx context.Context, gw models.PaymentGateway, gatewayPaymentID, externalRef string) (*models.Payment, error)
	// ApplyStatus transitions the payment in a single conditional
	// UPDATE, merging metadata into the stored blob. Returns true when
	// a row actually transitioned; duplicate notifications for the
	// current state and stale backward transitions return false.
	ApplyStatus(ctx context.Context, id uint, next models.PaymentStatus, metadata map[string]interface{}) (bool, error)
	// MergeMetadata folds keys into the metadata blob without touching
	// the status. Used by checkout initiation to attach session info.
	MergeMetadata(ctx context.Context, id uint, metadata map[string]interface{}) error
}

// EnrollmentRepository creates enrollment records.
type EnrollmentRepository interface {
	// CreateIfAbsent inserts relying on the (user_id, course_id) unique
	// constraint with ON CONFLICT DO NOTHING. Returns true when a row
	// was created, false when the pair was already enrolled.
	CreateIfAbsent(ctx context.Context, enrollment *models.Enrollment) (bool, error)
	FindByUserCourse(ctx context.Context, userID, courseID uint) (*models.Enrollment, error)
}

// CallbackHistoryRepository records raw inbound gateway callbacks.
type CallbackHistoryRepository interface {
	Record(ctx context.Context, gw models.PaymentGateway, payload json.RawMessage, requestID string) error
}

// TaskRepository schedules background work for the worker.
type TaskRepository interface {
	Schedule(ctx context.Context, task *models.ScheduledTask) error
}

// Repositories bundles the concrete implementations for wiring.
type Repositories struct {
	Subscriptions   SubscriptionRepository
	DeliveryLogs    DeliveryLogRepository
	Payments        PaymentRepository
	Enrollments     EnrollmentRepository
	CallbackHistory CallbackHistoryRepository
	Tasks           TaskRepository
}
