package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"academy_app_echo/internal/models"
)

type GormDeliveryLogRepository struct {
	db *gorm.DB
}

func NewGormDeliveryLogRepository(db *gorm.DB) *GormDeliveryLogRepository {
	return &GormDeliveryLogRepository{db: db}
}

func (r *GormDeliveryLogRepository) Append(ctx context.Context, entry *models.WebhookDeliveryLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormDeliveryLogRepository) ListByWebhook(ctx context.Context, webhookID uint, limit, offset int) ([]models.WebhookDeliveryLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WebhookDeliveryLog{}).Where("webhook_id = ?", webhookID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.WebhookDeliveryLog
	err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, total, err
}

func (r *GormDeliveryLogRepository) FailedSince(ctx context.Context, since time.Time, limit int) ([]models.WebhookDeliveryLog, error) {
	var entries []models.WebhookDeliveryLog
	err := r.db.WithContext(ctx).
		Where("is_success = ? AND created_at >= ?", false, since).
		Where(`NOT EXISTS (
			SELECT 1 FROM webhook_delivery_logs later
			WHERE later.webhook_id = webhook_delivery_logs.webhook_id
			  AND later.event_type = webhook_delivery_logs.event_type
			  AND later.payload = webhook_delivery_logs.payload
			  AND later.is_success = ?)`, true).
		Order("created_at asc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *GormDeliveryLogRepository) CountAttempts(ctx context.Context, webhookID uint, eventType string, payload json.RawMessage) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WebhookDeliveryLog{}).
		Where("webhook_id = ? AND event_type = ? AND payload = ?::jsonb", webhookID, eventType, string(payload)).
		Count(&count).Error
	return count, err
}
