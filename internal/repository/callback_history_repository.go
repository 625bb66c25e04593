package repository

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"academy_app_echo/internal/models"
)

type GormCallbackHistoryRepository struct {
	db *gorm.DB
}

func NewGormCallbackHistoryRepository(db *gorm.DB) *GormCallbackHistoryRepository {
	return &GormCallbackHistoryRepository{db: db}
}

func (r *GormCallbackHistoryRepository) Record(ctx context.Context, gw models.PaymentGateway, payload json.RawMessage, requestID string) error {
	if !json.Valid(payload) {
		// jsonb columns reject malformed bodies; wrap them so even
		// garbage pings leave an audit row.
		wrapped, err := json.Marshal(map[string]string{"raw": string(payload)})
		if err != nil {
			return err
		}
		payload = wrapped
	}
	entry := models.PaymentCallbackHistory{
		PaymentGateway: gw,
		Payload:        payload,
		RequestID:      requestID,
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}
