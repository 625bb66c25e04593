package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"academy_app_echo/internal/models"
)

type GormSubscriptionRepository struct {
	db *gorm.DB
}

func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

func (r *GormSubscriptionRepository) Active(ctx context.Context) ([]models.WebhookSubscription, error) {
	var subs []models.WebhookSubscription
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id asc").Find(&subs).Error
	return subs, err
}

// ActiveForEvent filters the active set by allow-list membership. The
// membership check happens in Go so the jsonb column stays portable
// across the cached and uncached paths.
func (r *GormSubscriptionRepository) ActiveForEvent(ctx context.Context, eventType string) ([]models.WebhookSubscription, error) {
	active, err := r.Active(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByEvent(active, eventType), nil
}

func (r *GormSubscriptionRepository) List(ctx context.Context) ([]models.WebhookSubscription, error) {
	var subs []models.WebhookSubscription
	err := r.db.WithContext(ctx).Order("id asc").Find(&subs).Error
	return subs, err
}

func (r *GormSubscriptionRepository) FindByID(ctx context.Context, id uint) (*models.WebhookSubscription, error) {
	var sub models.WebhookSubscription
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *GormSubscriptionRepository) Create(ctx context.Context, sub *models.WebhookSubscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *GormSubscriptionRepository) Update(ctx context.Context, sub *models.WebhookSubscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *GormSubscriptionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.WebhookSubscription{}, id).Error
}

// FilterByEvent returns the active subscriptions allow-listing eventType.
// Inactive rows are rejected here too, so a caller handing over a stale or
// unfiltered slice cannot leak deliveries to a disabled endpoint.
func FilterByEvent(subs []models.WebhookSubscription, eventType string) []models.WebhookSubscription {
	matched := make([]models.WebhookSubscription, 0, len(subs))
	for _, s := range subs {
		if s.IsActive && s.Subscribes(eventType) {
			matched = append(matched, s)
		}
	}
	return matched
}
