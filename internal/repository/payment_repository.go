package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"academy_app_echo/internal/models"
)

type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *GormPaymentRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) FindByGatewayRef(ctx context.Context, gw models.PaymentGateway, gatewayPaymentID, externalRef string) (*models.Payment, error) {
	if externalRef == "" {
		externalRef = gatewayPaymentID
	}
	var p models.Payment
	err := r.db.WithContext(ctx).
		Where("gateway = ?", gw).
		Where("metadata->>'gateway_payment_id' = ? OR external_reference = ? OR external_reference = ?",
			gatewayPaymentID, gatewayPaymentID, externalRef).
		Order("id asc").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// metadataPatchExpr builds a jsonb concatenation expression so the merge
// happens inside the UPDATE itself. Two racing notifications then stack
// their keys instead of the second one clobbering the first's snapshot.
func metadataPatchExpr(metadata map[string]interface{}) (clause.Expr, error) {
	patch, err := marshalMetadataPatch(metadata)
	if err != nil {
		return clause.Expr{}, err
	}
	return gorm.Expr("COALESCE(metadata, '{}'::jsonb) || ?::jsonb", patch), nil
}

func marshalMetadataPatch(metadata map[string]interface{}) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ApplyStatus performs the transition as one conditional UPDATE so two
// concurrent duplicate deliveries cannot both observe the old status
// and both transition. Metadata is merged in the database with jsonb
// concatenation, so forensic fields accumulate across notifications
// even when deliveries race. The WHERE clause mirrors
// models.CanTransition.
func (r *GormPaymentRepository) ApplyStatus(ctx context.Context, id uint, next models.PaymentStatus, metadata map[string]interface{}) (bool, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if current == nil {
		return false, gorm.ErrRecordNotFound
	}

	patch, err := metadataPatchExpr(metadata)
	if err != nil {
		return false, err
	}

	tx := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status <> ?", id, next)
	if next == models.PaymentStatusPending {
		// A settled payment never reverts to pending; only a payment
		// parked in unknown may be corrected.
		tx = tx.Where("status = ?", models.PaymentStatusUnknown)
	}

	res := tx.Updates(map[string]interface{}{
		"status":   next,
		"metadata": patch,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormPaymentRepository) MergeMetadata(ctx context.Context, id uint, metadata map[string]interface{}) error {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return gorm.ErrRecordNotFound
	}

	patch, err := metadataPatchExpr(metadata)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Update("metadata", patch).Error
}
