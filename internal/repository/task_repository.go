package repository

import (
	"context"

	"gorm.io/gorm"

	"academy_app_echo/internal/models"
)

type GormTaskRepository struct {
	db *gorm.DB
}

func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) Schedule(ctx context.Context, task *models.ScheduledTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}
