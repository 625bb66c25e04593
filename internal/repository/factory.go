package repository

import (
	"gorm.io/gorm"
)

// New builds the GORM-backed repository bundle.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Subscriptions:   NewGormSubscriptionRepository(db),
		DeliveryLogs:    NewGormDeliveryLogRepository(db),
		Payments:        NewGormPaymentRepository(db),
		Enrollments:     NewGormEnrollmentRepository(db),
		CallbackHistory: NewGormCallbackHistoryRepository(db),
		Tasks:           NewGormTaskRepository(db),
	}
}
