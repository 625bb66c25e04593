package models

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment grants a user access to a course. Created as a side effect
// of a payment transitioning into succeeded. The unique index on
// (user_id, course_id) is the concurrency guard: duplicate gateway
// notifications racing each other insert with ON CONFLICT DO NOTHING
// instead of check-then-act.
type Enrollment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID     uint      `gorm:"index;uniqueIndex:idx_enrollments_user_course" json:"user_id"`
	CourseID   uint      `gorm:"uniqueIndex:idx_enrollments_user_course" json:"course_id"`
	PaymentID  *uint     `gorm:"index" json:"payment_id,omitempty"`
	EnrolledAt time.Time `json:"enrolled_at"`
	Progress   float64   `gorm:"type:decimal(5,2);default:0" json:"progress"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}
