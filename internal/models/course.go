package models

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a purchasable course. Content, lessons and forum
// threads are managed elsewhere; payments and enrollments only need the
// identity and price fields below.
type Course struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Title       string  `gorm:"type:varchar(255)" json:"title"`
	Slug        string  `gorm:"type:varchar(255);uniqueIndex" json:"slug"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"type:decimal(15,2)" json:"price"`
	Currency    string  `gorm:"type:varchar(10);default:'BRL'" json:"currency"`
	IsPublished bool    `gorm:"default:false" json:"is_published"`

	// Relationships
	Enrollments []Enrollment `gorm:"foreignKey:CourseID" json:"enrollments,omitempty"`
}
