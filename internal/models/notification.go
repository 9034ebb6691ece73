package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is the classification assigned to a notification by the analyzer.
type Category string

const (
	CategoryCritical Category = "critical"
	CategoryWarning  Category = "warning"
	CategoryInfo     Category = "info"
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryCritical, CategoryWarning, CategoryInfo:
		return true
	}
	return false
}

// ProcessingStatus tracks the analysis pipeline stage of a notification,
// independent of its read/unread state.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Terminal reports whether the status is a terminal state of an analysis run.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID               uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Title            string           `json:"title" gorm:"size:256;not null"`
	Text             string           `json:"text" gorm:"size:512;not null"`
	CreatedAt        time.Time        `json:"created_at" gorm:"index"`
	ReadAt           *time.Time       `json:"read_at"`
	Category         *Category        `json:"category" gorm:"size:16"`
	Confidence       *float64         `json:"confidence"`
	ProcessingStatus ProcessingStatus `json:"processing_status" gorm:"size:16;not null;default:pending"`
}

// Read reports whether the notification has been marked as read.
func (n *Notification) Read() bool {
	return n.ReadAt != nil
}
