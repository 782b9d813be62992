package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// Task is a single to-do item. The JSON field names match the wire contract
// the web client consumes (_id/userId rather than id/user_id).
type Task struct {
	ID          uuid.UUID `json:"_id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed" gorm:"not null;default:false"`
	// Position persists the user's list order: dense 0..n-1 per owner.
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TaskStats summarizes a single user's list.
type TaskStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}
