package models

import (
	"time"

	"github.com/google/uuid"
)

// Task is a record in the external task store. The planner only touches it
// through the task-repository port when a plan decision is applied.
type Task struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	DueAt            *time.Time `json:"due_at,omitempty"`
	EstimatedMinutes int        `json:"estimated_minutes,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TaskValues is a partial update applied through the task-repository port.
// Nil fields are left untouched.
type TaskValues struct {
	Title            *string
	Description      *string
	DueAt            *time.Time
	EstimatedMinutes *int
	Status           *string
}
