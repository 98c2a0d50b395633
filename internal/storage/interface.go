package storage

import (
	"errors"
	"sort"

	"github.com/google/uuid"

	"planweave/internal/models"
)

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrTaskNotFound = errors.New("task not found")
)

// PlanStore persists plan aggregates keyed by plan request id.
type PlanStore interface {
	SavePlan(plan models.Plan) error
	GetPlan(planRequestID uuid.UUID) (models.Plan, error)
	ListPlans(userID uuid.UUID) ([]models.Plan, error)
}

// TaskStore is the task-repository port the decision engine creates and
// updates tasks through. The engine never issues raw persistence queries.
type TaskStore interface {
	FindTask(taskID, userID uuid.UUID) (models.Task, error)
	CreateTask(task models.Task) error
	UpdateTaskValues(taskID uuid.UUID, values models.TaskValues) error
}

// Provider is a full storage backend with lifecycle management.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	PlanStore
	TaskStore

	// Utils
	GetConfigPath() string
}

func sortPlansByCreatedAt(plans []models.Plan) {
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.Before(plans[j].CreatedAt)
	})
}

// applyTaskValues patches the non-nil fields onto a task record.
func applyTaskValues(task *models.Task, values models.TaskValues) {
	if values.Title != nil {
		task.Title = *values.Title
	}
	if values.Description != nil {
		task.Description = *values.Description
	}
	if values.DueAt != nil {
		due := *values.DueAt
		task.DueAt = &due
	}
	if values.EstimatedMinutes != nil {
		task.EstimatedMinutes = *values.EstimatedMinutes
	}
	if values.Status != nil {
		task.Status = *values.Status
	}
}
