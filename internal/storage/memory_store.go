package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"planweave/internal/models"
)

// MemoryStore keeps plans and tasks in process-local maps guarded by a
// mutex. It is the default backend for tests and for callers that inject
// their own persistence.
type MemoryStore struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]models.Plan
	tasks map[uuid.UUID]models.Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans: make(map[uuid.UUID]models.Plan),
		tasks: make(map[uuid.UUID]models.Task),
	}
}

func (s *MemoryStore) Init() error  { return nil }
func (s *MemoryStore) Load() error  { return nil }
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) SavePlan(plan models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.PlanRequestID] = plan.Clone()
	return nil
}

func (s *MemoryStore) GetPlan(planRequestID uuid.UUID) (models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[planRequestID]
	if !ok {
		return models.Plan{}, ErrPlanNotFound
	}
	return plan.Clone(), nil
}

func (s *MemoryStore) ListPlans(userID uuid.UUID) ([]models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var plans []models.Plan
	for _, plan := range s.plans {
		if plan.UserID == userID {
			plans = append(plans, plan.Clone())
		}
	}
	sortPlansByCreatedAt(plans)
	return plans, nil
}

func (s *MemoryStore) FindTask(taskID, userID uuid.UUID) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok || task.UserID != userID {
		return models.Task{}, ErrTaskNotFound
	}
	return task, nil
}

func (s *MemoryStore) CreateTask(task models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
	return nil
}

func (s *MemoryStore) UpdateTaskValues(taskID uuid.UUID, values models.TaskValues) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	applyTaskValues(&task, values)
	task.UpdatedAt = time.Now().UTC()
	s.tasks[taskID] = task
	return nil
}

func (s *MemoryStore) GetConfigPath() string { return ":memory:" }
