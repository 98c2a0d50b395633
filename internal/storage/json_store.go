package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"planweave/internal/models"
)

// Store is the on-disk snapshot shape for the JSON backend.
type Store struct {
	Version int                    `json:"version"`
	Plans   map[string]models.Plan `json:"plans"`
	Tasks   map[string]models.Task `json:"tasks"`
}

// JSONStore persists everything as one pretty-printed JSON file. Simple,
// inspectable, and good enough for single-user local use.
type JSONStore struct {
	path  string
	store *Store
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.store = &Store{
		Version: 1,
		Plans:   make(map[string]models.Plan),
		Tasks:   make(map[string]models.Task),
	}

	return s.save()
}

func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'planweave init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	s.store = &Store{}
	if err := json.Unmarshal(data, s.store); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}

	// Ensure maps are initialized
	if s.store.Plans == nil {
		s.store.Plans = make(map[string]models.Plan)
	}
	if s.store.Tasks == nil {
		s.store.Tasks = make(map[string]models.Task)
	}

	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}

	return nil
}

func (s *JSONStore) SavePlan(plan models.Plan) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}

	s.store.Plans[plan.PlanRequestID.String()] = plan.Clone()
	return s.save()
}

func (s *JSONStore) GetPlan(planRequestID uuid.UUID) (models.Plan, error) {
	if s.store == nil {
		return models.Plan{}, fmt.Errorf("storage not loaded")
	}

	plan, ok := s.store.Plans[planRequestID.String()]
	if !ok {
		return models.Plan{}, ErrPlanNotFound
	}

	return plan.Clone(), nil
}

func (s *JSONStore) ListPlans(userID uuid.UUID) ([]models.Plan, error) {
	if s.store == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	plans := make([]models.Plan, 0, len(s.store.Plans))
	for _, plan := range s.store.Plans {
		if plan.UserID == userID {
			plans = append(plans, plan.Clone())
		}
	}
	sortPlansByCreatedAt(plans)

	return plans, nil
}

func (s *JSONStore) FindTask(taskID, userID uuid.UUID) (models.Task, error) {
	if s.store == nil {
		return models.Task{}, fmt.Errorf("storage not loaded")
	}

	task, ok := s.store.Tasks[taskID.String()]
	if !ok || task.UserID != userID {
		return models.Task{}, ErrTaskNotFound
	}

	return task, nil
}

func (s *JSONStore) CreateTask(task models.Task) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}

	s.store.Tasks[task.ID.String()] = task
	return s.save()
}

func (s *JSONStore) UpdateTaskValues(taskID uuid.UUID, values models.TaskValues) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}

	task, ok := s.store.Tasks[taskID.String()]
	if !ok {
		return ErrTaskNotFound
	}

	applyTaskValues(&task, values)
	task.UpdatedAt = time.Now().UTC()
	s.store.Tasks[taskID.String()] = task
	return s.save()
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}
