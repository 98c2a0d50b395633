package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"planweave/internal/migration"
	"planweave/internal/models"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteStore persists plans and tasks in a SQLite database. Plan slices
// (slots, conflicts, history) are stored as JSON columns since the engine
// only ever reads a plan whole.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path: path,
	}
}

func (s *SQLiteStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'planweave init' first")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	return migration.NewRunner(s.db, s.migrationFiles()).Validate()
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) runMigrations() error {
	runner := migration.NewRunner(s.db, s.migrationFiles())
	_, err := runner.Apply(nil)
	return err
}

func (s *SQLiteStore) migrationFiles() fs.FS {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return migrationFS
	}
	return sub
}

func (s *SQLiteStore) SavePlan(plan models.Plan) error {
	slots, err := json.Marshal(plan.Slots)
	if err != nil {
		return fmt.Errorf("failed to serialize slots: %w", err)
	}
	conflicts, err := json.Marshal(plan.Conflicts)
	if err != nil {
		return fmt.Errorf("failed to serialize conflicts: %w", err)
	}
	applied, err := json.Marshal(plan.AppliedSlotIDs)
	if err != nil {
		return fmt.Errorf("failed to serialize applied slot ids: %w", err)
	}
	createdIDs, err := json.Marshal(plan.CreatedTaskIDs)
	if err != nil {
		return fmt.Errorf("failed to serialize created task ids: %w", err)
	}
	updatedIDs, err := json.Marshal(plan.UpdatedTaskIDs)
	if err != nil {
		return fmt.Errorf("failed to serialize updated task ids: %w", err)
	}
	history, err := json.Marshal(plan.History)
	if err != nil {
		return fmt.Errorf("failed to serialize history: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO plans (
			plan_request_id, user_id, status, version, source,
			slots, conflicts, applied_slot_ids, created_task_ids, updated_task_ids,
			history, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.PlanRequestID.String(), plan.UserID.String(), string(plan.Status), plan.Version, plan.Source,
		string(slots), string(conflicts), string(applied), string(createdIDs), string(updatedIDs),
		string(history), plan.CreatedAt.UTC().Format(time.RFC3339Nano), plan.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) GetPlan(planRequestID uuid.UUID) (models.Plan, error) {
	row := s.db.QueryRow(`
		SELECT plan_request_id, user_id, status, version, source,
		       slots, conflicts, applied_slot_ids, created_task_ids, updated_task_ids,
		       history, created_at, updated_at
		FROM plans WHERE plan_request_id = ?`, planRequestID.String())

	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Plan{}, ErrPlanNotFound
		}
		return models.Plan{}, err
	}
	return plan, nil
}

func (s *SQLiteStore) ListPlans(userID uuid.UUID) ([]models.Plan, error) {
	rows, err := s.db.Query(`
		SELECT plan_request_id, user_id, status, version, source,
		       slots, conflicts, applied_slot_ids, created_task_ids, updated_task_ids,
		       history, created_at, updated_at
		FROM plans WHERE user_id = ? ORDER BY created_at`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (models.Plan, error) {
	var (
		plan                             models.Plan
		planID, userID                   string
		status                           string
		slots, conflicts                 string
		applied, createdIDs, updatedIDs  string
		history, createdAt, updatedAt    string
	)

	err := row.Scan(
		&planID, &userID, &status, &plan.Version, &plan.Source,
		&slots, &conflicts, &applied, &createdIDs, &updatedIDs,
		&history, &createdAt, &updatedAt,
	)
	if err != nil {
		return models.Plan{}, err
	}

	if plan.PlanRequestID, err = uuid.Parse(planID); err != nil {
		return models.Plan{}, fmt.Errorf("invalid plan_request_id in storage: %w", err)
	}
	if plan.UserID, err = uuid.Parse(userID); err != nil {
		return models.Plan{}, fmt.Errorf("invalid user_id in storage: %w", err)
	}
	plan.Status = models.PlanStatus(status)

	for _, col := range []struct {
		raw  string
		dest any
	}{
		{slots, &plan.Slots},
		{conflicts, &plan.Conflicts},
		{applied, &plan.AppliedSlotIDs},
		{createdIDs, &plan.CreatedTaskIDs},
		{updatedIDs, &plan.UpdatedTaskIDs},
		{history, &plan.History},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
			return models.Plan{}, fmt.Errorf("failed to parse stored plan: %w", err)
		}
	}

	if plan.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return models.Plan{}, fmt.Errorf("invalid created_at in storage: %w", err)
	}
	if plan.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return models.Plan{}, fmt.Errorf("invalid updated_at in storage: %w", err)
	}

	return plan, nil
}

func (s *SQLiteStore) FindTask(taskID, userID uuid.UUID) (models.Task, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, title, description, due_at, estimated_minutes, status, created_at, updated_at
		FROM tasks WHERE id = ? AND user_id = ?`, taskID.String(), userID.String())

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		task                 models.Task
		id, userID           string
		dueAt                sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(&id, &userID, &task.Title, &task.Description, &dueAt, &task.EstimatedMinutes, &task.Status, &createdAt, &updatedAt)
	if err != nil {
		return models.Task{}, err
	}

	if task.ID, err = uuid.Parse(id); err != nil {
		return models.Task{}, fmt.Errorf("invalid task id in storage: %w", err)
	}
	if task.UserID, err = uuid.Parse(userID); err != nil {
		return models.Task{}, fmt.Errorf("invalid user_id in storage: %w", err)
	}
	if dueAt.Valid {
		due, err := time.Parse(time.RFC3339Nano, dueAt.String)
		if err != nil {
			return models.Task{}, fmt.Errorf("invalid due_at in storage: %w", err)
		}
		task.DueAt = &due
	}
	if task.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return models.Task{}, fmt.Errorf("invalid created_at in storage: %w", err)
	}
	if task.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return models.Task{}, fmt.Errorf("invalid updated_at in storage: %w", err)
	}

	return task, nil
}

func (s *SQLiteStore) CreateTask(task models.Task) error {
	var dueAt sql.NullString
	if task.DueAt != nil {
		dueAt = sql.NullString{String: task.DueAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO tasks (
			id, user_id, title, description, due_at, estimated_minutes, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID.String(), task.UserID.String(), task.Title, task.Description, dueAt,
		task.EstimatedMinutes, task.Status,
		task.CreatedAt.UTC().Format(time.RFC3339Nano), task.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) UpdateTaskValues(taskID uuid.UUID, values models.TaskValues) error {
	row := s.db.QueryRow(`
		SELECT id, user_id, title, description, due_at, estimated_minutes, status, created_at, updated_at
		FROM tasks WHERE id = ?`, taskID.String())

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTaskNotFound
		}
		return err
	}

	applyTaskValues(&task, values)
	task.UpdatedAt = time.Now().UTC()
	return s.CreateTask(task)
}

func (s *SQLiteStore) GetConfigPath() string {
	return s.path
}

func (s *SQLiteStore) GetDB() *sql.DB {
	return s.db
}

// SchemaVersions reports the applied and latest available schema versions.
func (s *SQLiteStore) SchemaVersions() (current, latest int, err error) {
	runner := migration.NewRunner(s.db, s.migrationFiles())
	current, err = runner.CurrentVersion()
	if err != nil {
		return 0, 0, err
	}
	migrations, err := runner.ReadMigrations()
	if err != nil {
		return 0, 0, err
	}
	if len(migrations) > 0 {
		latest = migrations[len(migrations)-1].Version
	}
	return current, latest, nil
}
