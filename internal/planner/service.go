package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"planweave/internal/events"
	"planweave/internal/models"
	"planweave/internal/storage"
)

var (
	// ErrPlanNotFound is returned for unknown or foreign plan request ids.
	ErrPlanNotFound = storage.ErrPlanNotFound
	// ErrVersionNotFound is returned when a restore targets a version the
	// plan's history never recorded.
	ErrVersionNotFound = errors.New("plan version not found")
	// ErrInvalidDecision is returned for decisions other than accept/decline.
	ErrInvalidDecision = errors.New("invalid decision")
)

// PlanResult is what a plan source resolves a run to: either an
// oracle-provided plan or a locally computed fallback.
type PlanResult struct {
	Status    models.PlanStatus
	Slots     []models.Slot
	Conflicts []models.Conflict
	Version   int
	Source    string
}

// PlanSource produces a plan for a run request. It must always resolve;
// failures are the source's own concern (see the oracle orchestrator).
type PlanSource interface {
	RequestPlan(ctx context.Context, planRequestID uuid.UUID, req models.RunRequest, previousVersion int) PlanResult
}

// Service owns per-request plan state, applies accept/decline decisions and
// turns accepted slots into task mutations through the task-repository port.
//
// Concurrent requests for the same plan request id are not serialized here;
// at-most-once execution per logical request is an external idempotency
// concern.
type Service struct {
	plans     storage.PlanStore
	tasks     storage.TaskStore
	source    PlanSource
	generator *Generator
	history   HistoryManager
	bus       *events.Bus
	log       *zap.Logger
}

func NewService(
	plans storage.PlanStore,
	tasks storage.TaskStore,
	source PlanSource,
	generator *Generator,
	bus *events.Bus,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		plans:     plans,
		tasks:     tasks,
		source:    source,
		generator: generator,
		history:   NewHistoryManager(),
		bus:       bus,
		log:       log,
	}
}

// Run executes a planner run under a fresh plan request id.
func (s *Service) Run(ctx context.Context, userID uuid.UUID, req models.RunRequest) (models.Plan, error) {
	planRequestID := uuid.New()
	s.publish(events.EventPlanRequested, req.RequestID, userID, map[string]any{
		"plan_request_id":     planRequestID.String(),
		"subscription_status": req.SubscriptionStatus,
		"tasks":               len(req.Tasks),
		"calendar_events":     len(req.CalendarEvents),
	})

	plan, err := s.run(ctx, planRequestID, userID, req, nil)
	if err != nil {
		return models.Plan{}, err
	}
	s.log.Info("planner_run_requested",
		zap.String("request_id", req.RequestID),
		zap.String("user_id", userID.String()),
		zap.String("plan_request_id", planRequestID.String()),
		zap.String("subscription_status", req.SubscriptionStatus),
	)
	return plan, nil
}

// Replan re-runs an existing plan. The stored plan's version is
// authoritative over the request's previous_plan_version; created_at and
// history survive across replans.
func (s *Service) Replan(ctx context.Context, userID, planRequestID uuid.UUID, req models.RunRequest) (models.Plan, error) {
	existing, err := s.getOwned(planRequestID, userID)
	if err != nil {
		return models.Plan{}, err
	}

	plan, err := s.run(ctx, planRequestID, userID, req, &existing)
	if err != nil {
		return models.Plan{}, err
	}
	s.publish(events.EventPlanReplanned, req.RequestID, userID, map[string]any{
		"plan_request_id": planRequestID.String(),
		"version":         plan.Version,
	})
	s.log.Info("planner_plan_replanned",
		zap.String("plan_request_id", planRequestID.String()),
		zap.Int("version", plan.Version),
		zap.Int("slots", len(plan.Slots)),
		zap.Int("conflicts", len(plan.Conflicts)),
	)
	return plan, nil
}

func (s *Service) run(ctx context.Context, planRequestID, userID uuid.UUID, req models.RunRequest, existing *models.Plan) (models.Plan, error) {
	previousVersion := req.PreviousPlanVersion
	if existing != nil {
		previousVersion = existing.Version
	}

	result := s.source.RequestPlan(ctx, planRequestID, req, previousVersion)

	now := time.Now().UTC()
	plan := models.Plan{
		PlanRequestID:  planRequestID,
		UserID:         userID,
		Status:         result.Status,
		Version:        result.Version,
		Source:         result.Source,
		Slots:          result.Slots,
		Conflicts:      result.Conflicts,
		AppliedSlotIDs: req.AppliedSlotIDs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if plan.Status == "" {
		plan.Status = models.PlanStatusReady
	}
	if existing != nil {
		plan.CreatedAt = existing.CreatedAt
		plan.History = existing.History
		if len(req.AppliedSlotIDs) == 0 {
			plan.AppliedSlotIDs = existing.AppliedSlotIDs
		}
	}
	s.history.AppendVersion(&plan, plan.Status, nil, nil)

	if err := s.plans.SavePlan(plan); err != nil {
		return models.Plan{}, fmt.Errorf("failed to save plan: %w", err)
	}
	return plan, nil
}

// GetPlan returns the live plan state for a request id owned by the user.
func (s *Service) GetPlan(planRequestID, userID uuid.UUID) (models.Plan, error) {
	return s.getOwned(planRequestID, userID)
}

// History lists the plan's version snapshots, oldest first.
func (s *Service) History(planRequestID, userID uuid.UUID) ([]models.PlanVersion, error) {
	plan, err := s.getOwned(planRequestID, userID)
	if err != nil {
		return nil, err
	}
	return plan.History, nil
}

// RestoreVersion rewinds the plan's live state to a recorded version.
func (s *Service) RestoreVersion(planRequestID, userID uuid.UUID, version int) (models.Plan, error) {
	plan, err := s.getOwned(planRequestID, userID)
	if err != nil {
		return models.Plan{}, err
	}
	if !s.history.RestoreVersion(&plan, version) {
		return models.Plan{}, ErrVersionNotFound
	}
	plan.UpdatedAt = time.Now().UTC()
	if err := s.plans.SavePlan(plan); err != nil {
		return models.Plan{}, fmt.Errorf("failed to save plan: %w", err)
	}
	return plan, nil
}

// Decide applies an accept/decline decision. Re-deciding an already-decided
// plan is an idempotent replay of its stored result, not an error.
func (s *Service) Decide(ctx context.Context, userID, planRequestID uuid.UUID, req models.DecisionRequest) (models.Plan, error) {
	plan, err := s.getOwned(planRequestID, userID)
	if err != nil {
		return models.Plan{}, err
	}
	if plan.Status.Decided() {
		return plan, nil
	}

	switch req.Decision {
	case models.DecisionDecline:
		plan.Status = models.PlanStatusDeclined
		plan.AppliedSlotIDs = nil
		plan.CreatedTaskIDs = nil
		plan.UpdatedTaskIDs = nil
	case models.DecisionAccept:
		s.applyAccept(&plan, userID, req)
	default:
		return models.Plan{}, fmt.Errorf("%w: %q", ErrInvalidDecision, req.Decision)
	}

	plan.UpdatedAt = time.Now().UTC()
	s.history.AppendVersion(&plan, plan.Status, plan.CreatedTaskIDs, plan.UpdatedTaskIDs)
	if err := s.plans.SavePlan(plan); err != nil {
		return models.Plan{}, fmt.Errorf("failed to save plan: %w", err)
	}

	s.publish(events.EventDecisionApplied, req.RequestID, userID, map[string]any{
		"plan_request_id": planRequestID.String(),
		"decision":        string(req.Decision),
		"status":          string(plan.Status),
		"created_tasks":   len(plan.CreatedTaskIDs),
		"updated_tasks":   len(plan.UpdatedTaskIDs),
	})
	s.log.Info("planner_plan_decision",
		zap.String("plan_request_id", planRequestID.String()),
		zap.String("decision", string(req.Decision)),
		zap.String("status", string(plan.Status)),
		zap.Int("version", plan.Version),
	)
	return plan, nil
}

// applyAccept merges edits, resolves the accepted slot set and mutates the
// task store. Slots with a task id update that task; filler slots create a
// new task. Per-slot failures are logged and skipped, never fatal.
func (s *Service) applyAccept(plan *models.Plan, userID uuid.UUID, req models.DecisionRequest) {
	plan.Slots = s.generator.ApplyEdits(plan.Slots, req.Edits)

	accepted := make(map[uuid.UUID]bool, len(req.AcceptedSlotIDs))
	for _, id := range req.AcceptedSlotIDs {
		accepted[id] = true
	}
	acceptAll := len(accepted) == 0

	var created, updated, applied []uuid.UUID
	todo := "todo"
	for _, slot := range plan.Slots {
		if !acceptAll && !accepted[slot.SlotID] {
			continue
		}
		applied = append(applied, slot.SlotID)
		duration := slot.DurationMinutes()
		dueAt := slot.StartAt

		if slot.TaskID != nil {
			if _, err := s.tasks.FindTask(*slot.TaskID, userID); err != nil {
				s.log.Warn("planner_accept_task_missing",
					zap.String("slot_id", slot.SlotID.String()),
					zap.String("task_id", slot.TaskID.String()),
				)
				continue
			}
			title := slot.Title
			description := slot.Description
			err := s.tasks.UpdateTaskValues(*slot.TaskID, models.TaskValues{
				Title:            &title,
				Description:      &description,
				DueAt:            &dueAt,
				EstimatedMinutes: &duration,
				Status:           &todo,
			})
			if err != nil {
				s.log.Warn("planner_accept_task_update_failed",
					zap.String("task_id", slot.TaskID.String()),
					zap.Error(err),
				)
				continue
			}
			updated = append(updated, *slot.TaskID)
			continue
		}

		now := time.Now().UTC()
		task := models.Task{
			ID:               uuid.New(),
			UserID:           userID,
			Title:            slot.Title,
			Description:      slot.Description,
			DueAt:            &dueAt,
			EstimatedMinutes: duration,
			Status:           todo,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.tasks.CreateTask(task); err != nil {
			s.log.Warn("planner_accept_task_create_failed",
				zap.String("slot_id", slot.SlotID.String()),
				zap.Error(err),
			)
			continue
		}
		created = append(created, task.ID)
	}

	if acceptAll || len(applied) == len(plan.Slots) {
		plan.Status = models.PlanStatusAccepted
	} else {
		plan.Status = models.PlanStatusPartiallyAccepted
	}
	plan.AppliedSlotIDs = applied
	plan.CreatedTaskIDs = created
	plan.UpdatedTaskIDs = updated
}

func (s *Service) getOwned(planRequestID, userID uuid.UUID) (models.Plan, error) {
	plan, err := s.plans.GetPlan(planRequestID)
	if err != nil {
		return models.Plan{}, err
	}
	if plan.UserID != userID {
		return models.Plan{}, ErrPlanNotFound
	}
	return plan, nil
}

func (s *Service) publish(eventType events.EventType, requestID string, userID uuid.UUID, data map[string]any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{
		Type:      eventType,
		RequestID: requestID,
		UserID:    userID.String(),
		Data:      data,
	})
}
