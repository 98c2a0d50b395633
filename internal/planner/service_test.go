package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"planweave/internal/models"
	"planweave/internal/storage"
	"planweave/internal/strategy"
)

// stubSource resolves every run to a canned result and records the previous
// version it was handed.
type stubSource struct {
	result       PlanResult
	lastPrevious int
	calls        int
}

func (s *stubSource) RequestPlan(_ context.Context, _ uuid.UUID, _ models.RunRequest, previousVersion int) PlanResult {
	s.calls++
	s.lastPrevious = previousVersion
	out := s.result
	if out.Version == 0 {
		out.Version = previousVersion + 1
	}
	return out
}

func taskSlot(taskID uuid.UUID, title string, startHour int) models.Slot {
	id := taskID
	return models.Slot{
		SlotID:  uuid.New(),
		TaskID:  &id,
		Title:   title,
		StartAt: weekStart.Add(time.Duration(startHour) * time.Hour),
		EndAt:   weekStart.Add(time.Duration(startHour+1) * time.Hour),
	}
}

func fillerSlot(title string, startHour int) models.Slot {
	return models.Slot{
		SlotID:  uuid.New(),
		Title:   title,
		StartAt: weekStart.Add(time.Duration(startHour) * time.Hour),
		EndAt:   weekStart.Add(time.Duration(startHour+1) * time.Hour),
	}
}

func newTestService(source PlanSource) (*Service, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	generator := NewGenerator(strategy.NewRegistry(strategy.NameSimpleGreedy, 0, nil), nil)
	return NewService(store, store, source, generator, nil, nil), store
}

func TestRun_SavesReadyPlan(t *testing.T) {
	userID := uuid.New()
	source := &stubSource{result: PlanResult{
		Slots:  []models.Slot{fillerSlot("Deep work", 9)},
		Source: "local",
	}}
	svc, store := newTestService(source)

	plan, err := svc.Run(context.Background(), userID, models.RunRequest{RequestID: "req-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Status != models.PlanStatusReady || plan.Version != 1 || plan.Source != "local" {
		t.Errorf("unexpected plan: status=%s version=%d source=%s", plan.Status, plan.Version, plan.Source)
	}
	if len(plan.History) != 1 || plan.History[0].Version != 1 {
		t.Errorf("expected one history entry, got %+v", plan.History)
	}
	stored, err := store.GetPlan(plan.PlanRequestID)
	if err != nil {
		t.Fatalf("plan not persisted: %v", err)
	}
	if stored.UserID != userID {
		t.Errorf("stored plan owned by %s, want %s", stored.UserID, userID)
	}
}

func TestReplan_StoredVersionIsAuthoritative(t *testing.T) {
	userID := uuid.New()
	source := &stubSource{result: PlanResult{Source: "local"}}
	svc, _ := newTestService(source)

	plan, err := svc.Run(context.Background(), userID, models.RunRequest{RequestID: "req-1"})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	firstCreatedAt := plan.CreatedAt

	// The request lies about the previous version; the stored plan wins.
	replanned, err := svc.Replan(context.Background(), userID, plan.PlanRequestID, models.RunRequest{
		RequestID:           "req-2",
		PreviousPlanVersion: 99,
	})
	if err != nil {
		t.Fatalf("replan failed: %v", err)
	}

	if source.lastPrevious != 1 {
		t.Errorf("source given previous version %d, want 1", source.lastPrevious)
	}
	if replanned.Version != 2 {
		t.Errorf("expected version 2, got %d", replanned.Version)
	}
	if !replanned.CreatedAt.Equal(firstCreatedAt) {
		t.Errorf("created_at must survive replans")
	}
	if len(replanned.History) != 2 {
		t.Errorf("history must accumulate, got %d entries", len(replanned.History))
	}
}

func TestReplan_UnknownPlan(t *testing.T) {
	svc, _ := newTestService(&stubSource{})
	_, err := svc.Replan(context.Background(), uuid.New(), uuid.New(), models.RunRequest{})
	if !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestGetPlan_ForeignUserLooksUnknown(t *testing.T) {
	owner := uuid.New()
	svc, _ := newTestService(&stubSource{result: PlanResult{Source: "local"}})
	plan, err := svc.Run(context.Background(), owner, models.RunRequest{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, err := svc.GetPlan(plan.PlanRequestID, uuid.New()); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound for foreign user, got %v", err)
	}
	if _, err := svc.GetPlan(plan.PlanRequestID, owner); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
}

func TestDecide_AcceptAllUpdatesAndCreatesTasks(t *testing.T) {
	userID := uuid.New()
	existingTask := models.Task{
		ID:     uuid.New(),
		UserID: userID,
		Title:  "Old title",
		Status: "in_progress",
	}

	source := &stubSource{result: PlanResult{
		Slots: []models.Slot{
			taskSlot(existingTask.ID, "Write report", 9),
			fillerSlot("Deep work", 11),
		},
		Source: "local",
	}}
	svc, store := newTestService(source)
	if err := store.CreateTask(existingTask); err != nil {
		t.Fatalf("seed task: %v", err)
	}

	plan, err := svc.Run(context.Background(), userID, models.RunRequest{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	decided, err := svc.Decide(context.Background(), userID, plan.PlanRequestID, models.DecisionRequest{
		Decision: models.DecisionAccept,
	})
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	if decided.Status != models.PlanStatusAccepted {
		t.Errorf("expected accepted, got %s", decided.Status)
	}
	if len(decided.AppliedSlotIDs) != 2 {
		t.Errorf("expected all slots applied, got %v", decided.AppliedSlotIDs)
	}
	if len(decided.UpdatedTaskIDs) != 1 || decided.UpdatedTaskIDs[0] != existingTask.ID {
		t.Errorf("expected existing task updated, got %v", decided.UpdatedTaskIDs)
	}
	if len(decided.CreatedTaskIDs) != 1 {
		t.Fatalf("expected one created task for the filler slot, got %v", decided.CreatedTaskIDs)
	}

	updated, err := store.FindTask(existingTask.ID, userID)
	if err != nil {
		t.Fatalf("updated task missing: %v", err)
	}
	if updated.Title != "Write report" || updated.Status != "todo" || updated.EstimatedMinutes != 60 {
		t.Errorf("task not patched from slot: %+v", updated)
	}
	if updated.DueAt == nil || !updated.DueAt.Equal(weekStart.Add(9*time.Hour)) {
		t.Errorf("due_at should track the slot start, got %v", updated.DueAt)
	}

	createdTask, err := store.FindTask(decided.CreatedTaskIDs[0], userID)
	if err != nil {
		t.Fatalf("created task missing: %v", err)
	}
	if createdTask.Title != "Deep work" || createdTask.Status != "todo" {
		t.Errorf("unexpected created task: %+v", createdTask)
	}
}

func TestDecide_PartialAccept(t *testing.T) {
	userID := uuid.New()
	keep := fillerSlot("Keep", 9)
	drop := fillerSlot("Drop", 11)
	source := &stubSource{result: PlanResult{Slots: []models.Slot{keep, drop}, Source: "local"}}
	svc, _ := newTestService(source)

	plan, err := svc.Run(context.Background(), userID, models.RunRequest{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	decided, err := svc.Decide(context.Background(), userID, plan.PlanRequestID, models.DecisionRequest{
		Decision:        models.DecisionAccept,
		AcceptedSlotIDs: []uuid.UUID{keep.SlotID},
	})
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	if decided.Status != models.PlanStatusPartiallyAccepted {
		t.Errorf("expected partially_accepted, got %s", decided.Status)
	}
	if len(decided.AppliedSlotIDs) != 1 || decided.AppliedSlotIDs[0] != keep.SlotID {
		t.Errorf("unexpected applied set: %v", decided.AppliedSlotIDs)
	}
	if len(decided.CreatedTaskIDs) != 1 {
		t.Errorf("only the accepted filler should create a task, got %v", decided.CreatedTaskIDs)
	}
}

func TestDecide_DeclineNeverTouchesTasks(t *testing.T) {
	userID := uuid.New()
	source := &stubSource{result: PlanResult{
		Slots:  []models.Slot{fillerSlot("Deep work", 9)},
		Source: "local",
	}}
	svc, store := newTestService(source)

	plan, err := svc.Run(context.Background(), userID, models.RunRequest{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	decided, err := svc.Decide(context.Background(), userID, plan.PlanRequestID, models.DecisionRequest{
		Decision: models.DecisionDecline,
	})
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	if decided.Status != models.PlanStatusDeclined {
		t.Errorf("expected declined, got %s", decided.Status)
	}
	if decided.AppliedSlotIDs != nil || decided.CreatedTaskIDs != nil || decided.UpdatedTaskIDs != nil {
		t.Errorf("decline must clear application state: %+v", decided)
	}
	// No task may have been created as a side effect.
	if _, err := store.FindTask(uuid.New(), userID); !errors.Is(err, storage.ErrTaskNotFound) {
		t.Fatalf("unexpected task lookup result: %v", err)
	}
}

func TestDecide_ReplaysDecidedPlan(t *testing.T) {
	userID := uuid.New()
	source := &stubSource{result: PlanResult{
		Slots:  []models.Slot{fillerSlot("Deep work", 9)},
		Source: "local",
	}}
	svc, _ := newTestService(source)

	plan, err := svc.Run(context.Background(), userID, models.RunRequest{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	first, err := svc.Decide(context.Background(), userID, plan.PlanRequestID, models.DecisionRequest{
		Decision: models.DecisionAccept,
	})
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	// A second decision, even the opposite one, replays the stored result.
	replay, err := svc.Decide(context.Background(), userID, plan.PlanRequestID, models.DecisionRequest{
		Decision: models.DecisionDecline,
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if replay.Status != models.PlanStatusAccepted {
		t.Errorf("replay changed status to %s", replay.Status)
	}
	if len(replay.CreatedTaskIDs) != len(first.CreatedTaskIDs) {
		t.Errorf("replay must not create more tasks")
	}
	if len(replay.History) != len(first.History) {
		t.Errorf("replay must not append history")
	}
}

func TestDecide_InvalidDecision(t *testing.T) {
	userID := uuid.New()
	svc, _ := newTestService(&stubSource{result: PlanResult{Source: "local"}})
	plan, err := svc.Run(context.Background(), userID, models.RunRequest{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	_, err = svc.Decide(context.Background(), userID, plan.PlanRequestID, models.DecisionRequest{
		Decision: "maybe",
	})
	if !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("expected ErrInvalidDecision, got %v", err)
	}
}

func TestDecide_MissingTaskSkipped(t *testing.T) {
	userID := uuid.New()
	ghostID := uuid.New() // never created in the store
	source := &stubSource{result: PlanResult{
		Slots:  []models.Slot{taskSlot(ghostID, "Ghost", 9), fillerSlot("Real", 11)},
		Source: "local",
	}}
	svc, _ := newTestService(source)

	plan, err := svc.Run(context.Background(), userID, models.RunRequest{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	decided, err := svc.Decide(context.Background(), userID, plan.PlanRequestID, models.DecisionRequest{
		Decision: models.DecisionAccept,
	})
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	// The ghost slot is skipped but still counted as applied, so the plan
	// remains fully accepted.
	if decided.Status != models.PlanStatusAccepted {
		t.Errorf("expected accepted, got %s", decided.Status)
	}
	if len(decided.UpdatedTaskIDs) != 0 {
		t.Errorf("ghost task must not be updated: %v", decided.UpdatedTaskIDs)
	}
	if len(decided.CreatedTaskIDs) != 1 {
		t.Errorf("filler slot should still create a task: %v", decided.CreatedTaskIDs)
	}
}

func TestRestoreVersion(t *testing.T) {
	userID := uuid.New()
	source := &stubSource{result: PlanResult{
		Slots:  []models.Slot{fillerSlot("v1", 9)},
		Source: "local",
	}}
	svc, _ := newTestService(source)

	plan, err := svc.Run(context.Background(), userID, models.RunRequest{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	source.result.Slots = []models.Slot{fillerSlot("v2", 10)}
	if _, err := svc.Replan(context.Background(), userID, plan.PlanRequestID, models.RunRequest{}); err != nil {
		t.Fatalf("replan failed: %v", err)
	}

	restored, err := svc.RestoreVersion(plan.PlanRequestID, userID, 1)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.Version != 1 || restored.Slots[0].Title != "v1" {
		t.Errorf("unexpected restored plan: version=%d slots=%+v", restored.Version, restored.Slots)
	}

	versions, err := svc.History(plan.PlanRequestID, userID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(versions) != 2 {
		t.Errorf("restore must not truncate history, got %d", len(versions))
	}

	if _, err := svc.RestoreVersion(plan.PlanRequestID, userID, 42); !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("expected ErrVersionNotFound, got %v", err)
	}
}
