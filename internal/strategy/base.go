package strategy

import (
	"time"

	"github.com/google/uuid"

	"planweave/internal/conflict"
	"planweave/internal/models"
	"planweave/internal/timeslot"
)

// base carries the machinery shared by all strategies: window construction,
// active-task filtering with filler synthesis, and the final conflict merge.
type base struct {
	calculator *timeslot.Calculator
	detector   *conflict.Detector
	metadata   Metadata
}

func newBase() base {
	return base{
		calculator: timeslot.NewCalculator(),
		detector:   conflict.NewDetector(),
	}
}

func (b *base) Metadata() Metadata {
	return b.metadata
}

func (b *base) availableWindows(cfg Config) []timeslot.Window {
	return b.calculator.BuildAvailableWindows(cfg.StartDate, cfg.WorkSchedule, cfg.Preferences, cfg.CalendarEvents)
}

// activeTasks filters out completed tasks. With zero active tasks it
// synthesizes three generic suggestion blocks so a plan is never empty;
// filler tasks carry no task id, which later makes the decision path create
// new tasks for them.
func (b *base) activeTasks(cfg Config) []models.PlannerTask {
	var active []models.PlannerTask
	for _, task := range cfg.Tasks {
		if cfg.CompletedTaskIDs[task.TaskID] {
			continue
		}
		active = append(active, task)
	}
	if len(active) > 0 {
		return active
	}
	return []models.PlannerTask{
		{Title: "Deep work", DurationMinutes: 90, Status: "todo"},
		{Title: "Focus session", DurationMinutes: 60, Status: "todo"},
		{Title: "Wrap-up", DurationMinutes: 45, Status: "todo"},
	}
}

// mergeConflicts appends the detector's three passes to the strategy's own
// scheduling conflicts.
func (b *base) mergeConflicts(slots []models.Slot, cfg Config, schedulingConflicts []models.Conflict) []models.Conflict {
	conflicts := append([]models.Conflict(nil), schedulingConflicts...)
	conflicts = append(conflicts, b.detector.Detect(conflict.Input{
		Slots:              slots,
		WorkSchedule:       cfg.WorkSchedule,
		Preferences:        cfg.Preferences,
		CalendarEvents:     cfg.CalendarEvents,
		CompletedTaskIDs:   cfg.CompletedTaskIDs,
		RescheduledTaskIDs: cfg.RescheduledTaskIDs,
	})...)
	return conflicts
}

// deadline is the latest end allowed for a task: its due date, or the end
// of the 7-day horizon at 23:59 when it has none.
func (b *base) deadline(task models.PlannerTask, startDate time.Time) time.Time {
	if task.DueAt != nil {
		return timeslot.NormalizeUTC(*task.DueAt)
	}
	end := startDate.AddDate(0, 0, timeslot.HorizonDays)
	return time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 0, 0, time.UTC)
}

// dueKey is the sort key for due dates; tasks without one sort to the end
// of the start day.
func (b *base) dueKey(task models.PlannerTask, startDate time.Time) time.Time {
	if task.DueAt != nil {
		return timeslot.NormalizeUTC(*task.DueAt)
	}
	return time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 23, 59, 59, 0, time.UTC)
}

func (b *base) newSlot(task models.PlannerTask, start, end time.Time, defaultDescription string) models.Slot {
	description := task.Status
	if description == "" {
		description = defaultDescription
	}
	return models.Slot{
		SlotID:      uuid.New(),
		TaskID:      taskIDPtr(task),
		Title:       task.Title,
		Description: description,
		StartAt:     start,
		EndAt:       end,
	}
}

func taskIDPtr(task models.PlannerTask) *uuid.UUID {
	if task.TaskID == uuid.Nil {
		return nil
	}
	id := task.TaskID
	return &id
}
