// Package strategy holds the pluggable task-placement algorithms. Every
// strategy consumes free windows plus tasks and produces placed slots and
// the conflicts it could not avoid.
package strategy

import (
	"time"

	"github.com/google/uuid"

	"planweave/internal/models"
	"planweave/internal/timeslot"
)

// Strategy is one pluggable placement algorithm. Implementations are
// single-use: the registry hands out a fresh instance per run so Metadata
// reflects exactly one generation.
type Strategy interface {
	Name() string
	GenerateSlots(cfg Config) ([]models.Slot, []models.Conflict)
	Metadata() Metadata
}

// Metadata describes a single strategy run.
type Metadata struct {
	Strategy          string `json:"strategy"`
	ScheduledSlots    int    `json:"scheduled_slots"`
	Conflicts         int    `json:"conflicts"`
	WindowsConsidered int    `json:"windows_considered"`
	PrioritizedTasks  int    `json:"prioritized_tasks,omitempty"`
	BlockMinutes      int    `json:"block_minutes,omitempty"`
}

// Config bundles the parsed inputs of one planner run.
type Config struct {
	StartDate          time.Time
	Tasks              []models.PlannerTask
	WorkSchedule       []models.WorkScheduleEntry
	Preferences        *models.Preferences
	CalendarEvents     []models.CalendarEvent
	CompletedTaskIDs   map[uuid.UUID]bool
	RescheduledTaskIDs map[uuid.UUID]bool
	StrategyName       string
	BlockMinutes       int
}

// ConfigFromRequest parses a run request into a strategy config. The week
// start falls back to today (UTC) when absent or malformed.
func ConfigFromRequest(req models.RunRequest) Config {
	cfg := Config{
		StartDate:          timeslot.ParseWeekStart(req.WeekStart),
		Tasks:              req.Tasks,
		WorkSchedule:       req.WorkSchedule,
		Preferences:        req.Preferences,
		CalendarEvents:     req.CalendarEvents,
		CompletedTaskIDs:   idSet(req.CompletedTaskIDs),
		RescheduledTaskIDs: idSet(req.RescheduledTaskIDs),
		StrategyName:       req.Strategy,
	}
	if req.StrategyOptions != nil {
		cfg.BlockMinutes = req.StrategyOptions.BlockMinutes
	}
	return cfg
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
