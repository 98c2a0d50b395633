package models

import (
	"time"

	"github.com/google/uuid"
)

// Weekday convention: 0 = Monday .. 6 = Sunday, counted as an offset from
// the week start. Clock times are "HH:MM" strings, always interpreted as UTC.

type PlanStatus string

const (
	PlanStatusRequested         PlanStatus = "requested"
	PlanStatusReady             PlanStatus = "ready"
	PlanStatusAccepted          PlanStatus = "accepted"
	PlanStatusPartiallyAccepted PlanStatus = "partially_accepted"
	PlanStatusDeclined          PlanStatus = "declined"
)

// Decided reports whether the plan has reached a terminal decision state.
func (s PlanStatus) Decided() bool {
	return s == PlanStatusAccepted || s == PlanStatusPartiallyAccepted || s == PlanStatusDeclined
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Conflict reasons emitted by the strategies and the conflict detector.
const (
	ReasonNoAvailableWindow   = "no_available_window"
	ReasonPriorityOverflow    = "priority_overflow"
	ReasonTimeBlockOverflow   = "time_block_overflow"
	ReasonOutsideWorkSchedule = "outside_work_schedule"
	ReasonCalendarConflict    = "calendar_conflict"
	ReasonAfterHours          = "after_hours"
	ReasonNoPlanDay           = "no_plan_day"
	ReasonBreakTime           = "break_time"
	ReasonTaskCompleted       = "task_already_completed"
	ReasonTaskRescheduled     = "task_rescheduled"
)

// WorkScheduleEntry is one recurring working block for a single weekday.
type WorkScheduleEntry struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`   // HH:MM
}

// Break is a daily blackout window, applied to every planned day.
type Break struct {
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`   // HH:MM
}

// Preferences are optional per-user planning constraints. A nil Preferences
// means no extra constraints.
type Preferences struct {
	LatestStartHour *int    `json:"latest_start_hour,omitempty"`
	Breaks          []Break `json:"breaks,omitempty"`
	NoPlanDays      []int   `json:"no_plan_days,omitempty"`
}

// NoPlanDaySet returns the no-plan days as a lookup set.
func (p *Preferences) NoPlanDaySet() map[int]bool {
	if p == nil {
		return nil
	}
	set := make(map[int]bool, len(p.NoPlanDays))
	for _, day := range p.NoPlanDays {
		set[day] = true
	}
	return set
}

// PlannerTask is an immutable task input to a planner run.
type PlannerTask struct {
	TaskID          uuid.UUID  `json:"task_id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	DueAt           *time.Time `json:"due_at,omitempty"`
	Priority        int        `json:"priority,omitempty"`
	Status          string     `json:"status,omitempty"`
}

// CalendarEvent is a fixed, unmovable obstruction in the planning horizon.
type CalendarEvent struct {
	EventID uuid.UUID `json:"event_id"`
	Title   string    `json:"title"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// Slot is a concrete placed time block. TaskID is nil for filler blocks
// suggested by the planner.
type Slot struct {
	SlotID      uuid.UUID  `json:"slot_id"`
	TaskID      *uuid.UUID `json:"task_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       time.Time  `json:"end_at"`
}

// DurationMinutes is derived from the slot bounds, never stored.
func (s Slot) DurationMinutes() int {
	return int(s.EndAt.Sub(s.StartAt) / time.Minute)
}

// Conflict is an advisory annotation on a plan. Conflicts never block plan
// generation; a plan with conflicts is still ready.
type Conflict struct {
	SlotID        *uuid.UUID `json:"slot_id,omitempty"`
	Reason        string     `json:"reason"`
	Severity      Severity   `json:"severity"`
	Details       string     `json:"details,omitempty"`
	RelatedTaskID *uuid.UUID `json:"related_task_id,omitempty"`
}

// PlanVersion is an immutable snapshot appended to a plan's history.
type PlanVersion struct {
	Version        int         `json:"version"`
	Status         PlanStatus  `json:"status"`
	Slots          []Slot      `json:"slots"`
	Conflicts      []Conflict  `json:"conflicts"`
	CreatedTaskIDs []uuid.UUID `json:"created_task_ids,omitempty"`
	UpdatedTaskIDs []uuid.UUID `json:"updated_task_ids,omitempty"`
	LoggedAt       time.Time   `json:"logged_at"`
}

// Plan is the versioned aggregate of slots, conflicts and decision state for
// one planning request. The same PlanRequestID is reused across replans so
// history accumulates.
type Plan struct {
	PlanRequestID  uuid.UUID     `json:"plan_request_id"`
	UserID         uuid.UUID     `json:"user_id"`
	Status         PlanStatus    `json:"status"`
	Version        int           `json:"version"`
	Source         string        `json:"source"`
	Slots          []Slot        `json:"slots"`
	Conflicts      []Conflict    `json:"conflicts"`
	AppliedSlotIDs []uuid.UUID   `json:"applied_slot_ids,omitempty"`
	CreatedTaskIDs []uuid.UUID   `json:"created_task_ids,omitempty"`
	UpdatedTaskIDs []uuid.UUID   `json:"updated_task_ids,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	History        []PlanVersion `json:"history,omitempty"`
}

// Clone returns a deep copy so stored plans never alias caller-held slices.
func (p Plan) Clone() Plan {
	out := p
	out.Slots = append([]Slot(nil), p.Slots...)
	out.Conflicts = append([]Conflict(nil), p.Conflicts...)
	out.AppliedSlotIDs = append([]uuid.UUID(nil), p.AppliedSlotIDs...)
	out.CreatedTaskIDs = append([]uuid.UUID(nil), p.CreatedTaskIDs...)
	out.UpdatedTaskIDs = append([]uuid.UUID(nil), p.UpdatedTaskIDs...)
	out.History = make([]PlanVersion, len(p.History))
	for i, v := range p.History {
		entry := v
		entry.Slots = append([]Slot(nil), v.Slots...)
		entry.Conflicts = append([]Conflict(nil), v.Conflicts...)
		entry.CreatedTaskIDs = append([]uuid.UUID(nil), v.CreatedTaskIDs...)
		entry.UpdatedTaskIDs = append([]uuid.UUID(nil), v.UpdatedTaskIDs...)
		out.History[i] = entry
	}
	return out
}

// RunRequest is the inbound command for a planner run or replan.
type RunRequest struct {
	RequestID           string             `json:"request_id"`
	WeekStart           string             `json:"week_start,omitempty"` // YYYY-MM-DD
	WorkSchedule        []WorkScheduleEntry `json:"work_schedule"`
	SubscriptionStatus  string             `json:"subscription_status"`
	Tasks               []PlannerTask      `json:"tasks"`
	CalendarEvents      []CalendarEvent    `json:"calendar_events"`
	Preferences         *Preferences       `json:"preferences,omitempty"`
	PreviousPlanVersion int                `json:"previous_plan_version,omitempty"`
	CompletedTaskIDs    []uuid.UUID        `json:"completed_task_ids,omitempty"`
	RescheduledTaskIDs  []uuid.UUID        `json:"rescheduled_task_ids,omitempty"`
	AppliedSlotIDs      []uuid.UUID        `json:"applied_slot_ids,omitempty"`
	Strategy            string             `json:"strategy,omitempty"`
	StrategyOptions     *StrategyOptions   `json:"strategy_options,omitempty"`
}

// StrategyOptions are per-request strategy tunables.
type StrategyOptions struct {
	BlockMinutes int `json:"block_minutes,omitempty"`
}

// SlotEdit is a per-slot override submitted with an accept decision.
type SlotEdit struct {
	SlotID      uuid.UUID  `json:"slot_id"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
}

type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

// DecisionRequest is the inbound command applying a user's decision to a plan.
type DecisionRequest struct {
	RequestID       string      `json:"request_id"`
	Decision        Decision    `json:"decision"`
	AcceptedSlotIDs []uuid.UUID `json:"accepted_slot_ids,omitempty"`
	Edits           []SlotEdit  `json:"edits,omitempty"`
}
