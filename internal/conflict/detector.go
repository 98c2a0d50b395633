// Package conflict flags advisory problems on already-placed slots:
// schedule violations, preference violations and task-state inconsistencies.
// Conflicts never block plan generation.
package conflict

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"planweave/internal/models"
	"planweave/internal/timeslot"
)

// Input bundles everything the three detection passes look at.
type Input struct {
	Slots              []models.Slot
	WorkSchedule       []models.WorkScheduleEntry
	Preferences        *models.Preferences
	CalendarEvents     []models.CalendarEvent
	CompletedTaskIDs   map[uuid.UUID]bool
	RescheduledTaskIDs map[uuid.UUID]bool
}

// Detector runs the three independent conflict passes. It is stateless and
// safe for concurrent use.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect runs all three passes and returns their combined annotations. A
// slot may receive multiple conflicts.
func (d *Detector) Detect(in Input) []models.Conflict {
	var conflicts []models.Conflict
	conflicts = append(conflicts, d.ScheduleConflicts(in.Slots, in.WorkSchedule, in.CalendarEvents)...)
	conflicts = append(conflicts, d.PreferenceConflicts(in.Slots, in.Preferences)...)
	conflicts = append(conflicts, d.ResourceConflicts(in.Slots, in.CompletedTaskIDs, in.RescheduledTaskIDs)...)
	return conflicts
}

// ScheduleConflicts flags slots outside every matching work-schedule entry
// and slots overlapping fixed calendar events.
func (d *Detector) ScheduleConflicts(
	slots []models.Slot,
	workSchedule []models.WorkScheduleEntry,
	calendarEvents []models.CalendarEvent,
) []models.Conflict {
	var conflicts []models.Conflict
	for _, slot := range slots {
		slot := slot
		weekday := mondayIndexed(slot.StartAt)
		startMin := clockMinutes(slot.StartAt)
		endMin := clockMinutes(slot.EndAt)

		allowed := false
		for _, entry := range workSchedule {
			if entry.DayOfWeek != weekday {
				continue
			}
			winStart, err := timeslot.ParseClock(entry.StartTime)
			if err != nil {
				continue
			}
			winEnd, err := timeslot.ParseClock(entry.EndTime)
			if err != nil {
				continue
			}
			if winStart <= startMin && endMin <= winEnd {
				allowed = true
				break
			}
		}
		if len(workSchedule) > 0 && !allowed {
			conflicts = append(conflicts, models.Conflict{
				SlotID:   &slot.SlotID,
				Reason:   models.ReasonOutsideWorkSchedule,
				Severity: models.SeverityWarning,
				Details:  "Slot falls outside configured working hours.",
			})
		}

		for _, event := range calendarEvents {
			eventStart := timeslot.NormalizeUTC(event.StartAt)
			eventEnd := timeslot.NormalizeUTC(event.EndAt)
			if eventStart.Before(slot.EndAt) && slot.StartAt.Before(eventEnd) {
				conflicts = append(conflicts, models.Conflict{
					SlotID:   &slot.SlotID,
					Reason:   models.ReasonCalendarConflict,
					Severity: models.SeverityError,
					Details:  fmt.Sprintf("Overlaps with calendar event %s", event.Title),
				})
			}
		}
	}
	return conflicts
}

// PreferenceConflicts flags slots violating the user's planning preferences.
func (d *Detector) PreferenceConflicts(slots []models.Slot, prefs *models.Preferences) []models.Conflict {
	if prefs == nil {
		return nil
	}
	noPlanDays := prefs.NoPlanDaySet()

	var conflicts []models.Conflict
	for _, slot := range slots {
		slot := slot
		weekday := mondayIndexed(slot.StartAt)
		startMin := clockMinutes(slot.StartAt)
		endMin := clockMinutes(slot.EndAt)

		if prefs.LatestStartHour != nil && slot.StartAt.UTC().Hour() > *prefs.LatestStartHour {
			conflicts = append(conflicts, models.Conflict{
				SlotID:   &slot.SlotID,
				Reason:   models.ReasonAfterHours,
				Severity: models.SeverityWarning,
				Details:  "Starts later than user preference allows.",
			})
		}

		if noPlanDays[weekday] {
			conflicts = append(conflicts, models.Conflict{
				SlotID:   &slot.SlotID,
				Reason:   models.ReasonNoPlanDay,
				Severity: models.SeverityInfo,
				Details:  "User requested no planning on this day.",
			})
		}

		for _, br := range prefs.Breaks {
			breakStart, err := timeslot.ParseClock(br.StartTime)
			if err != nil {
				continue
			}
			breakEnd, err := timeslot.ParseClock(br.EndTime)
			if err != nil {
				continue
			}
			// Half-open overlap on bare clock times, same shape as the
			// calendar-event test.
			if breakStart < endMin && startMin < breakEnd {
				conflicts = append(conflicts, models.Conflict{
					SlotID:   &slot.SlotID,
					Reason:   models.ReasonBreakTime,
					Severity: models.SeverityWarning,
					Details:  "Overlaps with a planned break.",
				})
			}
		}
	}
	return conflicts
}

// ResourceConflicts flags slots referencing tasks already completed or
// rescheduled before this run.
func (d *Detector) ResourceConflicts(
	slots []models.Slot,
	completedTaskIDs map[uuid.UUID]bool,
	rescheduledTaskIDs map[uuid.UUID]bool,
) []models.Conflict {
	var conflicts []models.Conflict
	for _, slot := range slots {
		slot := slot
		if slot.TaskID == nil {
			continue
		}
		if completedTaskIDs[*slot.TaskID] {
			conflicts = append(conflicts, models.Conflict{
				SlotID:        &slot.SlotID,
				Reason:        models.ReasonTaskCompleted,
				Severity:      models.SeverityInfo,
				RelatedTaskID: slot.TaskID,
				Details:       "Task was marked as completed before planning.",
			})
		}
		if rescheduledTaskIDs[*slot.TaskID] {
			conflicts = append(conflicts, models.Conflict{
				SlotID:        &slot.SlotID,
				Reason:        models.ReasonTaskRescheduled,
				Severity:      models.SeverityWarning,
				RelatedTaskID: slot.TaskID,
				Details:       "Task has been rescheduled and may need re-planning.",
			})
		}
	}
	return conflicts
}

// mondayIndexed maps a timestamp's weekday to the 0=Monday convention used
// by WorkScheduleEntry.DayOfWeek.
func mondayIndexed(t time.Time) int {
	return (int(t.UTC().Weekday()) + 6) % 7
}

func clockMinutes(t time.Time) int {
	t = t.UTC()
	return t.Hour()*60 + t.Minute()
}
