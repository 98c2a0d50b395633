package strategy

import (
	"sort"
	"time"

	"planweave/internal/models"
	"planweave/internal/timeslot"
)

const NamePriorityBased = "priority_based"

// PriorityBased orders tasks by priority descending then due date, and
// anchors each placement as late as the window and deadline allow so
// high-priority work sits closest to its due date.
type PriorityBased struct {
	base
}

func NewPriorityBased() *PriorityBased {
	return &PriorityBased{base: newBase()}
}

func (s *PriorityBased) Name() string { return NamePriorityBased }

func (s *PriorityBased) GenerateSlots(cfg Config) ([]models.Slot, []models.Conflict) {
	windows := s.availableWindows(cfg)
	tasks := s.activeTasks(cfg)

	farFuture := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
	due := func(t models.PlannerTask) time.Time {
		if t.DueAt != nil {
			return timeslot.NormalizeUTC(*t.DueAt)
		}
		return farFuture
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority > tasks[j].Priority
		}
		return due(tasks[i]).Before(due(tasks[j]))
	})

	var slots []models.Slot
	var conflicts []models.Conflict
	available := append([]timeslot.Window(nil), windows...)

	for _, task := range tasks {
		duration := time.Duration(task.DurationMinutes) * time.Minute

		targetEnd := farFuture
		if task.DueAt != nil {
			targetEnd = timeslot.NormalizeUTC(*task.DueAt)
		} else if len(available) > 0 {
			targetEnd = available[len(available)-1].End
		}

		placed := false
		for idx, win := range available {
			latestEnd := win.End
			if targetEnd.Before(latestEnd) {
				latestEnd = targetEnd
			}
			if latestEnd.Sub(win.Start) < duration {
				continue
			}

			// End-anchored placement, clipped to the window start.
			slotEnd := latestEnd
			slotStart := slotEnd.Add(-duration)
			if slotStart.Before(win.Start) {
				slotStart = win.Start
				slotEnd = slotStart.Add(duration)
			}

			slots = append(slots, s.newSlot(task, slotStart, slotEnd, "Prioritized task"))
			placed = true

			var remaining []timeslot.Window
			if slotStart.After(win.Start) {
				remaining = append(remaining, timeslot.Window{Start: win.Start, End: slotStart})
			}
			if slotEnd.Before(win.End) {
				remaining = append(remaining, timeslot.Window{Start: slotEnd, End: win.End})
			}
			available = append(available[:idx], append(remaining, available[idx+1:]...)...)
			break
		}

		if !placed {
			conflicts = append(conflicts, unplacedConflict(task, models.ReasonPriorityOverflow,
				models.SeverityWarning, "Task could not be placed within prioritized windows."))
		}
	}

	all := s.mergeConflicts(slots, cfg, conflicts)
	s.metadata = Metadata{
		Strategy:          s.Name(),
		ScheduledSlots:    len(slots),
		Conflicts:         len(all),
		WindowsConsidered: len(windows),
		PrioritizedTasks:  len(tasks),
	}
	return slots, all
}
