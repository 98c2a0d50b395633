package strategy

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"planweave/internal/models"
	"planweave/internal/timeslot"
)

const NameSimpleGreedy = "simple_greedy"

// SimpleGreedy places each task at the earliest window that accommodates it
// before its deadline, consuming windows left to right. Tasks are ordered by
// due date ascending, priority descending as tiebreak.
type SimpleGreedy struct {
	base
}

func NewSimpleGreedy() *SimpleGreedy {
	return &SimpleGreedy{base: newBase()}
}

func (s *SimpleGreedy) Name() string { return NameSimpleGreedy }

func (s *SimpleGreedy) GenerateSlots(cfg Config) ([]models.Slot, []models.Conflict) {
	windows := s.availableWindows(cfg)
	tasks := s.activeTasks(cfg)

	sort.SliceStable(tasks, func(i, j int) bool {
		di, dj := s.dueKey(tasks[i], cfg.StartDate), s.dueKey(tasks[j], cfg.StartDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return tasks[i].Priority > tasks[j].Priority
	})

	var slots []models.Slot
	var conflicts []models.Conflict
	available := append([]timeslot.Window(nil), windows...)

	for _, task := range tasks {
		duration := time.Duration(task.DurationMinutes) * time.Minute
		deadline := s.deadline(task, cfg.StartDate)

		placed := false
		for idx, win := range available {
			latestEnd := win.End
			if deadline.Before(latestEnd) {
				latestEnd = deadline
			}
			if !win.Start.Before(latestEnd) {
				continue
			}
			slotStart := win.Start
			slotEnd := slotStart.Add(duration)
			if slotEnd.After(latestEnd) {
				continue
			}

			slots = append(slots, s.newSlot(task, slotStart, slotEnd, "Suggested by AI"))
			placed = true

			// Consume the window; put the unused remainder back in place.
			if slotEnd.Before(win.End) {
				available[idx] = timeslot.Window{Start: slotEnd, End: win.End}
			} else {
				available = append(available[:idx], available[idx+1:]...)
			}
			break
		}

		if !placed {
			conflicts = append(conflicts, unplacedConflict(task, models.ReasonNoAvailableWindow,
				models.SeverityError, "No free slot before the task deadline."))
		}
	}

	all := s.mergeConflicts(slots, cfg, conflicts)
	s.metadata = Metadata{
		Strategy:          s.Name(),
		ScheduledSlots:    len(slots),
		Conflicts:         len(all),
		WindowsConsidered: len(windows),
	}
	return slots, all
}

func unplacedConflict(task models.PlannerTask, reason string, severity models.Severity, details string) models.Conflict {
	c := models.Conflict{
		Reason:   reason,
		Severity: severity,
		Details:  details,
	}
	if task.TaskID != uuid.Nil {
		id := task.TaskID
		c.RelatedTaskID = &id
	}
	return c
}
