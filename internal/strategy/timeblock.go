package strategy

import (
	"sort"
	"time"

	"planweave/internal/models"
	"planweave/internal/timeslot"
)

const NameTimeBlock = "time_block"

// DefaultBlockMinutes is the fixed chunk size TimeBlock walks windows with
// when neither the request nor the configuration overrides it.
const DefaultBlockMinutes = 90

// minBlockMinutes is the smallest leftover worth opening another block for.
const minBlockMinutes = 30

// TimeBlock walks the free windows in fixed-size chunks and pours tasks into
// them in order, clipping a task's duration to whatever remains in the
// current block.
type TimeBlock struct {
	base
	defaultBlock int
}

func NewTimeBlock(defaultBlock int) *TimeBlock {
	if defaultBlock <= 0 {
		defaultBlock = DefaultBlockMinutes
	}
	return &TimeBlock{base: newBase(), defaultBlock: defaultBlock}
}

func (s *TimeBlock) Name() string { return NameTimeBlock }

func (s *TimeBlock) GenerateSlots(cfg Config) ([]models.Slot, []models.Conflict) {
	blockMinutes := cfg.BlockMinutes
	if blockMinutes <= 0 {
		blockMinutes = s.defaultBlock
	}
	blockDelta := time.Duration(blockMinutes) * time.Minute

	windows := s.availableWindows(cfg)
	tasks := s.activeTasks(cfg)

	due := func(t models.PlannerTask) time.Time {
		if t.DueAt != nil {
			return timeslot.NormalizeUTC(*t.DueAt)
		}
		return cfg.StartDate
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		di, dj := due(tasks[i]), due(tasks[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority > tasks[j].Priority
		}
		return tasks[i].DurationMinutes > tasks[j].DurationMinutes
	})

	var slots []models.Slot
	var conflicts []models.Conflict
	queue := append([]models.PlannerTask(nil), tasks...)

	for _, win := range windows {
		current := win.Start
		for len(queue) > 0 && !current.Add(minBlockMinutes*time.Minute).After(win.End) {
			blockEnd := current.Add(blockDelta)
			if win.End.Before(blockEnd) {
				blockEnd = win.End
			}
			task := queue[0]
			queue = queue[1:]

			duration := time.Duration(task.DurationMinutes) * time.Minute
			if current.Add(duration).After(blockEnd) {
				duration = blockEnd.Sub(current)
			}
			slots = append(slots, s.newSlot(task, current, current.Add(duration), "Time-blocked task"))
			current = blockEnd
		}
	}

	for _, remaining := range queue {
		conflicts = append(conflicts, unplacedConflict(remaining, models.ReasonTimeBlockOverflow,
			models.SeverityError, "Not enough time blocks to schedule task."))
	}

	all := s.mergeConflicts(slots, cfg, conflicts)
	s.metadata = Metadata{
		Strategy:          s.Name(),
		ScheduledSlots:    len(slots),
		Conflicts:         len(all),
		BlockMinutes:      blockMinutes,
		WindowsConsidered: len(windows),
	}
	return slots, all
}
