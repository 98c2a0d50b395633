package strategy

import (
	"testing"

	"planweave/internal/models"
)

func TestTimeBlock_WalksWindowInFixedChunks(t *testing.T) {
	cfg := Config{
		StartDate: weekStart,
		Tasks: []models.PlannerTask{
			task("First", 90),
			task("Second", 90),
		},
		WorkSchedule: []models.WorkScheduleEntry{
			{DayOfWeek: 0, StartTime: "09:00", EndTime: "12:00"},
		},
	}

	s := NewTimeBlock(0)
	slots, conflicts := s.GenerateSlots(cfg)

	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	first := findSlot(t, slots, "First")
	second := findSlot(t, slots, "Second")
	if !first.StartAt.Equal(at(0, 9, 0)) || !first.EndAt.Equal(at(0, 10, 30)) {
		t.Errorf("expected 09:00–10:30, got %v–%v", first.StartAt, first.EndAt)
	}
	if !second.StartAt.Equal(at(0, 10, 30)) || !second.EndAt.Equal(at(0, 12, 0)) {
		t.Errorf("expected 10:30–12:00, got %v–%v", second.StartAt, second.EndAt)
	}
	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %+v", conflicts)
	}
	if meta := s.Metadata(); meta.BlockMinutes != DefaultBlockMinutes || meta.WindowsConsidered != 1 {
		t.Errorf("expected default block size in metadata, got %+v", meta)
	}
}

func TestTimeBlock_RequestBlockSizeWins(t *testing.T) {
	cfg := Config{
		StartDate:    weekStart,
		Tasks:        []models.PlannerTask{task("Only", 60)},
		BlockMinutes: 60,
		WorkSchedule: []models.WorkScheduleEntry{
			{DayOfWeek: 0, StartTime: "09:00", EndTime: "11:00"},
		},
	}

	s := NewTimeBlock(120)
	slots, _ := s.GenerateSlots(cfg)

	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].EndAt.Equal(at(0, 10, 0)) {
		t.Errorf("expected the 60-minute request override, got end %v", slots[0].EndAt)
	}
	if meta := s.Metadata(); meta.BlockMinutes != 60 {
		t.Errorf("metadata should carry the effective block size, got %+v", meta)
	}
}

func TestTimeBlock_ClipsTaskToBlock(t *testing.T) {
	cfg := Config{
		StartDate: weekStart,
		Tasks:     []models.PlannerTask{task("Oversized", 240)},
		WorkSchedule: []models.WorkScheduleEntry{
			{DayOfWeek: 0, StartTime: "09:00", EndTime: "17:00"},
		},
	}

	slots, _ := NewTimeBlock(90).GenerateSlots(cfg)

	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if slots[0].DurationMinutes() != 90 {
		t.Errorf("task should be clipped to the block, got %dm", slots[0].DurationMinutes())
	}
}

func TestTimeBlock_OverflowConflicts(t *testing.T) {
	cfg := Config{
		StartDate: weekStart,
		Tasks: []models.PlannerTask{
			task("Fits", 90),
			task("Overflow", 90),
		},
		WorkSchedule: []models.WorkScheduleEntry{
			{DayOfWeek: 0, StartTime: "09:00", EndTime: "10:30"},
		},
	}

	slots, conflicts := NewTimeBlock(90).GenerateSlots(cfg)

	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	overflow := 0
	for _, c := range conflicts {
		if c.Reason == models.ReasonTimeBlockOverflow {
			overflow++
			if c.Severity != models.SeverityError {
				t.Errorf("expected error severity, got %q", c.Severity)
			}
		}
	}
	if overflow != 1 {
		t.Errorf("expected 1 time_block_overflow conflict, got %d", overflow)
	}
}

func TestTimeBlock_SkipsRemaindersBelowMinimum(t *testing.T) {
	// 09:00–10:50 holds one 90-minute block plus a 20-minute tail that is
	// too small to open another block.
	cfg := Config{
		StartDate: weekStart,
		Tasks: []models.PlannerTask{
			task("Placed", 90),
			task("Tail", 30),
		},
		WorkSchedule: []models.WorkScheduleEntry{
			{DayOfWeek: 0, StartTime: "09:00", EndTime: "10:50"},
		},
	}

	slots, conflicts := NewTimeBlock(90).GenerateSlots(cfg)

	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d: %+v", len(slots), slots)
	}
	overflow := 0
	for _, c := range conflicts {
		if c.Reason == models.ReasonTimeBlockOverflow {
			overflow++
		}
	}
	if overflow != 1 {
		t.Errorf("tail task should overflow, got %+v", conflicts)
	}
}
