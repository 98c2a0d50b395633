package timeslot

import (
	"testing"
	"time"

	"planweave/internal/models"
)

// 2026-01-05 is a Monday.
var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func day(offset, hour, minute int) time.Time {
	return monday.AddDate(0, 0, offset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"17:30", 1050, false},
		{"00:00", 0, false},
		{"24:00", 0, true},
		{"9", 0, true},
		{"ab:cd", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBuildAvailableWindows_MaterializesSchedule(t *testing.T) {
	calc := NewCalculator()
	schedule := []models.WorkScheduleEntry{
		{DayOfWeek: 0, StartTime: "09:00", EndTime: "17:00"},
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"},
	}

	windows := calc.BuildAvailableWindows(monday, schedule, nil, nil)

	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	if !windows[0].Start.Equal(day(0, 9, 0)) || !windows[0].End.Equal(day(0, 17, 0)) {
		t.Errorf("unexpected Monday window: %v–%v", windows[0].Start, windows[0].End)
	}
	if !windows[1].Start.Equal(day(1, 9, 0)) || !windows[1].End.Equal(day(1, 17, 0)) {
		t.Errorf("unexpected Tuesday window: %v–%v", windows[1].Start, windows[1].End)
	}
}

func TestBuildAvailableWindows_DefaultScheduleWhenEmpty(t *testing.T) {
	calc := NewCalculator()
	windows := calc.BuildAvailableWindows(monday, nil, nil, nil)

	// Mon-Fri 09:00-17:00
	if len(windows) != 5 {
		t.Fatalf("expected 5 default windows, got %d", len(windows))
	}
	for i, win := range windows {
		if !win.Start.Equal(day(i, 9, 0)) || !win.End.Equal(day(i, 17, 0)) {
			t.Errorf("window %d: got %v–%v", i, win.Start, win.End)
		}
	}
}

func TestBuildAvailableWindows_SubtractsEvent(t *testing.T) {
	calc := NewCalculator()
	schedule := []models.WorkScheduleEntry{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"},
	}
	events := []models.CalendarEvent{
		{Title: "Standup", StartAt: day(1, 9, 0), EndAt: day(1, 10, 0)},
	}

	windows := calc.BuildAvailableWindows(monday, schedule, nil, events)

	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	if !windows[0].Start.Equal(day(1, 10, 0)) || !windows[0].End.Equal(day(1, 17, 0)) {
		t.Errorf("expected 10:00–17:00 remainder, got %v–%v", windows[0].Start, windows[0].End)
	}
}

func TestBuildAvailableWindows_SubtractsBreaksPerDay(t *testing.T) {
	calc := NewCalculator()
	schedule := []models.WorkScheduleEntry{
		{DayOfWeek: 0, StartTime: "09:00", EndTime: "17:00"},
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"},
	}
	prefs := &models.Preferences{
		Breaks: []models.Break{{StartTime: "12:00", EndTime: "13:00"}},
	}

	windows := calc.BuildAvailableWindows(monday, schedule, prefs, nil)

	// Each day split into morning and afternoon.
	if len(windows) != 4 {
		t.Fatalf("expected 4 windows, got %d", len(windows))
	}
	if !windows[0].End.Equal(day(0, 12, 0)) || !windows[1].Start.Equal(day(0, 13, 0)) {
		t.Errorf("Monday break not applied: %v / %v", windows[0].End, windows[1].Start)
	}
	if !windows[2].End.Equal(day(1, 12, 0)) || !windows[3].Start.Equal(day(1, 13, 0)) {
		t.Errorf("Tuesday break not applied: %v / %v", windows[2].End, windows[3].Start)
	}
}

func TestBuildAvailableWindows_SkipsNoPlanDays(t *testing.T) {
	calc := NewCalculator()
	prefs := &models.Preferences{NoPlanDays: []int{0, 2}}

	windows := calc.BuildAvailableWindows(monday, nil, prefs, nil)

	for _, win := range windows {
		offset := int(win.Start.Sub(monday).Hours()) / 24
		if offset == 0 || offset == 2 {
			t.Errorf("window on no-plan day %d: %v", offset, win.Start)
		}
	}
	if len(windows) != 3 {
		t.Errorf("expected 3 windows after skipping 2 weekdays, got %d", len(windows))
	}
}

func TestSubtractInterval_Identity(t *testing.T) {
	windows := []Window{
		{Start: day(0, 9, 0), End: day(0, 12, 0)},
		{Start: day(0, 13, 0), End: day(0, 17, 0)},
	}

	// Disjoint block leaves the list unchanged.
	got := SubtractInterval(windows, day(0, 12, 0), day(0, 13, 0))
	if len(got) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(got))
	}
	for i := range windows {
		if !got[i].Start.Equal(windows[i].Start) || !got[i].End.Equal(windows[i].End) {
			t.Errorf("window %d changed: %v–%v", i, got[i].Start, got[i].End)
		}
	}
}

func TestSubtractInterval_Split(t *testing.T) {
	windows := []Window{{Start: day(0, 9, 0), End: day(0, 17, 0)}}

	got := SubtractInterval(windows, day(0, 12, 0), day(0, 13, 0))
	if len(got) != 2 {
		t.Fatalf("expected split into 2 windows, got %d", len(got))
	}
	if !got[0].End.Equal(day(0, 12, 0)) || !got[1].Start.Equal(day(0, 13, 0)) {
		t.Errorf("bad split: %v–%v / %v–%v", got[0].Start, got[0].End, got[1].Start, got[1].End)
	}
}

func TestSubtractInterval_SwallowsWindow(t *testing.T) {
	windows := []Window{{Start: day(0, 9, 0), End: day(0, 10, 0)}}

	got := SubtractInterval(windows, day(0, 8, 0), day(0, 11, 0))
	if len(got) != 0 {
		t.Fatalf("expected window fully consumed, got %d windows", len(got))
	}
}

func TestBuildAvailableWindows_WindowsWithinSchedule(t *testing.T) {
	calc := NewCalculator()
	schedule := []models.WorkScheduleEntry{
		{DayOfWeek: 0, StartTime: "08:00", EndTime: "12:00"},
		{DayOfWeek: 0, StartTime: "13:00", EndTime: "18:00"},
		{DayOfWeek: 3, StartTime: "10:00", EndTime: "16:00"},
	}
	prefs := &models.Preferences{
		Breaks: []models.Break{{StartTime: "11:00", EndTime: "11:30"}},
	}
	events := []models.CalendarEvent{
		{Title: "Review", StartAt: day(0, 14, 0), EndAt: day(0, 15, 0)},
		{Title: "1:1", StartAt: day(3, 12, 0), EndAt: day(3, 12, 30)},
	}

	windows := calc.BuildAvailableWindows(monday, schedule, prefs, events)

	// Pairwise non-overlapping and sorted.
	for i := 1; i < len(windows); i++ {
		if windows[i].Start.Before(windows[i-1].End) {
			t.Errorf("windows %d and %d overlap", i-1, i)
		}
	}
	// Fully contained within the original schedule intervals.
	for _, win := range windows {
		contained := false
		for _, entry := range schedule {
			offset := int(win.Start.Sub(monday).Hours()) / 24
			if entry.DayOfWeek != offset {
				continue
			}
			startMin, _ := ParseClock(entry.StartTime)
			endMin, _ := ParseClock(entry.EndTime)
			dayStart := monday.AddDate(0, 0, offset)
			if !win.Start.Before(dayStart.Add(time.Duration(startMin)*time.Minute)) &&
				!win.End.After(dayStart.Add(time.Duration(endMin)*time.Minute)) {
				contained = true
				break
			}
		}
		if !contained {
			t.Errorf("window %v–%v escapes the schedule", win.Start, win.End)
		}
	}
}
