// Package timeslot turns a weekly working-hours schedule, blackout
// preferences and fixed calendar events into a sorted list of free windows
// for the 7-day planning horizon. All arithmetic happens in UTC.
package timeslot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"planweave/internal/models"
)

// Window is a contiguous free interval available for scheduling.
type Window struct {
	Start time.Time
	End   time.Time
}

// HorizonDays is the fixed planning horizon.
const HorizonDays = 7

// NormalizeUTC converts any timestamp to UTC. Naive timestamps never occur
// in Go, but every timestamp entering the calculator goes through here so
// comparisons always happen in one zone.
func NormalizeUTC(t time.Time) time.Time {
	return t.UTC()
}

// ParseClock parses an "HH:MM" clock string into minutes from midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time out of range: %q", s)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseWeekStart parses a YYYY-MM-DD week start. Empty or malformed input
// falls back to today's date in UTC.
func ParseWeekStart(s string) time.Time {
	if s != "" {
		if d, err := time.Parse("2006-01-02", s); err == nil {
			return d.UTC()
		}
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// DefaultSchedule is the Mon-Fri 09:00-17:00 fallback used when a run
// provides no working-hours schedule.
func DefaultSchedule() []models.WorkScheduleEntry {
	entries := make([]models.WorkScheduleEntry, 0, 5)
	for day := 0; day < 5; day++ {
		entries = append(entries, models.WorkScheduleEntry{
			DayOfWeek: day,
			StartTime: "09:00",
			EndTime:   "17:00",
		})
	}
	return entries
}

// Calculator builds free scheduling windows. It is stateless and safe for
// concurrent use.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// BuildAvailableWindows materializes the schedule over the 7-day horizon
// starting at startDate, subtracts breaks and calendar events, and returns
// the remaining free windows sorted by start time.
func (c *Calculator) BuildAvailableWindows(
	startDate time.Time,
	workSchedule []models.WorkScheduleEntry,
	prefs *models.Preferences,
	calendarEvents []models.CalendarEvent,
) []Window {
	schedule := workSchedule
	if len(schedule) == 0 {
		schedule = DefaultSchedule()
	}
	startDate = dateOnly(NormalizeUTC(startDate))
	noPlanDays := prefs.NoPlanDaySet()

	var windows []Window
	for offset := 0; offset < HorizonDays; offset++ {
		if noPlanDays[offset] {
			continue
		}
		day := startDate.AddDate(0, 0, offset)
		for _, entry := range schedule {
			if entry.DayOfWeek != offset {
				continue
			}
			startMin, err := ParseClock(entry.StartTime)
			if err != nil {
				continue
			}
			endMin, err := ParseClock(entry.EndTime)
			if err != nil || endMin <= startMin {
				continue
			}
			windows = append(windows, Window{
				Start: atClock(day, startMin),
				End:   atClock(day, endMin),
			})
		}
	}

	if prefs != nil && len(prefs.Breaks) > 0 {
		var processed []Window
		for _, win := range windows {
			adjusted := []Window{win}
			day := dateOnly(win.Start)
			for _, br := range prefs.Breaks {
				startMin, err := ParseClock(br.StartTime)
				if err != nil {
					continue
				}
				endMin, err := ParseClock(br.EndTime)
				if err != nil || endMin <= startMin {
					continue
				}
				adjusted = SubtractInterval(adjusted, atClock(day, startMin), atClock(day, endMin))
			}
			processed = append(processed, adjusted...)
		}
		windows = processed
	}

	for _, event := range calendarEvents {
		windows = SubtractInterval(windows, NormalizeUTC(event.StartAt), NormalizeUTC(event.EndAt))
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].Start.Before(windows[j].Start)
	})
	return windows
}

// DurationMinutes returns the whole minutes between two timestamps.
func (c *Calculator) DurationMinutes(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}

// SubtractInterval removes [blockStart, blockEnd) from every window. A
// window disjoint from the block is kept unchanged; otherwise the non-empty
// left and right remainders survive, yielding 0, 1 or 2 windows per input.
func SubtractInterval(windows []Window, blockStart, blockEnd time.Time) []Window {
	updated := make([]Window, 0, len(windows))
	for _, win := range windows {
		if !blockEnd.After(win.Start) || !win.End.After(blockStart) {
			updated = append(updated, win)
			continue
		}
		if win.Start.Before(blockStart) {
			updated = append(updated, Window{Start: win.Start, End: blockStart})
		}
		if blockEnd.Before(win.End) {
			updated = append(updated, Window{Start: blockEnd, End: win.End})
		}
	}
	return updated
}

func atClock(day time.Time, minutes int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
