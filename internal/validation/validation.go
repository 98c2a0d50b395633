// Package validation sanitizes inbound planner commands. Malformed items
// are dropped one by one with a recorded warning; a command is never
// rejected wholesale for a single bad entry.
package validation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"planweave/internal/models"
	"planweave/internal/timeslot"
)

// Warning records one dropped or corrected input item.
type Warning struct {
	Field   string
	Details string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Field, w.Details)
}

// Result carries the sanitized command plus the warnings produced on the way.
type Result struct {
	Warnings []Warning
}

func (r *Result) warnf(field, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Field: field, Details: fmt.Sprintf(format, args...)})
}

// SanitizeRunRequest drops malformed schedule entries, breaks, tasks and
// events from a run request and returns the cleaned copy.
func SanitizeRunRequest(req models.RunRequest) (models.RunRequest, Result) {
	var result Result

	if req.WeekStart != "" {
		if _, err := time.Parse("2006-01-02", req.WeekStart); err != nil {
			result.warnf("week_start", "invalid date %q, using today", req.WeekStart)
			req.WeekStart = ""
		}
	}

	req.WorkSchedule = sanitizeSchedule(req.WorkSchedule, &result)
	req.Tasks = sanitizeTasks(req.Tasks, &result)
	req.CalendarEvents = sanitizeEvents(req.CalendarEvents, &result)

	if req.Preferences != nil {
		prefs := *req.Preferences
		prefs.Breaks = sanitizeBreaks(prefs.Breaks, &result)
		prefs.NoPlanDays = sanitizeNoPlanDays(prefs.NoPlanDays, &result)
		if prefs.LatestStartHour != nil && (*prefs.LatestStartHour < 0 || *prefs.LatestStartHour > 23) {
			result.warnf("preferences.latest_start_hour", "hour %d out of range, ignoring", *prefs.LatestStartHour)
			prefs.LatestStartHour = nil
		}
		req.Preferences = &prefs
	}

	return req, result
}

func sanitizeSchedule(entries []models.WorkScheduleEntry, result *Result) []models.WorkScheduleEntry {
	kept := make([]models.WorkScheduleEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.DayOfWeek < 0 || entry.DayOfWeek > 6 {
			result.warnf("work_schedule", "day_of_week %d out of range, dropping entry", entry.DayOfWeek)
			continue
		}
		start, err := timeslot.ParseClock(entry.StartTime)
		if err != nil {
			result.warnf("work_schedule", "invalid start_time %q, dropping entry", entry.StartTime)
			continue
		}
		end, err := timeslot.ParseClock(entry.EndTime)
		if err != nil {
			result.warnf("work_schedule", "invalid end_time %q, dropping entry", entry.EndTime)
			continue
		}
		if start >= end {
			result.warnf("work_schedule", "empty window %s-%s on day %d, dropping entry", entry.StartTime, entry.EndTime, entry.DayOfWeek)
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

func sanitizeBreaks(breaks []models.Break, result *Result) []models.Break {
	kept := make([]models.Break, 0, len(breaks))
	for _, b := range breaks {
		start, err := timeslot.ParseClock(b.StartTime)
		if err != nil {
			result.warnf("preferences.breaks", "invalid start_time %q, dropping break", b.StartTime)
			continue
		}
		end, err := timeslot.ParseClock(b.EndTime)
		if err != nil {
			result.warnf("preferences.breaks", "invalid end_time %q, dropping break", b.EndTime)
			continue
		}
		if start >= end {
			result.warnf("preferences.breaks", "empty break %s-%s, dropping", b.StartTime, b.EndTime)
			continue
		}
		kept = append(kept, b)
	}
	return kept
}

func sanitizeNoPlanDays(days []int, result *Result) []int {
	kept := make([]int, 0, len(days))
	for _, day := range days {
		if day < 0 || day > 6 {
			result.warnf("preferences.no_plan_days", "day %d out of range, dropping", day)
			continue
		}
		kept = append(kept, day)
	}
	return kept
}

func sanitizeTasks(tasks []models.PlannerTask, result *Result) []models.PlannerTask {
	kept := make([]models.PlannerTask, 0, len(tasks))
	for _, task := range tasks {
		if task.TaskID == uuid.Nil {
			result.warnf("tasks", "task %q has no id, dropping", task.Title)
			continue
		}
		if task.Title == "" {
			result.warnf("tasks", "task %s has no title, dropping", task.TaskID)
			continue
		}
		if task.DurationMinutes <= 0 {
			result.warnf("tasks", "task %q has non-positive duration %d, dropping", task.Title, task.DurationMinutes)
			continue
		}
		if task.DurationMinutes > 24*60 {
			result.warnf("tasks", "task %q has duration %d over a full day, dropping", task.Title, task.DurationMinutes)
			continue
		}
		kept = append(kept, task)
	}
	return kept
}

func sanitizeEvents(events []models.CalendarEvent, result *Result) []models.CalendarEvent {
	kept := make([]models.CalendarEvent, 0, len(events))
	for _, event := range events {
		if !event.StartAt.Before(event.EndAt) {
			result.warnf("calendar_events", "event %q has empty range, dropping", event.Title)
			continue
		}
		kept = append(kept, event)
	}
	return kept
}
