// Package planner owns plan generation orchestration, version history and
// the decision state machine.
package planner

import (
	"go.uber.org/zap"

	"planweave/internal/models"
	"planweave/internal/strategy"
)

// Generator orchestrates the time-slot calculator, a planning strategy and
// the conflict detector into one "generate a plan" operation, and validates
// user-submitted slot edits.
type Generator struct {
	registry *strategy.Registry
	log      *zap.Logger
}

func NewGenerator(registry *strategy.Registry, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{registry: registry, log: log}
}

// GenerateSlots runs the selected strategy for the request and returns the
// placed slots plus all advisory conflicts.
func (g *Generator) GenerateSlots(req models.RunRequest) ([]models.Slot, []models.Conflict) {
	cfg := strategy.ConfigFromRequest(req)
	st := g.registry.Get(cfg.StrategyName)
	slots, conflicts := st.GenerateSlots(cfg)

	meta := st.Metadata()
	g.log.Info("planner_slots_generated",
		zap.String("strategy", meta.Strategy),
		zap.Int("scheduled_slots", meta.ScheduledSlots),
		zap.Int("conflicts", meta.Conflicts),
		zap.Int("windows_considered", meta.WindowsConsidered),
	)
	return slots, conflicts
}

// ApplyEdits merges per-slot overrides into the slot list. An edit whose
// resulting range is empty or inverted is dropped for that slot only; the
// original slot survives and the rest of the batch proceeds.
func (g *Generator) ApplyEdits(slots []models.Slot, edits []models.SlotEdit) []models.Slot {
	if len(edits) == 0 {
		return slots
	}
	byID := make(map[string]models.SlotEdit, len(edits))
	for _, edit := range edits {
		byID[edit.SlotID.String()] = edit
	}

	updated := make([]models.Slot, 0, len(slots))
	for _, slot := range slots {
		edit, ok := byID[slot.SlotID.String()]
		if !ok {
			updated = append(updated, slot)
			continue
		}

		startAt := slot.StartAt
		if edit.StartAt != nil {
			startAt = edit.StartAt.UTC()
		}
		endAt := slot.EndAt
		if edit.EndAt != nil {
			endAt = edit.EndAt.UTC()
		}
		if !endAt.After(startAt) {
			g.log.Warn("planner_edit_invalid_range",
				zap.String("slot_id", slot.SlotID.String()),
				zap.Time("request_start", startAt),
				zap.Time("request_end", endAt),
			)
			updated = append(updated, slot)
			continue
		}

		if edit.Title != "" {
			slot.Title = edit.Title
		}
		if edit.Description != "" {
			slot.Description = edit.Description
		}
		slot.StartAt = startAt
		slot.EndAt = endAt
		updated = append(updated, slot)
	}
	return updated
}
