package oracle

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"planweave/internal/models"
	"planweave/internal/planner"
)

const (
	SourceOracle = "ai"
	SourceLocal  = "local"
)

// Orchestrator resolves plan runs against the oracle, validating its reply
// item by item, and falls back to the local generator on any failure. It
// always resolves; callers never see an error from a run.
type Orchestrator struct {
	client    *Client
	generator *planner.Generator
	log       *zap.Logger
}

func NewOrchestrator(client *Client, generator *planner.Generator, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{client: client, generator: generator, log: log}
}

// RequestPlan implements planner.PlanSource.
func (o *Orchestrator) RequestPlan(ctx context.Context, planRequestID uuid.UUID, req models.RunRequest, previousVersion int) planner.PlanResult {
	if o.client == nil {
		return o.fallback(planRequestID, req, previousVersion)
	}

	start := time.Now()
	item, err := o.client.BatchRun(ctx, req.RequestID, planRequestID, req)
	if err != nil {
		o.log.Error("ai_planner_request_failed",
			zap.String("request_id", req.RequestID),
			zap.String("plan_request_id", planRequestID.String()),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return o.fallback(planRequestID, req, previousVersion)
	}
	o.log.Info("ai_planner_request_succeeded",
		zap.String("request_id", req.RequestID),
		zap.String("plan_request_id", planRequestID.String()),
		zap.Duration("latency", time.Since(start)),
	)
	return o.parseResponse(planRequestID, item, req, previousVersion)
}

// parseResponse validates each slot and conflict independently and drops
// invalid ones. An oracle reply with zero usable slots is treated as a
// failure and replanned locally.
func (o *Orchestrator) parseResponse(planRequestID uuid.UUID, item planItem, req models.RunRequest, previousVersion int) planner.PlanResult {
	var slots []models.Slot
	for _, raw := range item.Slots {
		var slot models.Slot
		if err := json.Unmarshal(raw, &slot); err != nil {
			o.log.Warn("ai_planner_slot_invalid",
				zap.String("plan_request_id", planRequestID.String()),
				zap.Error(err),
			)
			continue
		}
		if slot.SlotID == uuid.Nil || slot.Title == "" || !slot.StartAt.Before(slot.EndAt) {
			o.log.Warn("ai_planner_slot_invalid",
				zap.String("plan_request_id", planRequestID.String()),
				zap.String("slot_id", slot.SlotID.String()),
			)
			continue
		}
		slots = append(slots, slot)
	}

	var conflicts []models.Conflict
	for _, raw := range item.Conflicts {
		var conflict models.Conflict
		if err := json.Unmarshal(raw, &conflict); err != nil {
			o.log.Warn("ai_planner_conflict_invalid",
				zap.String("plan_request_id", planRequestID.String()),
				zap.Error(err),
			)
			continue
		}
		if conflict.Reason == "" {
			o.log.Warn("ai_planner_conflict_invalid",
				zap.String("plan_request_id", planRequestID.String()),
			)
			continue
		}
		conflicts = append(conflicts, conflict)
	}

	if len(slots) == 0 {
		o.log.Error("ai_planner_empty_plan",
			zap.String("plan_request_id", planRequestID.String()),
		)
		return o.fallback(planRequestID, req, previousVersion)
	}

	result := planner.PlanResult{
		Status:    models.PlanStatus(item.Status),
		Slots:     slots,
		Conflicts: conflicts,
		Version:   item.Version,
		Source:    item.Source,
	}
	if result.Status == "" {
		result.Status = models.PlanStatusReady
	}
	if result.Version == 0 {
		result.Version = previousVersion + 1
	}
	if result.Source == "" {
		result.Source = SourceOracle
	}
	return result
}

func (o *Orchestrator) fallback(planRequestID uuid.UUID, req models.RunRequest, previousVersion int) planner.PlanResult {
	slots, conflicts := o.generator.GenerateSlots(req)
	o.log.Info("planner_local_fallback",
		zap.String("plan_request_id", planRequestID.String()),
		zap.Int("slots", len(slots)),
		zap.Int("conflicts", len(conflicts)),
	)
	return planner.PlanResult{
		Status:    models.PlanStatusReady,
		Slots:     slots,
		Conflicts: conflicts,
		Version:   previousVersion + 1,
		Source:    SourceLocal,
	}
}
