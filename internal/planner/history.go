package planner

import (
	"time"

	"github.com/google/uuid"

	"planweave/internal/models"
)

// HistoryManager appends immutable version snapshots to a plan and can
// restore a prior version. History is append-only; entries are never
// mutated once written.
type HistoryManager struct{}

func NewHistoryManager() HistoryManager {
	return HistoryManager{}
}

// AppendVersion snapshots the plan's live state under the given status.
func (HistoryManager) AppendVersion(plan *models.Plan, status models.PlanStatus, createdTaskIDs, updatedTaskIDs []uuid.UUID) {
	plan.History = append(plan.History, models.PlanVersion{
		Version:        plan.Version,
		Status:         status,
		Slots:          append([]models.Slot(nil), plan.Slots...),
		Conflicts:      append([]models.Conflict(nil), plan.Conflicts...),
		CreatedTaskIDs: append([]uuid.UUID(nil), createdTaskIDs...),
		UpdatedTaskIDs: append([]uuid.UUID(nil), updatedTaskIDs...),
		LoggedAt:       time.Now().UTC(),
	})
}

// RestoreVersion overwrites the plan's live state with the most recent
// snapshot of the given version. Later history entries stay in place.
// Returns false when the version was never recorded.
func (HistoryManager) RestoreVersion(plan *models.Plan, version int) bool {
	for i := len(plan.History) - 1; i >= 0; i-- {
		entry := plan.History[i]
		if entry.Version != version {
			continue
		}
		plan.Status = entry.Status
		plan.Version = version
		plan.Slots = append([]models.Slot(nil), entry.Slots...)
		plan.Conflicts = append([]models.Conflict(nil), entry.Conflicts...)
		plan.CreatedTaskIDs = append([]uuid.UUID(nil), entry.CreatedTaskIDs...)
		plan.UpdatedTaskIDs = append([]uuid.UUID(nil), entry.UpdatedTaskIDs...)
		return true
	}
	return false
}
