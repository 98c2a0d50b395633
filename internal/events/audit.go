package events

import (
	"go.uber.org/zap"
)

// AuditLogger mirrors every planner event into the structured log so an
// external sink can be reconstructed from log output alone.
type AuditLogger struct {
	unsubscribe []func()
}

// NewAuditLogger subscribes a logging sink to every planner event type.
func NewAuditLogger(bus *Bus, log *zap.Logger) *AuditLogger {
	if log == nil {
		log = zap.NewNop()
	}
	a := &AuditLogger{}
	for _, eventType := range []EventType{
		EventPlanRequested,
		EventPlanReplanned,
		EventDecisionApplied,
		EventUpgradeOffered,
	} {
		a.unsubscribe = append(a.unsubscribe, bus.Subscribe(eventType, func(e Event) {
			log.Info("planner_event",
				zap.String("event", string(e.Type)),
				zap.Time("timestamp", e.Timestamp),
				zap.String("request_id", e.RequestID),
				zap.String("user_id", e.UserID),
				zap.Any("data", e.Data),
			)
		}))
	}
	return a
}

// Close detaches the audit subscriptions.
func (a *AuditLogger) Close() {
	for _, fn := range a.unsubscribe {
		fn()
	}
	a.unsubscribe = nil
}
