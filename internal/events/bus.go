// Package events carries fire-and-forget planner notifications to
// in-process subscribers. Delivery is asynchronous and best-effort: a full
// subscriber buffer drops the event rather than blocking the planner.
package events

import (
	"sync"
	"time"
)

type EventType string

const (
	// EventPlanRequested is published when a planner run is accepted.
	EventPlanRequested EventType = "planner.requested"
	// EventPlanReplanned is published when an existing plan is re-run.
	EventPlanReplanned EventType = "planner.replanned"
	// EventDecisionApplied is published after an accept/decline decision.
	EventDecisionApplied EventType = "planner.decision_applied"
	// EventUpgradeOffered is published when access gating denies a run.
	EventUpgradeOffered EventType = "planner.upgrade_offered"
)

// Event is one planner notification.
type Event struct {
	Type      EventType
	Timestamp time.Time
	RequestID string
	UserID    string
	Data      map[string]any
}

// Subscriber receives events for one event type.
type Subscriber func(Event)

// Bus is a non-blocking publish/subscribe fan-out over buffered channels.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]chan Event
	bufferSize  int
}

// NewBus creates a bus with the given per-subscriber buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Bus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers fn for one event type and returns an unsubscribe
// function. Delivery happens on a dedicated goroutine; panics in fn are
// contained so they cannot take the bus down.
func (b *Bus) Subscribe(eventType EventType, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)

	go func() {
		for event := range ch {
			func() {
				defer func() {
					_ = recover()
				}()
				fn(event)
			}()
		}
	}()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[eventType]
		for i, subCh := range subs {
			if subCh == ch {
				b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}
}

// Publish delivers the event to every subscriber of its type. Events for
// full subscriber buffers are dropped.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers[event.Type] {
		select {
		case ch <- event:
		default:
		}
	}
}
