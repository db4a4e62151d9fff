package api

import (
	"sync"
	"time"

	"github.com/fuzzbridge/echidna-mcp/internal/bus"
)

const defaultRecorderCapacity = 100

// RecordedEvent is one bus event with the time it was observed
type RecordedEvent struct {
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	ObservedAt time.Time              `json:"observed_at"`
}

// RunRecorder keeps a bounded history of tool lifecycle events so the
// status API can show recent activity without persisting anything
type RunRecorder struct {
	mu       sync.RWMutex
	events   []RecordedEvent
	capacity int
}

// NewRunRecorder creates a recorder subscribed to the bus's tool and
// run events. Capacity bounds memory; oldest events are dropped first.
func NewRunRecorder(eventBus *bus.EventBus, capacity int) *RunRecorder {
	if capacity <= 0 {
		capacity = defaultRecorderCapacity
	}

	r := &RunRecorder{capacity: capacity}

	eventBus.Subscribe(bus.EventToolStart, r.record)
	eventBus.Subscribe(bus.EventToolResult, r.record)
	eventBus.Subscribe(bus.EventToolError, r.record)
	eventBus.Subscribe(bus.EventRunOutput, r.record)

	return r
}

func (r *RunRecorder) record(event bus.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, RecordedEvent{
		Type:       string(event.Type),
		Payload:    event.Payload,
		ObservedAt: time.Now(),
	})

	if len(r.events) > r.capacity {
		r.events = r.events[len(r.events)-r.capacity:]
	}
}

// Snapshot returns the recorded events, oldest first
func (r *RunRecorder) Snapshot() []RecordedEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RecordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events
func (r *RunRecorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}
