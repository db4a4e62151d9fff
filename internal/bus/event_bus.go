package bus

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type EventType string

const (
	EventToolStart  EventType = "toolStart"
	EventToolResult EventType = "toolResult"
	EventToolError  EventType = "toolError"

	EventRunOutput EventType = "runOutput"
	EventRunLog    EventType = "runLog"
)

type Event struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

type EventHandler func(event Event)

type EventBus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]EventHandler
	logger    *logrus.Logger
	eventChan chan Event
	stopChan  chan struct{}
}

func NewEventBus(logger *logrus.Logger) *EventBus {
	eb := &EventBus{
		handlers:  make(map[EventType][]EventHandler),
		logger:    logger,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}

	go eb.processEvents()

	return eb
}

func (eb *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debugf("Handler subscribed to event type: %s", eventType)
}

func (eb *EventBus) SubscribeAll(handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eventTypes := []EventType{
		EventToolStart,
		EventToolResult,
		EventToolError,
		EventRunOutput,
		EventRunLog,
	}

	for _, eventType := range eventTypes {
		eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	}

	eb.logger.Debug("Handler subscribed to all event types")
}

func (eb *EventBus) Publish(event Event) {
	select {
	case eb.eventChan <- event:
		eb.logger.Debugf("Event published: %s", event.Type)
	default:
		eb.logger.Warnf("Event channel full, dropping event: %s", event.Type)
	}
}

func (eb *EventBus) PublishAsync(eventType EventType, payload map[string]interface{}) {
	go func() {
		eb.Publish(Event{
			Type:    eventType,
			Payload: payload,
		})
	}()
}

func (eb *EventBus) processEvents() {
	for {
		select {
		case event := <-eb.eventChan:
			eb.handleEvent(event)
		case <-eb.stopChan:
			eb.logger.Info("EventBus stopped")
			return
		}
	}
}

func (eb *EventBus) handleEvent(event Event) {
	eb.mu.RLock()
	handlers := eb.handlers[event.Type]
	eb.mu.RUnlock()

	for _, handler := range handlers {
		// Run each handler in a goroutine to prevent blocking
		go func(h EventHandler) {
			defer func() {
				if r := recover(); r != nil {
					eb.logger.Errorf("Panic in event handler for %s: %v", event.Type, r)
				}
			}()
			h(event)
		}(handler)
	}
}

func (eb *EventBus) Stop() {
	close(eb.stopChan)
}

// PublishToolStart publishes the beginning of a tool invocation
func (eb *EventBus) PublishToolStart(runID, tool string) {
	eb.PublishAsync(EventToolStart, map[string]interface{}{
		"runId": runID,
		"tool":  tool,
	})
}

// PublishToolResult publishes a completed tool invocation
func (eb *EventBus) PublishToolResult(runID, tool, status string, durationMs int64) {
	eb.PublishAsync(EventToolResult, map[string]interface{}{
		"runId":      runID,
		"tool":       tool,
		"status":     status,
		"durationMs": durationMs,
	})
}

// PublishToolError publishes a failed tool invocation
func (eb *EventBus) PublishToolError(runID, tool, message string) {
	eb.PublishAsync(EventToolError, map[string]interface{}{
		"runId":   runID,
		"tool":    tool,
		"message": message,
	})
}

// PublishRunOutput publishes captured subprocess output for a run
func (eb *EventBus) PublishRunOutput(runID, command, stream, chunk string) {
	eb.PublishAsync(EventRunOutput, map[string]interface{}{
		"runId":   runID,
		"command": command,
		"stream":  stream,
		"chunk":   chunk,
	})
}
