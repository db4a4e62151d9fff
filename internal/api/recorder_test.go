package api

import (
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzbridge/echidna-mcp/internal/bus"
)

func newTestBus(t *testing.T) *bus.EventBus {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	eventBus := bus.NewEventBus(logger)
	t.Cleanup(eventBus.Stop)
	return eventBus
}

func TestRunRecorder_RecordsToolLifecycle(t *testing.T) {
	eventBus := newTestBus(t)
	recorder := NewRunRecorder(eventBus, 10)

	eventBus.PublishToolStart("run-1", "run_echidna_test")
	eventBus.PublishToolResult("run-1", "run_echidna_test", "ok", 1500)

	require.Eventually(t, func() bool {
		return recorder.Len() == 2
	}, 2*time.Second, 20*time.Millisecond)

	events := recorder.Snapshot()
	types := []string{events[0].Type, events[1].Type}
	assert.ElementsMatch(t, []string{"toolStart", "toolResult"}, types)

	for _, event := range events {
		assert.Equal(t, "run-1", event.Payload["runId"])
		assert.False(t, event.ObservedAt.IsZero())
	}
}

func TestRunRecorder_IgnoresRunLogs(t *testing.T) {
	eventBus := newTestBus(t)
	recorder := NewRunRecorder(eventBus, 10)

	eventBus.PublishAsync(bus.EventRunLog, map[string]interface{}{
		"runId":   "run-1",
		"message": "noise",
	})
	eventBus.PublishToolStart("run-1", "analyze_corpus")

	require.Eventually(t, func() bool {
		return recorder.Len() == 1
	}, 2*time.Second, 20*time.Millisecond)

	// Log entries stream over the WebSocket but are not part of history
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, recorder.Len())
	assert.Equal(t, "toolStart", recorder.Snapshot()[0].Type)
}

func TestRunRecorder_BoundedCapacity(t *testing.T) {
	eventBus := newTestBus(t)
	recorder := NewRunRecorder(eventBus, 5)

	for i := 0; i < 20; i++ {
		eventBus.PublishToolStart(fmt.Sprintf("run-%d", i), "run_echidna_test")
	}

	require.Eventually(t, func() bool {
		return recorder.Len() == 5
	}, 2*time.Second, 20*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 5, recorder.Len())
}
