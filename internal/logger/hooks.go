package logger

import (
	"fmt"
	"strings"
	"time"

	"github.com/fuzzbridge/echidna-mcp/internal/bus"
	"github.com/sirupsen/logrus"
)

// RunLogHook sends run-scoped log entries to the EventBus so that
// WebSocket clients can follow a fuzzing run as it happens
type RunLogHook struct {
	eventBus   *bus.EventBus
	serverName string
}

// NewRunLogHook creates a new run log hook
func NewRunLogHook(eventBus *bus.EventBus, serverName string) *RunLogHook {
	return &RunLogHook{
		eventBus:   eventBus,
		serverName: serverName,
	}
}

// Levels returns the log levels this hook is interested in
func (h *RunLogHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
		logrus.DebugLevel,
	}
}

// Fire is called when a log event occurs
func (h *RunLogHook) Fire(entry *logrus.Entry) error {
	if h.eventBus == nil {
		return nil
	}

	// Only entries tagged with a run ID are forwarded; everything else is
	// server housekeeping that clients do not need
	runID, ok := entry.Data["runId"].(string)
	if !ok || runID == "" {
		return nil
	}

	tool := ""
	if name, ok := entry.Data["tool"].(string); ok {
		tool = name
	}

	message := entry.Message
	var fieldParts []string
	for key, value := range entry.Data {
		if key != "runId" && key != "tool" {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", key, value))
		}
	}
	if len(fieldParts) > 0 {
		message = fmt.Sprintf("%s [%s]", message, strings.Join(fieldParts, ", "))
	}

	h.eventBus.PublishAsync(bus.EventRunLog, map[string]interface{}{
		"runId":     runID,
		"tool":      tool,
		"level":     entry.Level.String(),
		"message":   message,
		"source":    h.serverName,
		"timestamp": entry.Time.Format(time.RFC3339),
	})

	return nil
}

// RunLogger wraps a logger with run context so every entry carries the
// run ID and tool name
type RunLogger struct {
	*logrus.Logger
	runID string
	tool  string
}

// NewRunLogger creates a new run-scoped logger
func NewRunLogger(logger *logrus.Logger, runID, tool string) *RunLogger {
	return &RunLogger{
		Logger: logger,
		runID:  runID,
		tool:   tool,
	}
}

// WithRun returns a logger bound to a different run ID
func (l *RunLogger) WithRun(runID string) *RunLogger {
	return &RunLogger{
		Logger: l.Logger,
		runID:  runID,
		tool:   l.tool,
	}
}

// WithTool returns a logger bound to a different tool name
func (l *RunLogger) WithTool(tool string) *RunLogger {
	return &RunLogger{
		Logger: l.Logger,
		runID:  l.runID,
		tool:   tool,
	}
}

func (l *RunLogger) addContext(fields logrus.Fields) logrus.Fields {
	if fields == nil {
		fields = logrus.Fields{}
	}
	if l.runID != "" {
		fields["runId"] = l.runID
	}
	if l.tool != "" {
		fields["tool"] = l.tool
	}
	return fields
}

// Info logs at info level with run context
func (l *RunLogger) Info(args ...interface{}) {
	l.WithFields(l.addContext(nil)).Info(args...)
}

// Infof logs at info level with format and run context
func (l *RunLogger) Infof(format string, args ...interface{}) {
	l.WithFields(l.addContext(nil)).Infof(format, args...)
}

// Debug logs at debug level with run context
func (l *RunLogger) Debug(args ...interface{}) {
	l.WithFields(l.addContext(nil)).Debug(args...)
}

// Debugf logs at debug level with format and run context
func (l *RunLogger) Debugf(format string, args ...interface{}) {
	l.WithFields(l.addContext(nil)).Debugf(format, args...)
}

// Warn logs at warn level with run context
func (l *RunLogger) Warn(args ...interface{}) {
	l.WithFields(l.addContext(nil)).Warn(args...)
}

// Warnf logs at warn level with format and run context
func (l *RunLogger) Warnf(format string, args ...interface{}) {
	l.WithFields(l.addContext(nil)).Warnf(format, args...)
}

// Error logs at error level with run context
func (l *RunLogger) Error(args ...interface{}) {
	l.WithFields(l.addContext(nil)).Error(args...)
}

// Errorf logs at error level with format and run context
func (l *RunLogger) Errorf(format string, args ...interface{}) {
	l.WithFields(l.addContext(nil)).Errorf(format, args...)
}
