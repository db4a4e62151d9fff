package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzbridge/echidna-mcp/internal/config"
)

func newTestServer(t *testing.T, recorder *RunRecorder) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return NewServer(
		config.HTTPConfig{Enabled: true, Host: "127.0.0.1", Port: 0},
		"echidna-mcp", "1.0.0",
		[]string{"run_echidna_test", "analyze_corpus"},
		recorder, nil, logger,
	)
}

func getJSON(t *testing.T, server *Server, path string) map[string]interface{} {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestServer_Health(t *testing.T) {
	server := newTestServer(t, nil)

	body := getJSON(t, server, "/health")
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "echidna-mcp", body["name"])
	assert.Equal(t, "1.0.0", body["version"])
}

func TestServer_ListTools(t *testing.T) {
	server := newTestServer(t, nil)

	body := getJSON(t, server, "/tools")
	assert.Equal(t, float64(2), body["count"])
	assert.Contains(t, body["tools"], "run_echidna_test")
}

func TestServer_ListRuns(t *testing.T) {
	eventBus := newTestBus(t)
	recorder := NewRunRecorder(eventBus, 10)
	server := newTestServer(t, recorder)

	body := getJSON(t, server, "/runs")
	assert.Equal(t, float64(0), body["count"])

	eventBus.PublishToolStart("run-1", "run_echidna_test")
	require.Eventually(t, func() bool {
		return recorder.Len() == 1
	}, 2*time.Second, 20*time.Millisecond)

	body = getJSON(t, server, "/runs")
	assert.Equal(t, float64(1), body["count"])

	events := body["events"].([]interface{})
	first := events[0].(map[string]interface{})
	assert.Equal(t, "toolStart", first["type"])
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	server := newTestServer(t, nil)
	assert.NoError(t, server.Shutdown(t.Context()))
}
