package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subkeeper-api/internal/models"
)

func TestMetricsServiceSweep(t *testing.T) {
	m := NewMetricsService()
	finished := time.Unix(1755700000, 0)

	m.ObserveSweep("success", 3, time.Second, finished)
	m.ObserveSweep("success", 0, time.Second, finished)
	m.ObserveSweep("failure", 0, 0, finished)

	body := scrape(t, m)
	assert.Contains(t, body, `due_soon_sweeps_total{result="success"} 2`)
	assert.Contains(t, body, `due_soon_sweeps_total{result="failure"} 1`)
	assert.Contains(t, body, "due_soon_promoted_total 3")
	assert.Contains(t, body, "due_soon_sweep_last_success_timestamp_seconds 1.7557e+09")
}

func scrape(t *testing.T, m *MetricsService) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/dashboard", http.StatusOK, 20*time.Millisecond)
	m.ObserveStateChange(models.StateComplete)

	body := scrape(t, m)
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",path="/api/v1/dashboard",status="200"} 1`))
	assert.True(t, strings.Contains(body, `assignment_state_changes_total{state="complete"} 1`))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveSweep("success", 1, time.Second, time.Now())
	m.ObserveStateChange(models.StateDueSoon)
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
