package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/subkeeper-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	sweepRuns       *prometheus.CounterVec
	sweepPromoted   prometheus.Counter
	sweepDuration   prometheus.Histogram
	sweepLastRun    prometheus.Gauge
	stateChanges    *prometheus.CounterVec
}

// NewMetricsService registers the API collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	sweepRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "due_soon_sweeps_total",
		Help: "Due-soon sweeps by outcome",
	}, []string{"result"})

	sweepPromoted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "due_soon_promoted_total",
		Help: "Assignments moved to the due-soon state by sweeps",
	})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "due_soon_sweep_duration_seconds",
		Help:    "Duration of due-soon sweeps",
		Buckets: prometheus.DefBuckets,
	})

	sweepLastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "due_soon_sweep_last_success_timestamp_seconds",
		Help: "Unix time of the last successful due-soon sweep",
	})

	stateChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_state_changes_total",
		Help: "Completion updates by resulting state",
	}, []string{"state"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, sweepRuns, sweepPromoted, sweepDuration, sweepLastRun, stateChanges, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		sweepRuns:       sweepRuns,
		sweepPromoted:   sweepPromoted,
		sweepDuration:   sweepDuration,
		sweepLastRun:    sweepLastRun,
		stateChanges:    stateChanges,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveSweep records the outcome of one due-soon sweep. result is one of
// "success", "failure" or "skipped".
func (m *MetricsService) ObserveSweep(result string, promoted int64, duration time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(result).Inc()
	if result != "success" {
		return
	}
	m.sweepPromoted.Add(float64(promoted))
	m.sweepDuration.Observe(duration.Seconds())
	m.sweepLastRun.Set(float64(finishedAt.Unix()))
}

// ObserveStateChange counts explicit completion updates.
func (m *MetricsService) ObserveStateChange(state models.CompletionState) {
	if m == nil {
		return
	}
	m.stateChanges.WithLabelValues(state.String()).Inc()
}
