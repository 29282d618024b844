package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	moodEntries     prometheus.Counter
	autoRecs        prometheus.Counter
	slotConflicts   prometheus.Counter
}

// NewMetricsService registers the core collectors.
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

	moodEntries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mood_entries_total",
		Help: "Total mood entries recorded",
	})

	autoRecs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auto_recommendations_total",
		Help: "Total automatic recommendations created from low mood entries",
	})

	slotConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "appointment_slot_conflicts_total",
		Help: "Total bookings rejected because the slot was taken",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, moodEntries, autoRecs, slotConflicts, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		moodEntries:     moodEntries,
		autoRecs:        autoRecs,
		slotConflicts:   slotConflicts,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
}

// CountMoodEntry records a stored mood entry and, when one was created, the
// accompanying auto recommendation.
func (m *MetricsService) CountMoodEntry(autoRecommended bool) {
	if m == nil {
		return
	}
	m.moodEntries.Inc()
	if autoRecommended {
		m.autoRecs.Inc()
	}
}

// CountSlotConflict records a booking rejected by the slot index.
func (m *MetricsService) CountSlotConflict() {
	if m == nil {
		return
	}
	m.slotConflicts.Inc()
}
