package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Booking outcomes recorded by RecordBookingOutcome.
const (
	BookingOutcomeBooked          = "booked"
	BookingOutcomeAlreadyBooked   = "already_booked"
	BookingOutcomeEligibilityLost = "eligibility_lost"
	BookingOutcomeCapacityReached = "capacity_reached"
	BookingOutcomeTransient       = "transient"
	BookingOutcomeFailed          = "failed"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, the schedule cache and the
// booking and lesson engines.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	bookingOutcomes *prometheus.CounterVec
	bookingDuration prometheus.Observer
	lessonsCreated  prometheus.Counter
	lessonsDeleted  prometheus.Counter
	attendanceMarks *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors on a private registry.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_cache_latency_seconds",
		Help:    "Latency of schedule cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_cache_write_seconds",
		Help:    "Latency of schedule cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_cache_hit_ratio",
		Help: "Ratio of schedule cache hits to lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_cache_hits_total",
		Help: "Total schedule cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_cache_misses_total",
		Help: "Total schedule cache misses",
	})

	bookingOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "activity_booking_attempts_total",
		Help: "Activity booking attempts by outcome",
	}, []string{"outcome"})

	bookingDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "activity_booking_duration_seconds",
		Help:    "Duration of the locked booking transaction",
		Buckets: prometheus.DefBuckets,
	})

	lessonsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lessons_created_total",
		Help: "Total lessons created, counting each series occurrence",
	})

	lessonsDeleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lessons_deleted_total",
		Help: "Total lessons removed by session or series deletion",
	})

	attendanceMarks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_marks_total",
		Help: "Attendance writes by recorded status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		bookingOutcomes, bookingDuration, lessonsCreated, lessonsDeleted, attendanceMarks, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		bookingOutcomes: bookingOutcomes,
		bookingDuration: bookingDuration,
		lessonsCreated:  lessonsCreated,
		lessonsDeleted:  lessonsDeleted,
		attendanceMarks: attendanceMarks,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordBookingOutcome counts one booking attempt.
func (m *MetricsService) RecordBookingOutcome(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(outcome).Inc()
	m.bookingDuration.Observe(duration.Seconds())
}

// AddLessonsCreated counts created lessons.
func (m *MetricsService) AddLessonsCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.lessonsCreated.Add(float64(n))
}

// AddLessonsDeleted counts removed lessons.
func (m *MetricsService) AddLessonsDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.lessonsDeleted.Add(float64(n))
}

// RecordAttendanceMark counts one attendance write.
func (m *MetricsService) RecordAttendanceMark(status string) {
	if m == nil {
		return
	}
	m.attendanceMarks.WithLabelValues(status).Inc()
}
