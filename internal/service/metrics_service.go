package service

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the
// transactional core: enrollment outcomes, code allocations and the
// best-effort recomputations whose failures must stay visible.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	enrollmentTotal   *prometheus.CounterVec
	codeAllocations   *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec
	recomputeFailures *prometheus.CounterVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
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

	enrollmentTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_operations_total",
		Help: "Enrollment operations by outcome",
	}, []string{"operation", "outcome"})

	codeAllocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "code_allocations_total",
		Help: "Entity codes minted per entity type",
	}, []string{"entity_type"})

	recomputeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recompute_duration_seconds",
		Help:    "Duration of fee/salary recomputations",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	recomputeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recompute_failures_total",
		Help: "Best-effort recomputations that failed and await the sweep",
	}, []string{"kind"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, enrollmentTotal, codeAllocations,
		recomputeDuration, recomputeFailures, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		enrollmentTotal:   enrollmentTotal,
		codeAllocations:   codeAllocations,
		recomputeDuration: recomputeDuration,
		recomputeFailures: recomputeFailures,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records request metrics.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	labels := prometheus.Labels{"method": method, "path": path, "status": httpStatusLabel(status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// RecordEnrollment counts an enroll/drop attempt by outcome.
func (s *MetricsService) RecordEnrollment(operation, outcome string) {
	if s == nil {
		return
	}
	s.enrollmentTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordCodeAllocation counts a minted entity code.
func (s *MetricsService) RecordCodeAllocation(entityType string) {
	if s == nil {
		return
	}
	s.codeAllocations.WithLabelValues(entityType).Inc()
}

// ObserveRecompute records the duration of a recomputation run.
func (s *MetricsService) ObserveRecompute(kind string, duration time.Duration) {
	if s == nil {
		return
	}
	s.recomputeDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordRecomputeFailure counts a best-effort recomputation failure.
func (s *MetricsService) RecordRecomputeFailure(kind string) {
	if s == nil {
		return
	}
	s.recomputeFailures.WithLabelValues(kind).Inc()
}

// RecordCacheOperation counts cache lookups.
func (s *MetricsService) RecordCacheOperation(hit bool) {
	if s == nil {
		return
	}
	if hit {
		s.cacheHits.Inc()
	} else {
		s.cacheMisses.Inc()
	}
}

func httpStatusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
