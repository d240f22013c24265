package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the workflow
// engine: HTTP traffic plus domain counters for transitions, stage
// decisions and payouts.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	transitionTotal *prometheus.CounterVec
	decisionTotal   *prometheus.CounterVec
	transferTotal   *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers the engine's Prometheus collectors.
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

	transitionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Application status transitions committed",
	}, []string{"to_status"})

	decisionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_stage_decisions_total",
		Help: "Stage decisions recorded in the audit ledger",
	}, []string{"stage", "action"})

	transferTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "disbursement_transfers_total",
		Help: "Funds-transfer attempts by outcome",
	}, []string{"outcome"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	registry.MustRegister(requestDuration, requestTotal, transitionTotal, decisionTotal, transferTotal, cacheHits, cacheMisses)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		transitionTotal: transitionTotal,
		decisionTotal:   decisionTotal,
		transferTotal:   transferTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one handled request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
}

// RecordTransition counts one committed status transition.
func (s *MetricsService) RecordTransition(toStatus string) {
	s.transitionTotal.WithLabelValues(toStatus).Inc()
}

// RecordDecision counts one stage decision.
func (s *MetricsService) RecordDecision(stage, action string) {
	s.decisionTotal.WithLabelValues(stage, action).Inc()
}

// RecordTransfer counts one transfer attempt outcome.
func (s *MetricsService) RecordTransfer(outcome string) {
	s.transferTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheOperation counts a cache hit or miss.
func (s *MetricsService) RecordCacheOperation(hit bool) {
	if hit {
		s.cacheHits.Inc()
		return
	}
	s.cacheMisses.Inc()
}
