package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Solve outcome labels for the solver metrics.
const (
	SolveOutcomeOptimal    = "optimal"
	SolveOutcomeFeasible   = "feasible"
	SolveOutcomeInfeasible = "infeasible"
	SolveOutcomeTimeout    = "timeout"
	SolveOutcomeFault      = "fault"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the solver.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	solveDuration   *prometheus.HistogramVec
	solveTotal      *prometheus.CounterVec
	solveNodes      prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers the core Prometheus collectors.
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

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solve_duration_seconds",
		Help:    "Wall-clock duration of roster solves",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"outcome"})

	solveTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solves_total",
		Help: "Total roster solves by outcome",
	}, []string{"outcome"})

	solveNodes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solve_nodes_explored",
		Help:    "Search nodes explored per solve",
		Buckets: prometheus.ExponentialBuckets(1000, 4, 8),
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solve_cache_hits_total",
		Help: "Solve-result cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solve_cache_misses_total",
		Help: "Solve-result cache misses",
	})

	registry.MustRegister(requestDuration, requestTotal, solveDuration, solveTotal, solveNodes, cacheHits, cacheMisses)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		solveDuration:   solveDuration,
		solveTotal:      solveTotal,
		solveNodes:      solveNodes,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	if s == nil {
		return promhttp.Handler()
	}
	return s.handler
}

// ObserveHTTPRequest records a completed HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveSolve records a finished solve with its outcome label.
func (s *MetricsService) ObserveSolve(outcome string, duration time.Duration, nodes int64) {
	if s == nil {
		return
	}
	s.solveDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	s.solveTotal.WithLabelValues(outcome).Inc()
	s.solveNodes.Observe(float64(nodes))
}

// RecordCacheLookup counts solve-cache hits and misses.
func (s *MetricsService) RecordCacheLookup(hit bool) {
	if s == nil {
		return
	}
	if hit {
		s.cacheHits.Inc()
	} else {
		s.cacheMisses.Inc()
	}
}
