package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream geocoder lookups. Cache hits never reach the upstream, so
	// hit rate = geocodeCacheHitsTotal / (geocodeCacheHitsTotal + lookups).
	GeocodeLookupsTotal *prometheus.CounterVec

	// Geocode results served from the process-wide cache.
	GeocodeCacheHitsTotal prometheus.Counter

	// Weather context fetches by outcome. outcome=fallback means the session
	// proceeded with the default clear condition.
	WeatherFetchesTotal *prometheus.CounterVec

	// Initial plan generations by outcome (success|error).
	PlanGenerationsTotal *prometheus.CounterVec

	// Chat refinement turns by outcome (plan_update|clarification|error).
	RefinementsTotal *prometheus.CounterVec

	// Share tokens generated.
	ShareEncodesTotal prometheus.Counter

	// Share token decodes by outcome (success|error). A rising error rate
	// usually means mangled links circulating in the wild.
	ShareDecodesTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Planning sessions currently held in memory.
	ActiveSessions prometheus.Gauge
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	GeocodeLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocodeLookupsTotal",
			Help: "Upstream geocoder lookups by status",
		},
		[]string{"status"},
	)
	GeocodeCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geocodeCacheHitsTotal",
			Help: "Geocode results served from cache",
		},
	)
	WeatherFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherFetchesTotal",
			Help: "Weather context fetches by outcome",
		},
		[]string{"outcome"},
	)
	PlanGenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planGenerationsTotal",
			Help: "Initial plan generations by outcome",
		},
		[]string{"outcome"},
	)
	RefinementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refinementsTotal",
			Help: "Chat refinement turns by outcome",
		},
		[]string{"outcome"},
	)
	ShareEncodesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shareEncodesTotal",
			Help: "Share tokens generated",
		},
	)
	ShareDecodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shareDecodesTotal",
			Help: "Share token decodes by outcome",
		},
		[]string{"outcome"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "activeSessions",
			Help: "Planning sessions currently held in memory",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		GeocodeLookupsTotal, GeocodeCacheHitsTotal,
		WeatherFetchesTotal, PlanGenerationsTotal, RefinementsTotal,
		ShareEncodesTotal, ShareDecodesTotal,
		RateLimitDeniedTotal, ActiveSessions,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
