package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchesTotal         = promauto.NewCounter(prometheus.CounterOpts{Namespace: "gasrapido", Name: "matches_total", Help: "Total number of matched orders"})
	FallbackMatchesTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "gasrapido", Name: "fallback_matches_total", Help: "Matches resolved through the cell fallback"})
	MatchLatency         = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: "gasrapido", Name: "match_latency_seconds", Help: "Match latency seconds"})
	PricingQuotesTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "gasrapido", Name: "pricing_quotes_total", Help: "Total pricing quotes computed"})
	CouriersOnline       = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "gasrapido", Name: "couriers_online", Help: "Number of couriers reporting locations"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gasrapido", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gasrapido",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
