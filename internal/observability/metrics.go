package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal       = promauto.NewCounter(prometheus.CounterOpts{Namespace: "sitter_hub", Name: "searches_total", Help: "Total sitter discovery queries"})
	RegistrationsTotal  = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: "sitter_hub", Name: "registrations_total", Help: "Total successful registrations"}, []string{"role"})
	GeocodeLookupsTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "sitter_hub", Name: "geocode_lookups_total", Help: "Total address geocoding attempts"})
	GeocodeMissesTotal  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "sitter_hub", Name: "geocode_misses_total", Help: "Addresses that stayed unresolved after fallback"})
	BookingsTotal       = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: "sitter_hub", Name: "bookings_total", Help: "Booking state transitions"}, []string{"status"})
	RatingsTotal        = promauto.NewCounter(prometheus.CounterOpts{Namespace: "sitter_hub", Name: "ratings_total", Help: "Total accepted sitter ratings"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sitter_hub", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sitter_hub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
