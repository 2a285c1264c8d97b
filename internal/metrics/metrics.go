// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movies_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ReviewMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_review_mutations_total",
			Help: "Committed review inserts and deletes",
		},
		[]string{"operation"},
	)

	RatingRecomputes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_rating_recomputes_total",
			Help: "Rating recomputations by outcome",
		},
		[]string{"outcome"},
	)

	FavoriteChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_favorite_changes_total",
			Help: "Favorite add/remove calls, split by whether a row changed",
		},
		[]string{"operation", "changed"},
	)

	MetadataLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_metadata_lookups_total",
			Help: "Upstream metadata lookups by result",
		},
		[]string{"result"},
	)

	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movies_db_pool_connections",
			Help: "Database pool connections by state",
		},
		[]string{"state"},
	)
)

// RecordHTTPRequest records one served request. route is the chi route pattern.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordReviewMutation(operation string) {
	ReviewMutations.WithLabelValues(operation).Inc()
}

func RecordRatingRecompute(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RatingRecomputes.WithLabelValues(outcome).Inc()
}

func RecordFavoriteChange(operation string, changed bool) {
	FavoriteChanges.WithLabelValues(operation, strconv.FormatBool(changed)).Inc()
}

// RecordMetadataLookup counts a lookup; result is hit, miss, error or open.
func RecordMetadataLookup(result string) {
	MetadataLookups.WithLabelValues(result).Inc()
}

// UpdatePoolStats publishes pool connection counts.
func UpdatePoolStats(total, idle, acquired int32) {
	DBPoolConnections.WithLabelValues("total").Set(float64(total))
	DBPoolConnections.WithLabelValues("idle").Set(float64(idle))
	DBPoolConnections.WithLabelValues("acquired").Set(float64(acquired))
}
