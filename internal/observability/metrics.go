// Package observability holds the board's Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mungboard_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheLookups counts list cache lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mungboard_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"result"})

	// PostsCreated counts posts created, by category.
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mungboard_posts_created_total",
		Help: "Total number of posts created",
	}, []string{"category"})

	// PostViews counts detail-view increments.
	PostViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mungboard_post_views_total",
		Help: "Total number of post view-count increments",
	})

	// CommentsRemoved counts comment rows removed, replies included.
	CommentsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mungboard_comments_removed_total",
		Help: "Total number of comment rows removed including cascaded replies",
	})

	// CommentsCreated counts comments registered, split into top-level and replies.
	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mungboard_comments_created_total",
		Help: "Total number of comments registered",
	}, []string{"kind"})

	// AuthorizationFailures counts rejected mutations by gate (password, author, anonymous).
	AuthorizationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mungboard_authorization_failures_total",
		Help: "Total number of rejected mutations by authorization gate",
	}, []string{"gate"})

	// ServiceLatency records service operation latency.
	ServiceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mungboard_service_operation_seconds",
		Help:    "Service operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// TrackOperation returns a function that records operation latency when called (e.g. defer).
func TrackOperation(operation string) func() {
	start := time.Now()
	return func() {
		ServiceLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
