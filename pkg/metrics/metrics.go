package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache gateway outcomes: op = get|set|invalidate, result = hit|miss|error|skipped|ok
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deinbox_cache_requests_total",
			Help: "Cache gateway requests by operation and result",
		},
		[]string{"op", "result"},
	)

	// Gmail API latency (seconds)
	GmailRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deinbox_gmail_request_duration_seconds",
			Help:    "Gmail API call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"operation", "status"},
	)

	// HTTP request latency (seconds)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deinbox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
		[]string{"method", "path", "status"},
	)

	// Cleanup suggestions emitted, by action
	SuggestionsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deinbox_suggestions_generated_total",
			Help: "Cleanup suggestions generated by action",
		},
		[]string{"action"},
	)
)

// RecordCache counts a cache gateway call
func RecordCache(op, result string) {
	CacheRequests.WithLabelValues(op, result).Inc()
}

// RecordGmailRequest records a Gmail API call
func RecordGmailRequest(operation, status string, duration time.Duration) {
	GmailRequestDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// RecordSuggestion counts an emitted suggestion
func RecordSuggestion(action string) {
	SuggestionsGenerated.WithLabelValues(action).Inc()
}

// GinMiddleware records request latency under the matched route template
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
