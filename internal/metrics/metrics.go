package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers Prometheus counters for the API's outbound calls.
type Collector struct {
	libraryFetches *prometheus.CounterVec
	libraryLatency prometheus.Histogram
	tagWrites      *prometheus.CounterVec
	chatRequests   *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		libraryFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "companion_library_fetch_total",
			Help: "Steam library fetches by outcome.",
		}, []string{"outcome"}),
		libraryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "companion_library_fetch_seconds",
			Help:    "Latency of Steam library fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		tagWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "companion_tag_writes_total",
			Help: "Tag store writes by kind and operation.",
		}, []string{"kind", "op"}),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "companion_chat_requests_total",
			Help: "Recommendation chat requests by outcome.",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "companion_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.libraryFetches,
		c.libraryLatency,
		c.tagWrites,
		c.chatRequests,
		c.httpStatus,
	)

	return c
}

// RecordLibraryFetch records one library fetch and its latency.
func (c *Collector) RecordLibraryFetch(outcome string, duration time.Duration) {
	c.libraryFetches.WithLabelValues(outcome).Inc()
	c.libraryLatency.Observe(duration.Seconds())
}

// RecordTagWrite records one add or remove against the tag store.
func (c *Collector) RecordTagWrite(kind, op string) {
	c.tagWrites.WithLabelValues(kind, op).Inc()
}

// RecordChatRequest records one recommendation chat request.
func (c *Collector) RecordChatRequest(outcome string) {
	c.chatRequests.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus records one HTTP response status.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the HTTP handler serving Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
