package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Update metrics
	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_bot_messages_received_total",
		Help: "Total number of updates received",
	}, []string{"chat_type"})

	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_bot_messages_processed_total",
		Help: "Total number of updates processed",
	}, []string{"status"})

	commandsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_bot_commands_executed_total",
		Help: "Total number of commands executed",
	}, []string{"command"})

	triggersResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_bot_triggers_resolved_total",
		Help: "Free-text messages that triggered the pipeline, by reason",
	}, []string{"reason"})

	// Throttling and access metrics
	throttledActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_bot_throttled_actions_total",
		Help: "Actions silently dropped by the cooldown limiter",
	}, []string{"action"})

	accessDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_bot_access_denied_total",
		Help: "Privileged-tier requests rejected by the access check",
	})

	// Backend metrics
	backendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_bot_backend_request_duration_seconds",
		Help:    "Duration of generation backend requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model", "status"})

	backendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_bot_backend_requests_total",
		Help: "Total number of generation backend requests",
	}, []string{"model", "status"})

	// Delivery metrics
	chunksDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_bot_chunks_delivered_total",
		Help: "Response chunks delivered, by formatting mode",
	}, []string{"mode"})

	deliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_bot_delivery_failures_total",
		Help: "Chunks that failed both the formatted and the plain send",
	})

	// Cache metrics
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_bot_cache_hits_total",
		Help: "Total number of response cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_bot_cache_misses_total",
		Help: "Total number of response cache misses",
	})
)

// Metrics provides methods to record metrics
type Metrics struct{}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordMessageReceived records a received update
func (m *Metrics) RecordMessageReceived(chatType string) {
	messagesReceived.WithLabelValues(chatType).Inc()
}

// RecordMessageProcessed records a processed update
func (m *Metrics) RecordMessageProcessed(status string) {
	messagesProcessed.WithLabelValues(status).Inc()
}

// RecordCommandExecuted records an executed command
func (m *Metrics) RecordCommandExecuted(command string) {
	commandsExecuted.WithLabelValues(command).Inc()
}

// RecordTrigger records why a free-text message entered the pipeline
func (m *Metrics) RecordTrigger(reason string) {
	triggersResolved.WithLabelValues(reason).Inc()
}

// RecordThrottled records a silently dropped action
func (m *Metrics) RecordThrottled(action string) {
	throttledActions.WithLabelValues(action).Inc()
}

// RecordAccessDenied records a rejected privileged-tier request
func (m *Metrics) RecordAccessDenied() {
	accessDenied.Inc()
}

// RecordBackendRequest records a generation backend request
func (m *Metrics) RecordBackendRequest(model, status string, duration time.Duration) {
	backendRequestDuration.WithLabelValues(model, status).Observe(duration.Seconds())
	backendRequestsTotal.WithLabelValues(model, status).Inc()
}

// RecordChunkDelivered records a delivered chunk ("html" or "plain")
func (m *Metrics) RecordChunkDelivered(mode string) {
	chunksDelivered.WithLabelValues(mode).Inc()
}

// RecordDeliveryFailure records a chunk that could not be delivered at all
func (m *Metrics) RecordDeliveryFailure() {
	deliveryFailures.Inc()
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss() {
	cacheMisses.Inc()
}

// StartMetricsServer starts the metrics and liveness HTTP server
func StartMetricsServer(port int, path string) error {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())

	// Keep-alive endpoint for the hosting platform
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Soli Deo Gloria. El bot está online."))
	})

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
