// Package metrics provides Prometheus metrics for metacoord
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for metacoord
type Metrics struct {
	// gRPC request metrics
	GrpcRequestsTotal    *prometheus.CounterVec
	GrpcRequestDuration  *prometheus.HistogramVec
	GrpcRequestsInFlight prometheus.Gauge

	// Coordination store metrics
	RepositoryOperationsTotal *prometheus.CounterVec
	RepositoryKeys            prometheus.Gauge
	WatchesActive             prometheus.Gauge

	// Dispatch metrics
	EventsReceivedTotal     *prometheus.CounterVec
	HandlerInvocationsTotal *prometheus.CounterVec
	HandlerDuration         *prometheus.HistogramVec
	DispatchQueueDepth      prometheus.Gauge

	// Worker registry metrics
	WorkerIDsAssigned prometheus.Gauge

	// Server metrics
	ServerUptimeSeconds prometheus.Gauge
	ServerStartTime     time.Time
}

// NewMetrics creates all metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		ServerStartTime: time.Now(),
	}

	// gRPC request metrics
	m.GrpcRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacoord_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status"},
	)

	m.GrpcRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metacoord_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	m.GrpcRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "metacoord_grpc_requests_in_flight",
			Help: "Number of gRPC requests currently being processed",
		},
	)

	// Coordination store metrics
	m.RepositoryOperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacoord_repository_operations_total",
			Help: "Total number of coordination store operations",
		},
		[]string{"operation", "status"},
	)

	m.RepositoryKeys = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "metacoord_repository_keys",
			Help: "Number of keys held by the coordination store",
		},
	)

	m.WatchesActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "metacoord_watches_active",
			Help: "Number of active watch subscriptions",
		},
	)

	// Dispatch metrics
	m.EventsReceivedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacoord_events_received_total",
			Help: "Total number of change events received for dispatch",
		},
		[]string{"type"},
	)

	m.HandlerInvocationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacoord_handler_invocations_total",
			Help: "Total number of change handler invocations",
		},
		[]string{"handler", "status"},
	)

	m.HandlerDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metacoord_handler_duration_seconds",
			Help:    "Duration of change handler invocations in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"handler"},
	)

	m.DispatchQueueDepth = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "metacoord_dispatch_queue_depth",
			Help: "Number of change events waiting in dispatch queues",
		},
	)

	// Worker registry metrics
	m.WorkerIDsAssigned = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "metacoord_worker_ids_assigned",
			Help: "Number of compute node worker ids known locally",
		},
	)

	// Server metrics
	m.ServerUptimeSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "metacoord_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
	)

	return m
}

// RunUptimeUpdater periodically updates the server uptime metric until done is closed
func (m *Metrics) RunUptimeUpdater(done <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.ServerUptimeSeconds.Set(time.Since(m.ServerStartTime).Seconds())
		}
	}
}

// RecordGrpcRequest records a gRPC request with its status
func (m *Metrics) RecordGrpcRequest(method string, status string, duration time.Duration) {
	m.GrpcRequestsTotal.WithLabelValues(method, status).Inc()
	m.GrpcRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordRepositoryOperation records a coordination store operation
func (m *Metrics) RecordRepositoryOperation(operation string, err error) {
	m.RepositoryOperationsTotal.WithLabelValues(operation, statusOf(err)).Inc()
}

// RecordEventReceived counts an event entering dispatch
func (m *Metrics) RecordEventReceived(eventType string) {
	m.EventsReceivedTotal.WithLabelValues(eventType).Inc()
}

// RecordHandlerInvocation records one handler run
func (m *Metrics) RecordHandlerInvocation(handler string, duration time.Duration, err error) {
	m.HandlerInvocationsTotal.WithLabelValues(handler, statusOf(err)).Inc()
	m.HandlerDuration.WithLabelValues(handler).Observe(duration.Seconds())
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
