package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency (seconds)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Engine operation counts, labeled by operation and result
	// (ok / unauthorized / invalid_state / ...).
	EngineOperationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_operations_total",
			Help: "Total number of engine operations",
		},
		[]string{"operation", "result"},
	)

	// Escrow value movement in base units.
	EscrowDepositTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "escrow_deposited_units_total",
			Help: "Total escrow value deposited, in base units",
		},
	)

	MilestonePaidCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "milestones_paid_total",
			Help: "Total number of milestone payouts released",
		},
	)

	// Outbox dispatch latency (milliseconds)
	OutboxDispatchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "outbox_dispatch_latency_ms",
			Help:    "Outbox event dispatch latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"routing_key", "status"},
	)

	// Audit events recorded by the worker.
	AuditEventCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_total",
			Help: "Total number of audited engine events",
		},
		[]string{"routing_key"},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementEngineOperation(operation, result string) {
	EngineOperationCount.WithLabelValues(operation, result).Inc()
}

func AddEscrowDeposit(amount int64) {
	EscrowDepositTotal.Add(float64(amount))
}

func RecordOutboxDispatch(routingKey, status string, duration time.Duration) {
	OutboxDispatchLatency.WithLabelValues(routingKey, status).Observe(float64(duration.Milliseconds()))
}

func IncrementAuditEvent(routingKey string) {
	AuditEventCount.WithLabelValues(routingKey).Inc()
}
