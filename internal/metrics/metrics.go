package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookmirror",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	storeWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookmirror",
			Name:      "store_writes_total",
			Help:      "Store writes by store (relational/document) and outcome (ok/error).",
		},
		[]string{"store", "outcome"},
	)

	partialWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookmirror",
			Name:      "partial_writes_total",
			Help:      "Dual writes whose document leg failed after retries.",
		},
		[]string{"operation"},
	)

	mirrorRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookmirror",
			Name:      "mirror_retries_total",
			Help:      "Retry attempts against the document store.",
		},
	)

	auditEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookmirror",
			Name:      "audit_entries_total",
			Help:      "Audit log entries recorded, by action.",
		},
		[]string{"action"},
	)

	reconcileTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookmirror",
			Name:      "reconcile_tasks_total",
			Help:      "Reconciliation tasks by final status.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			storeWrites,
			partialWrites,
			mirrorRetries,
			auditEntries,
			reconcileTasks,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncStoreWrite считает запись в хранилище с исходом ok или error.
func IncStoreWrite(store, outcome string) {
	storeWrites.WithLabelValues(store, outcome).Inc()
}

func IncPartialWrite(operation string) {
	partialWrites.WithLabelValues(operation).Inc()
}

func IncMirrorRetry() {
	mirrorRetries.Inc()
}

func IncAuditEntry(action string) {
	auditEntries.WithLabelValues(action).Inc()
}

func IncReconcileTask(status string) {
	reconcileTasks.WithLabelValues(status).Inc()
}
