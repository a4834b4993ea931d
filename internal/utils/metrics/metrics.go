// File: backend/services/integrity-service/internal/utils/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerAppendsTotal counts successful audit ledger appends by scope.
	LedgerAppendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integrity_service_ledger_appends_total",
		Help: "The total number of audit ledger entries appended",
	}, []string{"scope"})

	// AccessDeniedTotal counts tenant-boundary rejections.
	AccessDeniedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "integrity_service_access_denied_total",
		Help: "The total number of tenant boundary rejections",
	})

	// DriftClassificationsTotal counts drift classifications by severity.
	DriftClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integrity_service_drift_classifications_total",
		Help: "The total number of clock drift classifications by severity",
	}, []string{"severity"})

	// IntegrityFlagsTotal counts raised flags by type.
	IntegrityFlagsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integrity_service_integrity_flags_total",
		Help: "The total number of integrity flags raised by type",
	}, []string{"type"})

	// TransitionsTotal counts attendance state transitions by outcome.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integrity_service_attendance_transitions_total",
		Help: "The total number of attendance state transition attempts",
	}, []string{"outcome"})

	// EscalationsTotal counts detected escalations by severity.
	EscalationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integrity_service_escalations_total",
		Help: "The total number of detected privilege escalations by severity",
	}, []string{"severity"})

	// IncidentsOpenedTotal counts opened incidents by severity.
	IncidentsOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integrity_service_incidents_opened_total",
		Help: "The total number of incidents opened by severity",
	}, []string{"severity"})

	// StorageDuration observes storage round-trip latency per operation.
	StorageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "integrity_service_storage_duration_seconds",
		Help:    "Storage operation duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
