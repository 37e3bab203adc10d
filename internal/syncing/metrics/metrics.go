package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SaveAttemptsTotal tracks save attempts against the remote store
	SaveAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notesync_save_attempts_total",
			Help: "Total number of save attempts",
		},
		[]string{"result"},
	)

	// SaveRetriesTotal tracks retried attempts after transient failures
	SaveRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notesync_save_retries_total",
			Help: "Total number of retried save attempts",
		},
	)

	// SaveErrorsTotal tracks terminal save failures by error class
	SaveErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notesync_save_errors_total",
			Help: "Total number of failed saves",
		},
		[]string{"class"},
	)

	// SaveLatency tracks save attempt latency
	SaveLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notesync_save_latency_seconds",
			Help:    "Save attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PendingDepth tracks the current offline buffer depth
	PendingDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notesync_pending_depth",
			Help: "Number of notes waiting in the offline buffer",
		},
	)

	// DrainedTotal tracks notes persisted by buffer drains
	DrainedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notesync_drained_total",
			Help: "Total number of buffered notes persisted by drains",
		},
	)

	// ProbesTotal tracks availability probes by outcome
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notesync_probes_total",
			Help: "Total number of availability probes",
		},
		[]string{"outcome"},
	)

	// RemoteAvailable reports the current availability state (1 = available)
	RemoteAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notesync_remote_available",
			Help: "Whether the remote store is currently available",
		},
	)
)
