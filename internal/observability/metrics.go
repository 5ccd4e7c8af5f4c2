// Package observability exposes Prometheus metrics for the reconciler.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncPassesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exerciselog",
		Subsystem: "reconcile",
		Name:      "sync_passes_total",
		Help:      "Pipeline passes by outcome (completed, unavailable, unauthorized, failed, busy).",
	}, []string{"outcome"})
	recordsFetchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exerciselog",
		Subsystem: "reconcile",
		Name:      "records_fetched_total",
		Help:      "Raw records returned by provider session reads.",
	})
	duplicatesCollapsedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exerciselog",
		Subsystem: "reconcile",
		Name:      "duplicates_collapsed_total",
		Help:      "Records absorbed into duplicate clusters.",
	})
	conflictGroupsDetectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exerciselog",
		Subsystem: "reconcile",
		Name:      "conflict_groups_detected_total",
		Help:      "Conflict groups emitted by grouping passes.",
	})
	conflictsResolvedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exerciselog",
		Subsystem: "reconcile",
		Name:      "conflicts_resolved_total",
		Help:      "Conflict groups resolved by a survivor choice.",
	})
	conflictsDismissedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exerciselog",
		Subsystem: "reconcile",
		Name:      "conflicts_dismissed_total",
		Help:      "Conflict groups dismissed without a choice.",
	})
	lastSyncGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exerciselog",
		Subsystem: "reconcile",
		Name:      "last_sync_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed sync pass.",
	})
)

func init() {
	prometheus.MustRegister(
		syncPassesTotal,
		recordsFetchedTotal,
		duplicatesCollapsedTotal,
		conflictGroupsDetectedTotal,
		conflictsResolvedTotal,
		conflictsDismissedTotal,
		lastSyncGauge,
	)
}

// RecordSyncPass counts one pipeline pass with its outcome label.
func RecordSyncPass(outcome string) {
	syncPassesTotal.WithLabelValues(outcome).Inc()
}

// RecordSyncCompleted updates per-pass counters after a successful persist.
func RecordSyncCompleted(fetched, collapsed, groups int, at time.Time) {
	recordsFetchedTotal.Add(float64(fetched))
	duplicatesCollapsedTotal.Add(float64(collapsed))
	conflictGroupsDetectedTotal.Add(float64(groups))
	if !at.IsZero() {
		lastSyncGauge.Set(float64(at.Unix()))
	}
}

// RecordConflictResolved counts a survivor choice.
func RecordConflictResolved() {
	conflictsResolvedTotal.Inc()
}

// RecordConflictDismissed counts a dismissal.
func RecordConflictDismissed() {
	conflictsDismissedTotal.Inc()
}
