// Package events publishes reconciliation outcomes to Kafka so read-side
// observers learn about store changes without polling.
package events

import "time"

// Topic names. Reconciliation summaries and record-level changes are split
// so consumers can subscribe to either granularity.
const (
	TopicReconciliation = "reconciliation_events"
	TopicRecords        = "record_events"
)

// ReconciliationCompleted is emitted once per successful pipeline pass,
// after the merged set has been persisted.
type ReconciliationCompleted struct {
	PassID              string    `json:"pass_id"`
	Fetched             int       `json:"fetched"`
	Merged              int       `json:"merged"`
	DuplicatesCollapsed int       `json:"duplicates_collapsed"`
	ConflictGroups      int       `json:"conflict_groups"`
	OccurredAt          time.Time `json:"occurred_at"`
}

// ConflictResolved is emitted when a user picks a survivor for a group.
type ConflictResolved struct {
	SurvivorID string    `json:"survivor_id"`
	DeletedIDs []string  `json:"deleted_ids"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RecordDeleted is emitted when a record is explicitly removed by the user.
type RecordDeleted struct {
	RecordID   string    `json:"record_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
