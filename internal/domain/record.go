// Package domain defines the exercise record model and the ports the
// reconciliation engine depends on.
package domain

import (
	"context"
	"strings"
	"time"
)

// Source identifies where a record originated.
type Source string

const (
	SourceManual        Source = "manual"
	SourceSamsungHealth Source = "samsung_health"
	SourceGarmin        Source = "garmin"
	SourceProviderOther Source = "provider_other"
)

// IsManual reports whether the record was entered by hand rather than synced.
func (s Source) IsManual() bool {
	return s == SourceManual
}

// Exercise type labels form a closed set; provider codes outside the
// mapping table collapse to TypeOther.
const (
	TypeRunning  = "Running"
	TypeWalking  = "Walking"
	TypeSwimming = "Swimming"
	TypeYoga     = "Yoga"
	TypeHiking   = "Hiking"
	TypeOther    = "Other"
)

var knownTypes = map[string]struct{}{
	TypeRunning:  {},
	TypeWalking:  {},
	TypeSwimming: {},
	TypeYoga:     {},
	TypeHiking:   {},
	TypeOther:    {},
}

// IsKnownType reports whether label is one of the fixed exercise types.
func IsKnownType(label string) bool {
	_, ok := knownTypes[strings.TrimSpace(label)]
	return ok
}

// ExerciseRecord is one logged physical-activity session. StartedAt is kept
// at minute resolution in UTC; DurationMin is always positive.
type ExerciseRecord struct {
	ID          string
	Type        string
	StartedAt   time.Time
	DurationMin int
	Source      Source
	DistanceKM  *float64
	Calories    *int
	Note        string
}

// Interval returns the half-open [start, end) window the record occupies.
func (r ExerciseRecord) Interval() (start, end time.Time) {
	start = r.StartedAt
	end = r.StartedAt.Add(time.Duration(r.DurationMin) * time.Minute)
	return start, end
}

// RecordStore is the durable home of exercise records. The pipeline is its
// sole writer; deletes of absent ids are no-ops.
type RecordStore interface {
	// List returns all records ordered by descending start time.
	List(ctx context.Context) ([]ExerciseRecord, error)
	// UpsertMany replaces existing records by id and inserts the rest.
	UpsertMany(ctx context.Context, records []ExerciseRecord) error
	// ReplaceAll atomically makes records the complete store contents.
	ReplaceAll(ctx context.Context, records []ExerciseRecord) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) error
	DeleteAll(ctx context.Context) error
}

// HealthProvider is the external health-data collaborator.
type HealthProvider interface {
	IsAvailable(ctx context.Context) bool
	HasGrants(ctx context.Context) (bool, error)
	// RequestGrants hands off to the provider's consent flow.
	RequestGrants(ctx context.Context) error
	// ReadSessions returns raw records for the [start, end) window, already
	// mapped onto the domain model.
	ReadSessions(ctx context.Context, start, end time.Time) ([]ExerciseRecord, error)
}
