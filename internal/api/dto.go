package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"example.com/exerciselog/internal/domain"
	"example.com/exerciselog/internal/reconcile"
)

// CreateRecordRequest is the payload for POST /v1/records.
type CreateRecordRequest struct {
	ExerciseType string    `json:"exercise_type"`
	StartedAt    time.Time `json:"started_at"`
	DurationMin  int       `json:"duration_min"`
	DistanceKM   *float64  `json:"distance_km,omitempty"`
	Calories     *int      `json:"calories,omitempty"`
	Note         string    `json:"note,omitempty"`
}

// Validate ensures request correctness.
func (r CreateRecordRequest) Validate() error {
	if !domain.IsKnownType(r.ExerciseType) {
		return errors.New("exercise_type must be one of Running, Walking, Swimming, Yoga, Hiking, Other")
	}
	if r.StartedAt.IsZero() {
		return errors.New("started_at is required")
	}
	if r.DurationMin <= 0 {
		return errors.New("duration_min must be > 0")
	}
	if r.DistanceKM != nil && *r.DistanceKM < 0 {
		return errors.New("distance_km must be non-negative")
	}
	if r.Calories != nil && *r.Calories < 0 {
		return errors.New("calories must be non-negative")
	}
	return nil
}

// RecordView exposes one exercise record.
type RecordView struct {
	RecordID     string    `json:"record_id"`
	ExerciseType string    `json:"exercise_type"`
	StartedAt    time.Time `json:"started_at"`
	DurationMin  int       `json:"duration_min"`
	Source       string    `json:"source"`
	DistanceKM   *float64  `json:"distance_km,omitempty"`
	Calories     *int      `json:"calories,omitempty"`
	Note         string    `json:"note,omitempty"`
}

// CreateRecordResponse describes the response body for manual entry.
type CreateRecordResponse struct {
	Record          RecordView `json:"record"`
	ConflictPending bool       `json:"conflict_pending"`
}

// ListRecordsResponse packages list results.
type ListRecordsResponse struct {
	Items []RecordView `json:"items"`
}

// SyncResponse summarises a pipeline pass.
type SyncResponse struct {
	Status              string        `json:"status"`
	PassID              string        `json:"pass_id,omitempty"`
	Fetched             int           `json:"fetched"`
	Merged              int           `json:"merged"`
	DuplicatesCollapsed int           `json:"duplicates_collapsed"`
	ConflictGroups      int           `json:"conflict_groups"`
	PendingConflict     *ConflictView `json:"pending_conflict,omitempty"`
}

// ConflictView exposes the members of one pending conflict group.
type ConflictView struct {
	Records []RecordView `json:"records"`
}

// ConflictResponse reports the current resolution state.
type ConflictResponse struct {
	Pending bool          `json:"pending"`
	Group   *ConflictView `json:"group,omitempty"`
}

// ResolveConflictRequest is the payload for conflict resolution.
type ResolveConflictRequest struct {
	SurvivorID string `json:"survivor_id"`
}

func toRecordView(record domain.ExerciseRecord) RecordView {
	return RecordView{
		RecordID:     record.ID,
		ExerciseType: record.Type,
		StartedAt:    record.StartedAt,
		DurationMin:  record.DurationMin,
		Source:       string(record.Source),
		DistanceKM:   record.DistanceKM,
		Calories:     record.Calories,
		Note:         record.Note,
	}
}

func toConflictView(group reconcile.ConflictGroup) *ConflictView {
	view := &ConflictView{Records: make([]RecordView, 0, len(group.Records))}
	for _, record := range group.Records {
		view.Records = append(view.Records, toRecordView(record))
	}
	return view
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
