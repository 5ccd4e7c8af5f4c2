// Package memory provides an in-memory record store for local development
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"example.com/exerciselog/internal/domain"
)

// Store keeps records in a mutex-guarded map.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.ExerciseRecord
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{records: make(map[string]domain.ExerciseRecord)}
}

// List implements domain.RecordStore.
func (s *Store) List(ctx context.Context) ([]domain.ExerciseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ExerciseRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// UpsertMany implements domain.RecordStore.
func (s *Store) UpsertMany(ctx context.Context, records []domain.ExerciseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		s.records[record.ID] = record
	}
	return nil
}

// ReplaceAll implements domain.RecordStore.
func (s *Store) ReplaceAll(ctx context.Context, records []domain.ExerciseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]domain.ExerciseRecord, len(records))
	for _, record := range records {
		next[record.ID] = record
	}
	s.records = next
	return nil
}

// DeleteByID implements domain.RecordStore.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}

// DeleteByIDs implements domain.RecordStore.
func (s *Store) DeleteByIDs(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.records, id)
	}
	return nil
}

// DeleteAll implements domain.RecordStore.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]domain.ExerciseRecord)
	return nil
}
