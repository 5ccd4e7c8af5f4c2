// Package postgres provides the durable record store.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/exerciselog/internal/domain"
)

// Store persists exercise records in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store over the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const selectColumns = `record_id, exercise_type, started_at, duration_min, source, distance_km, calories, note`

// List returns all records ordered by descending start time.
func (s *Store) List(ctx context.Context) ([]domain.ExerciseRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM exercise_records ORDER BY started_at DESC, record_id DESC`, selectColumns)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.ExerciseRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// UpsertMany replaces existing rows by id and inserts the rest, in one
// transaction.
func (s *Store) UpsertMany(ctx context.Context, records []domain.ExerciseRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := upsertAll(ctx, tx, records); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReplaceAll atomically makes records the complete table contents: rows
// absent from the set are deleted, the rest are upserted, all in one
// transaction.
func (s *Store) ReplaceAll(ctx context.Context, records []domain.ExerciseRecord) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	keep := make([]string, 0, len(records))
	for _, record := range records {
		keep = append(keep, record.ID)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM exercise_records WHERE record_id != ALL($1)`, keep); err != nil {
		return err
	}
	if err := upsertAll(ctx, tx, records); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeleteByID removes one record; absent ids are a no-op.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM exercise_records WHERE record_id = $1`, id)
	return err
}

// DeleteByIDs removes a batch of records; absent ids are a no-op.
func (s *Store) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM exercise_records WHERE record_id = ANY($1)`, ids)
	return err
}

// DeleteAll empties the table.
func (s *Store) DeleteAll(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM exercise_records`)
	return err
}

func upsertAll(ctx context.Context, tx pgx.Tx, records []domain.ExerciseRecord) error {
	const stmt = `INSERT INTO exercise_records (record_id, exercise_type, started_at, duration_min, source, distance_km, calories, note, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
        ON CONFLICT (record_id) DO UPDATE SET
            exercise_type = EXCLUDED.exercise_type,
            started_at = EXCLUDED.started_at,
            duration_min = EXCLUDED.duration_min,
            source = EXCLUDED.source,
            distance_km = EXCLUDED.distance_km,
            calories = EXCLUDED.calories,
            note = EXCLUDED.note,
            updated_at = now()`

	for _, record := range records {
		_, err := tx.Exec(ctx, stmt,
			record.ID,
			record.Type,
			record.StartedAt,
			record.DurationMin,
			string(record.Source),
			record.DistanceKM,
			record.Calories,
			nullIfEmpty(record.Note),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanRecord(rows pgx.Rows) (domain.ExerciseRecord, error) {
	var record domain.ExerciseRecord
	var source string
	var note *string
	err := rows.Scan(
		&record.ID,
		&record.Type,
		&record.StartedAt,
		&record.DurationMin,
		&source,
		&record.DistanceKM,
		&record.Calories,
		&note,
	)
	if err != nil {
		return domain.ExerciseRecord{}, err
	}
	record.Source = domain.Source(source)
	if note != nil {
		record.Note = *note
	}
	record.StartedAt = record.StartedAt.UTC()
	return record, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
