package reconcile

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"example.com/exerciselog/internal/domain"
	"example.com/exerciselog/internal/events"
	"example.com/exerciselog/internal/observability"
)

// DefaultSyncWindow is the trailing window pulled from the provider.
const DefaultSyncWindow = 7 * 24 * time.Hour

// SyncResult summarises one pipeline pass.
type SyncResult struct {
	PassID              string
	Fetched             int
	Merged              int
	DuplicatesCollapsed int
	ConflictGroups      int
}

// Pipeline orchestrates a sync pass: provider fetch, union with the store,
// duplicate collapsing, atomic persist, conflict grouping, and hand-off of
// the first pending group to the resolution session. Passes are strictly
// sequential; a busy guard rejects overlapping triggers.
type Pipeline struct {
	store     domain.RecordStore
	provider  domain.HealthProvider
	publisher events.Publisher
	session   *Session

	window    time.Duration
	threshold int
	busy      atomic.Bool
	logger    *log.Logger
	now       func() time.Time
}

// Option customises Pipeline construction.
type Option func(*Pipeline)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithWindow overrides the trailing fetch window.
func WithWindow(window time.Duration) Option {
	return func(p *Pipeline) { p.window = window }
}

// WithDuplicateThreshold overrides the duplicate start-time tolerance.
func WithDuplicateThreshold(minutes int) Option {
	return func(p *Pipeline) { p.threshold = minutes }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline constructs a Pipeline and its resolution session.
func NewPipeline(store domain.RecordStore, provider domain.HealthProvider, publisher events.Publisher, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:     store,
		provider:  provider,
		publisher: publisher,
		session:   NewSession(store),
		window:    DefaultSyncWindow,
		threshold: DefaultDuplicateThresholdMin,
		logger:    log.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Session exposes the resolution session driven by this pipeline.
func (p *Pipeline) Session() *Session {
	return p.session
}

// Sync runs one reconciliation pass. The store is mutated exactly once,
// atomically, after dedup, or not at all when the pass aborts.
func (p *Pipeline) Sync(ctx context.Context) (SyncResult, error) {
	if !p.busy.CompareAndSwap(false, true) {
		observability.RecordSyncPass("busy")
		return SyncResult{}, domain.ErrSyncInProgress
	}
	defer p.busy.Store(false)

	result := SyncResult{PassID: uuid.NewString()}

	if !p.provider.IsAvailable(ctx) {
		observability.RecordSyncPass("unavailable")
		return result, domain.ErrProviderUnavailable
	}

	granted, err := p.provider.HasGrants(ctx)
	if err != nil {
		observability.RecordSyncPass("failed")
		return result, fmt.Errorf("checking provider grants: %w", err)
	}
	if !granted {
		observability.RecordSyncPass("unauthorized")
		return result, domain.ErrAuthorizationRequired
	}

	end := p.now().UTC().Truncate(time.Minute)
	start := end.Add(-p.window)
	fetched, err := p.provider.ReadSessions(ctx, start, end)
	if err != nil {
		// A failed fetch degrades to "nothing new synced"; the pass
		// continues over existing store contents.
		p.logger.Printf("provider fetch failed, continuing with store contents: %v", err)
		fetched = nil
	}
	result.Fetched = len(fetched)

	existing, err := p.store.List(ctx)
	if err != nil {
		observability.RecordSyncPass("failed")
		return result, fmt.Errorf("listing store contents: %w", err)
	}

	// Existing records come first so an already-persisted provider record
	// outlives a re-fetched copy of itself and ids stay stable.
	union := make([]domain.ExerciseRecord, 0, len(existing)+len(fetched))
	union = append(union, existing...)
	union = append(union, fetched...)

	deduped := Deduplicate(union, p.threshold)
	result.Merged = len(deduped.Records)
	result.DuplicatesCollapsed = len(deduped.AbsorbedIDs)

	if err := ctx.Err(); err != nil {
		observability.RecordSyncPass("canceled")
		return result, err
	}

	if err := p.store.ReplaceAll(ctx, deduped.Records); err != nil {
		observability.RecordSyncPass("failed")
		return result, fmt.Errorf("persisting merged records: %w", err)
	}

	groups := Group(deduped.Records)
	result.ConflictGroups = len(groups)
	p.session.Begin(groups)

	now := p.now().UTC()
	if err := p.publisher.ReconciliationCompleted(ctx, events.ReconciliationCompleted{
		PassID:              result.PassID,
		Fetched:             result.Fetched,
		Merged:              result.Merged,
		DuplicatesCollapsed: result.DuplicatesCollapsed,
		ConflictGroups:      result.ConflictGroups,
		OccurredAt:          now,
	}); err != nil {
		p.logger.Printf("publishing reconciliation event: %v", err)
	}

	observability.RecordSyncPass("completed")
	observability.RecordSyncCompleted(result.Fetched, result.DuplicatesCollapsed, result.ConflictGroups, now)
	p.logger.Printf("sync pass %s: fetched=%d merged=%d collapsed=%d groups=%d",
		result.PassID, result.Fetched, result.Merged, result.DuplicatesCollapsed, result.ConflictGroups)
	return result, nil
}

// Refresh regroups the current store contents without a provider fetch.
// Manual entry triggers this so a hand-entered record is reconciled
// immediately.
func (p *Pipeline) Refresh(ctx context.Context) (int, error) {
	records, err := p.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing store contents: %w", err)
	}
	groups := Group(records)
	p.session.Begin(groups)
	return len(groups), nil
}

// Resolve applies a survivor choice to the pending group and publishes the
// outcome.
func (p *Pipeline) Resolve(ctx context.Context, survivorID string) error {
	group, ok := p.session.Current()
	if !ok {
		return domain.ErrNoPendingConflict
	}

	if err := p.session.Resolve(ctx, survivorID); err != nil {
		return err
	}

	deleted := make([]string, 0, len(group.Records)-1)
	for _, id := range group.IDs() {
		if id != survivorID {
			deleted = append(deleted, id)
		}
	}
	if err := p.publisher.ConflictResolved(ctx, events.ConflictResolved{
		SurvivorID: survivorID,
		DeletedIDs: deleted,
		OccurredAt: p.now().UTC(),
	}); err != nil {
		p.logger.Printf("publishing conflict resolution: %v", err)
	}
	observability.RecordConflictResolved()
	return nil
}

// Dismiss drops the pending group without deleting any member.
func (p *Pipeline) Dismiss() error {
	if err := p.session.Dismiss(); err != nil {
		return err
	}
	observability.RecordConflictDismissed()
	return nil
}

// DeleteRecord removes a record at the user's request. Deleting an absent
// id is a no-op at the store level.
func (p *Pipeline) DeleteRecord(ctx context.Context, id string) error {
	if err := p.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	if err := p.publisher.RecordDeleted(ctx, events.RecordDeleted{
		RecordID:   id,
		OccurredAt: p.now().UTC(),
	}); err != nil {
		p.logger.Printf("publishing record deletion: %v", err)
	}
	return nil
}
