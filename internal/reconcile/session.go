package reconcile

import (
	"context"
	"sort"
	"strings"
	"sync"

	"example.com/exerciselog/internal/domain"
)

// SessionState is the resolution state machine's state.
type SessionState string

const (
	SessionIdle           SessionState = "idle"
	SessionAwaitingChoice SessionState = "awaiting_choice"
)

// Session walks the user through pending conflict groups one at a time.
// Resolving a group deletes the losing records and regroups the remaining
// store contents; dismissing keeps every member and drops the group from
// the queue for the rest of the session. Dismissed groups may reappear on
// the next sync pass; that is a product decision, not an oversight.
type Session struct {
	mu        sync.Mutex
	store     domain.RecordStore
	queue     []ConflictGroup
	dismissed map[string]struct{}
	state     SessionState
}

// NewSession constructs an idle Session over the given store.
func NewSession(store domain.RecordStore) *Session {
	return &Session{
		store:     store,
		dismissed: make(map[string]struct{}),
		state:     SessionIdle,
	}
}

// Begin replaces the pending queue with a fresh set of groups from a
// pipeline pass and forgets prior dismissals.
func (s *Session) Begin(groups []ConflictGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dismissed = make(map[string]struct{})
	s.setQueue(groups)
}

// State returns the current machine state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the group awaiting a choice, if any.
func (s *Session) Current() (ConflictGroup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionAwaitingChoice || len(s.queue) == 0 {
		return ConflictGroup{}, false
	}
	return s.queue[0], true
}

// Resolve applies the user's survivor choice to the pending group: every
// other member is deleted from the store, then the remaining records are
// regrouped and the session advances to the next pending group. Removal can
// only shrink the overlap structure, so regrouping never invents conflicts
// that were not already latent.
func (s *Session) Resolve(ctx context.Context, survivorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionAwaitingChoice || len(s.queue) == 0 {
		return domain.ErrNoPendingConflict
	}
	group := s.queue[0]
	if !group.Contains(survivorID) {
		return domain.ErrNotInGroup
	}

	losers := make([]string, 0, len(group.Records)-1)
	for _, id := range group.IDs() {
		if id != survivorID {
			losers = append(losers, id)
		}
	}
	if err := s.store.DeleteByIDs(ctx, losers); err != nil {
		return err
	}

	remaining, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	s.setQueue(Group(remaining))
	return nil
}

// Dismiss drops the pending group without deleting any member and returns
// the machine to idle. Remaining queued groups stay pending; the next
// resolve or pipeline pass presents them.
func (s *Session) Dismiss() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionAwaitingChoice || len(s.queue) == 0 {
		return domain.ErrNoPendingConflict
	}
	s.dismissed[groupKey(s.queue[0])] = struct{}{}
	s.queue = s.queue[1:]
	s.state = SessionIdle
	return nil
}

// Resume re-enters AwaitingChoice when groups are still queued, e.g. after
// a dismissal left the machine idle with work pending.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) > 0 {
		s.state = SessionAwaitingChoice
	}
}

// PendingCount reports how many groups are queued, including the current one.
func (s *Session) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// setQueue installs groups minus any dismissed this session and derives the
// machine state. Callers hold s.mu.
func (s *Session) setQueue(groups []ConflictGroup) {
	filtered := groups[:0:0]
	for _, g := range groups {
		if _, skip := s.dismissed[groupKey(g)]; skip {
			continue
		}
		filtered = append(filtered, g)
	}
	s.queue = filtered
	if len(s.queue) > 0 {
		s.state = SessionAwaitingChoice
	} else {
		s.state = SessionIdle
	}
}

// groupKey identifies a group by its member set regardless of ordering.
func groupKey(g ConflictGroup) string {
	ids := g.IDs()
	sort.Strings(ids)
	return strings.Join(ids, "|")
}
