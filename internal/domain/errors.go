package domain

import "errors"

var (
	// ErrSyncInProgress is returned when a sync trigger arrives while a
	// pipeline pass is already running.
	ErrSyncInProgress = errors.New("sync pass already in progress")
	// ErrProviderUnavailable indicates the health provider is not installed
	// or reachable; the pass aborts without touching the store.
	ErrProviderUnavailable = errors.New("health provider unavailable")
	// ErrAuthorizationRequired indicates the provider grants are missing and
	// the caller must run the consent flow.
	ErrAuthorizationRequired = errors.New("provider authorization required")
	// ErrRecordNotFound is returned when a record cannot be located.
	ErrRecordNotFound = errors.New("exercise record not found")
	// ErrNoPendingConflict is returned when a resolution is attempted with no
	// group awaiting a choice.
	ErrNoPendingConflict = errors.New("no conflict group awaiting resolution")
	// ErrNotInGroup is returned when the chosen survivor does not belong to
	// the pending conflict group.
	ErrNotInGroup = errors.New("survivor is not a member of the pending group")
)
