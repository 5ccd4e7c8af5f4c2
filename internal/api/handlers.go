// Package api exposes HTTP handlers for the reconciler service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/exerciselog/internal/auth"
	"example.com/exerciselog/internal/domain"
	"example.com/exerciselog/internal/reconcile"
)

// Handler coordinates HTTP requests with the reconciliation pipeline.
type Handler struct {
	store    domain.RecordStore
	pipeline *reconcile.Pipeline
}

// NewHandler builds a Handler.
func NewHandler(store domain.RecordStore, pipeline *reconcile.Pipeline) *Handler {
	return &Handler{store: store, pipeline: pipeline}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/records", h.records)
	mux.HandleFunc("/v1/records/", h.recordByID)
	mux.HandleFunc("/v1/sync", h.sync)
	mux.HandleFunc("/v1/conflicts/current", h.currentConflict)
	mux.HandleFunc("/v1/conflicts/current/resolve", h.resolveConflict)
	mux.HandleFunc("/v1/conflicts/current/dismiss", h.dismissConflict)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createRecord(w, r)
	case http.MethodGet:
		h.listRecords(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) recordByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/records/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing record id")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		h.deleteRecord(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// createRecord handles manual entry. The record is persisted and the store
// is regrouped immediately so a conflicting manual entry surfaces at once.
func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRecordsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope records:write required")
		return
	}

	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	record := domain.ExerciseRecord{
		ID:          uuid.NewString(),
		Type:        strings.TrimSpace(req.ExerciseType),
		StartedAt:   req.StartedAt.UTC().Truncate(time.Minute),
		DurationMin: req.DurationMin,
		Source:      domain.SourceManual,
		DistanceKM:  req.DistanceKM,
		Calories:    req.Calories,
		Note:        strings.TrimSpace(req.Note),
	}

	if err := h.store.UpsertMany(r.Context(), []domain.ExerciseRecord{record}); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	if _, err := h.pipeline.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	_, pending := h.pipeline.Session().Current()
	writeJSON(w, http.StatusCreated, CreateRecordResponse{
		Record:          toRecordView(record),
		ConflictPending: pending,
	})
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRecordsRead) && !claims.HasScope(auth.ScopeRecordsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope records:read required")
		return
	}

	records, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]RecordView, 0, len(records))
	for _, record := range records {
		items = append(items, toRecordView(record))
	}
	writeJSON(w, http.StatusOK, ListRecordsResponse{Items: items})
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRecordsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope records:write required")
		return
	}

	if err := h.pipeline.DeleteRecord(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRecordsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope records:write required")
		return
	}

	result, err := h.pipeline.Sync(r.Context())
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSyncInProgress):
		writeError(w, http.StatusConflict, "sync_in_progress", "a sync pass is already running")
		return
	case errors.Is(err, domain.ErrAuthorizationRequired):
		writeError(w, http.StatusForbidden, "authorization_required", "provider grants are missing; run the consent flow")
		return
	case errors.Is(err, domain.ErrProviderUnavailable):
		// Degrades to "nothing new synced" rather than an error surface.
		writeJSON(w, http.StatusOK, SyncResponse{Status: "provider_unavailable"})
		return
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := SyncResponse{
		Status:              "completed",
		PassID:              result.PassID,
		Fetched:             result.Fetched,
		Merged:              result.Merged,
		DuplicatesCollapsed: result.DuplicatesCollapsed,
		ConflictGroups:      result.ConflictGroups,
	}
	if group, pending := h.pipeline.Session().Current(); pending {
		resp.PendingConflict = toConflictView(group)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) currentConflict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRecordsRead) && !claims.HasScope(auth.ScopeRecordsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope records:read required")
		return
	}

	group, pending := h.pipeline.Session().Current()
	if !pending {
		writeJSON(w, http.StatusOK, ConflictResponse{Pending: false})
		return
	}
	writeJSON(w, http.StatusOK, ConflictResponse{Pending: true, Group: toConflictView(group)})
}

func (h *Handler) resolveConflict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRecordsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope records:write required")
		return
	}

	var req ResolveConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if strings.TrimSpace(req.SurvivorID) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "survivor_id is required")
		return
	}

	err := h.pipeline.Resolve(r.Context(), req.SurvivorID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoPendingConflict):
		writeError(w, http.StatusConflict, "no_pending_conflict", "no conflict group is awaiting resolution")
		return
	case errors.Is(err, domain.ErrNotInGroup):
		writeError(w, http.StatusBadRequest, "validation_failed", "survivor_id is not a member of the pending group")
		return
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := ConflictResponse{Pending: false}
	if group, pending := h.pipeline.Session().Current(); pending {
		resp.Pending = true
		resp.Group = toConflictView(group)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) dismissConflict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRecordsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope records:write required")
		return
	}

	if err := h.pipeline.Dismiss(); err != nil {
		if errors.Is(err, domain.ErrNoPendingConflict) {
			writeError(w, http.StatusConflict, "no_pending_conflict", "no conflict group is awaiting resolution")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ConflictResponse{Pending: false})
}
