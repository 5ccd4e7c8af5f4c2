package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/exerciselog/internal/auth"
	"example.com/exerciselog/internal/domain"
	"example.com/exerciselog/internal/events"
	"example.com/exerciselog/internal/persistence/memory"
	"example.com/exerciselog/internal/reconcile"
)

type fakeProvider struct {
	available bool
	granted   bool
	sessions  []domain.ExerciseRecord
}

func (p *fakeProvider) IsAvailable(ctx context.Context) bool        { return p.available }
func (p *fakeProvider) HasGrants(ctx context.Context) (bool, error) { return p.granted, nil }
func (p *fakeProvider) RequestGrants(ctx context.Context) error     { return nil }
func (p *fakeProvider) ReadSessions(ctx context.Context, start, end time.Time) ([]domain.ExerciseRecord, error) {
	return p.sessions, nil
}

func newTestMux(t *testing.T, provider domain.HealthProvider, seed ...domain.ExerciseRecord) (*http.ServeMux, *memory.Store, *reconcile.Pipeline) {
	t.Helper()
	store := memory.NewStore()
	if len(seed) > 0 {
		if err := store.UpsertMany(context.Background(), seed); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
	}
	pipeline := reconcile.NewPipeline(store, provider, events.NoopPublisher{})
	handler := NewHandler(store, pipeline)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux, store, pipeline
}

func writerClaims() *auth.Claims {
	return &auth.Claims{
		Subject: "tester",
		Scopes: map[string]struct{}{
			auth.ScopeRecordsWrite: {},
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func readerClaims() *auth.Claims {
	return &auth.Claims{
		Subject: "tester",
		Scopes: map[string]struct{}{
			auth.ScopeRecordsRead: {},
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func doRequest(mux *http.ServeMux, method, path, body string, claims *auth.Claims) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if claims != nil {
		req = req.WithContext(auth.WithClaims(req.Context(), claims))
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestCreateRecordManualEntry(t *testing.T) {
	mux, store, _ := newTestMux(t, &fakeProvider{})

	body := `{"exercise_type":"Running","started_at":"2025-10-05T09:00:00Z","duration_min":30,"distance_km":5.2,"note":"tempo"}`
	rr := doRequest(mux, http.MethodPost, "/v1/records", body, writerClaims())

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp CreateRecordResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Record.RecordID == "" {
		t.Fatalf("expected server-assigned record id")
	}
	if resp.Record.Source != string(domain.SourceManual) {
		t.Fatalf("expected manual source got %s", resp.Record.Source)
	}
	if resp.ConflictPending {
		t.Fatalf("expected no conflict for a lone record")
	}

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("listing store: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 persisted record got %d", len(records))
	}
}

func TestCreateRecordSurfacesConflictImmediately(t *testing.T) {
	existing := domain.ExerciseRecord{
		ID:          "yoga",
		Type:        domain.TypeYoga,
		StartedAt:   time.Date(2025, time.October, 5, 9, 0, 0, 0, time.UTC),
		DurationMin: 40,
		Source:      domain.SourceSamsungHealth,
	}
	mux, _, _ := newTestMux(t, &fakeProvider{}, existing)

	body := `{"exercise_type":"Running","started_at":"2025-10-05T09:10:00Z","duration_min":20}`
	rr := doRequest(mux, http.MethodPost, "/v1/records", body, writerClaims())

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp CreateRecordResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.ConflictPending {
		t.Fatalf("expected overlapping manual entry to raise a conflict")
	}
}

func TestCreateRecordValidation(t *testing.T) {
	mux, _, _ := newTestMux(t, &fakeProvider{})

	body := `{"exercise_type":"Pilates","started_at":"2025-10-05T09:00:00Z","duration_min":30}`
	rr := doRequest(mux, http.MethodPost, "/v1/records", body, writerClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestCreateRecordRequiresWriteScope(t *testing.T) {
	mux, _, _ := newTestMux(t, &fakeProvider{})

	body := `{"exercise_type":"Running","started_at":"2025-10-05T09:00:00Z","duration_min":30}`
	rr := doRequest(mux, http.MethodPost, "/v1/records", body, readerClaims())

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestListRecordsRequiresClaims(t *testing.T) {
	mux, _, _ := newTestMux(t, &fakeProvider{})

	rr := doRequest(mux, http.MethodGet, "/v1/records", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestSyncAuthorizationRequired(t *testing.T) {
	mux, _, _ := newTestMux(t, &fakeProvider{available: true, granted: false})

	rr := doRequest(mux, http.MethodPost, "/v1/sync", "", writerClaims())
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "authorization_required") {
		t.Fatalf("expected authorization_required type: %s", rr.Body.String())
	}
}

func TestSyncProviderUnavailableDegrades(t *testing.T) {
	mux, _, _ := newTestMux(t, &fakeProvider{available: false})

	rr := doRequest(mux, http.MethodPost, "/v1/sync", "", writerClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	var resp SyncResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "provider_unavailable" {
		t.Fatalf("expected provider_unavailable got %s", resp.Status)
	}
}

func TestSyncReportsPendingConflict(t *testing.T) {
	existing := domain.ExerciseRecord{
		ID:          "yoga",
		Type:        domain.TypeYoga,
		StartedAt:   time.Date(2025, time.October, 5, 9, 0, 0, 0, time.UTC),
		DurationMin: 40,
		Source:      domain.SourceManual,
	}
	provider := &fakeProvider{
		available: true,
		granted:   true,
		sessions: []domain.ExerciseRecord{
			{
				ID:          "run",
				Type:        domain.TypeRunning,
				StartedAt:   time.Date(2025, time.October, 5, 9, 10, 0, 0, time.UTC),
				DurationMin: 20,
				Source:      domain.SourceSamsungHealth,
			},
		},
	}
	mux, _, _ := newTestMux(t, provider, existing)

	rr := doRequest(mux, http.MethodPost, "/v1/sync", "", writerClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp SyncResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ConflictGroups != 1 {
		t.Fatalf("expected 1 conflict group got %d", resp.ConflictGroups)
	}
	if resp.PendingConflict == nil || len(resp.PendingConflict.Records) != 2 {
		t.Fatalf("expected pending conflict with 2 members: %+v", resp.PendingConflict)
	}
}

func TestConflictResolutionFlow(t *testing.T) {
	a := domain.ExerciseRecord{
		ID:          "a",
		Type:        domain.TypeRunning,
		StartedAt:   time.Date(2025, time.October, 5, 9, 0, 0, 0, time.UTC),
		DurationMin: 60,
		Source:      domain.SourceManual,
	}
	b := domain.ExerciseRecord{
		ID:          "b",
		Type:        domain.TypeWalking,
		StartedAt:   time.Date(2025, time.October, 5, 9, 30, 0, 0, time.UTC),
		DurationMin: 60,
		Source:      domain.SourceGarmin,
	}
	mux, store, pipeline := newTestMux(t, &fakeProvider{}, a, b)
	if _, err := pipeline.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	rr := doRequest(mux, http.MethodGet, "/v1/conflicts/current", "", readerClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var current ConflictResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &current); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !current.Pending || current.Group == nil || len(current.Group.Records) != 2 {
		t.Fatalf("expected a pending 2-member group: %+v", current)
	}

	rr = doRequest(mux, http.MethodPost, "/v1/conflicts/current/resolve", `{"survivor_id":"b"}`, writerClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("listing store: %v", err)
	}
	if len(records) != 1 || records[0].ID != "b" {
		t.Fatalf("expected only survivor b, got %+v", records)
	}
}

func TestResolveWithoutPendingConflict(t *testing.T) {
	mux, _, _ := newTestMux(t, &fakeProvider{})

	rr := doRequest(mux, http.MethodPost, "/v1/conflicts/current/resolve", `{"survivor_id":"x"}`, writerClaims())
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rr.Code)
	}
}

func TestDismissKeepsRecords(t *testing.T) {
	a := domain.ExerciseRecord{
		ID:          "a",
		Type:        domain.TypeRunning,
		StartedAt:   time.Date(2025, time.October, 5, 9, 0, 0, 0, time.UTC),
		DurationMin: 60,
		Source:      domain.SourceManual,
	}
	b := domain.ExerciseRecord{
		ID:          "b",
		Type:        domain.TypeWalking,
		StartedAt:   time.Date(2025, time.October, 5, 9, 30, 0, 0, time.UTC),
		DurationMin: 60,
		Source:      domain.SourceGarmin,
	}
	mux, store, pipeline := newTestMux(t, &fakeProvider{}, a, b)
	if _, err := pipeline.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	rr := doRequest(mux, http.MethodPost, "/v1/conflicts/current/dismiss", "", writerClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("listing store: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("dismiss must keep all members, got %d records", len(records))
	}

	rr = doRequest(mux, http.MethodGet, "/v1/conflicts/current", "", readerClaims())
	var current ConflictResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &current); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if current.Pending {
		t.Fatalf("expected no pending group after dismissal")
	}
}

func TestDeleteRecord(t *testing.T) {
	a := domain.ExerciseRecord{
		ID:          "a",
		Type:        domain.TypeRunning,
		StartedAt:   time.Date(2025, time.October, 5, 9, 0, 0, 0, time.UTC),
		DurationMin: 30,
		Source:      domain.SourceManual,
	}
	mux, store, _ := newTestMux(t, &fakeProvider{}, a)

	rr := doRequest(mux, http.MethodDelete, "/v1/records/a", "", writerClaims())
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("listing store: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty store got %d records", len(records))
	}

	// Deleting an absent id is a no-op.
	rr = doRequest(mux, http.MethodDelete, "/v1/records/a", "", writerClaims())
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on repeat delete got %d", rr.Code)
	}
}
