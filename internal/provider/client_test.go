package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/exerciselog/internal/domain"
)

func TestClientReadSessionsMapsRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/sessions", r.URL.Path)
		require.NotEmpty(t, r.URL.Query().Get("start"))
		require.NotEmpty(t, r.URL.Query().Get("end"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessions":[
            {"id":"hc-1","origin":"com.samsung.android.app.shealth","exercise_type":56,
             "start_time":"2025-10-05T09:10:30Z","end_time":"2025-10-05T09:40:30Z","title":"Morning run"},
            {"id":"hc-2","origin":"com.example.tracker","exercise_type":12,
             "start_time":"2025-10-05T11:00:00Z","end_time":"2025-10-05T11:00:20Z","title":""}
        ]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	records, err := client.ReadSessions(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	require.Equal(t, "hc-1", first.ID)
	require.Equal(t, domain.TypeRunning, first.Type)
	require.Equal(t, domain.SourceSamsungHealth, first.Source)
	require.Equal(t, 30, first.DurationMin)
	require.Equal(t, time.Date(2025, time.October, 5, 9, 10, 0, 0, time.UTC), first.StartedAt)
	require.Equal(t, "Morning run", first.Note)

	// Unknown type code, unknown origin, sub-minute duration.
	second := records[1]
	require.Equal(t, domain.TypeOther, second.Type)
	require.Equal(t, domain.SourceProviderOther, second.Source)
	require.Equal(t, 1, second.DurationMin)
}

func TestClientReadSessionsErrorOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.ReadSessions(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
}

func TestClientAvailability(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/status", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()

	require.True(t, NewClient(up.URL).IsAvailable(context.Background()))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	require.False(t, NewClient(down.URL).IsAvailable(context.Background()))
	require.False(t, NewClient("http://127.0.0.1:1").IsAvailable(context.Background()))
}

func TestClientHasGrants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/grants", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"granted":true}`))
	}))
	defer server.Close()

	granted, err := NewClient(server.URL).HasGrants(context.Background())
	require.NoError(t, err)
	require.True(t, granted)
}
