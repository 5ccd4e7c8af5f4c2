// Package provider talks to the Health Connect gateway that fronts the
// platform's health-data APIs.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"example.com/exerciselog/internal/domain"
)

// Client implements domain.HealthProvider against the gateway's JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client with sane defaults.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// IsAvailable reports whether the gateway answers its status endpoint.
// Any transport error or non-2xx response counts as unavailable.
func (c *Client) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/status", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 300
}

// HasGrants reports whether the user has granted the permissions the
// reconciler needs to read exercise sessions.
func (c *Client) HasGrants(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/grants", nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("gateway grants error: %s", body)
	}

	var payload struct {
		Granted bool `json:"granted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, err
	}
	return payload.Granted, nil
}

// RequestGrants hands off to the gateway's consent flow.
func (c *Client) RequestGrants(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/grants/request", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway consent error: %s", body)
	}
	return nil
}

// rawSession is the gateway's wire shape for one exercise session.
type rawSession struct {
	ID           string    `json:"id"`
	Origin       string    `json:"origin"`
	ExerciseType int       `json:"exercise_type"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Title        string    `json:"title"`
}

// ReadSessions fetches raw sessions for the window and maps them onto the
// domain model.
func (c *Client) ReadSessions(ctx context.Context, start, end time.Time) ([]domain.ExerciseRecord, error) {
	query := url.Values{}
	query.Set("start", start.UTC().Format(time.RFC3339))
	query.Set("end", end.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/sessions?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway sessions error: %s", body)
	}

	var payload struct {
		Sessions []rawSession `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	records := make([]domain.ExerciseRecord, 0, len(payload.Sessions))
	for _, session := range payload.Sessions {
		records = append(records, mapSession(session))
	}
	return records, nil
}

func mapSession(session rawSession) domain.ExerciseRecord {
	started := session.StartTime.UTC().Truncate(time.Minute)
	duration := int(session.EndTime.Sub(session.StartTime) / time.Minute)
	if duration < 1 {
		duration = 1
	}
	return domain.ExerciseRecord{
		ID:          session.ID,
		Type:        MapExerciseType(session.ExerciseType),
		StartedAt:   started,
		DurationMin: duration,
		Source:      MapSource(session.Origin),
		Note:        session.Title,
	}
}
