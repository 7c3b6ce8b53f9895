package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harun/thakir/pkg/alert"
	"github.com/harun/thakir/pkg/reminder"
	"github.com/harun/thakir/pkg/summarizer"
)

// APIError is a non-2xx response from the gateway
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Message)
}

// APIClient talks to a running gateway over HTTP
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the gateway at baseURL
func NewClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// summaries can take several provider retries
			Timeout: 3 * time.Minute,
		},
	}
}

// Health checks /healthz
func (c *APIClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// Status returns daemon status
func (c *APIClient) Status(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions returns every session with its remaining time
func (c *APIClient) ListSessions(ctx context.Context) ([]reminder.SessionView, error) {
	var out []reminder.SessionView
	if err := c.do(ctx, http.MethodGet, "/api/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddSession schedules a new session
func (c *APIClient) AddSession(ctx context.Context, req CreateSessionRequest) (*reminder.StudySession, error) {
	var out reminder.StudySession
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSession removes a session
func (c *APIClient) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, nil)
}

// ListAlerts returns pending in-app alerts
func (c *APIClient) ListAlerts(ctx context.Context) ([]alert.Alert, error) {
	var out []alert.Alert
	if err := c.do(ctx, http.MethodGet, "/api/alerts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AckAlert dismisses an in-app alert
func (c *APIClient) AckAlert(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/alerts/"+url.PathEscape(id)+"/ack", nil, nil)
}

// Summarize requests a lesson summary
func (c *APIClient) Summarize(ctx context.Context, req summarizer.Request) (*SummaryResponse, error) {
	var out SummaryResponse
	if err := c.do(ctx, http.MethodPost, "/api/summaries", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScheduleSummary schedules a session from a summary prefill
func (c *APIClient) ScheduleSummary(ctx context.Context, req ScheduleRequest) (*reminder.StudySession, error) {
	var out reminder.StudySession
	if err := c.do(ctx, http.MethodPost, "/api/summaries/schedule", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(data))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
