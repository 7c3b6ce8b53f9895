// Package gateway exposes the reminder controller, the in-app alert board and
// the summarizer over HTTP, and pushes live events to WebSocket clients.
package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harun/thakir/pkg/alert"
	"github.com/harun/thakir/pkg/cron"
	"github.com/harun/thakir/pkg/reminder"
	"github.com/harun/thakir/pkg/summarizer"
)

// Events pushed to WebSocket clients
const (
	EventSessionsChanged = "sessions.changed"
	EventSessionsTick    = "sessions.tick"
	EventAlertFired      = alert.EventAlertFired
	EventAlertDismissed  = alert.EventAlertDismissed
	EventShutdown        = "server.shutdown"
)

// SessionService is the reminder controller surface used by the API
type SessionService interface {
	Sessions() []reminder.SessionView
	AddSession(ctx context.Context, params reminder.SessionParams) (reminder.StudySession, error)
	DeleteSession(ctx context.Context, id string) bool
	ScheduleFromSummary(ctx context.Context, prefill reminder.Prefill, value int64, unit reminder.DurationUnit) (reminder.StudySession, error)
}

// AlertBoard is the in-app alert surface used by the API
type AlertBoard interface {
	Pending() []alert.Alert
	Ack(id string) error
}

// SummaryService generates lesson summaries
type SummaryService interface {
	Available() bool
	Providers() []string
	GenerateSummary(ctx context.Context, req summarizer.Request) (*summarizer.LessonSummary, error)
}

// TaskLister reports the periodic tasks driving the daemon
type TaskLister interface {
	Tasks() []cron.TaskInfo
}

// EventMessage is a server-initiated event
type EventMessage struct {
	Type      string      `json:"type"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"ts"`
	Seq       int64       `json:"seq"`
}

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateSessionRequest is the body of POST /api/sessions. A nil duration
// value takes the form default.
type CreateSessionRequest struct {
	Topic         string `json:"topic"`
	Notes         string `json:"notes"`
	DurationValue *int64 `json:"durationValue,omitempty"`
	DurationUnit  string `json:"durationUnit,omitempty"`
}

// SummaryResponse is the body returned by POST /api/summaries
type SummaryResponse struct {
	Summary *summarizer.LessonSummary `json:"summary"`
	Prefill reminder.Prefill          `json:"prefill"`
}

// ScheduleRequest is the body of POST /api/summaries/schedule
type ScheduleRequest struct {
	Prefill       reminder.Prefill `json:"prefill"`
	DurationValue *int64           `json:"durationValue,omitempty"`
	DurationUnit  string           `json:"durationUnit,omitempty"`
}

// StatusResponse is the body returned by GET /api/status
type StatusResponse struct {
	Status        string    `json:"status"`
	StartedAt     time.Time `json:"startedAt"`
	Uptime        string    `json:"uptime"`
	Sessions      int       `json:"sessions"`
	Pending       int       `json:"pending"`
	PendingAlerts int       `json:"pendingAlerts"`
	Clients       int       `json:"clients"`
	Providers     []string  `json:"providers"`
	AlertChannels []string  `json:"alertChannels"`

	Tasks []cron.TaskInfo `json:"tasks,omitempty"`
}

// ClientInfo describes a connected WebSocket client
type ClientInfo struct {
	ID           string    `json:"id"`
	ConnectedAt  time.Time `json:"connectedAt"`
	LastActivity time.Time `json:"lastActivity"`
	IPAddress    string    `json:"ipAddress"`
	Idle         bool      `json:"idle"`
}

// Client is a connected WebSocket client. Writes are serialized because a
// gorilla connection supports one concurrent writer.
type Client struct {
	ID           string
	Conn         *websocket.Conn
	ConnectedAt  time.Time
	LastActivity time.Time
	IPAddress    string

	writeMu sync.Mutex
}

// WriteMessage writes one frame with a deadline
func (c *Client) WriteMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}

// Close closes the connection
func (c *Client) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.Close()
}
