// Package alert fires the one-shot study alert across sound, desktop
// notification and the persistent in-app board.
package alert

import (
	"errors"
	"fmt"

	"github.com/harun/thakir/pkg/reminder"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Title is the headline shown by every visual channel
const Title = "Time to study!"

var (
	// ErrPermissionDenied means the host has not allowed the channel
	ErrPermissionDenied = errors.New("alert channel not permitted")
	// ErrAlertNotFound is returned when acknowledging an unknown alert
	ErrAlertNotFound = errors.New("alert not found")
)

// Alert is one firing of a session
type Alert struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Topic     string `json:"topic"`
	Notes     string `json:"notes,omitempty"`
	FiredAt   int64  `json:"firedAt"`
}

// NewAlert builds the alert for session fired at now (epoch ms)
func NewAlert(session reminder.StudySession, now int64) Alert {
	id, err := gonanoid.New()
	if err != nil {
		id = fmt.Sprintf("%s-%d", session.ID, now)
	}

	return Alert{
		ID:        id,
		SessionID: session.ID,
		Topic:     session.Topic,
		Notes:     session.Notes,
		FiredAt:   now,
	}
}

// Body renders the notification text
func (a Alert) Body() string {
	body := "Lesson: " + a.Topic
	if a.Notes != "" {
		body += "\n" + a.Notes
	}
	return body
}
