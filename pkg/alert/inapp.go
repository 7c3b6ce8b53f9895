package alert

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Event names published by the in-app channel
const (
	EventAlertFired     = "alert.fired"
	EventAlertDismissed = "alert.dismissed"
)

// Broadcaster pushes events to connected UI clients
type Broadcaster interface {
	Broadcast(event string, data interface{})
}

// InAppChannel keeps a board of alerts that stay pending until the user
// acknowledges them. There is no expiry.
type InAppChannel struct {
	mu          sync.RWMutex
	pending     map[string]Alert
	bySession   map[string]string
	broadcaster Broadcaster
}

// NewInAppChannel creates an empty alert board
func NewInAppChannel() *InAppChannel {
	return &InAppChannel{
		pending:   make(map[string]Alert),
		bySession: make(map[string]string),
	}
}

// SetBroadcaster attaches the UI event sink
func (c *InAppChannel) SetBroadcaster(b Broadcaster) {
	c.mu.Lock()
	c.broadcaster = b
	c.mu.Unlock()
}

// Name returns the channel name
func (c *InAppChannel) Name() string {
	return "in_app"
}

// Deliver pins the alert to the board. A session that already has a pending
// alert keeps its existing one.
func (c *InAppChannel) Deliver(ctx context.Context, a Alert) error {
	c.mu.Lock()
	if _, exists := c.bySession[a.SessionID]; exists {
		c.mu.Unlock()
		return nil
	}
	c.pending[a.ID] = a
	c.bySession[a.SessionID] = a.ID
	b := c.broadcaster
	c.mu.Unlock()

	log.Info().Str("alertId", a.ID).Str("sessionId", a.SessionID).Str("topic", a.Topic).Msg("Alert pinned")

	if b != nil {
		b.Broadcast(EventAlertFired, a)
	}
	return nil
}

// Pending returns the unacknowledged alerts, oldest first
func (c *InAppChannel) Pending() []Alert {
	c.mu.RLock()
	out := make([]Alert, 0, len(c.pending))
	for _, a := range c.pending {
		out = append(out, a)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].FiredAt != out[j].FiredAt {
			return out[i].FiredAt < out[j].FiredAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Ack dismisses an alert
func (c *InAppChannel) Ack(id string) error {
	c.mu.Lock()
	a, ok := c.pending[id]
	if !ok {
		c.mu.Unlock()
		return ErrAlertNotFound
	}
	delete(c.pending, id)
	delete(c.bySession, a.SessionID)
	b := c.broadcaster
	c.mu.Unlock()

	log.Info().Str("alertId", id).Msg("Alert acknowledged")

	if b != nil {
		b.Broadcast(EventAlertDismissed, map[string]string{"id": id, "sessionId": a.SessionID})
	}
	return nil
}
