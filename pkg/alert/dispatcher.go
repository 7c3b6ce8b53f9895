package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harun/thakir/internal/metrics"
	"github.com/harun/thakir/internal/observability"
	"github.com/harun/thakir/internal/tracing"
	"github.com/harun/thakir/pkg/reminder"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultChannelTimeout bounds each channel delivery
const DefaultChannelTimeout = 5 * time.Second

// Channel delivers an alert through one host mechanism
type Channel interface {
	Name() string
	Deliver(ctx context.Context, a Alert) error
}

// Dispatcher fans an alert out to every channel. A failing, slow or panicking
// channel never stops the others.
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
	clock    reminder.Clock
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher over channels, attempted in order
func NewDispatcher(clock reminder.Clock, channels ...Channel) *Dispatcher {
	if clock == nil {
		clock = reminder.RealClock{}
	}
	return &Dispatcher{
		channels: channels,
		timeout:  DefaultChannelTimeout,
		clock:    clock,
		logger:   log.With().Str("component", "alert").Logger(),
	}
}

// SetTimeout changes the per-channel delivery timeout
func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.timeout = timeout
	}
}

// Channels returns the configured channel names
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.channels))
	for i, ch := range d.channels {
		names[i] = ch.Name()
	}
	return names
}

// Fire alerts for session on every channel and returns once all have been
// attempted. Firing twice for the same session is harmless. Deliveries are
// bounded by the channel timeout only, so an alert fired while the daemon
// shuts down still goes out.
func (d *Dispatcher) Fire(ctx context.Context, session reminder.StudySession) {
	a := NewAlert(session, d.clock.Now())
	ctx = tracing.WithSessionID(context.WithoutCancel(ctx), session.ID)
	logger := tracing.LoggerFromContext(ctx, d.logger)

	for _, ch := range d.channels {
		err := d.deliver(ctx, ch, a)
		status := "success"
		switch {
		case err == nil:
			logger.Debug().Str("channel", ch.Name()).Msg("Alert delivered")
		case errors.Is(err, ErrPermissionDenied):
			status = "skipped"
			logger.Debug().Str("channel", ch.Name()).Msg("Alert channel not permitted, skipping")
		default:
			status = "error"
			logger.Warn().Err(err).Str("channel", ch.Name()).Msg("Alert channel failed")
		}
		metrics.RecordAlertDelivery(ch.Name(), status)
		observability.RecordAlertAudit(ctx, session.ID, ch.Name(), status)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, a Alert) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel %s panicked: %v", ch.Name(), r)
		}
	}()

	return ch.Deliver(ctx, a)
}
