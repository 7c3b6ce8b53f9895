package reminder

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DurationUnit is the unit a session delay is expressed in
type DurationUnit string

const (
	UnitMinutes DurationUnit = "minutes"
	UnitHours   DurationUnit = "hours"
	UnitDays    DurationUnit = "days"
	UnitMonths  DurationUnit = "months"
)

const (
	minuteMs int64 = 60 * 1000
	hourMs         = 60 * minuteMs
	dayMs          = 24 * hourMs
	monthMs        = 30 * dayMs
)

// Form defaults used when the caller leaves the duration empty.
const (
	DefaultDurationValue = 30
	DefaultDurationUnit  = UnitMinutes
)

// ErrInvalidSession is returned when session parameters fail validation
var ErrInvalidSession = errors.New("invalid session")

// Milliseconds returns the size of one unit in milliseconds, or 0 for an unknown unit.
func (u DurationUnit) Milliseconds() int64 {
	switch u {
	case UnitMinutes:
		return minuteMs
	case UnitHours:
		return hourMs
	case UnitDays:
		return dayMs
	case UnitMonths:
		return monthMs
	default:
		return 0
	}
}

// Valid reports whether u is a known unit
func (u DurationUnit) Valid() bool {
	return u.Milliseconds() > 0
}

// ParseDurationUnit accepts the canonical unit names plus singular and short forms.
func ParseDurationUnit(s string) (DurationUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minutes", "minute", "min", "m":
		return UnitMinutes, nil
	case "hours", "hour", "h":
		return UnitHours, nil
	case "days", "day", "d":
		return UnitDays, nil
	case "months", "month", "mo":
		return UnitMonths, nil
	}
	return "", fmt.Errorf("%w: unknown duration unit %q", ErrInvalidSession, s)
}

// StudySession is a single scheduled reminder. It is the only persisted entity.
type StudySession struct {
	ID            string       `json:"id"`
	Topic         string       `json:"topic"`
	Notes         string       `json:"notes"`
	DurationValue int64        `json:"durationValue"`
	DurationUnit  DurationUnit `json:"durationUnit"`
	CreatedAt     int64        `json:"createdAt"`    // epoch ms
	ScheduledFor  int64        `json:"scheduledFor"` // epoch ms, fixed at creation
	Notified      bool         `json:"notified"`
}

// IsDue reports whether the session should alert at now (epoch ms)
func (s StudySession) IsDue(now int64) bool {
	return !s.Notified && s.ScheduledFor <= now
}

// Remaining returns the time left until the session is due; negative once overdue.
func (s StudySession) Remaining(now int64) time.Duration {
	return time.Duration(s.ScheduledFor-now) * time.Millisecond
}

// SessionParams is the scheduling form payload
type SessionParams struct {
	Topic         string       `json:"topic"`
	Notes         string       `json:"notes"`
	DurationValue int64        `json:"durationValue"`
	DurationUnit  DurationUnit `json:"durationUnit"`
}

// WithDefaults fills in the form defaults for an empty duration
func (p SessionParams) WithDefaults() SessionParams {
	if p.DurationValue == 0 {
		p.DurationValue = DefaultDurationValue
	}
	if p.DurationUnit == "" {
		p.DurationUnit = DefaultDurationUnit
	}
	return p
}

// Validate checks the params can produce a well-formed session
func (p SessionParams) Validate() error {
	if strings.TrimSpace(p.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidSession)
	}
	if p.DurationValue <= 0 {
		return fmt.Errorf("%w: duration value must be positive, got %d", ErrInvalidSession, p.DurationValue)
	}
	unitMs := p.DurationUnit.Milliseconds()
	if unitMs == 0 {
		return fmt.Errorf("%w: unknown duration unit %q", ErrInvalidSession, p.DurationUnit)
	}
	if p.DurationValue > math.MaxInt64/unitMs {
		return fmt.Errorf("%w: duration %d %s is too large", ErrInvalidSession, p.DurationValue, p.DurationUnit)
	}
	return nil
}

// Offset returns the delay in milliseconds. Params must be valid.
func (p SessionParams) Offset() int64 {
	return p.DurationValue * p.DurationUnit.Milliseconds()
}

// NewSession builds a session created at now (epoch ms). scheduledFor is computed
// once here and never recomputed.
func NewSession(p SessionParams, now int64) (StudySession, error) {
	if err := p.Validate(); err != nil {
		return StudySession{}, err
	}
	offset := p.Offset()
	if now > math.MaxInt64-offset {
		return StudySession{}, fmt.Errorf("%w: scheduled time overflows", ErrInvalidSession)
	}

	return StudySession{
		ID:            uuid.New().String(),
		Topic:         strings.TrimSpace(p.Topic),
		Notes:         strings.TrimSpace(p.Notes),
		DurationValue: p.DurationValue,
		DurationUnit:  p.DurationUnit,
		CreatedAt:     now,
		ScheduledFor:  now + offset,
		Notified:      false,
	}, nil
}

// SessionView is a session decorated for display. Never persisted.
type SessionView struct {
	StudySession
	Due           bool   `json:"due"`
	Remaining     string `json:"remaining"`
	RemainingSecs int64  `json:"remainingSeconds"`
}

// NewSessionView derives the display fields for s at now
func NewSessionView(s StudySession, now int64) SessionView {
	d := s.Remaining(now)
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return SessionView{
		StudySession:  s,
		Due:           now >= s.ScheduledFor,
		Remaining:     FormatRemaining(d),
		RemainingSecs: secs,
	}
}

// FormatRemaining renders a countdown label
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "time's up"
	}

	days := int64(d / (24 * time.Hour))
	hours := int64(d/time.Hour) % 24
	minutes := int64(d/time.Minute) % 60
	seconds := int64(d/time.Second) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%d:%02d", minutes, seconds)
	}
}
