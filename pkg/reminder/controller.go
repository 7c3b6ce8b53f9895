package reminder

import (
	"context"
	"fmt"
	"sync"

	"github.com/harun/thakir/internal/metrics"
	"github.com/harun/thakir/internal/observability"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store persists the whole session collection under a single key
type Store interface {
	// Load returns the stored sessions. Missing or unreadable state yields an empty slice.
	Load(ctx context.Context) []StudySession
	// Save overwrites the stored collection with sessions
	Save(ctx context.Context, sessions []StudySession) error
}

// Alerter fires the alert for a due session. It must be safe to call twice for
// the same session and must not return until every channel has been attempted.
type Alerter interface {
	Fire(ctx context.Context, session StudySession)
}

// ControllerOptions configures a Controller
type ControllerOptions struct {
	Store   Store
	Alerter Alerter
	Clock   Clock

	// OnChange receives every new snapshot after it has been saved
	OnChange func(sessions []StudySession)
}

// Controller owns the session collection and serializes every mutation and
// its store write, so snapshots reach the store in the order they were made.
type Controller struct {
	mu      sync.Mutex
	repo    *Repository
	scanner *Scanner
	store   Store
	alerter Alerter
	clock   Clock
	options ControllerOptions
	logger  zerolog.Logger
}

// NewController loads the stored sessions and returns a ready controller
func NewController(ctx context.Context, opts ControllerOptions) (*Controller, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Alerter == nil {
		return nil, fmt.Errorf("alerter is required")
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}

	repo := NewRepository(opts.Store.Load(ctx))

	c := &Controller{
		repo:    repo,
		scanner: NewScanner(repo),
		store:   opts.Store,
		alerter: opts.Alerter,
		clock:   opts.Clock,
		options: opts,
		logger:  log.With().Str("component", "reminder").Logger(),
	}

	metrics.SetSessions(repo.Len())
	c.logger.Info().Int("sessions", repo.Len()).Msg("Sessions loaded")

	return c, nil
}

// AddSession validates params, schedules a new session and persists the collection
func (c *Controller) AddSession(ctx context.Context, params SessionParams) (StudySession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := NewSession(params, c.clock.Now())
	if err != nil {
		return StudySession{}, err
	}

	snapshot := c.repo.Add(session)
	c.commit(ctx, snapshot)

	c.logger.Info().
		Str("sessionId", session.ID).
		Str("topic", session.Topic).
		Int64("scheduledFor", session.ScheduledFor).
		Msg("Session scheduled")

	observability.RecordSessionAudit(ctx, "session_added", session.ID, map[string]interface{}{
		"topic":        session.Topic,
		"scheduledFor": session.ScheduledFor,
	})

	return session, nil
}

// DeleteSession removes a session. It reports whether the id existed; an
// unknown id leaves the collection unchanged.
func (c *Controller) DeleteSession(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, existed := c.repo.Get(id); !existed {
		return false
	}

	snapshot := c.repo.Remove(id)
	c.commit(ctx, snapshot)

	c.logger.Info().Str("sessionId", id).Msg("Session deleted")
	observability.RecordSessionAudit(ctx, "session_deleted", id, nil)

	return true
}

// Sessions returns the display snapshot at the controller's current time
func (c *Controller) Sessions() []SessionView {
	now := c.clock.Now()
	sorted := c.repo.Sorted()

	views := make([]SessionView, len(sorted))
	for i, s := range sorted {
		views[i] = NewSessionView(s, now)
	}
	return views
}

// Get returns a single session by id
func (c *Controller) Get(id string) (StudySession, bool) {
	return c.repo.Get(id)
}

// Snapshot returns the raw collection in storage order
func (c *Controller) Snapshot() []StudySession {
	return c.repo.All()
}

// Tick runs one scan. Every due session is alerted and then marked notified,
// earliest first, and the collection is saved once. When nothing is due the
// collection and the store are left untouched.
func (c *Controller) Tick(ctx context.Context) []StudySession {
	c.mu.Lock()
	defer c.mu.Unlock()

	due := c.scanner.Scan(c.clock.Now())
	metrics.RecordScan(len(due))
	if len(due) == 0 {
		return nil
	}

	var snapshot []StudySession
	for _, s := range due {
		c.alerter.Fire(ctx, s)
		snapshot = c.repo.MarkNotified(s.ID)

		c.logger.Info().
			Str("sessionId", s.ID).
			Str("topic", s.Topic).
			Msg("Session alerted")
		observability.RecordSessionAudit(ctx, "session_notified", s.ID, nil)
	}

	c.commit(ctx, snapshot)

	return due
}

// commit persists snapshot and publishes it. Save failures are logged and
// otherwise ignored; the in-memory collection stays authoritative. The save
// ignores cancellation of ctx so a mutation already applied in memory still
// reaches the store during shutdown.
func (c *Controller) commit(ctx context.Context, snapshot []StudySession) {
	if err := c.store.Save(context.WithoutCancel(ctx), snapshot); err != nil {
		c.logger.Error().Err(err).Int("sessions", len(snapshot)).Msg("Failed to save sessions")
	}

	metrics.SetSessions(len(snapshot))

	if c.options.OnChange != nil {
		c.options.OnChange(snapshot)
	}
}
