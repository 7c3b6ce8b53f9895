// Package daemon wires the reminder subsystem into a long-running process:
// session store, alert channels, controller, summarizer, gateway and the
// periodic scan and refresh timers.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/harun/thakir/internal/config"
	"github.com/harun/thakir/internal/logger"
	"github.com/harun/thakir/internal/metrics"
	"github.com/harun/thakir/internal/observability"
	"github.com/harun/thakir/internal/tracing"
	"github.com/harun/thakir/pkg/alert"
	"github.com/harun/thakir/pkg/cron"
	"github.com/harun/thakir/pkg/gateway"
	"github.com/harun/thakir/pkg/reminder"
	"github.com/harun/thakir/pkg/store"
	"github.com/harun/thakir/pkg/summarizer"
	"github.com/rs/zerolog"
)

// Task names registered with the runner
const (
	TaskDueScan        = "due-scan"
	TaskDisplayRefresh = "display-refresh"
)

// AuditFileName is the audit trail written into the data directory
const AuditFileName = "audit.log"

const shutdownTimeout = 10 * time.Second

// Daemon represents the Thakir daemon service
type Daemon struct {
	config *config.Config
	logger *logger.Logger
	log    zerolog.Logger

	store      store.SessionStore
	board      *alert.InAppChannel
	dispatcher *alert.Dispatcher
	controller *reminder.Controller
	summarizer *summarizer.Service
	gateway    *gateway.Server
	runner     *cron.Runner
	lifecycle  *LifecycleManager
	notifier   Notifier

	ctx    context.Context
	cancel context.CancelFunc

	startTime time.Time
	running   bool
	stopped   bool
	mu        sync.RWMutex

	tracingEnabled bool
}

// Status describes the daemon state
type Status struct {
	Running   bool
	Uptime    time.Duration
	StartTime time.Time
	Addr      string
	Sessions  int
}

// New creates a new daemon instance. The stored sessions are loaded here, so
// sessions that fell due while the process was down fire on the first scan.
func New(cfg *config.Config, log *logger.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		config:   cfg,
		logger:   log,
		log:      log.Zerolog().With().Str("component", "daemon").Logger(),
		notifier: systemdNotifier{},
		ctx:      ctx,
		cancel:   cancel,
	}

	if err := tracing.InitOpenTelemetry(cfg.Tracing.ServiceName, cfg.Tracing.Enabled); err != nil {
		d.log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without spans")
	} else {
		d.tracingEnabled = true
	}

	if err := d.initialize(); err != nil {
		cancel()
		if d.store != nil {
			_ = d.store.Close()
		}
		return nil, err
	}

	d.lifecycle = NewLifecycleManager(d)

	return d, nil
}

func (d *Daemon) initialize() error {
	if err := os.MkdirAll(d.config.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	auditPath := filepath.Join(d.config.DataDir, AuditFileName)
	if err := observability.InitAuditLogger(auditPath); err != nil {
		d.log.Warn().Err(err).Str("path", auditPath).Msg("Failed to open audit log, continuing without it")
	}

	st, err := store.Open(d.config.Storage)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	d.store = st
	d.log.Info().Str("backend", st.Backend()).Msg("Session store opened")

	d.board = alert.NewInAppChannel()
	d.dispatcher = alert.NewDispatcher(reminder.RealClock{}, d.alertChannels()...)
	d.dispatcher.SetTimeout(d.config.AlertChannelTimeout())

	controller, err := reminder.NewController(d.ctx, reminder.ControllerOptions{
		Store:    d.store,
		Alerter:  d.dispatcher,
		OnChange: d.publishSessions,
	})
	if err != nil {
		return fmt.Errorf("failed to create controller: %w", err)
	}
	d.controller = controller

	svc, err := summarizer.NewService(d.config.AI)
	if err != nil {
		return fmt.Errorf("failed to create summarizer: %w", err)
	}
	d.summarizer = svc
	if !svc.Available() {
		d.log.Warn().Msg("No AI profile configured, lesson summaries are disabled")
	}

	d.runner = cron.NewRunner()

	server, err := gateway.NewServer(gateway.Config{
		Host:          d.config.Gateway.Host,
		Port:          d.config.Gateway.Port,
		Sessions:      d.controller,
		Alerts:        d.board,
		Summarizer:    d.summarizer,
		Scheduler:     d.runner,
		Metrics:       metrics.Default().Handler(),
		Logger:        d.logger.Zerolog().With().Str("component", "gateway").Logger(),
		AlertChannels: d.dispatcher.Channels(),
	})
	if err != nil {
		return fmt.Errorf("failed to create gateway server: %w", err)
	}
	d.gateway = server
	d.board.SetBroadcaster(server)

	if err := d.runner.Add(cron.Task{
		Name:     TaskDueScan,
		Schedule: d.config.ScanInterval().String(),
		Run:      d.scan,
	}); err != nil {
		return fmt.Errorf("failed to register due scan: %w", err)
	}
	if err := d.runner.Add(cron.Task{
		Name:     TaskDisplayRefresh,
		Schedule: d.config.RefreshInterval().String(),
		Run:      d.refresh,
	}); err != nil {
		return fmt.Errorf("failed to register display refresh: %w", err)
	}

	return nil
}

// alertChannels returns the channels in delivery order. The in-app board is
// always last and always present.
func (d *Daemon) alertChannels() []alert.Channel {
	var channels []alert.Channel
	if d.config.Alerts.Sound.Enabled {
		channels = append(channels, alert.NewSoundChannel(d.config.Alerts.Sound))
	}
	channels = append(channels, alert.NewSystemChannel(d.config.Alerts.System))
	channels = append(channels, d.board)
	return channels
}

// scan runs one due scan
func (d *Daemon) scan(ctx context.Context) {
	fired := d.controller.Tick(ctx)
	if len(fired) > 0 {
		d.log.Debug().Int("fired", len(fired)).Msg("Due scan fired sessions")
	}
}

// refresh pushes the recomputed countdowns. It never touches the collection.
func (d *Daemon) refresh(ctx context.Context) {
	if len(d.gateway.GetConnectedClients()) == 0 {
		return
	}
	d.gateway.Broadcast(gateway.EventSessionsTick, d.controller.Sessions())
}

func (d *Daemon) publishSessions(sessions []reminder.StudySession) {
	if d.gateway == nil || d.controller == nil {
		return
	}
	d.gateway.Broadcast(gateway.EventSessionsChanged, d.controller.Sessions())
}

// Start starts the daemon
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	if d.stopped {
		d.mu.Unlock()
		return fmt.Errorf("daemon has been stopped")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	traceID := tracing.NewTraceID()
	logger := d.log.With().Str("trace_id", traceID).Logger()
	logger.Info().Msg("Starting Thakir daemon")

	if err := d.lifecycle.Start(); err != nil {
		d.setRunning(false)
		return fmt.Errorf("failed to start lifecycle manager: %w", err)
	}

	if err := d.gateway.Start(); err != nil {
		_ = d.lifecycle.Stop()
		d.setRunning(false)
		return fmt.Errorf("failed to start gateway server: %w", err)
	}
	logger.Info().Str("addr", d.gateway.Addr()).Msg("Gateway server started")

	d.runner.Start()
	logger.Info().
		Dur("scan_interval", d.config.ScanInterval()).
		Dur("refresh_interval", d.config.RefreshInterval()).
		Msg("Scheduler started")

	if err := d.notifier.Ready(); err != nil {
		logger.Warn().Err(err).Msg("Failed to notify service manager")
	}

	logger.Info().Msg("Daemon started successfully")

	return nil
}

func (d *Daemon) setRunning(running bool) {
	d.mu.Lock()
	d.running = running
	d.mu.Unlock()
}

// Stop stops the timers, drains the gateway and closes the store. An in-flight
// save completes before the store is closed.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not running")
	}
	d.running = false
	d.stopped = true
	d.mu.Unlock()

	logger := d.log
	logger.Info().Msg("Stopping Thakir daemon")

	if err := d.notifier.Stopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to notify service manager")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := d.runner.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to stop scheduler")
		record(err)
	}

	if err := d.gateway.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to stop gateway server")
		record(err)
	}

	d.cancel()

	if err := d.store.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close session store")
		record(err)
	}

	if err := observability.CloseAuditLogger(); err != nil {
		logger.Error().Err(err).Msg("Failed to close audit log")
	}

	if err := d.lifecycle.Stop(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop lifecycle manager")
		record(err)
	}

	if d.tracingEnabled {
		if err := tracing.ShutdownOpenTelemetry(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to shutdown tracing")
		}
		d.tracingEnabled = false
	}

	logger.Info().Msg("Daemon stopped successfully")

	return firstErr
}

// Status returns the daemon status
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status := Status{
		Running:  d.running,
		Addr:     d.gateway.Addr(),
		Sessions: len(d.controller.Snapshot()),
	}

	if d.running {
		status.Uptime = time.Since(d.startTime)
		status.StartTime = d.startTime
	}

	return status
}

// Wait blocks until SIGINT or SIGTERM, then stops the daemon
func (d *Daemon) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	d.log.Info().Str("signal", sig.String()).Msg("Received signal")

	if err := d.Stop(); err != nil {
		d.log.Error().Err(err).Msg("Failed to stop daemon")
	}
}

// ApplyConfig hot-applies the settings that can change without a restart.
// Everything else is logged and takes effect on the next start.
func (d *Daemon) ApplyConfig(cfg *config.Config) {
	if cfg.Logging.Level != d.config.Logging.Level {
		d.logger.SetLevel(cfg.Logging.Level)
		d.log.Info().Str("level", cfg.Logging.Level).Msg("Log level changed")
	}

	if cfg.Gateway != d.config.Gateway ||
		cfg.Storage != d.config.Storage ||
		cfg.Scheduler != d.config.Scheduler ||
		cfg.Alerts != d.config.Alerts {
		d.log.Warn().Msg("Config change requires a restart to take effect")
	}

	d.mu.Lock()
	d.config.Logging.Level = cfg.Logging.Level
	d.mu.Unlock()
}

// GetConfig returns the daemon configuration
func (d *Daemon) GetConfig() *config.Config {
	return d.config
}
