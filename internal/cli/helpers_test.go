package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harun/thakir/pkg/alert"
	"github.com/harun/thakir/pkg/gateway"
	"github.com/harun/thakir/pkg/reminder"
	"github.com/harun/thakir/pkg/summarizer"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu       sync.Mutex
	sessions []reminder.StudySession
}

func (s *memoryStore) Load(ctx context.Context) []reminder.StudySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reminder.StudySession(nil), s.sessions...)
}

func (s *memoryStore) Save(ctx context.Context, sessions []reminder.StudySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]reminder.StudySession(nil), sessions...)
	return nil
}

type stubSummarizer struct{}

func (stubSummarizer) Available() bool     { return true }
func (stubSummarizer) Providers() []string { return []string{"gemini"} }

func (stubSummarizer) GenerateSummary(ctx context.Context, req summarizer.Request) (*summarizer.LessonSummary, error) {
	return &summarizer.LessonSummary{
		Title:        req.Topic + " Basics",
		Introduction: "How plants turn light into sugar.",
		KeyConcepts:  []summarizer.KeyConcept{{Concept: "Chlorophyll", Explanation: "Absorbs light"}},
		Terminology:  []summarizer.Term{{Term: "Stomata", Definition: "Leaf pores"}},
		StudyTips:    []string{"Draw the cycle"},
	}, nil
}

type testDaemon struct {
	url        string
	controller *reminder.Controller
	board      *alert.InAppChannel
	clock      *reminder.ManualClock
}

// startTestDaemon serves the gateway API over an in-memory controller
func startTestDaemon(t *testing.T, withSummarizer bool) *testDaemon {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := reminder.NewManualClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).UnixMilli())
	board := alert.NewInAppChannel()

	controller, err := reminder.NewController(context.Background(), reminder.ControllerOptions{
		Store:   &memoryStore{},
		Alerter: alert.NewDispatcher(clock, board),
		Clock:   clock,
	})
	require.NoError(t, err)

	cfg := gateway.Config{
		Host:          "127.0.0.1",
		Sessions:      controller,
		Alerts:        board,
		Metrics:       http.NotFoundHandler(),
		Logger:        zerolog.Nop(),
		AlertChannels: []string{"in_app"},
	}
	if withSummarizer {
		cfg.Summarizer = stubSummarizer{}
	}

	server, err := gateway.NewServer(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return &testDaemon{
		url:        ts.URL,
		controller: controller,
		board:      board,
		clock:      clock,
	}
}

// executeCommand runs the root command with args under an isolated HOME
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	resetFlags()

	cmd := GetRootCmd()
	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(output)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return output.String(), err
}

// resetFlags restores every flag to its default. Cobra keeps parsed values
// and the Changed mark between Execute calls on the same command tree.
func resetFlags() {
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		restore := func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
		c.Flags().VisitAll(restore)
		c.PersistentFlags().VisitAll(restore)
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(GetRootCmd())
}
