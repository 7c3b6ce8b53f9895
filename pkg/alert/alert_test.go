package alert

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harun/thakir/internal/config"
	"github.com/harun/thakir/pkg/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers

type recordingChannel struct {
	name      string
	err       error
	panicWith interface{}
	block     bool

	mu        sync.Mutex
	delivered []Alert
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Deliver(ctx context.Context, a Alert) error {
	if c.panicWith != nil {
		panic(c.panicWith)
	}
	if c.block {
		<-ctx.Done()
		return ctx.Err()
	}
	c.mu.Lock()
	c.delivered = append(c.delivered, a)
	c.mu.Unlock()
	return c.err
}

func (c *recordingChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.delivered)
}

type channelFunc struct {
	name string
	fn   func(ctx context.Context, a Alert) error
}

func (c channelFunc) Name() string { return c.name }

func (c channelFunc) Deliver(ctx context.Context, a Alert) error { return c.fn(ctx, a) }

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
	data   []interface{}
}

func (b *recordingBroadcaster) Broadcast(event string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	b.data = append(b.data, data)
}

func testSession() reminder.StudySession {
	return reminder.StudySession{
		ID:           "session-1",
		Topic:        "Algebra",
		Notes:        "chapter 2",
		ScheduledFor: 1_700_000_000_000,
	}
}

// Tests

func TestAlertBody(t *testing.T) {
	a := NewAlert(testSession(), 1)
	assert.Equal(t, "Lesson: Algebra\nchapter 2", a.Body())

	s := testSession()
	s.Notes = ""
	assert.Equal(t, "Lesson: Algebra", NewAlert(s, 1).Body())
}

func TestNewAlert(t *testing.T) {
	a := NewAlert(testSession(), 42)
	b := NewAlert(testSession(), 42)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "session-1", a.SessionID)
	assert.Equal(t, int64(42), a.FiredAt)
}

func TestDispatcherFire(t *testing.T) {
	t.Run("delivers to every channel in order", func(t *testing.T) {
		first := &recordingChannel{name: "first"}
		second := &recordingChannel{name: "second"}

		d := NewDispatcher(reminder.NewManualClock(7), first, second)
		d.Fire(context.Background(), testSession())

		assert.Equal(t, 1, first.count())
		assert.Equal(t, 1, second.count())
		assert.Equal(t, int64(7), first.delivered[0].FiredAt)
		assert.Equal(t, []string{"first", "second"}, d.Channels())
	})

	t.Run("failing channel does not block others", func(t *testing.T) {
		failing := &recordingChannel{name: "sound", err: errors.New("no audio device")}
		denied := &recordingChannel{name: "system", err: ErrPermissionDenied}
		inApp := &recordingChannel{name: "in_app"}

		d := NewDispatcher(nil, failing, denied, inApp)
		d.Fire(context.Background(), testSession())

		assert.Equal(t, 1, inApp.count())
	})

	t.Run("panicking channel is recovered", func(t *testing.T) {
		panicking := &recordingChannel{name: "sound", panicWith: "boom"}
		inApp := &recordingChannel{name: "in_app"}

		d := NewDispatcher(nil, panicking, inApp)
		assert.NotPanics(t, func() {
			d.Fire(context.Background(), testSession())
		})
		assert.Equal(t, 1, inApp.count())
	})

	t.Run("slow channel times out", func(t *testing.T) {
		slow := &recordingChannel{name: "system", block: true}
		inApp := &recordingChannel{name: "in_app"}

		d := NewDispatcher(nil, slow, inApp)
		d.SetTimeout(50 * time.Millisecond)

		start := time.Now()
		d.Fire(context.Background(), testSession())

		assert.Less(t, time.Since(start), 2*time.Second)
		assert.Equal(t, 1, inApp.count())
	})

	t.Run("cancelled scan context still delivers", func(t *testing.T) {
		var deliveryErr error
		checking := channelFunc{name: "system", fn: func(ctx context.Context, a Alert) error {
			deliveryErr = ctx.Err()
			return deliveryErr
		}}
		inApp := &recordingChannel{name: "in_app"}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		d := NewDispatcher(nil, checking, inApp)
		d.Fire(ctx, testSession())

		assert.NoError(t, deliveryErr)
		assert.Equal(t, 1, inApp.count())
	})

	t.Run("firing twice is safe", func(t *testing.T) {
		board := NewInAppChannel()
		d := NewDispatcher(nil, board)

		d.Fire(context.Background(), testSession())
		d.Fire(context.Background(), testSession())

		assert.Len(t, board.Pending(), 1)
	})
}

func TestInAppChannel(t *testing.T) {
	t.Run("pins and broadcasts", func(t *testing.T) {
		board := NewInAppChannel()
		b := &recordingBroadcaster{}
		board.SetBroadcaster(b)

		a := NewAlert(testSession(), 100)
		require.NoError(t, board.Deliver(context.Background(), a))

		pending := board.Pending()
		require.Len(t, pending, 1)
		assert.Equal(t, a.ID, pending[0].ID)
		assert.Equal(t, []string{EventAlertFired}, b.events)
	})

	t.Run("stays pending until acknowledged", func(t *testing.T) {
		board := NewInAppChannel()
		a := NewAlert(testSession(), 100)
		require.NoError(t, board.Deliver(context.Background(), a))

		time.Sleep(10 * time.Millisecond)
		assert.Len(t, board.Pending(), 1)

		require.NoError(t, board.Ack(a.ID))
		assert.Empty(t, board.Pending())
	})

	t.Run("ack unknown id", func(t *testing.T) {
		board := NewInAppChannel()
		assert.ErrorIs(t, board.Ack("nope"), ErrAlertNotFound)
	})

	t.Run("ack broadcasts dismissal", func(t *testing.T) {
		board := NewInAppChannel()
		b := &recordingBroadcaster{}
		board.SetBroadcaster(b)

		a := NewAlert(testSession(), 100)
		require.NoError(t, board.Deliver(context.Background(), a))
		require.NoError(t, board.Ack(a.ID))

		assert.Equal(t, []string{EventAlertFired, EventAlertDismissed}, b.events)
	})

	t.Run("session can alert again after acknowledgement", func(t *testing.T) {
		board := NewInAppChannel()
		first := NewAlert(testSession(), 100)
		require.NoError(t, board.Deliver(context.Background(), first))
		require.NoError(t, board.Ack(first.ID))

		second := NewAlert(testSession(), 200)
		require.NoError(t, board.Deliver(context.Background(), second))
		assert.Len(t, board.Pending(), 1)
	})

	t.Run("pending is ordered by fire time", func(t *testing.T) {
		board := NewInAppChannel()
		for i, topic := range []string{"c", "a", "b"} {
			s := testSession()
			s.ID = topic
			require.NoError(t, board.Deliver(context.Background(), NewAlert(s, int64(300-i*100))))
		}

		pending := board.Pending()
		require.Len(t, pending, 3)
		assert.Equal(t, "b", pending[0].SessionID)
		assert.Equal(t, "a", pending[1].SessionID)
		assert.Equal(t, "c", pending[2].SessionID)
	})
}

func TestSystemChannel(t *testing.T) {
	newChannel := func(enabled bool, found bool) (*SystemChannel, *[][]string) {
		var calls [][]string
		ch := NewSystemChannel(config.SystemConfig{Enabled: enabled, Command: "notify-send"})
		ch.lookPath = func(string) (string, error) {
			if !found {
				return "", errors.New("not found")
			}
			return "/usr/bin/notify-send", nil
		}
		ch.run = func(ctx context.Context, name string, args ...string) error {
			calls = append(calls, append([]string{name}, args...))
			return nil
		}
		return ch, &calls
	}

	t.Run("denied when disabled", func(t *testing.T) {
		ch, calls := newChannel(false, true)
		err := ch.Deliver(context.Background(), NewAlert(testSession(), 1))
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.Empty(t, *calls)
	})

	t.Run("denied when notifier missing", func(t *testing.T) {
		ch, calls := newChannel(true, false)
		assert.False(t, ch.Permitted())
		assert.ErrorIs(t, ch.Deliver(context.Background(), NewAlert(testSession(), 1)), ErrPermissionDenied)
		assert.Empty(t, *calls)
	})

	t.Run("runs notifier with title and body", func(t *testing.T) {
		ch, calls := newChannel(true, true)
		require.NoError(t, ch.Deliver(context.Background(), NewAlert(testSession(), 1)))

		require.Len(t, *calls, 1)
		call := (*calls)[0]
		assert.Equal(t, "notify-send", call[0])
		assert.Contains(t, call, Title)
		assert.Contains(t, call, "Lesson: Algebra\nchapter 2")
	})

	t.Run("osascript arguments", func(t *testing.T) {
		args := notifierArgs("osascript", NewAlert(testSession(), 1))
		require.Len(t, args, 2)
		assert.Equal(t, "-e", args[0])
		assert.True(t, strings.HasPrefix(args[1], "display notification"))
		assert.Contains(t, args[1], Title)
	})

	t.Run("notifier failure is returned", func(t *testing.T) {
		ch, _ := newChannel(true, true)
		ch.run = func(ctx context.Context, name string, args ...string) error {
			return errors.New("dbus unavailable")
		}
		assert.Error(t, ch.Deliver(context.Background(), NewAlert(testSession(), 1)))
	})
}

func TestSoundChannel(t *testing.T) {
	t.Run("rings bell without a file", func(t *testing.T) {
		var bell bytes.Buffer
		ch := NewSoundChannel(config.SoundConfig{Enabled: true})
		ch.bell = &bell

		require.NoError(t, ch.Deliver(context.Background(), NewAlert(testSession(), 1)))
		assert.Equal(t, "\a", bell.String())
	})

	t.Run("starts configured player", func(t *testing.T) {
		var started []string
		ch := NewSoundChannel(config.SoundConfig{Enabled: true, Player: "paplay", File: "/tmp/bell.ogg"})
		ch.lookPath = func(string) (string, error) { return "/usr/bin/paplay", nil }
		ch.start = func(name string, args ...string) error {
			started = append([]string{name}, args...)
			return nil
		}

		require.NoError(t, ch.Deliver(context.Background(), NewAlert(testSession(), 1)))
		assert.Equal(t, []string{"paplay", "/tmp/bell.ogg"}, started)
	})

	t.Run("detects a known player", func(t *testing.T) {
		var started string
		ch := NewSoundChannel(config.SoundConfig{Enabled: true, File: "/tmp/bell.wav"})
		ch.lookPath = func(name string) (string, error) {
			if name == "aplay" {
				return "/usr/bin/aplay", nil
			}
			return "", errors.New("not found")
		}
		ch.start = func(name string, args ...string) error {
			started = name
			return nil
		}

		require.NoError(t, ch.Deliver(context.Background(), NewAlert(testSession(), 1)))
		assert.Equal(t, "aplay", started)
	})

	t.Run("falls back to bell when no player is installed", func(t *testing.T) {
		var bell bytes.Buffer
		ch := NewSoundChannel(config.SoundConfig{Enabled: true, File: "/tmp/bell.wav"})
		ch.bell = &bell
		ch.lookPath = func(string) (string, error) { return "", errors.New("not found") }

		require.NoError(t, ch.Deliver(context.Background(), NewAlert(testSession(), 1)))
		assert.Equal(t, "\a", bell.String())
	})

	t.Run("player start failure is returned", func(t *testing.T) {
		ch := NewSoundChannel(config.SoundConfig{Enabled: true, Player: "paplay", File: "/tmp/x"})
		ch.lookPath = func(string) (string, error) { return "/usr/bin/paplay", nil }
		ch.start = func(string, ...string) error { return errors.New("exec format error") }

		assert.Error(t, ch.Deliver(context.Background(), NewAlert(testSession(), 1)))
	})
}
