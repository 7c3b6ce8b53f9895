package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/harun/thakir/internal/config"
	"github.com/harun/thakir/pkg/cron"
	"github.com/harun/thakir/pkg/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers

func sampleSessions() []reminder.StudySession {
	return []reminder.StudySession{
		{
			ID:            "a1",
			Topic:         "Algebra",
			Notes:         "chapter 2",
			DurationValue: 2,
			DurationUnit:  reminder.UnitMinutes,
			CreatedAt:     1_700_000_000_000,
			ScheduledFor:  1_700_000_120_000,
			Notified:      false,
		},
		{
			ID:            "b2",
			Topic:         "History",
			DurationValue: 1,
			DurationUnit:  reminder.UnitMonths,
			CreatedAt:     1_700_000_000_000,
			ScheduledFor:  1_702_592_000_000,
			Notified:      true,
		},
	}
}

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	store, err := OpenRedis(config.RedisConfig{
		Addr:         mr.Addr(),
		Prefix:       "test",
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func setupSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "thakir.db"), DefaultKey)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func allBackends(t *testing.T) map[string]SessionStore {
	redisStore, _ := setupRedisStore(t)
	return map[string]SessionStore{
		BackendFile:   NewFileStore(filepath.Join(t.TempDir(), "sessions.json")),
		BackendSQLite: setupSQLiteStore(t),
		BackendRedis:  redisStore,
	}
}

// Tests

func TestStoreBehaviour(t *testing.T) {
	ctx := context.Background()

	for name, store := range allBackends(t) {
		store := store

		t.Run(name+"/load when absent returns empty", func(t *testing.T) {
			sessions := store.Load(ctx)
			assert.NotNil(t, sessions)
			assert.Empty(t, sessions)
		})

		t.Run(name+"/round trip", func(t *testing.T) {
			want := sampleSessions()
			require.NoError(t, store.Save(ctx, want))

			got := store.Load(ctx)
			assert.ElementsMatch(t, want, got)
		})

		t.Run(name+"/save overwrites whole value", func(t *testing.T) {
			require.NoError(t, store.Save(ctx, sampleSessions()))
			require.NoError(t, store.Save(ctx, sampleSessions()[:1]))

			got := store.Load(ctx)
			require.Len(t, got, 1)
			assert.Equal(t, "a1", got[0].ID)
		})

		t.Run(name+"/save empty collection", func(t *testing.T) {
			require.NoError(t, store.Save(ctx, nil))

			got := store.Load(ctx)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})

		t.Run(name+"/backend name", func(t *testing.T) {
			assert.Equal(t, name, store.Backend())
		})
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("uses wire field names", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sessions.json")
		store := NewFileStore(path)
		require.NoError(t, store.Save(ctx, sampleSessions()[:1]))

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		for _, field := range []string{
			`"id"`, `"topic"`, `"notes"`, `"durationValue"`, `"durationUnit"`,
			`"createdAt"`, `"scheduledFor"`, `"notified"`,
		} {
			assert.Contains(t, string(data), field)
		}
		assert.Contains(t, string(data), `"minutes"`)
	})

	t.Run("corrupt file loads as empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sessions.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"id": "a1", "topic": `), 0644))

		sessions := NewFileStore(path).Load(ctx)
		assert.NotNil(t, sessions)
		assert.Empty(t, sessions)
	})

	t.Run("non-array value loads as empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sessions.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"sessions": []}`), 0644))

		assert.Empty(t, NewFileStore(path).Load(ctx))
	})

	t.Run("creates parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "sessions.json")
		require.NoError(t, NewFileStore(path).Save(ctx, sampleSessions()))

		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("leaves no temp file behind", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sessions.json")
		require.NoError(t, NewFileStore(path).Save(ctx, sampleSessions()))

		_, err := os.Stat(path + ".tmp")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("interrupted save keeps the previous collection", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sessions.json")
		store := NewFileStore(path)

		first := sampleSessions()[:1]
		require.NoError(t, store.Save(ctx, first))

		// A crash mid-write leaves only a partial temp file
		require.NoError(t, os.WriteFile(path+".tmp", []byte(`[{"id":"a1"},{"id":"c3","top`), 0644))

		got := NewFileStore(path).Load(ctx)
		assert.Equal(t, first, got)
	})

	t.Run("unreadable path loads as empty", func(t *testing.T) {
		dir := t.TempDir()
		sessions := NewFileStore(dir).Load(ctx)
		assert.Empty(t, sessions)
	})
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	t.Run("corrupt row loads as empty", func(t *testing.T) {
		store := setupSQLiteStore(t)
		_, err := store.db.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, 0)`, DefaultKey, "not json")
		require.NoError(t, err)

		assert.Empty(t, store.Load(ctx))
	})

	t.Run("keys are isolated", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "thakir.db")

		v2, err := OpenSQLite(path, DefaultKey)
		require.NoError(t, err)
		require.NoError(t, v2.Save(ctx, sampleSessions()))
		require.NoError(t, v2.Close())

		v3, err := OpenSQLite(path, "thakir_sessions_v3")
		require.NoError(t, err)
		defer func() { _ = v3.Close() }()

		assert.Empty(t, v3.Load(ctx))
	})

	t.Run("survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "thakir.db")

		store, err := OpenSQLite(path, "")
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, sampleSessions()))
		require.NoError(t, store.Close())

		reopened, err := OpenSQLite(path, "")
		require.NoError(t, err)
		defer func() { _ = reopened.Close() }()

		assert.ElementsMatch(t, sampleSessions(), reopened.Load(ctx))
	})

	t.Run("closed database loads as empty", func(t *testing.T) {
		store, err := OpenSQLite(filepath.Join(t.TempDir(), "thakir.db"), "")
		require.NoError(t, err)
		require.NoError(t, store.Close())

		assert.Empty(t, store.Load(ctx))
		assert.Error(t, store.Save(ctx, sampleSessions()))
	})
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("uses prefixed key", func(t *testing.T) {
		store, mr := setupRedisStore(t)
		require.NoError(t, store.Save(ctx, sampleSessions()))

		assert.Equal(t, "test:sessions-v2", store.key)
		assert.True(t, mr.Exists("test:sessions-v2"))
	})

	t.Run("corrupt value loads as empty", func(t *testing.T) {
		store, mr := setupRedisStore(t)
		require.NoError(t, mr.Set(store.key, "{{{"))

		assert.Empty(t, store.Load(ctx))
	})

	t.Run("unreachable server loads as empty", func(t *testing.T) {
		store, mr := setupRedisStore(t)
		require.NoError(t, store.Save(ctx, sampleSessions()))
		mr.Close()

		assert.Empty(t, store.Load(ctx))
		assert.Error(t, store.Save(ctx, sampleSessions()))
	})

	t.Run("open fails without server", func(t *testing.T) {
		_, err := OpenRedis(config.RedisConfig{Addr: "127.0.0.1:1", DialTimeout: "200ms"})
		assert.Error(t, err)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		_, err := OpenRedis(config.RedisConfig{Addr: "127.0.0.1:6379", DialTimeout: "soon"})
		assert.Error(t, err)
	})
}

func TestOpen(t *testing.T) {
	t.Run("file backend", func(t *testing.T) {
		store, err := Open(config.StorageConfig{Backend: "file", Path: filepath.Join(t.TempDir(), "s.json")})
		require.NoError(t, err)
		assert.Equal(t, BackendFile, store.Backend())
	})

	t.Run("sqlite backend", func(t *testing.T) {
		store, err := Open(config.StorageConfig{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "s.db")})
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		assert.Equal(t, BackendSQLite, store.Backend())
	})

	t.Run("redis backend", func(t *testing.T) {
		mr := miniredis.RunT(t)
		store, err := Open(config.StorageConfig{Backend: "redis", Redis: config.RedisConfig{Addr: mr.Addr()}})
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		assert.Equal(t, BackendRedis, store.Backend())
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := Open(config.StorageConfig{Backend: "file"})
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(config.StorageConfig{Backend: "localstorage", Path: "x"})
		assert.Error(t, err)
	})
}

type slowAlerter struct {
	started chan struct{}
	delay   time.Duration
}

func (a *slowAlerter) Fire(ctx context.Context, s reminder.StudySession) {
	close(a.started)
	time.Sleep(a.delay)
}

func TestRunnerStopDuringScanPersists(t *testing.T) {
	ctx := context.Background()

	for name, store := range allBackends(t) {
		store := store

		t.Run(name, func(t *testing.T) {
			due := time.Now().Add(-time.Minute).UnixMilli()
			require.NoError(t, store.Save(ctx, []reminder.StudySession{
				{ID: "due", Topic: "Algebra", DurationValue: 1, DurationUnit: reminder.UnitMinutes, ScheduledFor: due},
			}))

			alerter := &slowAlerter{started: make(chan struct{}), delay: 300 * time.Millisecond}
			controller, err := reminder.NewController(ctx, reminder.ControllerOptions{
				Store:   store,
				Alerter: alerter,
			})
			require.NoError(t, err)

			runner := cron.NewRunner()
			require.NoError(t, runner.Add(cron.Task{
				Name:     "due-scan",
				Schedule: "1s",
				Run:      func(ctx context.Context) { controller.Tick(ctx) },
			}))
			runner.Start()

			select {
			case <-alerter.started:
			case <-time.After(5 * time.Second):
				t.Fatal("scan never fired the alert")
			}

			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			require.NoError(t, runner.Stop(stopCtx))

			stored := store.Load(ctx)
			require.Len(t, stored, 1)
			assert.True(t, stored[0].Notified)
		})
	}
}
