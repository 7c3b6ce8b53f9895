// Package store persists the session collection as a single serialized value
// under one versioned key. Every backend overwrites the whole value on save
// and falls back to an empty collection when the stored value is missing or
// unreadable.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harun/thakir/internal/config"
	"github.com/harun/thakir/internal/metrics"
	"github.com/harun/thakir/internal/tracing"
	"github.com/harun/thakir/pkg/reminder"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultKey is the storage key for the current schema. A schema change must
// use a new key rather than rewrite this one.
const DefaultKey = "thakir_sessions_v2"

const tracerName = "thakir/store"

// Backend names
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// SessionStore is a reminder.Store with a lifecycle
type SessionStore interface {
	reminder.Store
	Backend() string
	Close() error
}

// Open creates the backend selected by cfg
func Open(cfg config.StorageConfig) (SessionStore, error) {
	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}

	switch cfg.Backend {
	case "", BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("storage path is required for the file backend")
		}
		return NewFileStore(cfg.Path), nil
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("storage path is required for the sqlite backend")
		}
		return OpenSQLite(cfg.Path, key)
	case BackendRedis:
		return OpenRedis(cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// encode serializes the full collection
func encode(sessions []reminder.StudySession) ([]byte, error) {
	if sessions == nil {
		sessions = []reminder.StudySession{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sessions: %w", err)
	}
	return data, nil
}

// decode parses a stored value. A value that is not a JSON array of sessions
// is logged and treated as empty; it is never an error.
func decode(backend string, data []byte) []reminder.StudySession {
	if len(data) == 0 {
		return []reminder.StudySession{}
	}

	var sessions []reminder.StudySession
	if err := json.Unmarshal(data, &sessions); err != nil {
		log.Warn().
			Err(err).
			Str("backend", backend).
			Int("bytes", len(data)).
			Msg("Stored sessions are corrupt, starting with empty collection")
		metrics.RecordStoreLoadFailure(backend, "corrupt")
		return []reminder.StudySession{}
	}
	if sessions == nil {
		sessions = []reminder.StudySession{}
	}

	return sessions
}

// loadFailed logs an I/O failure during load and records it
func loadFailed(backend string, err error) []reminder.StudySession {
	log.Warn().Err(err).Str("backend", backend).Msg("Failed to load sessions, starting with empty collection")
	metrics.RecordStoreLoadFailure(backend, "io")
	return []reminder.StudySession{}
}

// traceSave wraps a backend write with a span and the save metrics
func traceSave(ctx context.Context, backend string, count int, write func(ctx context.Context) error) error {
	ctx, span := tracing.StartSpan(ctx, tracerName, "store.save",
		attribute.String("store.backend", backend),
		attribute.Int("store.sessions", count),
	)
	defer span.End()

	start := time.Now()
	err := write(ctx)
	metrics.RecordStoreSave(backend, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// traceLoad wraps a backend read with a span
func traceLoad(ctx context.Context, backend string, read func(ctx context.Context) []reminder.StudySession) []reminder.StudySession {
	ctx, span := tracing.StartSpan(ctx, tracerName, "store.load",
		attribute.String("store.backend", backend),
	)
	defer span.End()

	sessions := read(ctx)
	span.SetAttributes(attribute.Int("store.sessions", len(sessions)))

	log.Info().Str("backend", backend).Int("count", len(sessions)).Msg("Loaded sessions from store")

	return sessions
}
