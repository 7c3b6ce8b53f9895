package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/harun/thakir/pkg/reminder"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the collection as one row of a key-value table
type SQLiteStore struct {
	db  *sql.DB
	key string
	mu  sync.Mutex
}

// OpenSQLite opens (creating if needed) the database at path
func OpenSQLite(path string, key string) (*SQLiteStore, error) {
	if key == "" {
		key = DefaultKey
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; the collection is one row
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, key: key}, nil
}

// Backend returns the backend name
func (s *SQLiteStore) Backend() string {
	return BackendSQLite
}

// Load reads the stored collection
func (s *SQLiteStore) Load(ctx context.Context) []reminder.StudySession {
	return traceLoad(ctx, BackendSQLite, func(ctx context.Context) []reminder.StudySession {
		var value string
		err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", s.key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return []reminder.StudySession{}
		}
		if err != nil {
			return loadFailed(BackendSQLite, err)
		}

		return decode(BackendSQLite, []byte(value))
	})
}

// Save overwrites the stored collection in a single upsert
func (s *SQLiteStore) Save(ctx context.Context, sessions []reminder.StudySession) error {
	return traceSave(ctx, BackendSQLite, len(sessions), func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		data, err := encode(sessions)
		if err != nil {
			return err
		}

		_, err = s.db.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, s.key, string(data), time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to write sessions: %w", err)
		}

		return nil
	})
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
