package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/harun/thakir/pkg/reminder"
	"github.com/rs/zerolog/log"
)

// FileStore keeps the collection in a JSON file, replaced atomically on every save
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Backend returns the backend name
func (s *FileStore) Backend() string {
	return BackendFile
}

// Load reads the stored collection
func (s *FileStore) Load(ctx context.Context) []reminder.StudySession {
	return traceLoad(ctx, BackendFile, func(context.Context) []reminder.StudySession {
		s.mu.Lock()
		defer s.mu.Unlock()

		data, err := os.ReadFile(s.path)
		if os.IsNotExist(err) {
			log.Info().Str("path", s.path).Msg("No existing session file, starting with empty collection")
			return []reminder.StudySession{}
		}
		if err != nil {
			return loadFailed(BackendFile, err)
		}

		return decode(BackendFile, data)
	})
}

// Save replaces the stored collection. The new content is written to a
// sibling temp file, synced, and renamed over the old one, so a crash leaves
// either the previous or the new collection on disk.
func (s *FileStore) Save(ctx context.Context, sessions []reminder.StudySession) error {
	return traceSave(ctx, BackendFile, len(sessions), func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		data, err := encode(sessions)
		if err != nil {
			return err
		}

		dir := filepath.Dir(s.path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}

		tempFile := s.path + ".tmp"
		if err := writeSynced(tempFile, data); err != nil {
			_ = os.Remove(tempFile)
			return fmt.Errorf("failed to write temp file: %w", err)
		}

		if err := os.Rename(tempFile, s.path); err != nil {
			return fmt.Errorf("failed to rename temp file: %w", err)
		}

		log.Debug().Int("count", len(sessions)).Str("path", s.path).Msg("Persisted sessions")

		return nil
	})
}

// Close is a no-op for the file backend
func (s *FileStore) Close() error {
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
