package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/parley-chat/parley/internal/metrics"
	"github.com/parley-chat/parley/internal/models"
)

// FileStore mirrors the history into a single JSON file, rewritten wholesale
// on every append. Writes go to a temp file in the same directory followed
// by a rename, so a crash mid-write cannot truncate the previous snapshot.
type FileStore struct {
	memoryLog
	path   string
	logger zerolog.Logger
}

// NewFileStore opens a file-backed history at path. A missing file yields an
// empty history; an unreadable or corrupt file is logged and also yields an
// empty history.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	s := &FileStore{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error().Err(err).Str("path", path).Msg("history file unreadable, starting empty")
		}
		return s
	}

	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("history file corrupt, starting empty")
		return s
	}

	s.replace(msgs)
	logger.Info().Int("messages", len(msgs)).Str("path", path).Msg("history loaded")
	return s
}

// Append adds the message to the history and rewrites the backing file.
// Persistence failure is logged and does not abort the in-memory append.
func (s *FileStore) Append(msg models.Message) {
	snapshot := s.append(msg)
	if err := s.persist(snapshot); err != nil {
		metrics.PersistFailures.Inc()
		s.logger.Error().Err(err).Str("path", s.path).Msg("history persist failed")
	}
}

func (s *FileStore) persist(msgs []models.Message) error {
	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// All returns the current ordered history snapshot.
func (s *FileStore) All() []models.Message {
	return s.all()
}

// Ping verifies the backing directory is still reachable.
func (s *FileStore) Ping(ctx context.Context) error {
	_, err := os.Stat(filepath.Dir(s.path))
	return err
}

func (s *FileStore) Close() error {
	return nil
}
