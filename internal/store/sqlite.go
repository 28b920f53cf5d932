package store

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley/internal/metrics"
	"github.com/parley-chat/parley/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS messages (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	msg_id    INTEGER NOT NULL,
	sender    TEXT NOT NULL,
	sender_id TEXT NOT NULL,
	body      TEXT NOT NULL,
	timestamp TEXT NOT NULL
);`

// SQLiteStore mirrors the history into a SQLite database file.
type SQLiteStore struct {
	memoryLog
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed history at path.
// An unreadable messages table is logged and yields an empty history.
func NewSQLiteStore(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, logger: logger}

	msgs, err := s.load()
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("sqlite history unreadable, starting empty")
		return s, nil
	}
	s.replace(msgs)
	logger.Info().Int("messages", len(msgs)).Str("path", path).Msg("history loaded")
	return s, nil
}

func (s *SQLiteStore) load() ([]models.Message, error) {
	rows, err := s.db.Query(`SELECT msg_id, sender, sender_id, body, timestamp FROM messages ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.SenderID, &m.Body, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Append adds the message to the history and mirrors it into the messages
// table, trimming rows beyond the history bound. Mirror failure is logged
// and does not abort the in-memory append.
func (s *SQLiteStore) Append(msg models.Message) {
	s.append(msg)
	if err := s.mirror(msg); err != nil {
		metrics.PersistFailures.Inc()
		s.logger.Error().Err(err).Msg("history persist failed")
	}
}

func (s *SQLiteStore) mirror(msg models.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO messages (msg_id, sender, sender_id, body, timestamp) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.Sender, msg.SenderID, msg.Body, msg.Timestamp,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`DELETE FROM messages WHERE seq NOT IN (SELECT seq FROM messages ORDER BY seq DESC LIMIT ?)`,
		MaxHistory,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// All returns the current ordered history snapshot.
func (s *SQLiteStore) All() []models.Message {
	return s.all()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
