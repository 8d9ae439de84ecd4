// Package store persists the small amount of state the assistant keeps
// between sessions: the welcome-seen flag and a log of shown messages.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const welcomeSeenKey = "welcome_seen"

// ShownMessage is one row of the message log.
type ShownMessage struct {
	ID       string
	Text     string
	Priority int
	Source   string
	ShownAt  time.Time
}

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// WelcomeSeen reports whether the first-run welcome has completed or been
// skipped in a previous session.
func (s *Store) WelcomeSeen(ctx context.Context) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, welcomeSeenKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SetWelcomeSeen marks the welcome as done for future sessions.
func (s *Store) SetWelcomeSeen(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO settings(key, value, updated_at)
	VALUES (?, 'true', CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET
	 value='true',
	 updated_at=CURRENT_TIMESTAMP;
	`, welcomeSeenKey)
	return err
}

// AppendMessage records a message at the moment its reveal starts.
func (s *Store) AppendMessage(ctx context.Context, m ShownMessage) error {
	shownAt := m.ShownAt
	if shownAt.IsZero() {
		shownAt = Now()
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO message_log(id, text, priority, source, shown_at)
	VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.Text, m.Priority, m.Source, shownAt)
	return err
}

// RecentMessages returns up to n messages, newest first.
func (s *Store) RecentMessages(ctx context.Context, n int) ([]ShownMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, text, priority, source, shown_at
	FROM message_log ORDER BY shown_at DESC, rowid DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ShownMessage
	for rows.Next() {
		var m ShownMessage
		if err := rows.Scan(&m.ID, &m.Text, &m.Priority, &m.Source, &m.ShownAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
