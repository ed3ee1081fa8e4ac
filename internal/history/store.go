// Package history is the session-scoped mention history: an append-only
// ordered sequence of matched chat messages, serialised as one JSON array in
// a key/value row. The default in-memory database gives it the lifetime of
// the process, mirroring a browser tab session.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hazyhaar/mentionwatch/chatmsg"
	"github.com/hazyhaar/mentionwatch/internal/dbopen"
)

// Schema contains the DDL for the history storage.
const Schema = `
CREATE TABLE IF NOT EXISTS session_store (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);
`

const historyKey = "mention_history"

// Store holds the mention history. All writes originate from the single
// observer loop, so the read-modify-write append needs no transaction
// discipline beyond ordering.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the history database at path and applies the
// schema. Use ":memory:" for a session-scoped store.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// NewStore wraps an already-open database. The schema must be applied.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Append adds one matched message to the end of the history: read the
// serialised sequence, deserialise, append, reserialise, write back.
func (s *Store) Append(ctx context.Context, msg *chatmsg.Message) error {
	msgs, err := s.All(ctx)
	if err != nil {
		return err
	}
	msgs = append(msgs, msg)

	data, err := chatmsg.MarshalMessages(msgs)
	if err != nil {
		return fmt.Errorf("history: marshal: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO session_store (key, value, updated_at) VALUES (?, ?, unixepoch())
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		historyKey, string(data))
	if err != nil {
		return fmt.Errorf("history: write: %w", err)
	}
	return nil
}

// All returns the stored messages in insertion order. An absent key is an
// empty history, not an error.
func (s *Store) All(ctx context.Context) ([]*chatmsg.Message, error) {
	var raw string
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM session_store WHERE key = ?`, historyKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: read: %w", err)
	}

	msgs, err := chatmsg.UnmarshalMessages([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("history: unmarshal: %w", err)
	}
	return msgs, nil
}

// Count returns the number of stored messages.
func (s *Store) Count(ctx context.Context) (int, error) {
	msgs, err := s.All(ctx)
	if err != nil {
		return 0, err
	}
	return len(msgs), nil
}

// Clear drops the stored history. The panel exposes this for an explicit
// reset; navigation never calls it.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM session_store WHERE key = ?`, historyKey)
	if err != nil {
		return fmt.Errorf("history: clear: %w", err)
	}
	return nil
}
