package rooms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Store is a postgres-backed allow-list over the allowed_threads table.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps the given database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// AllowedThread implements Allowlist.
func (s *Store) AllowedThread(ctx context.Context, chatID int64) (int64, bool, error) {
	var threadID int64
	err := s.db.GetContext(ctx, &threadID,
		`SELECT thread_id FROM allowed_threads WHERE chat_id = $1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("rooms: lookup chat %d: %w", chatID, err)
	}
	return threadID, true, nil
}

// Allow upserts an allow-list entry. Used by operator tooling, not the bot
// event path.
func (s *Store) Allow(ctx context.Context, chatID, threadID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO allowed_threads (chat_id, thread_id)
		 VALUES ($1, $2)
		 ON CONFLICT (chat_id) DO UPDATE SET thread_id = EXCLUDED.thread_id`,
		chatID, threadID)
	if err != nil {
		return fmt.Errorf("rooms: allow chat %d: %w", chatID, err)
	}
	return nil
}

// Revoke removes an allow-list entry.
func (s *Store) Revoke(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM allowed_threads WHERE chat_id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("rooms: revoke chat %d: %w", chatID, err)
	}
	return nil
}
