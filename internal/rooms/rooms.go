// Package rooms gates command acceptance in group chats: every non-private
// chat must match a configured chat-id -> thread-id entry, otherwise the
// command is silently dropped.
package rooms

import "context"

// Allowlist resolves the allowed thread for a chat id.
type Allowlist interface {
	// AllowedThread returns the thread id permitted for the chat, and
	// whether the chat is listed at all.
	AllowedThread(ctx context.Context, chatID int64) (int64, bool, error)
}

// Static is an in-memory allow-list loaded from configuration.
type Static struct {
	allowed map[int64]int64
}

// NewStatic builds a Static allow-list from a chat-id -> thread-id map.
func NewStatic(allowed map[int64]int64) *Static {
	m := make(map[int64]int64, len(allowed))
	for chat, thread := range allowed {
		m[chat] = thread
	}
	return &Static{allowed: m}
}

// AllowedThread implements Allowlist.
func (s *Static) AllowedThread(_ context.Context, chatID int64) (int64, bool, error) {
	thread, ok := s.allowed[chatID]
	return thread, ok, nil
}

// Len returns the number of configured entries.
func (s *Static) Len() int { return len(s.allowed) }
