// Package ticker implements the conversation core: one session per chat,
// created by the entry command, driven by menu actions, ended explicitly or
// by idle timeout.
package ticker

import (
	"sync"
	"time"
)

// ChatRef identifies one conversation. ThreadID is meaningful only for
// forum-style group chats.
type ChatRef struct {
	ChatID   int64
	ThreadID int64
	Private  bool
}

// State is the menu stage of a session.
type State string

const (
	// StateMenu means the button menu is armed and actions are accepted.
	StateMenu State = "menu"
	// StateEnded marks a finished session; it only appears on copies
	// handed out at end time, ended sessions are not retained.
	StateEnded State = "ended"
)

// Session is the per-chat conversation state. The active symbol lives here
// and nowhere else; button payloads are used only to detect staleness.
type Session struct {
	Chat      ChatRef
	Symbol    string
	State     State
	CreatedAt time.Time
	LastSeen  time.Time
}

// Manager owns all live sessions, keyed by chat id. It also hands out the
// per-chat locks that serialize event handling within a single chat.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex
	idle     time.Duration
}

// NewManager creates a Manager with the given idle timeout.
func NewManager(idle time.Duration) *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
		idle:     idle,
	}
}

// ChatLock returns the mutex serializing events for the chat. Locks are
// never discarded; the per-chat footprint is one mutex.
func (m *Manager) ChatLock(chatID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[chatID] = l
	}
	return l
}

// Begin creates the session for the chat, replacing any existing one. The
// replaced session's menu becomes stale immediately.
func (m *Manager) Begin(chat ChatRef, symbol string, now time.Time) Session {
	s := &Session{
		Chat:      chat,
		Symbol:    symbol,
		State:     StateMenu,
		CreatedAt: now,
		LastSeen:  now,
	}
	m.mu.Lock()
	m.sessions[chat.ChatID] = s
	m.mu.Unlock()
	return *s
}

// Lookup returns the live session for the chat. A session idle for at least
// the configured timeout is expired on access and reported absent.
func (m *Manager) Lookup(chatID int64, now time.Time) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	if m.expired(s, now) {
		delete(m.sessions, chatID)
		return Session{}, false
	}
	return *s, true
}

// Touch refreshes the session's activity timestamp.
func (m *Manager) Touch(chatID int64, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok {
		s.LastSeen = now
	}
}

// End removes the chat's session and returns its final copy.
func (m *Manager) End(chatID int64) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	delete(m.sessions, chatID)
	ended := *s
	ended.State = StateEnded
	return ended, true
}

// ActiveCount returns the number of live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep expires every idle session and returns how many were removed.
// Chats with an in-flight handler (chat lock held) are skipped: the handler
// already did its own liveness check under that lock, and pulling the
// session out from under it would let a click re-arm a menu for a session
// that no longer exists. Skipped sessions still expire passively on the
// next Lookup.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for chatID, s := range m.sessions {
		if !m.expired(s, now) {
			continue
		}
		if l, ok := m.locks[chatID]; ok {
			if !l.TryLock() {
				continue
			}
			l.Unlock()
		}
		delete(m.sessions, chatID)
		n++
	}
	return n
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return m.idle > 0 && now.Sub(s.LastSeen) >= m.idle
}
