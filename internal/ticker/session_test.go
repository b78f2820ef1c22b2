package ticker

import (
	"testing"
	"time"
)

var testChat = ChatRef{ChatID: 100, Private: true}

func TestBeginReplacesSession(t *testing.T) {
	m := NewManager(40 * time.Second)
	now := time.Now()

	m.Begin(testChat, "AAPL", now)
	m.Begin(testChat, "MSFT", now)

	sess, ok := m.Lookup(testChat.ChatID, now)
	if !ok {
		t.Fatal("session should exist")
	}
	if sess.Symbol != "MSFT" {
		t.Errorf("symbol = %q, want MSFT", sess.Symbol)
	}
	if m.ActiveCount() != 1 {
		t.Errorf("active = %d, want 1", m.ActiveCount())
	}
}

func TestLookupExpiresIdleSession(t *testing.T) {
	m := NewManager(40 * time.Second)
	start := time.Now()

	m.Begin(testChat, "AAPL", start)

	if _, ok := m.Lookup(testChat.ChatID, start.Add(39*time.Second)); !ok {
		t.Fatal("session should survive below the idle timeout")
	}
	if _, ok := m.Lookup(testChat.ChatID, start.Add(40*time.Second)); ok {
		t.Fatal("session should expire at the idle timeout")
	}
	// Expiry removes it for good.
	if _, ok := m.Lookup(testChat.ChatID, start); ok {
		t.Fatal("expired session must not come back")
	}
}

func TestTouchExtendsLifetime(t *testing.T) {
	m := NewManager(40 * time.Second)
	start := time.Now()

	m.Begin(testChat, "AAPL", start)
	m.Touch(testChat.ChatID, start.Add(30*time.Second))

	if _, ok := m.Lookup(testChat.ChatID, start.Add(60*time.Second)); !ok {
		t.Fatal("touched session should survive past the original deadline")
	}
}

func TestEndRemovesSession(t *testing.T) {
	m := NewManager(40 * time.Second)
	now := time.Now()

	m.Begin(testChat, "AAPL", now)
	ended, ok := m.End(testChat.ChatID)
	if !ok {
		t.Fatal("End should find the session")
	}
	if ended.State != StateEnded {
		t.Errorf("state = %q, want %q", ended.State, StateEnded)
	}
	if _, ok := m.Lookup(testChat.ChatID, now); ok {
		t.Error("ended session must not be retrievable")
	}
	if _, ok := m.End(testChat.ChatID); ok {
		t.Error("second End should miss")
	}
}

func TestSweep(t *testing.T) {
	m := NewManager(40 * time.Second)
	start := time.Now()

	m.Begin(ChatRef{ChatID: 1, Private: true}, "AAPL", start)
	m.Begin(ChatRef{ChatID: 2, Private: true}, "MSFT", start.Add(30*time.Second))

	if n := m.Sweep(start.Add(45 * time.Second)); n != 1 {
		t.Errorf("swept = %d, want 1", n)
	}
	if _, ok := m.Lookup(2, start.Add(45*time.Second)); !ok {
		t.Error("fresh session should survive the sweep")
	}
	if m.ActiveCount() != 1 {
		t.Errorf("active = %d, want 1", m.ActiveCount())
	}
}

func TestSweepSkipsChatWithHandlerInFlight(t *testing.T) {
	m := NewManager(40 * time.Second)
	start := time.Now()
	m.Begin(testChat, "AAPL", start)

	// A held chat lock stands in for a handler between its liveness check
	// and its last session access.
	lock := m.ChatLock(testChat.ChatID)
	lock.Lock()
	if n := m.Sweep(start.Add(45 * time.Second)); n != 0 {
		t.Errorf("swept = %d, want 0 while the chat handler runs", n)
	}
	if m.ActiveCount() != 1 {
		t.Error("session must not be expired under a live handler")
	}
	lock.Unlock()

	if n := m.Sweep(start.Add(45 * time.Second)); n != 1 {
		t.Errorf("swept = %d, want 1 once the chat is idle", n)
	}
}

func TestZeroIdleNeverExpires(t *testing.T) {
	m := NewManager(0)
	start := time.Now()
	m.Begin(testChat, "AAPL", start)
	if _, ok := m.Lookup(testChat.ChatID, start.Add(24*time.Hour)); !ok {
		t.Fatal("zero idle timeout should disable expiry")
	}
}
