package rooms

import (
	"context"
	"errors"
	"testing"
)

type fakeList struct {
	allowed map[int64]int64
	err     error
}

func (f *fakeList) AllowedThread(_ context.Context, chatID int64) (int64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	t, ok := f.allowed[chatID]
	return t, ok, nil
}

func TestStaticLookup(t *testing.T) {
	s := NewStatic(map[int64]int64{-100123: 42})

	thread, ok, err := s.AllowedThread(context.Background(), -100123)
	if err != nil || !ok || thread != 42 {
		t.Fatalf("got (%d, %v, %v), want (42, true, nil)", thread, ok, err)
	}

	_, ok, err = s.AllowedThread(context.Background(), -100999)
	if err != nil || ok {
		t.Fatalf("unlisted chat should not be allowed, got (%v, %v)", ok, err)
	}
}

func TestResolverPrefersPrimary(t *testing.T) {
	primary := &fakeList{allowed: map[int64]int64{-1: 10}}
	fallback := &fakeList{allowed: map[int64]int64{-1: 99, -2: 20}}
	r := NewResolver(primary, fallback)

	thread, ok, _ := r.AllowedThread(context.Background(), -1)
	if !ok || thread != 10 {
		t.Errorf("primary entry should win, got (%d, %v)", thread, ok)
	}

	thread, ok, _ = r.AllowedThread(context.Background(), -2)
	if !ok || thread != 20 {
		t.Errorf("fallback should cover missing chats, got (%d, %v)", thread, ok)
	}
}

func TestResolverFailsClosedOnPrimaryError(t *testing.T) {
	boom := errors.New("db down")
	r := NewResolver(&fakeList{err: boom}, &fakeList{allowed: map[int64]int64{-1: 10}})

	_, ok, err := r.AllowedThread(context.Background(), -1)
	if ok {
		t.Error("lookup error must not admit the chat")
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped db error", err)
	}
}

func TestResolverNilSources(t *testing.T) {
	r := NewResolver(nil, nil)
	_, ok, err := r.AllowedThread(context.Background(), -1)
	if ok || err != nil {
		t.Errorf("empty resolver should deny quietly, got (%v, %v)", ok, err)
	}
}
