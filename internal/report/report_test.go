package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m3rciful/tickerbot/internal/ticker"
)

type captureSink struct {
	events []Event
}

func (c *captureSink) Deliver(_ context.Context, ev Event) {
	c.events = append(c.events, ev)
}

func TestReportErrorDelivers(t *testing.T) {
	sink := &captureSink{}
	r := New(sink)

	chat := ticker.ChatRef{ChatID: 42, ThreadID: 7}
	r.ReportError(context.Background(), chat, "/t AAPL", errors.New("boom"))

	if len(sink.events) != 1 {
		t.Fatalf("delivered = %d, want 1", len(sink.events))
	}
	ev := sink.events[0]
	if ev.ID == "" {
		t.Error("report id must be set")
	}
	if ev.Source != "handler" || ev.Err != "boom" || ev.Input != "/t AAPL" {
		t.Errorf("event fields wrong: %+v", ev)
	}

	msg := ev.Format()
	for _, want := range []string{"Report " + ev.ID, "Chat: 42 thread 7", "Input: /t AAPL", "Error: boom"} {
		if !strings.Contains(msg, want) {
			t.Errorf("formatted report missing %q:\n%s", want, msg)
		}
	}
}

func TestNilErrorIgnored(t *testing.T) {
	sink := &captureSink{}
	New(sink).ReportError(context.Background(), ticker.ChatRef{ChatID: 1}, "x", nil)
	if len(sink.events) != 0 {
		t.Error("nil error must not produce a report")
	}
}

func TestNilSinkIsSafe(t *testing.T) {
	r := New(nil)
	r.ReportError(context.Background(), ticker.ChatRef{ChatID: 1}, "x", errors.New("boom"))
	r.ReportPanic(context.Background(), ticker.ChatRef{ChatID: 1}, "x", "pv", []byte("stack"))
}

func TestTruncation(t *testing.T) {
	long := strings.Repeat("e", 2*maxErrLen)
	ev := NewEvent(ticker.ChatRef{ChatID: 1}, "in", long, "", "handler")
	if len(ev.Err) > maxErrLen+len("…") {
		t.Errorf("error text not truncated: %d bytes", len(ev.Err))
	}
}

func TestTruncationKeepsRuneBoundary(t *testing.T) {
	// Multi-byte runes straddle every byte offset, so a byte-indexed cut
	// would leave an invalid tail.
	long := strings.Repeat("ошибка", maxErrLen)
	ev := NewEvent(ticker.ChatRef{ChatID: 1}, "in", long, "", "handler")
	if !utf8.ValidString(ev.Err) {
		t.Errorf("truncated error is not valid UTF-8: %q", ev.Err[len(ev.Err)-8:])
	}
	if !strings.HasSuffix(ev.Err, "…") {
		t.Error("truncated error must carry the ellipsis marker")
	}
	if len(ev.Err) > maxErrLen+len("…") {
		t.Errorf("error text not truncated: %d bytes", len(ev.Err))
	}
}

func TestPanicEvent(t *testing.T) {
	sink := &captureSink{}
	New(sink).ReportPanic(context.Background(), ticker.ChatRef{ChatID: 9}, "cb tkr_news", 13, []byte("goroutine 1 [running]"))
	if len(sink.events) != 1 {
		t.Fatal("panic must be delivered")
	}
	ev := sink.events[0]
	if ev.Source != "panic" || ev.Err != "13" || !strings.Contains(ev.Stack, "goroutine") {
		t.Errorf("panic event wrong: %+v", ev)
	}
}
