// Package report forwards failure diagnostics to the operator chat. Nothing
// in here is allowed to fail loudly: a reporter that throws while reporting
// would take the event loop down with it.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"log/slog"

	"github.com/m3rciful/tickerbot/core/logger"
	"github.com/m3rciful/tickerbot/internal/ticker"
)

const (
	maxInputLen = 128
	maxErrLen   = 512
	maxStackLen = 1500
)

// Event is one diagnostic report.
type Event struct {
	ID     string
	At     time.Time
	Chat   ticker.ChatRef
	Input  string
	Err    string
	Stack  string
	Source string // "handler" or "panic"
}

// NewEvent builds an Event with a fresh report id and truncated payloads.
func NewEvent(chat ticker.ChatRef, input string, errText, stack, source string) Event {
	return Event{
		ID:     uuid.NewString(),
		At:     time.Now().UTC(),
		Chat:   chat,
		Input:  truncate(input, maxInputLen),
		Err:    truncate(errText, maxErrLen),
		Stack:  truncate(stack, maxStackLen),
		Source: source,
	}
}

// Format renders the operator message for the event.
func (ev Event) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report %s (%s)\n", ev.ID, ev.Source)
	fmt.Fprintf(&b, "At: %s\n", ev.At.Format(time.RFC3339))
	fmt.Fprintf(&b, "Chat: %d", ev.Chat.ChatID)
	if ev.Chat.ThreadID != 0 {
		fmt.Fprintf(&b, " thread %d", ev.Chat.ThreadID)
	}
	if ev.Input != "" {
		fmt.Fprintf(&b, "\nInput: %s", ev.Input)
	}
	if ev.Err != "" {
		fmt.Fprintf(&b, "\nError: %s", ev.Err)
	}
	if ev.Stack != "" {
		fmt.Fprintf(&b, "\n\n%s", ev.Stack)
	}
	return b.String()
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

// Sink delivers a formatted report to the operator. Implementations must
// swallow their own failures.
type Sink interface {
	Deliver(ctx context.Context, ev Event)
}

// Reporter implements ticker.Reporter over a Sink.
type Reporter struct {
	sink Sink
}

// New builds a Reporter. A nil sink yields a log-only reporter.
func New(sink Sink) *Reporter {
	return &Reporter{sink: sink}
}

// ReportError forwards a handler failure to the operator.
func (r *Reporter) ReportError(ctx context.Context, chat ticker.ChatRef, input string, err error) {
	if err == nil {
		return
	}
	r.deliver(ctx, NewEvent(chat, input, err.Error(), "", "handler"))
}

// ReportPanic forwards a recovered panic to the operator.
func (r *Reporter) ReportPanic(ctx context.Context, chat ticker.ChatRef, input string, v any, stack []byte) {
	r.deliver(ctx, NewEvent(chat, input, fmt.Sprint(v), string(stack), "panic"))
}

func (r *Reporter) deliver(ctx context.Context, ev Event) {
	logger.Warn(ctx, "report", "report.dispatch",
		slog.String("report_id", ev.ID),
		slog.Int64("chat_id", ev.Chat.ChatID),
		slog.String("source", ev.Source),
		slog.String("err", ev.Err),
	)
	if r == nil || r.sink == nil {
		return
	}
	r.sink.Deliver(ctx, ev)
}
