package middleware

import (
	"runtime/debug"
	"sync/atomic"

	"github.com/m3rciful/tickerbot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// PanicSink receives recovered panics for out-of-band reporting.
// The sink must never panic itself.
type PanicSink func(c tele.Context, v any, stack []byte)

var panicSink atomic.Pointer[PanicSink]

// SetPanicSink installs a sink that is invoked after a panic is recovered
// and logged. Passing nil removes the current sink.
func SetPanicSink(sink PanicSink) {
	if sink == nil {
		panicSink.Store(nil)
		return
	}
	panicSink.Store(&sink)
}

// RecoverMiddleware catches panics in handlers and prevents the bot from crashing.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger.TG.Error("panic recovered",
					slog.String("event", "tg.panic"),
					slog.Any("err", r),
					slog.String("stack", string(stack)),
				)
				if sink := panicSink.Load(); sink != nil {
					(*sink)(c, r, stack)
				}
			}
		}()
		return next(c)
	}
}
