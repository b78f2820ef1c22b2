package report

import (
	"context"
	"sync/atomic"

	"log/slog"

	"github.com/m3rciful/tickerbot/core/logger"
	"github.com/m3rciful/tickerbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// TelegramSink sends reports to the operator chat through the async sender
// dispatcher. The bot handle is attached once the runtime is up; reports
// raised before that are logged only.
type TelegramSink struct {
	operatorID int64
	bot        atomic.Pointer[tele.Bot]
	dispatcher atomic.Pointer[sender.Dispatcher]
}

// NewTelegramSink builds a sink for the given operator chat id.
func NewTelegramSink(operatorID int64) *TelegramSink {
	return &TelegramSink{operatorID: operatorID}
}

// Attach wires the live bot and dispatcher. Call from the runtime OnStart
// hook.
func (s *TelegramSink) Attach(bot *tele.Bot, d *sender.Dispatcher) {
	s.bot.Store(bot)
	if d != nil {
		s.dispatcher.Store(d)
	}
}

// Deliver implements Sink. Failures are logged and dropped.
func (s *TelegramSink) Deliver(ctx context.Context, ev Event) {
	bot := s.bot.Load()
	if bot == nil || s.operatorID == 0 {
		logger.Warn(ctx, "report", "report.skipped",
			slog.String("report_id", ev.ID),
			slog.String("reason", "no transport"),
		)
		return
	}

	recipient := &tele.Chat{ID: s.operatorID}
	text := ev.Format()
	send := func() error {
		_, err := bot.Send(recipient, text)
		return err
	}

	if d := s.dispatcher.Load(); d != nil {
		if err := d.Enqueue(ctx, "report.deliver", "sendMessage", send); err == nil {
			return
		}
		// Queue saturated or closed: fall through to a direct send.
	}
	if err := send(); err != nil {
		logger.Error(ctx, "report", "report.deliver_failed",
			slog.String("report_id", ev.ID),
			slog.String("err", err.Error()),
		)
	}
}
