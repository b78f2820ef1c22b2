package ticker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"log/slog"

	"github.com/m3rciful/tickerbot/core/logger"
	"github.com/m3rciful/tickerbot/internal/market"
	"github.com/m3rciful/tickerbot/internal/render"
	"github.com/m3rciful/tickerbot/internal/rooms"
)

// ErrStaleInteraction marks a button click with no matching live session:
// none exists, it expired, it ended, or its symbol no longer matches. The
// caller acknowledges the click and sends nothing.
var ErrStaleInteraction = errors.New("ticker: stale interaction")

// Transport delivers replies for the event currently being handled. A fresh
// value is bound per inbound update by the bot layer.
type Transport interface {
	// SendText sends a plain content message to the chat.
	SendText(ctx context.Context, text string) error
	// SendMenu sends a prompt with the action menu armed for the symbol.
	SendMenu(ctx context.Context, text, symbol string) error
	// EditText replaces the text of the message the event originated from.
	EditText(ctx context.Context, text string) error
}

// Reporter forwards non-user-facing failures to the operator. It must never
// fail itself.
type Reporter interface {
	ReportError(ctx context.Context, chat ChatRef, input string, err error)
}

// Config tunes the conversation service.
type Config struct {
	IdleTimeout  time.Duration
	NewsMaxItems int
}

// Service is the conversation state machine: it owns command and action
// handling for every chat, serialized per chat via the Manager's locks.
type Service struct {
	sessions *Manager
	provider market.Provider
	allow    rooms.Allowlist
	reporter Reporter
	newsMax  int

	now func() time.Time
}

// NewService wires the conversation core. allow and reporter may be nil:
// a nil allow-list admits private chats only, a nil reporter drops reports.
func NewService(cfg Config, provider market.Provider, allow rooms.Allowlist, reporter Reporter) *Service {
	if cfg.NewsMaxItems < render.NewsItemCount {
		cfg.NewsMaxItems = render.NewsItemCount
	}
	return &Service{
		sessions: NewManager(cfg.IdleTimeout),
		provider: provider,
		allow:    allow,
		reporter: reporter,
		newsMax:  cfg.NewsMaxItems,
		now:      time.Now,
	}
}

// Sessions exposes the session manager for sweeping and diagnostics.
func (s *Service) Sessions() *Manager { return s.sessions }

// HandleCommand processes the entry command. args carries the raw command
// arguments; the first one is the ticker symbol, normalized to upper case.
func (s *Service) HandleCommand(ctx context.Context, t Transport, chat ChatRef, args []string) error {
	lock := s.sessions.ChatLock(chat.ChatID)
	lock.Lock()
	defer lock.Unlock()

	if !s.admitted(ctx, chat) {
		// Deliberately no reply: the bot stays invisible in threads it
		// is not configured for.
		logger.Debug(ctx, "session", "command.room_rejected",
			slog.Int64("chat_id", chat.ChatID),
			slog.Int64("thread_id", chat.ThreadID),
		)
		return nil
	}

	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return t.SendText(ctx, render.MissingSymbol)
	}
	symbol := strings.ToUpper(strings.TrimSpace(args[0]))

	snap, err := s.provider.Quote(ctx, symbol)
	if err != nil {
		if errors.Is(err, market.ErrSymbolNotFound) {
			logger.Debug(ctx, "session", "command.bad_ticker",
				slog.Int64("chat_id", chat.ChatID),
				slog.String("symbol", symbol),
			)
			return t.SendText(ctx, render.BadTicker)
		}
		s.report(ctx, chat, "/t "+symbol, err)
		_ = t.SendText(ctx, render.GenericFailure)
		return err
	}

	sess := s.sessions.Begin(chat, symbol, s.now())
	logger.Info(ctx, "session", "session.begin",
		slog.Int64("chat_id", chat.ChatID),
		slog.String("symbol", sess.Symbol),
	)

	if err := t.SendText(ctx, render.Quote(snap)); err != nil {
		return err
	}
	return t.SendMenu(ctx, render.PromptPickOne, symbol)
}

// HandleAction processes one menu click. symbol is the symbol carried in the
// button payload; a mismatch against the live session means the click came
// from a replaced menu and is treated as stale.
func (s *Service) HandleAction(ctx context.Context, t Transport, chat ChatRef, symbol string, action Action) error {
	if !action.Valid() {
		return fmt.Errorf("ticker: unknown action %q", action)
	}

	lock := s.sessions.ChatLock(chat.ChatID)
	lock.Lock()
	defer lock.Unlock()

	sess, ok := s.sessions.Lookup(chat.ChatID, s.now())
	if !ok || sess.State != StateMenu || !strings.EqualFold(sess.Symbol, symbol) {
		logger.Debug(ctx, "session", "action.stale",
			slog.Int64("chat_id", chat.ChatID),
			slog.String("symbol", symbol),
			slog.String("action", action.String()),
		)
		return ErrStaleInteraction
	}

	if action == ActionDone {
		ended, _ := s.sessions.End(chat.ChatID)
		logger.Info(ctx, "session", "session.end",
			slog.Int64("chat_id", chat.ChatID),
			slog.String("symbol", ended.Symbol),
		)
		return t.EditText(ctx, render.Farewell)
	}

	content, prompt, err := s.actionContent(ctx, sess.Symbol, action)
	if err != nil {
		// The session stays alive: one failed action must not tear the
		// conversation down.
		s.report(ctx, chat, fmt.Sprintf("%s %s", action, sess.Symbol), err)
		s.sessions.Touch(chat.ChatID, s.now())
		_ = t.SendText(ctx, render.GenericFailure)
		return err
	}

	s.sessions.Touch(chat.ChatID, s.now())
	if err := t.EditText(ctx, content); err != nil {
		// Delivery failures are fire-and-forget in this design.
		logger.Warn(ctx, "session", "action.edit_failed",
			slog.Int64("chat_id", chat.ChatID),
			slog.String("err", err.Error()),
		)
	}
	return t.SendMenu(ctx, prompt, sess.Symbol)
}

// actionContent fetches fresh provider data and renders the requested view.
func (s *Service) actionContent(ctx context.Context, symbol string, action Action) (content, prompt string, err error) {
	switch action {
	case ActionAbout:
		profile, err := s.provider.Profile(ctx, symbol)
		if err != nil {
			return "", "", err
		}
		return render.About(profile), render.PromptAbout, nil

	case ActionDividend:
		snap, err := s.provider.Quote(ctx, symbol)
		if err != nil {
			return "", "", err
		}
		// Absent dividend data degrades, it does not fail the action.
		return render.Dividend(snap), render.PromptDividend, nil

	case ActionNews:
		items, err := s.provider.News(ctx, symbol, s.newsMax)
		if err != nil {
			return "", "", err
		}
		if len(items) < render.NewsItemCount {
			return "", "", market.NewDataError(symbol, "news", "need %d items, got %d", render.NewsItemCount, len(items))
		}
		name := symbol
		if snap, err := s.provider.Quote(ctx, symbol); err == nil && snap.LongName != "" {
			name = snap.LongName
		}
		return render.News(name, items[:render.NewsItemCount]), render.PromptNews, nil

	case ActionMomentum:
		snap, err := s.provider.Quote(ctx, symbol)
		if err != nil {
			return "", "", err
		}
		if !snap.HasPrice() {
			return "", "", market.NewDataError(symbol, "price", "absent")
		}
		opens := make(map[market.Lookback]decimal.Decimal, len(market.Lookbacks()))
		for _, lb := range market.Lookbacks() {
			open, err := s.provider.HistoryOpen(ctx, symbol, lb)
			if err != nil {
				return "", "", err
			}
			opens[lb] = open
		}
		name := snap.LongName
		if name == "" {
			name = symbol
		}
		return render.Momentum(render.MomentumData{
			Name:                 name,
			Price:                snap.Price,
			Opens:                opens,
			FiftyDayAverage:      snap.FiftyDayAverage,
			TwoHundredDayAverage: snap.TwoHundredDayAverage,
		}), render.PromptMomentum, nil
	}

	return "", "", fmt.Errorf("ticker: unknown action %q", action)
}

// admitted applies the room allow-list: private chats always pass, group
// chats must match their configured thread.
func (s *Service) admitted(ctx context.Context, chat ChatRef) bool {
	if chat.Private {
		return true
	}
	if s.allow == nil {
		return false
	}
	thread, ok, err := s.allow.AllowedThread(ctx, chat.ChatID)
	if err != nil || !ok {
		return false
	}
	return thread == chat.ThreadID
}

func (s *Service) report(ctx context.Context, chat ChatRef, input string, err error) {
	logger.Error(ctx, "session", "action.failed",
		slog.Int64("chat_id", chat.ChatID),
		slog.String("input", input),
		slog.String("err", err.Error()),
	)
	if s.reporter != nil {
		s.reporter.ReportError(ctx, chat, input, err)
	}
}
