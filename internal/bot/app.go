// Package bot wires the conversation core to the Telegram runtime:
// commands, callback routes, the per-event transport, the idle-session
// sweep and the operator error sink.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/tickerbot/core/logger"
	coretelegram "github.com/m3rciful/tickerbot/core/telegram"
	"github.com/m3rciful/tickerbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/tickerbot/core/telegram/helpers"
	"github.com/m3rciful/tickerbot/core/telegram/middleware"
	"github.com/m3rciful/tickerbot/core/telegram/router"
	"github.com/m3rciful/tickerbot/internal/market"
	"github.com/m3rciful/tickerbot/internal/report"
	"github.com/m3rciful/tickerbot/internal/rooms"
	"github.com/m3rciful/tickerbot/internal/ticker"
)

// App assembles the ticker bot.
type App struct {
	cfg      *Config
	svc      *ticker.Service
	reporter *report.Reporter
	sink     *report.TelegramSink
	cron     *cron.Cron

	// store is non-nil only when the database-backed allow-list is on;
	// it additionally enables the operator room commands.
	store *rooms.Store
}

// NewApp builds the application from validated configuration. db may be nil
// when no database is configured; the allow-list then comes from the static
// config map alone.
func NewApp(cfg *Config, db *sqlx.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}

	provider := market.NewYahoo(market.YahooOptions{
		FeedURL: cfg.News.FeedURL,
		Timeout: time.Duration(cfg.News.TimeoutSeconds) * time.Second,
	})

	var allow rooms.Allowlist
	var store *rooms.Store
	static := rooms.NewStatic(cfg.Rooms.Allowed)
	if cfg.Rooms.UseDatabase && db != nil {
		store = rooms.NewStore(db)
		allow = rooms.NewResolver(store, static)
	} else {
		allow = static
	}
	logger.Info(context.Background(), "app", "rooms.configured",
		slog.Int("static_entries", static.Len()),
		slog.Bool("database", store != nil),
	)

	sink := report.NewTelegramSink(cfg.Core.Telegram.AdminID)
	reporter := report.New(sink)

	svc := ticker.NewService(ticker.Config{
		IdleTimeout:  cfg.Session.IdleTimeout(),
		NewsMaxItems: cfg.News.MaxItems,
	}, provider, allow, reporter)

	return &App{
		cfg:      cfg,
		svc:      svc,
		reporter: reporter,
		sink:     sink,
		store:    store,
	}, nil
}

// TelegramRunOptions builds the runtime wiring consumed by the core runner.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "How to use the bot",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "Show usage help",
	})
	reg.RegisterCommand("/t", commands.Command{
		Handler:     a.handleTicker,
		Description: "Quote and menu for a ticker",
		Aliases:     []string{"ticker"},
	})
	reg.RegisterCommand("/sessions", commands.Command{
		Handler:     a.handleSessions,
		Description: "Active session count",
		AdminOnly:   true,
		Hidden:      true,
	})
	if a.store != nil {
		reg.RegisterCommand("/allowroom", commands.Command{
			Handler:     a.handleAllowRoom,
			Description: "Allow a group chat thread",
			AdminOnly:   true,
			Hidden:      true,
		})
		reg.RegisterCommand("/revokeroom", commands.Command{
			Handler:     a.handleRevokeRoom,
			Description: "Revoke a group chat",
			AdminOnly:   true,
			Hidden:      true,
		})
	}

	for key, action := range callbackActions {
		if err := reg.RegisterCallback(key, a.actionHandler(action)); err != nil {
			return coretelegram.RunOptions{}, err
		}
	}
	reg.SetTextFallback(a.handleUnknownText)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoute(reg, router.TextOptions{}))

	return coretelegram.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Core, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	a.sink.Attach(rt.Bot, rt.Dispatcher)
	middleware.SetPanicSink(a.panicSink)

	a.cron = cron.New()
	spec := fmt.Sprintf("@every %ds", a.cfg.Session.SweepIntervalSeconds)
	if _, err := a.cron.AddFunc(spec, a.sweepSessions); err != nil {
		return fmt.Errorf("bot: session sweep schedule: %w", err)
	}
	a.cron.Start()

	logger.Info(ctx, "app", "sessions.sweep_armed",
		slog.Int("interval_s", a.cfg.Session.SweepIntervalSeconds),
		slog.Int("idle_timeout_s", a.cfg.Session.IdleTimeoutSeconds),
	)
	return nil
}

func (a *App) onStop(ctx context.Context, rt coretelegram.Runtime) error {
	middleware.SetPanicSink(nil)
	if a.cron != nil {
		stopCtx := a.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
		}
	}
	attrs := []slog.Attr{
		slog.Int("active_sessions", a.svc.Sessions().ActiveCount()),
	}
	if rt.Dispatcher != nil {
		attrs = append(attrs, slog.Uint64("send_errors", rt.Dispatcher.ErrorCount()))
	}
	logger.Info(ctx, "app", "sessions.active_at_stop", attrs...)
	return nil
}

func (a *App) sweepSessions() {
	if n := a.svc.Sessions().Sweep(time.Now()); n > 0 {
		logger.Info(context.Background(), "session", "sessions.swept",
			slog.Int("count", n),
		)
	}
}

// panicSink forwards recovered handler panics to the operator.
func (a *App) panicSink(c tele.Context, v any, stack []byte) {
	ctx := context.Background()
	chat := ticker.ChatRef{}
	input := ""
	if c != nil {
		ctx = tghelpers.BuildContext(c)
		chat = chatRefFrom(c)
		if cb := c.Callback(); cb != nil {
			input = "callback " + cb.Data
		} else {
			input = c.Text()
		}
	}
	a.reporter.ReportPanic(ctx, chat, input, v, stack)
}
