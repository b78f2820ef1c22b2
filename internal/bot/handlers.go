package bot

import (
	"errors"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/tickerbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/tickerbot/core/telegram/helpers"
	"github.com/m3rciful/tickerbot/internal/render"
	"github.com/m3rciful/tickerbot/internal/ticker"
)

func (a *App) handleStart(c tele.Context) error {
	return tghelpers.SendText(c, render.StartText)
}

func (a *App) handleHelp(c tele.Context) error {
	return tghelpers.SendText(c, render.HelpText)
}

// handleTicker is the /t entry command.
func (a *App) handleTicker(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return a.svc.HandleCommand(ctx, eventTransport{c: c}, chatRefFrom(c), c.Args())
}

// handleSessions is the operator diagnostic command.
func (a *App) handleSessions(c tele.Context) error {
	return tghelpers.SendText(c, fmt.Sprintf("Active sessions: %d", a.svc.Sessions().ActiveCount()))
}

// handleAllowRoom upserts an allow-list row: /allowroom <chat_id> <thread_id>.
func (a *App) handleAllowRoom(c tele.Context) error {
	args := c.Args()
	if len(args) != 2 {
		return tghelpers.SendText(c, "Usage: /allowroom [chat_id] [thread_id]")
	}
	chatID, err1 := strconv.ParseInt(args[0], 10, 64)
	threadID, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		return tghelpers.SendText(c, "Both arguments must be numeric ids")
	}
	if err := a.store.Allow(tghelpers.BuildContext(c), chatID, threadID); err != nil {
		return err
	}
	return tghelpers.SendText(c, fmt.Sprintf("Allowed chat %d thread %d", chatID, threadID))
}

// handleRevokeRoom removes an allow-list row: /revokeroom <chat_id>.
func (a *App) handleRevokeRoom(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return tghelpers.SendText(c, "Usage: /revokeroom [chat_id]")
	}
	chatID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return tghelpers.SendText(c, "chat_id must be numeric")
	}
	if err := a.store.Revoke(tghelpers.BuildContext(c), chatID); err != nil {
		return err
	}
	return tghelpers.SendText(c, fmt.Sprintf("Revoked chat %d", chatID))
}

// actionHandler builds the callback handler for one menu action. The
// callback router has already acknowledged the click, which is all a stale
// interaction gets.
func (a *App) actionHandler(action ticker.Action) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		symbol := callbacks.CallbackPayload(c)
		err := a.svc.HandleAction(ctx, eventTransport{c: c}, chatRefFrom(c), symbol, action)
		if errors.Is(err, ticker.ErrStaleInteraction) {
			return nil
		}
		return err
	}
}

// handleUnknownText nudges private chats toward the entry command. Group
// chatter is left alone.
func (a *App) handleUnknownText(c tele.Context) error {
	if chat := c.Chat(); chat == nil || chat.Type != tele.ChatPrivate {
		return nil
	}
	return tghelpers.SendText(c, render.StartText)
}
