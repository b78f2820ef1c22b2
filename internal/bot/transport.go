package bot

import (
	"context"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/tickerbot/core/telegram/helpers"
	"github.com/m3rciful/tickerbot/internal/ticker"
)

// eventTransport binds ticker.Transport to the telebot context of the
// update being handled. Sends go through the async sender helpers; edits
// target the message the event originated from (the callback's menu
// message).
type eventTransport struct {
	c tele.Context
}

func (t eventTransport) SendText(_ context.Context, text string) error {
	return tghelpers.SendMD(t.c, text)
}

func (t eventTransport) SendMenu(_ context.Context, text, symbol string) error {
	return tghelpers.SendMD(t.c, text, actionMenu(symbol))
}

func (t eventTransport) EditText(_ context.Context, text string) error {
	// Telegram refuses edits on sufficiently old messages; degrade to a
	// fresh message rather than losing the content.
	return tghelpers.EditOrSendMD(t.c, text)
}

// chatRefFrom derives the conversation identity from the update.
func chatRefFrom(c tele.Context) ticker.ChatRef {
	ref := ticker.ChatRef{}
	if chat := c.Chat(); chat != nil {
		ref.ChatID = chat.ID
		ref.Private = chat.Type == tele.ChatPrivate
	}
	if msg := c.Message(); msg != nil {
		ref.ThreadID = int64(msg.ThreadID)
	}
	return ref
}
