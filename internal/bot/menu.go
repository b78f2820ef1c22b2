package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/tickerbot/core/telegram/keyboard"
	"github.com/m3rciful/tickerbot/internal/ticker"
)

// Callback uniques for the action menu. The payload is always the session
// symbol: the service compares it against the live session to spot clicks
// from replaced or expired menus.
const (
	cbAbout    = "tkr_about"
	cbDividend = "tkr_dvd"
	cbNews     = "tkr_news"
	cbMomentum = "tkr_mom"
	cbDone     = "tkr_done"
)

var callbackActions = map[string]ticker.Action{
	cbAbout:    ticker.ActionAbout,
	cbDividend: ticker.ActionDividend,
	cbNews:     ticker.ActionNews,
	cbMomentum: ticker.ActionMomentum,
	cbDone:     ticker.ActionDone,
}

// actionMenu builds the inline menu armed for the symbol: 2x2 action grid
// plus a Done row.
func actionMenu(symbol string) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "About $" + symbol, Unique: cbAbout, Data: symbol},
			{Text: "DVD $" + symbol, Unique: cbDividend, Data: symbol},
		},
		[]keyboard.InlineBtn{
			{Text: "News $" + symbol, Unique: cbNews, Data: symbol},
			{Text: "Momentum $" + symbol, Unique: cbMomentum, Data: symbol},
		},
		[]keyboard.InlineBtn{
			{Text: "Done", Unique: cbDone, Data: symbol},
		},
	)
}
