// Package render turns provider data into the display texts sent to chats.
// Functions are pure: no I/O, no session knowledge. Output is Telegram
// Markdown (v1); vendor-supplied strings are escaped before interpolation.
package render

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	tgformat "github.com/m3rciful/tickerbot/core/telegram/format"
	"github.com/m3rciful/tickerbot/internal/market"
)

// Fixed reply texts.
const (
	StartText      = "Type /t [ticker] to get info"
	HelpText       = "Use /t [ticker] to get a quote and a menu: About, DVD, News, Momentum, Done."
	MissingSymbol  = "Usage: /t [ticker]"
	BadTicker      = "Unknown ticker. Try /t AAPL"
	GenericFailure = "Could not fetch that right now. Pick another one"
	NoDividend     = "No DVD"
	Farewell       = "See you next time!"

	PromptPickOne  = "Basic info. Pick one"
	PromptAbout    = "About. Pick another one"
	PromptDividend = "Last DVD. Pick another"
	PromptNews     = "Company news. Pick another one"
	PromptMomentum = "Momentum. Pick another one"
)

// NewsItemCount is the exact number of headlines the news layout needs.
const NewsItemCount = 3

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Quote renders the basic info message sent right after /t.
func Quote(s *market.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*$%s* %s\n", s.Symbol, tgformat.EscapeV1(s.LongName))
	if s.HasPrice() {
		fmt.Fprintf(&b, "\nCurrent Price: $%.2f, %.2f%%\n", s.Price, s.ChangePercent)
	}
	if s.MarketCap > 0 {
		fmt.Fprintf(&b, "Market Cap: $%s\n", humanize.Comma(s.MarketCap))
	}
	if s.FiftyTwoWeekHigh > 0 {
		fmt.Fprintf(&b, "52 Week High: $%.2f\n", s.FiftyTwoWeekHigh)
	}
	if s.FiftyTwoWeekLow > 0 {
		fmt.Fprintf(&b, "52 Week Low: $%.2f\n", s.FiftyTwoWeekLow)
	}
	if s.FiftyTwoWeekHighChangePercent != 0 {
		fmt.Fprintf(&b, "52wk High Change: %.2f%%\n", s.FiftyTwoWeekHighChangePercent*100)
	}
	if s.Volume > 0 {
		fmt.Fprintf(&b, "Volume: %s\n", humanize.Comma(int64(s.Volume)))
	}
	if s.AverageVolume > 0 {
		fmt.Fprintf(&b, "Average Volume: %s", humanize.Comma(int64(s.AverageVolume)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// About renders the company description message.
func About(p *market.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "About %s\n\n%s", p.Symbol, tgformat.EscapeV1(p.Summary))
	if p.Sector != "" && p.Industry != "" {
		fmt.Fprintf(&b, "\n\nSector: %s / %s", tgformat.EscapeV1(p.Sector), tgformat.EscapeV1(p.Industry))
	}
	if p.Website != "" {
		fmt.Fprintf(&b, "\n%s", p.Website)
	}
	return b.String()
}

// Dividend renders the trailing dividend line, or the degraded NoDividend
// text when the snapshot carries no dividend data.
func Dividend(s *market.Snapshot) string {
	if !s.HasDividend() {
		return NoDividend
	}
	return fmt.Sprintf("Last dvd: $%.2f, %s", s.DividendRate, s.DividendDate.Format("2006-01-02"))
}

// News renders exactly NewsItemCount headlines separated by rules.
// The caller guarantees the item count.
func News(name string, items []market.NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "News for %s:\n\n", tgformat.EscapeV1(name))
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n----------------------------------------\n")
		}
		b.WriteString(tgformat.EscapeV1(it.Title))
		if it.Published != "" {
			fmt.Fprintf(&b, "\nTime published: %s", it.Published)
		}
		if it.Link != "" {
			fmt.Fprintf(&b, "\nLink: %s", it.Link)
		}
	}
	return b.String()
}

// MomentumData carries everything the momentum layout needs.
type MomentumData struct {
	Name                 string
	Price                float64
	Opens                map[market.Lookback]decimal.Decimal
	FiftyDayAverage      float64
	TwoHundredDayAverage float64
}

// Momentum renders lookback returns and moving averages.
func Momentum(d MomentumData) string {
	price := decimal.NewFromFloat(d.Price)
	var b strings.Builder
	fmt.Fprintf(&b, "%s momentum\n", tgformat.EscapeV1(d.Name))
	for _, lb := range market.Lookbacks() {
		open := d.Opens[lb]
		fmt.Fprintf(&b, "\n%s return: %s%%", lookbackName(lb), returnPct(price, open))
	}
	if d.FiftyDayAverage > 0 {
		fmt.Fprintf(&b, "\n\n50 day MA: $%.2f", d.FiftyDayAverage)
	}
	if d.TwoHundredDayAverage > 0 {
		fmt.Fprintf(&b, "\n200 day MA: $%.2f", d.TwoHundredDayAverage)
	}
	return b.String()
}

// returnPct computes (price/open - 1) * 100 at two decimal places.
func returnPct(price, open decimal.Decimal) string {
	if open.IsZero() {
		return "n/a"
	}
	return price.Div(open).Sub(one).Mul(hundred).Round(2).StringFixed(2)
}

func lookbackName(lb market.Lookback) string {
	switch lb {
	case market.Month1:
		return "1 month"
	case market.Month3:
		return "3 months"
	case market.Month6:
		return "6 months"
	case market.Month12:
		return "12 months"
	case market.YTD:
		return "YTD"
	}
	return lb.Label()
}
