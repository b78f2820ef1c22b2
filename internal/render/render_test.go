package render

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/tickerbot/internal/market"
)

func TestQuoteIncludesCoreFields(t *testing.T) {
	s := &market.Snapshot{
		Symbol:                        "AAPL",
		LongName:                      "Apple Inc.",
		Price:                         190.25,
		ChangePercent:                 1.34,
		MarketCap:                     2_950_000_000_000,
		FiftyTwoWeekHigh:              199.62,
		FiftyTwoWeekLow:               164.08,
		FiftyTwoWeekHighChangePercent: -0.0469,
		Volume:                        52_164_500,
		AverageVolume:                 58_857_000,
	}
	got := Quote(s)

	for _, want := range []string{
		"*$AAPL* Apple Inc.",
		"Current Price: $190.25, 1.34%",
		"Market Cap: $2,950,000,000,000",
		"52 Week High: $199.62",
		"52 Week Low: $164.08",
		"52wk High Change: -4.69%",
		"Volume: 52,164,500",
		"Average Volume: 58,857,000",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("quote missing %q in:\n%s", want, got)
		}
	}
}

func TestQuoteSkipsAbsentFields(t *testing.T) {
	s := &market.Snapshot{Symbol: "XYZ", LongName: "Xyz Corp", Price: 10}
	got := Quote(s)
	if strings.Contains(got, "Market Cap") || strings.Contains(got, "Volume") {
		t.Errorf("absent fields should not be rendered:\n%s", got)
	}
}

func TestDividend(t *testing.T) {
	withDvd := &market.Snapshot{
		Symbol:       "KO",
		DividendRate: 1.84,
		DividendDate: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
	}
	if got := Dividend(withDvd); got != "Last dvd: $1.84, 2025-07-01" {
		t.Errorf("dividend = %q", got)
	}

	if got := Dividend(&market.Snapshot{Symbol: "SHOP"}); got != NoDividend {
		t.Errorf("missing dividend should degrade to %q, got %q", NoDividend, got)
	}
}

func TestNewsLayout(t *testing.T) {
	items := []market.NewsItem{
		{Title: "First", Link: "https://a", Published: "Mon, 02 Jun 2025 14:00:00 +0000"},
		{Title: "Second", Link: "https://b"},
		{Title: "Third", Link: "https://c"},
	}
	got := News("Apple Inc.", items)
	if !strings.HasPrefix(got, "News for Apple Inc.:") {
		t.Errorf("header wrong:\n%s", got)
	}
	if n := strings.Count(got, "----------------------------------------"); n != 2 {
		t.Errorf("expected 2 rules between 3 items, got %d", n)
	}
	if !strings.Contains(got, "Time published: Mon, 02 Jun 2025 14:00:00 +0000") {
		t.Errorf("published time missing:\n%s", got)
	}
}

func TestMomentumReturns(t *testing.T) {
	d := MomentumData{
		Name:  "Apple Inc.",
		Price: 110,
		Opens: map[market.Lookback]decimal.Decimal{
			market.Month1:  decimal.NewFromInt(100),
			market.Month3:  decimal.NewFromInt(88),
			market.Month6:  decimal.NewFromInt(80),
			market.Month12: decimal.NewFromInt(55),
			market.YTD:     decimal.NewFromInt(110),
		},
		FiftyDayAverage:      105.5,
		TwoHundredDayAverage: 98.7,
	}
	got := Momentum(d)
	for _, want := range []string{
		"1 month return: 10.00%",
		"12 months return: 100.00%",
		"YTD return: 0.00%",
		"50 day MA: $105.50",
		"200 day MA: $98.70",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("momentum missing %q in:\n%s", want, got)
		}
	}
}

func TestMarkdownEscaping(t *testing.T) {
	p := &market.Profile{Symbol: "X", Summary: "under_score *star*"}
	got := About(p)
	if !strings.Contains(got, `under\_score \*star\*`) {
		t.Errorf("summary should be escaped for markdown:\n%s", got)
	}
}
