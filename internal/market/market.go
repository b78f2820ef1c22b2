// Package market adapts external quote data sources behind the Provider
// interface consumed by the conversation core. Every numeric field of a
// Snapshot is optional: zero means the vendor did not return it, and callers
// must use the Has* helpers before rendering.
package market

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is an ephemeral view of one symbol's market data, fetched fresh
// per request and never cached.
type Snapshot struct {
	Symbol   string
	LongName string

	Price         float64
	PreviousClose float64
	ChangePercent float64

	MarketCap int64

	FiftyTwoWeekHigh              float64
	FiftyTwoWeekLow               float64
	FiftyTwoWeekHighChangePercent float64

	FiftyDayAverage      float64
	TwoHundredDayAverage float64

	Volume        int
	AverageVolume int

	// Trailing annual dividend; DividendDate is zero when the symbol pays none.
	DividendRate  float64
	DividendYield float64
	DividendDate  time.Time
}

// HasPrice reports whether a current price was returned.
func (s *Snapshot) HasPrice() bool { return s != nil && s.Price != 0 }

// HasDividend reports whether any trailing dividend data was returned.
func (s *Snapshot) HasDividend() bool {
	return s != nil && s.DividendRate != 0 && !s.DividendDate.IsZero()
}

// Profile carries the descriptive company record shown by the About action.
type Profile struct {
	Symbol   string
	Summary  string
	Sector   string
	Industry string
	Website  string
}

// NewsItem is one headline from the symbol's news feed.
type NewsItem struct {
	Title     string
	Link      string
	Summary   string
	Published string
}

// Provider is the quote data contract consumed by the conversation core.
type Provider interface {
	// Quote returns the current snapshot, or ErrSymbolNotFound for an
	// unknown ticker.
	Quote(ctx context.Context, symbol string) (*Snapshot, error)
	// Profile returns the company description record.
	Profile(ctx context.Context, symbol string) (*Profile, error)
	// News returns up to n recent headlines, newest first.
	News(ctx context.Context, symbol string, n int) ([]NewsItem, error)
	// HistoryOpen returns the opening price at the start of the lookback
	// window.
	HistoryOpen(ctx context.Context, symbol string, lb Lookback) (decimal.Decimal, error)
}
