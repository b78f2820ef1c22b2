package market

import "time"

// Lookback identifies one of the historical windows used by the momentum
// view.
type Lookback int

const (
	Month1 Lookback = iota
	Month3
	Month6
	Month12
	YTD
)

// Lookbacks returns all windows in display order.
func Lookbacks() []Lookback {
	return []Lookback{Month1, Month3, Month6, Month12, YTD}
}

// Label returns the short display name of the window.
func (lb Lookback) Label() string {
	switch lb {
	case Month1:
		return "1mo"
	case Month3:
		return "3mo"
	case Month6:
		return "6mo"
	case Month12:
		return "12mo"
	case YTD:
		return "YTD"
	}
	return "?"
}

// Start computes the window start for the given reference time.
// YTD starts at January 1st of the reference year.
func (lb Lookback) Start(now time.Time) time.Time {
	switch lb {
	case Month1:
		return now.AddDate(0, -1, 0)
	case Month3:
		return now.AddDate(0, -3, 0)
	case Month6:
		return now.AddDate(0, -6, 0)
	case Month12:
		return now.AddDate(-1, 0, 0)
	case YTD:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	}
	return now
}
