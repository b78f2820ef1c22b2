package market

import (
	"errors"
	"fmt"
)

// ErrSymbolNotFound marks a lookup for a ticker the vendor does not know.
var ErrSymbolNotFound = errors.New("market: symbol not found")

// DataError reports vendor data that came back absent or too short to
// render: a missing required field, fewer news items than the layout needs,
// fewer history points than the momentum math needs.
type DataError struct {
	Symbol string
	Field  string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("market: %s: %s: %s", e.Symbol, e.Field, e.Reason)
}

// Code tags the error for handler summary logs.
func (e *DataError) Code() string { return "PROVIDER_DATA" }

// NewDataError builds a DataError for the given symbol and field.
func NewDataError(symbol, field, format string, args ...any) *DataError {
	return &DataError{Symbol: symbol, Field: field, Reason: fmt.Sprintf(format, args...)}
}
