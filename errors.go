package portfolio

import "errors"

// Error kinds. Errors returned by this package wrap one of them, test with errors.Is.
var (
	// ErrNotFound reports an absent asset, catalog entry or event index.
	ErrNotFound = errors.New("not found")
	// ErrValidation reports an argument outside of its allowed domain.
	ErrValidation = errors.New("invalid argument")
	// ErrNegativeHolding reports a position that would make a holding count negative.
	ErrNegativeHolding = errors.New("negative holding")
	// ErrNoPriceData reports a day that has neither an observation nor a previous price.
	ErrNoPriceData = errors.New("no price data")
	// ErrOutOfRange reports a query outside of the series range.
	ErrOutOfRange = errors.New("date out of range")
	// ErrNetwork reports a market data provider transport failure.
	ErrNetwork = errors.New("network error")
	// ErrParse reports a market data provider payload that could not be read.
	ErrParse = errors.New("parse error")
)
