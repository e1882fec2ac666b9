package optionpl

import "errors"

var (
	// ErrInvalidRecord reports a fill that cannot be used: missing strategy,
	// unparsable number, date or enum, or an unresolvable instrument.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrUnsupportedStrategy reports a strategy that is not one of the four
	// single-leg strategies (long/short call/put).
	ErrUnsupportedStrategy = errors.New("unsupported strategy")
)
