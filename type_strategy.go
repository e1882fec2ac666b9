package optionpl

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Strategy is the single-leg strategy a fill opens or closes.
type Strategy int

const (
	// NoStrategy is the zero value, used when a fill carries no opening (or
	// no closing) strategy.
	NoStrategy Strategy = iota
	LongCall
	LongPut
	ShortCall
	ShortPut
)

func (s Strategy) String() string {
	switch s {
	case NoStrategy:
		return ""
	case LongCall:
		return "long_call"
	case LongPut:
		return "long_put"
	case ShortCall:
		return "short_call"
	case ShortPut:
		return "short_put"
	default:
		return "unknown"
	}
}

// Position returns whether the strategy holds a long or a short position.
func (s Strategy) Position() Position {
	switch s {
	case LongCall, LongPut:
		return Long
	case ShortCall, ShortPut:
		return Short
	default:
		return NoPosition
	}
}

// multiLeg are the fragments of broker strategy names that describe
// structures of several contracts.
var multiLeg = []string{"spread", "condor", "butterfly", "strangle", "straddle"}

// IsMultiLeg reports whether a broker strategy name describes a multi-leg
// structure (any spread, iron condor, strangle...).
func IsMultiLeg(s string) bool {
	for _, m := range multiLeg {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// ParseStrategy parses a broker strategy name. The empty string is
// NoStrategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "":
		return NoStrategy, nil
	case "long_call":
		return LongCall, nil
	case "long_put":
		return LongPut, nil
	case "short_call":
		return ShortCall, nil
	case "short_put":
		return ShortPut, nil
	}
	if IsMultiLeg(s) {
		return NoStrategy, fmt.Errorf("%w: %q is a multi-leg strategy", ErrUnsupportedStrategy, s)
	}
	return NoStrategy, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, s)
}

func (s Strategy) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }
func (s *Strategy) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	v, err := ParseStrategy(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Position is the side of the market a strategy holds.
type Position int

const (
	NoPosition Position = iota
	// Long positions are bought first, the premium paid is the cost.
	Long
	// Short positions are sold first, the strike is the collateral held.
	Short
)

func (p Position) String() string {
	switch p {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}
