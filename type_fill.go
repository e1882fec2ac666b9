package optionpl

import (
	"encoding/json"
	"fmt"
)

// OptionType is call or put. It is carried through but never used for matching.
type OptionType int

const (
	Call OptionType = iota
	Put
)

func (t OptionType) String() string {
	switch t {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return "unknown"
	}
}

// ParseOptionType parses "call" or "put".
func ParseOptionType(s string) (OptionType, error) {
	switch s {
	case "call":
		return Call, nil
	case "put":
		return Put, nil
	default:
		return 0, fmt.Errorf("unknown option type: %q", s)
	}
}

// Side is the side of the leg, informational only.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide parses "buy" or "sell".
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown side: %q", s)
	}
}

// Direction tells whether the order brought cash in (credit) or out (debit).
type Direction int

const (
	Debit Direction = iota
	Credit
)

func (d Direction) String() string {
	switch d {
	case Debit:
		return "debit"
	case Credit:
		return "credit"
	default:
		return "unknown"
	}
}

// ParseDirection parses "credit" or "debit".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "debit":
		return Debit, nil
	case "credit":
		return Credit, nil
	default:
		return 0, fmt.Errorf("unknown direction: %q", s)
	}
}

// FillState is the classification of a fill at the end of a reconciliation.
type FillState int

const (
	// Pending fills have not been through a reconciliation yet.
	Pending FillState = iota
	// Open fills still hold quantity and have not expired.
	Open
	// Closed fills were entirely consumed by matches.
	Closed
	// Expired fills were settled at expiration.
	Expired
)

func (s FillState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// EntryKind tells which event produced a ledger entry.
type EntryKind int

const (
	// Match entries pair an opening fill with a closing fill.
	Match EntryKind = iota
	// Expiration entries settle an unmatched remainder at expiration.
	Expiration
)

func (k EntryKind) String() string {
	switch k {
	case Match:
		return "match"
	case Expiration:
		return "expiration"
	default:
		return "unknown"
	}
}

// ParseEntryKind parses "match" or "expiration".
func ParseEntryKind(s string) (EntryKind, error) {
	switch s {
	case "match":
		return Match, nil
	case "expiration":
		return Expiration, nil
	default:
		return 0, fmt.Errorf("unknown entry kind: %q", s)
	}
}

func (k EntryKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }
