package optionpl

import (
	"fmt"
	"slices"

	"github.com/etnz/optionpl/date"
	"go.uber.org/zap"
)

// LedgerEntry is one realized outcome: a match between an opening and a
// closing fill, or the settlement of an unmatched remainder at expiration.
type LedgerEntry struct {
	Symbol   string
	Kind     EntryKind
	Strategy Strategy // opening strategy of the position
	Quantity Quantity
	Opened   date.Date
	Settled  date.Date
	Duration int // days between Opened and Settled
	Year     int // settlement year
	Profit   Money
	Cost     Money // premium paid for long positions, collateral for short ones
}

// lotMatcher is the state of a single instrument's pass. It exclusively
// owns the fills it is given.
type lotMatcher struct {
	symbol  string
	now     date.Date
	log     *zap.Logger
	entries []LedgerEntry
	open    []*ContractFill
	orphans []*ContractFill
	years   map[int]struct{}
}

// byCreatedAt orders fills by creation date.
func byCreatedAt(a, b *ContractFill) int {
	switch {
	case a.CreatedAt.Before(b.CreatedAt):
		return -1
	case a.CreatedAt.After(b.CreatedAt):
		return 1
	default:
		return 0
	}
}

// matchLots pairs the opening fills of one instrument with its closing fills.
//
// Opens and closes are stable-sorted by creation date, so fills created on
// the same day keep their input order. Each open, oldest first, scans the
// close list and consumes every close with the same key, in list order,
// until either side is exhausted. What remains of an open is settled if
// the contract expired before now, and kept open otherwise.
//
// Unlike a plain scan of the whole close list, a close created before the
// open is not eligible for it, which keeps durations non-negative. Such a
// close is left to a later open with the same key, or reported as an
// orphan when none consumes it.
//
// The policy is deterministic first-available matching; it is not tax-lot
// optimal.
func matchLots(symbol string, book *Book, now date.Date, log *zap.Logger) (*lotMatcher, error) {
	m := &lotMatcher{
		symbol: symbol,
		now:    now,
		log:    log,
		years:  make(map[int]struct{}),
	}

	opens := slices.Clone(book.Opens)
	slices.SortStableFunc(opens, byCreatedAt)
	closes := slices.Clone(book.Closes)
	slices.SortStableFunc(closes, byCreatedAt)

	closeKeys := make([]MatchKey, len(closes))
	for i, c := range closes {
		k, err := c.Key()
		if err != nil {
			return nil, err
		}
		closeKeys[i] = k
	}

	for _, o := range opens {
		if err := m.consume(o, closes, closeKeys); err != nil {
			return nil, err
		}
	}

	for _, c := range closes {
		if c.Remaining.IsPositive() {
			c.State = Open
			m.orphans = append(m.orphans, c)
			m.log.Warn("close-without-open",
				zap.String("symbol", symbol),
				zap.String("order", c.Order),
				zap.Stringer("created-at", c.CreatedAt),
				zap.Stringer("remaining", c.Remaining))
			continue
		}
		c.State = Closed
	}
	return m, nil
}

// consume matches one opening fill against the close list, then settles or
// keeps its remainder.
func (m *lotMatcher) consume(o *ContractFill, closes []*ContractFill, closeKeys []MatchKey) error {
	if o.Opening == NoStrategy {
		return fmt.Errorf("%w: fill %s of %s is in the open list without an opening strategy", ErrInvalidRecord, o.Order, m.symbol)
	}
	pos := o.Opening.Position()
	if pos == NoPosition {
		return fmt.Errorf("%w: %v on fill %s of %s", ErrUnsupportedStrategy, o.Opening, o.Order, m.symbol)
	}
	key, err := o.Key()
	if err != nil {
		return err
	}

	for i, c := range closes {
		if !o.Remaining.IsPositive() {
			break
		}
		if closeKeys[i] != key || !c.Remaining.IsPositive() || c.CreatedAt.Before(o.CreatedAt) {
			continue
		}
		q := MinQ(o.Remaining, c.Remaining)

		var profit, cost Money
		switch pos {
		case Long:
			profit = c.Price.Sub(o.Price).Mul(q)
			cost = o.Price.Mul(q)
		case Short:
			profit = o.Price.Sub(c.Price).Mul(q)
			cost = o.Strike.Mul(q)
		}
		o.Remaining = o.Remaining.Sub(q)
		c.Remaining = c.Remaining.Sub(q)

		m.emit(LedgerEntry{
			Symbol:   m.symbol,
			Kind:     Match,
			Strategy: o.Opening,
			Quantity: q,
			Opened:   o.CreatedAt,
			Settled:  c.CreatedAt,
			Duration: c.CreatedAt.Sub(o.CreatedAt),
			Year:     c.CreatedAt.Year(),
			Profit:   profit,
			Cost:     cost,
		})
		m.log.Debug("lot-matched",
			zap.String("symbol", m.symbol),
			zap.Stringer("key", key),
			zap.String("open", o.Order),
			zap.String("close", c.Order),
			zap.Stringer("quantity", q))
	}

	if !o.Remaining.IsPositive() {
		o.State = Closed
		return nil
	}

	if !o.Expiration.Before(m.now) {
		o.State = Open
		m.open = append(m.open, o)
		return nil
	}

	// Expired unmatched: a credit keeps the premium received against the
	// collateral, a debit loses the premium paid.
	rem := o.Remaining
	premium := o.Price.Mul(rem)
	profit, cost := premium, o.Strike.Mul(rem)
	if o.Direction == Debit {
		profit, cost = premium.Neg(), premium
	}
	o.Remaining = Q(0)
	o.State = Expired
	m.emit(LedgerEntry{
		Symbol:   m.symbol,
		Kind:     Expiration,
		Strategy: o.Opening,
		Quantity: rem,
		Opened:   o.CreatedAt,
		Settled:  o.Expiration,
		Duration: o.Expiration.Sub(o.CreatedAt),
		Year:     o.Expiration.Year(),
		Profit:   profit,
		Cost:     cost,
	})
	m.log.Debug("lot-expired",
		zap.String("symbol", m.symbol),
		zap.Stringer("key", key),
		zap.String("open", o.Order),
		zap.Stringer("quantity", rem))
	return nil
}

func (m *lotMatcher) emit(e LedgerEntry) {
	m.entries = append(m.entries, e)
	m.years[e.Year] = struct{}{}
}
