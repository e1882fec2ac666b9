package optionpl

import (
	"fmt"
	"slices"

	"github.com/etnz/optionpl/date"
)

// ContractFill is one leg of one filled option order.
//
// Remaining starts equal to Quantity and is only decremented by the lot
// matcher, so that 0 <= Remaining <= Quantity always holds.
type ContractFill struct {
	Order      string // broker order id, informational
	Symbol     string // underlying instrument
	Strike     Money
	Expiration date.Date
	Type       OptionType
	Side       Side
	CreatedAt  date.Date
	Direction  Direction
	Opening    Strategy
	Closing    Strategy
	Price      Money // premium per contract share
	Quantity   Quantity
	Remaining  Quantity
	State      FillState
}

// MatchKey identifies fungible contracts: two fills are matchable iff their
// keys are equal.
type MatchKey struct {
	Strike     string // canonical decimal representation
	Expiration date.Date
	Strategy   Strategy
}

func (k MatchKey) String() string {
	return fmt.Sprintf("%s %s %s", k.Strike, k.Expiration, k.Strategy)
}

// Strategy returns the effective strategy: the opening one if set, the
// closing one otherwise.
func (f *ContractFill) Strategy() Strategy {
	if f.Opening != NoStrategy {
		return f.Opening
	}
	return f.Closing
}

// Key returns the match key of the fill.
func (f *ContractFill) Key() (MatchKey, error) {
	s := f.Strategy()
	if s == NoStrategy {
		return MatchKey{}, fmt.Errorf("%w: fill %s of %s on %s has neither opening nor closing strategy", ErrInvalidRecord, f.Order, f.Symbol, f.CreatedAt)
	}
	return MatchKey{
		Strike:     f.Strike.Decimal().String(),
		Expiration: f.Expiration,
		Strategy:   s,
	}, nil
}

// Validate checks the fill invariants.
func (f *ContractFill) Validate() error {
	if f.Symbol == "" {
		return fmt.Errorf("%w: fill %s has no symbol", ErrInvalidRecord, f.Order)
	}
	if f.Opening != NoStrategy && f.Closing != NoStrategy {
		return fmt.Errorf("%w: fill %s of %s has both an opening and a closing strategy", ErrInvalidRecord, f.Order, f.Symbol)
	}
	if _, err := f.Key(); err != nil {
		return err
	}
	if f.CreatedAt.IsZero() || f.Expiration.IsZero() {
		return fmt.Errorf("%w: fill %s of %s has no date", ErrInvalidRecord, f.Order, f.Symbol)
	}
	if f.Expiration.Before(f.CreatedAt) {
		return fmt.Errorf("%w: fill %s of %s was created on %s after its expiration %s", ErrInvalidRecord, f.Order, f.Symbol, f.CreatedAt, f.Expiration)
	}
	if f.Price.IsNegative() || f.Strike.IsNegative() {
		return fmt.Errorf("%w: fill %s of %s has a negative price or strike", ErrInvalidRecord, f.Order, f.Symbol)
	}
	if p, k := f.Price.Currency(), f.Strike.Currency(); p != "" && k != "" && p != k {
		return fmt.Errorf("%w: fill %s of %s has price in %s and strike in %s", ErrInvalidRecord, f.Order, f.Symbol, p, k)
	}
	if f.Remaining.IsNegative() || f.Remaining.GreaterThan(f.Quantity) {
		return fmt.Errorf("%w: fill %s of %s has remaining quantity %s out of [0, %s]", ErrInvalidRecord, f.Order, f.Symbol, f.Remaining, f.Quantity)
	}
	return nil
}

// Book holds the opening and closing fills of one instrument, in input order.
type Book struct {
	Opens  []*ContractFill
	Closes []*ContractFill
}

// Validate checks every fill of the book, and that they all share one
// currency: amounts of an instrument are summed without conversion.
func (b *Book) Validate() error {
	var currency, order string
	for _, f := range slices.Concat(b.Opens, b.Closes) {
		if err := f.Validate(); err != nil {
			return err
		}
		c := f.Price.Currency()
		if c == "" {
			continue
		}
		if currency == "" {
			currency, order = c, f.Order
			continue
		}
		if c != currency {
			return fmt.Errorf("%w: fill %s of %s is in %s, fill %s is in %s", ErrInvalidRecord, f.Order, f.Symbol, c, order, currency)
		}
	}
	return nil
}

// clone returns a deep copy of the book, owned by a single matching pass.
func (b *Book) clone() *Book {
	c := &Book{
		Opens:  make([]*ContractFill, 0, len(b.Opens)),
		Closes: make([]*ContractFill, 0, len(b.Closes)),
	}
	for _, f := range b.Opens {
		v := *f
		c.Opens = append(c.Opens, &v)
	}
	for _, f := range b.Closes {
		v := *f
		c.Closes = append(c.Closes, &v)
	}
	return c
}

// Books maps an instrument symbol to its book.
type Books map[string]*Book

// Add routes the fill to the open list of its symbol when it carries an
// opening strategy, to the close list when it carries a closing one.
func (b Books) Add(f *ContractFill) {
	book, ok := b[f.Symbol]
	if !ok {
		book = &Book{}
		b[f.Symbol] = book
	}
	if f.Opening != NoStrategy {
		book.Opens = append(book.Opens, f)
	}
	if f.Closing != NoStrategy {
		book.Closes = append(book.Closes, f)
	}
}

// Symbols returns the sorted list of symbols.
func (b Books) Symbols() []string {
	symbols := make([]string, 0, len(b))
	for s := range b {
		symbols = append(symbols, s)
	}
	slices.Sort(symbols)
	return symbols
}

// Fills returns all fills, symbol by symbol, opens before closes.
func (b Books) Fills() []*ContractFill {
	var fills []*ContractFill
	for _, s := range b.Symbols() {
		fills = append(fills, b[s].Opens...)
		fills = append(fills, b[s].Closes...)
	}
	return fills
}
