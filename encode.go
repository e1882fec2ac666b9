package optionpl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/etnz/optionpl/date"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// This file contains the JSONL format of normalized fills and of ledger
// entries. Both remain human readable and git-friendly: one object per line,
// fields in a fixed order.

// jfill is the persisted form of a ContractFill.
type jfill struct {
	Order      string           `json:"order"`
	Symbol     string           `json:"symbol"`
	CreatedAt  date.Date        `json:"createdAt"`
	Expiration date.Date        `json:"expiration"`
	Strike     decimal.Decimal  `json:"strike"`
	Type       string           `json:"type"`
	Side       string           `json:"side"`
	Direction  string           `json:"direction"`
	Opening    string           `json:"opening"`
	Closing    string           `json:"closing"`
	Price      decimal.Decimal  `json:"price"`
	Currency   string           `json:"currency"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Remaining  *decimal.Decimal `json:"remaining"`
}

func (j jfill) fill() (*ContractFill, error) {
	invalid := func(err error) error {
		return fmt.Errorf("%w: fill %s of %s: %v", ErrInvalidRecord, j.Order, j.Symbol, err)
	}
	cur := j.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	f := &ContractFill{
		Order:      j.Order,
		Symbol:     j.Symbol,
		CreatedAt:  j.CreatedAt,
		Expiration: j.Expiration,
		Strike:     M(j.Strike, cur),
		Price:      M(j.Price, cur),
		Quantity:   Q(j.Quantity),
		Remaining:  Q(j.Quantity),
	}
	if j.Remaining != nil {
		f.Remaining = Q(*j.Remaining)
	}
	var err error
	if f.Type, err = ParseOptionType(j.Type); err != nil {
		return nil, invalid(err)
	}
	if f.Side, err = ParseSide(j.Side); err != nil {
		return nil, invalid(err)
	}
	if f.Direction, err = ParseDirection(j.Direction); err != nil {
		return nil, invalid(err)
	}
	if f.Opening, err = ParseStrategy(j.Opening); err != nil {
		return nil, fmt.Errorf("fill %s of %s: %w", j.Order, j.Symbol, err)
	}
	if f.Closing, err = ParseStrategy(j.Closing); err != nil {
		return nil, fmt.Errorf("fill %s of %s: %w", j.Order, j.Symbol, err)
	}
	return f, f.Validate()
}

// DecodeFills reads fills in JSONL format from r and groups them by symbol,
// preserving their relative order.
func DecodeFills(r io.Reader) (Books, error) {
	books := make(Books)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		var j jfill
		if err := json.Unmarshal(lineBytes, &j); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidRecord, line, err)
		}
		f, err := j.fill()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		books.Add(f)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return books, nil
}

// MarshalJSON writes the fill in its persisted form.
func (f *ContractFill) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("order", f.Order)
	w.Append("symbol", f.Symbol)
	w.Append("createdAt", f.CreatedAt)
	w.Append("expiration", f.Expiration)
	w.Append("strike", f.Strike.Decimal())
	w.Append("type", f.Type.String())
	w.Append("side", f.Side.String())
	w.Append("direction", f.Direction.String())
	w.Optional("opening", f.Opening.String())
	w.Optional("closing", f.Closing.String())
	w.Append("price", f.Price.Decimal())
	if c := f.Price.Currency(); c != DefaultCurrency {
		w.Optional("currency", c)
	}
	w.Append("quantity", f.Quantity.Decimal())
	if !f.Remaining.Equal(f.Quantity) {
		w.Append("remaining", f.Remaining.Decimal())
	}
	return w.MarshalJSON()
}

// EncodeFills writes all fills of books in JSONL format, symbol by symbol.
func EncodeFills(w io.Writer, books Books) error {
	for _, f := range books.Fills() {
		if err := encodeLine(w, f); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON writes the entry in its persisted form.
func (e LedgerEntry) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", e.Symbol)
	w.Append("kind", e.Kind)
	w.Append("strategy", e.Strategy)
	w.Append("quantity", e.Quantity)
	w.Append("opened", e.Opened)
	w.Append("settled", e.Settled)
	w.Append("duration", e.Duration)
	w.Append("year", e.Year)
	w.Append("profit", e.Profit.Decimal())
	w.Append("cost", e.Cost.Decimal())
	w.Optional("currency", e.Profit.Currency())
	return w.MarshalJSON()
}

// EncodeLedger writes every ledger entry of the report in JSONL format,
// symbol by symbol, in emission order.
func EncodeLedger(w io.Writer, report *Report) error {
	for _, e := range report.Entries() {
		if err := encodeLine(w, e); err != nil {
			return err
		}
	}
	return nil
}

func encodeLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write %T: %w", v, err)
	}
	return nil
}
