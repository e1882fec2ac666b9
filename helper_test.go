package optionpl

import (
	"github.com/etnz/optionpl/date"
)

// opening is a helper for tests to create an opening fill.
func opening(order, created, expiration string, strike float64, s Strategy, price float64, qty int) *ContractFill {
	dir := Debit
	side := Buy
	if s.Position() == Short {
		dir, side = Credit, Sell
	}
	return &ContractFill{
		Order:      order,
		Symbol:     "AAPL",
		Strike:     USD(strike),
		Expiration: date.MustParse(expiration),
		Type:       optionType(s),
		Side:       side,
		CreatedAt:  date.MustParse(created),
		Direction:  dir,
		Opening:    s,
		Price:      USD(price),
		Quantity:   Q(qty),
		Remaining:  Q(qty),
	}
}

// closing is a helper for tests to create a closing fill.
func closing(order, created, expiration string, strike float64, s Strategy, price float64, qty int) *ContractFill {
	dir := Credit
	side := Sell
	if s.Position() == Short {
		dir, side = Debit, Buy
	}
	return &ContractFill{
		Order:      order,
		Symbol:     "AAPL",
		Strike:     USD(strike),
		Expiration: date.MustParse(expiration),
		Type:       optionType(s),
		Side:       side,
		CreatedAt:  date.MustParse(created),
		Direction:  dir,
		Closing:    s,
		Price:      USD(price),
		Quantity:   Q(qty),
		Remaining:  Q(qty),
	}
}

func optionType(s Strategy) OptionType {
	if s == LongPut || s == ShortPut {
		return Put
	}
	return Call
}

// bookOf groups fills per symbol the way the normalizer does.
func bookOf(fills ...*ContractFill) Books {
	books := make(Books)
	for _, f := range fills {
		books.Add(f)
	}
	return books
}
