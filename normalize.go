package optionpl

import (
	"context"
	"fmt"

	"github.com/etnz/optionpl/date"
	"go.uber.org/zap"
)

// RawOrder is an option order as exported by the broker.
type RawOrder struct {
	ID                string   `json:"id"`
	Symbol            string   `json:"chain_symbol"`
	State             string   `json:"state"`
	Legs              []RawLeg `json:"legs"`
	OpeningStrategy   string   `json:"opening_strategy"`
	ClosingStrategy   string   `json:"closing_strategy"`
	CreatedAt         string   `json:"created_at"`
	Direction         string   `json:"direction"`
	Quantity          string   `json:"quantity"`
	ProcessedQuantity string   `json:"processed_quantity"`
}

// RawLeg is one leg of a RawOrder.
type RawLeg struct {
	Option     string         `json:"option"` // reference of the option instrument
	Side       string         `json:"side"`
	Executions []RawExecution `json:"executions"`
}

// RawExecution is one execution of a RawLeg.
type RawExecution struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// Instrument describes the option contract a leg refers to.
type Instrument struct {
	Expiration date.Date
	Strike     Money
	Type       OptionType
}

// InstrumentLookup resolves a leg's option reference.
type InstrumentLookup interface {
	Instrument(ctx context.Context, ref string) (Instrument, error)
}

// Normalizer converts raw broker orders into contract fills.
type Normalizer struct {
	Lookup   InstrumentLookup
	Currency string // defaults to DefaultCurrency
	Logger   *zap.Logger
	// OnError selects whether an order that cannot be converted aborts
	// Normalize or is skipped.
	OnError ErrorPolicy

	// Failures holds the orders skipped by the last Normalize under
	// SkipInstrument, by order id.
	Failures map[string]error
}

func (n *Normalizer) log() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}

// Normalize converts all filled single-leg orders into fills grouped by
// symbol, in input order. Orders that are not filled, and orders whose
// strategy is a multi-leg structure, are skipped. An order that fails to
// convert contributes no fill at all, whatever its number of legs.
func (n *Normalizer) Normalize(ctx context.Context, orders []RawOrder) (Books, error) {
	books := make(Books)
	n.Failures = make(map[string]error)
	var skipped int
	for _, order := range orders {
		if order.State != "filled" {
			skipped++
			continue
		}
		if IsMultiLeg(order.OpeningStrategy) || IsMultiLeg(order.ClosingStrategy) {
			n.log().Debug("multi-leg-order-skipped",
				zap.String("order", order.ID),
				zap.String("symbol", order.Symbol),
				zap.String("opening-strategy", order.OpeningStrategy),
				zap.String("closing-strategy", order.ClosingStrategy))
			skipped++
			continue
		}
		fills, err := n.fills(ctx, order)
		if err != nil {
			if n.OnError == AbortRun {
				return nil, err
			}
			n.log().Warn("order-skipped",
				zap.String("order", order.ID),
				zap.String("symbol", order.Symbol),
				zap.Error(err))
			n.Failures[order.ID] = err
			skipped++
			continue
		}
		for _, f := range fills {
			books.Add(f)
		}
	}
	n.log().Info("orders-normalized",
		zap.Int("orders", len(orders)),
		zap.Int("skipped", skipped),
		zap.Int("failures", len(n.Failures)),
		zap.Int("instruments", len(books)))
	return books, nil
}

func (n *Normalizer) fills(ctx context.Context, order RawOrder) ([]*ContractFill, error) {
	fills := make([]*ContractFill, 0, len(order.Legs))
	for _, leg := range order.Legs {
		fill, err := n.Fill(ctx, order, leg)
		if err != nil {
			return nil, err
		}
		fills = append(fills, fill)
	}
	return fills, nil
}

// Fill converts one leg of a filled order into a contract fill.
func (n *Normalizer) Fill(ctx context.Context, order RawOrder, leg RawLeg) (*ContractFill, error) {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: order %s of %s: %s", ErrInvalidRecord, order.ID, order.Symbol, fmt.Sprintf(format, args...))
	}
	currency := n.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	if order.Symbol == "" {
		return nil, invalid("no chain symbol")
	}
	opening, err := ParseStrategy(order.OpeningStrategy)
	if err != nil {
		return nil, fmt.Errorf("order %s of %s: %w", order.ID, order.Symbol, err)
	}
	closing, err := ParseStrategy(order.ClosingStrategy)
	if err != nil {
		return nil, fmt.Errorf("order %s of %s: %w", order.ID, order.Symbol, err)
	}
	if opening == NoStrategy && closing == NoStrategy {
		return nil, invalid("neither opening nor closing strategy")
	}
	created, err := date.Parse(order.CreatedAt)
	if err != nil {
		return nil, invalid("created_at: %v", err)
	}
	direction, err := ParseDirection(order.Direction)
	if err != nil {
		return nil, invalid("%v", err)
	}
	quantity, err := ParseQuantity(order.ProcessedQuantity)
	if err != nil {
		return nil, invalid("processed_quantity %q: %v", order.ProcessedQuantity, err)
	}
	side, err := ParseSide(leg.Side)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if len(leg.Executions) == 0 {
		return nil, invalid("leg %s has no execution", leg.Option)
	}
	price, err := ParseMoney(leg.Executions[0].Price, currency)
	if err != nil {
		return nil, invalid("price %q: %v", leg.Executions[0].Price, err)
	}
	ins, err := n.Lookup.Instrument(ctx, leg.Option)
	if err != nil {
		return nil, invalid("instrument %s: %v", leg.Option, err)
	}

	fill := &ContractFill{
		Order:      order.ID,
		Symbol:     order.Symbol,
		Strike:     ins.Strike,
		Expiration: ins.Expiration,
		Type:       ins.Type,
		Side:       side,
		CreatedAt:  created,
		Direction:  direction,
		Opening:    opening,
		Closing:    closing,
		Price:      price,
		Quantity:   quantity,
		Remaining:  quantity,
	}
	if err := fill.Validate(); err != nil {
		return nil, err
	}
	return fill, nil
}
