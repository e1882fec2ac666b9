package optionpl

import (
	"context"
	"strings"
	"testing"

	"github.com/etnz/optionpl/date"
	"go.uber.org/zap"
)

const ordersArray = `[
 {"id":"1","chain_symbol":"AAPL","state":"filled","opening_strategy":"long_call","closing_strategy":null,
  "created_at":"2021-01-04T15:30:00Z","direction":"debit","quantity":"1.00000","processed_quantity":"1.00000",
  "legs":[{"option":"https://api/options/instruments/aaa/","side":"buy","executions":[{"price":"2.05000000","quantity":"1.00000"}]}]},
 {"id":"2","chain_symbol":"AAPL","state":"cancelled","opening_strategy":"long_call",
  "created_at":"2021-01-05T15:30:00Z","direction":"debit","quantity":"1.00000","processed_quantity":"0.00000",
  "legs":[{"option":"https://api/options/instruments/aaa/","side":"buy","executions":[]}]}
]`

func TestDecodeOrders(t *testing.T) {
	jsonl := `
{"id":"1","chain_symbol":"AAPL","state":"filled","legs":[{"option":"a","side":"buy","executions":[{"price":"2.05"}]}]}

{"id":"2","chain_symbol":"MSFT","state":"filled","legs":[]}
`
	testCases := []struct {
		name  string
		input string
		want  []string
	}{
		{"array", ordersArray, []string{"1", "2"}},
		{"jsonl", jsonl, []string{"1", "2"}},
		{"empty", "  \n", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orders, err := DecodeOrders(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("DecodeOrders() error = %v", err)
			}
			if len(orders) != len(tc.want) {
				t.Fatalf("got %d orders, want %d", len(orders), len(tc.want))
			}
			for i, id := range tc.want {
				if orders[i].ID != id {
					t.Errorf("order %d id = %q, want %q", i, orders[i].ID, id)
				}
			}
		})
	}

	orders, _ := DecodeOrders(strings.NewReader(ordersArray))
	o := orders[0]
	if o.Symbol != "AAPL" || o.ProcessedQuantity != "1.00000" || o.ClosingStrategy != "" || o.Legs[0].Executions[0].Price != "2.05000000" {
		t.Errorf("order = %+v", o)
	}

	if _, err := DecodeOrders(strings.NewReader(`{"id":`)); err == nil {
		t.Errorf("DecodeOrders() on truncated input must fail")
	}
}

func TestDecodeInstruments(t *testing.T) {
	want := Instrument{Expiration: date.MustParse("2021-03-19"), Strike: USD(130), Type: Call}

	testCases := []struct {
		name  string
		input string
		paths InstrumentPaths
	}{
		{
			name:  "object keyed by reference",
			input: `{"aaa":{"expiration_date":"2021-03-19","strike_price":"130.0000","type":"call"}}`,
			paths: DefaultInstrumentPaths,
		},
		{
			name:  "array",
			input: `[{"url":"zzz","expiration_date":"2022-01-21","strike_price":"5.0000","type":"put"},{"url":"aaa","expiration_date":"2021-03-19","strike_price":"130.0000","type":"call"}]`,
			paths: DefaultInstrumentPaths,
		},
		{
			name:  "custom paths and numbers",
			input: `[{"id":"aaa","contract":{"expiry":"2021-03-19","strike":130,"right":"call"}}]`,
			paths: InstrumentPaths{Key: "$.id", Expiration: "$.contract.expiry", Strike: "$.contract.strike", Type: "$.contract.right"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ins, err := DecodeInstruments(strings.NewReader(tc.input), tc.paths, "")
			if err != nil {
				t.Fatalf("DecodeInstruments() error = %v", err)
			}
			got, err := ins.Instrument(context.Background(), "aaa")
			if err != nil {
				t.Fatalf("Instrument() error = %v", err)
			}
			if got.Expiration != want.Expiration || got.Type != want.Type || !got.Strike.Equal(want.Strike) {
				t.Errorf("Instrument() = %+v, want %+v", got, want)
			}
			if _, err := ins.Instrument(context.Background(), "unknown"); err == nil {
				t.Errorf("Instrument(unknown) must fail")
			}
		})
	}

	if _, err := DecodeInstruments(strings.NewReader(`"aaa"`), DefaultInstrumentPaths, ""); err == nil {
		t.Errorf("DecodeInstruments() on a scalar must fail")
	}
}

func TestCachedInstruments(t *testing.T) {
	lookup := newFakeLookup()
	cached, err := NewCachedInstruments(lookup, 100, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCachedInstruments() error = %v", err)
	}
	defer cached.Close()

	for range 3 {
		ins, err := cached.Instrument(context.Background(), "opt/aapl-130c")
		if err != nil {
			t.Fatalf("Instrument() error = %v", err)
		}
		if !ins.Strike.Equal(USD(130)) {
			t.Errorf("strike = %v, want 130", ins.Strike)
		}
	}
	if lookup.calls != 1 {
		t.Errorf("underlying lookups = %d, want 1", lookup.calls)
	}

	if _, err := cached.Instrument(context.Background(), "opt/unknown"); err == nil {
		t.Errorf("unknown instrument must fail")
	}
}
