package optionpl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/PaesslerAG/jsonpath"
	"github.com/dgraph-io/ristretto"
	"github.com/etnz/optionpl/date"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// this file contains functions to read the broker's export format: the list
// of option orders and the option instruments the legs refer to.

// DecodeOrders reads broker orders from r. The export is either a single
// JSON array of orders or a JSONL stream with one order per line.
func DecodeOrders(r io.Reader) ([]RawOrder, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read orders: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var orders []RawOrder
		if err := json.Unmarshal(trimmed, &orders); err != nil {
			return nil, fmt.Errorf("cannot parse orders: %w", err)
		}
		return orders, nil
	}

	var orders []RawOrder
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var o RawOrder
		if err := json.Unmarshal(line, &o); err != nil {
			return nil, fmt.Errorf("cannot parse order line %q: %w", string(line), err)
		}
		orders = append(orders, o)
	}
	return orders, scanner.Err()
}

// InstrumentPaths are the JSONPath expressions used to read an instrument
// document.
type InstrumentPaths struct {
	Key        string // reference of the instrument, used when the document is an array
	Expiration string
	Strike     string
	Type       string
}

// DefaultInstrumentPaths match the broker's option instrument documents.
var DefaultInstrumentPaths = InstrumentPaths{
	Key:        "$.url",
	Expiration: "$.expiration_date",
	Strike:     "$.strike_price",
	Type:       "$.type",
}

// JSONInstruments is an InstrumentLookup over a dump of instrument
// documents.
type JSONInstruments struct {
	paths    InstrumentPaths
	currency string
	docs     map[string]any
}

// DecodeInstruments reads an instrument dump from r. The dump is either a
// JSON object whose keys are the leg references, or a JSON array of
// instrument documents whose reference is read with paths.Key.
func DecodeInstruments(r io.Reader, paths InstrumentPaths, currency string) (*JSONInstruments, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("cannot parse instruments: %w", err)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	ins := &JSONInstruments{
		paths:    paths,
		currency: currency,
		docs:     make(map[string]any),
	}
	switch v := doc.(type) {
	case map[string]any:
		ins.docs = v
	case []any:
		for i, d := range v {
			key, err := jsonpath.Get(paths.Key, d)
			if err != nil {
				return nil, fmt.Errorf("instrument #%d: cannot read key %q: %w", i, paths.Key, err)
			}
			ref, err := asString(key)
			if err != nil {
				return nil, fmt.Errorf("instrument #%d: key: %w", i, err)
			}
			ins.docs[ref] = d
		}
	default:
		return nil, fmt.Errorf("instruments must be a JSON object or array, got %T", doc)
	}
	return ins, nil
}

// Len returns the number of known instruments.
func (j *JSONInstruments) Len() int { return len(j.docs) }

// Instrument implements InstrumentLookup.
func (j *JSONInstruments) Instrument(_ context.Context, ref string) (Instrument, error) {
	doc, ok := j.docs[ref]
	if !ok {
		return Instrument{}, fmt.Errorf("unknown instrument %q", ref)
	}
	field := func(path string) (string, error) {
		v, err := jsonpath.Get(path, doc)
		if err != nil {
			return "", fmt.Errorf("instrument %q: %s: %w", ref, path, err)
		}
		s, err := asString(v)
		if err != nil {
			return "", fmt.Errorf("instrument %q: %s: %w", ref, path, err)
		}
		return s, nil
	}

	exp, err := field(j.paths.Expiration)
	if err != nil {
		return Instrument{}, err
	}
	strike, err := field(j.paths.Strike)
	if err != nil {
		return Instrument{}, err
	}
	typ, err := field(j.paths.Type)
	if err != nil {
		return Instrument{}, err
	}

	var ins Instrument
	if ins.Expiration, err = date.Parse(exp); err != nil {
		return Instrument{}, fmt.Errorf("instrument %q: %w", ref, err)
	}
	if ins.Strike, err = ParseMoney(strike, j.currency); err != nil {
		return Instrument{}, fmt.Errorf("instrument %q: strike %q: %w", ref, strike, err)
	}
	if ins.Type, err = ParseOptionType(typ); err != nil {
		return Instrument{}, fmt.Errorf("instrument %q: %w", ref, err)
	}
	return ins, nil
}

// asString converts a scalar JSON value into its string form.
func asString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("expected a string or a number, got %T", v)
	}
}

// CachedInstruments resolves each reference once and serves the following
// lookups from memory.
type CachedInstruments struct {
	next   InstrumentLookup
	cache  *ristretto.Cache
	logger *zap.Logger
}

// NewCachedInstruments wraps next with a cache holding up to size instruments.
func NewCachedInstruments(next InstrumentLookup, size int64, logger *zap.Logger) (*CachedInstruments, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
		// cost counts instruments, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create instrument cache: %w", err)
	}
	return &CachedInstruments{next: next, cache: cache, logger: logger}, nil
}

// Instrument implements InstrumentLookup.
func (c *CachedInstruments) Instrument(ctx context.Context, ref string) (Instrument, error) {
	if v, ok := c.cache.Get(ref); ok {
		c.logger.Debug("instrument-cache-hit", zap.String("ref", ref))
		return v.(Instrument), nil
	}
	ins, err := c.next.Instrument(ctx, ref)
	if err != nil {
		return Instrument{}, err
	}
	c.cache.Set(ref, ins, 1)
	c.cache.Wait()
	return ins, nil
}

// Close releases the cache.
func (c *CachedInstruments) Close() { c.cache.Close() }
