package optionpl

import (
	"fmt"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/etnz/optionpl/date"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ContractMultiplier is the number of shares one listed equity option
// contract controls. Premiums and strikes are quoted per share, reports
// scale ledger values by this factor.
const ContractMultiplier = 100

// InstrumentLedger is the realized history of one underlying instrument.
type InstrumentLedger struct {
	Symbol  string
	Entries []LedgerEntry   // in emission order
	Open    []*ContractFill // residual open fills
}

// Profit returns the sum of all entries' profit.
func (l *InstrumentLedger) Profit() Money {
	var total Money
	for _, e := range l.Entries {
		total = total.Add(e.Profit)
	}
	return total
}

// Cost returns the sum of all entries' cost.
func (l *InstrumentLedger) Cost() Money {
	var total Money
	for _, e := range l.Entries {
		total = total.Add(e.Cost)
	}
	return total
}

// ProfitByYear sums the profit of entries per settlement year.
func (l *InstrumentLedger) ProfitByYear() map[int]Money {
	byYear := make(map[int]Money)
	for _, e := range l.Entries {
		byYear[e.Year] = byYear[e.Year].Add(e.Profit)
	}
	return byYear
}

// ErrorPolicy selects what Reconcile does when an instrument fails.
type ErrorPolicy int

const (
	// AbortRun stops the whole reconciliation on the first failing
	// instrument (in symbol order).
	AbortRun ErrorPolicy = iota
	// SkipInstrument drops the failing instrument and records the error in
	// Report.Failures.
	SkipInstrument
)

func (p ErrorPolicy) String() string {
	switch p {
	case AbortRun:
		return "abort"
	case SkipInstrument:
		return "skip"
	default:
		return "unknown"
	}
}

// ParseErrorPolicy parses "abort" or "skip".
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "abort":
		return AbortRun, nil
	case "skip":
		return SkipInstrument, nil
	default:
		return 0, fmt.Errorf("unknown error policy: %q", s)
	}
}

// Options tunes a reconciliation. The zero value is valid.
type Options struct {
	// Workers bounds the number of instruments matched concurrently.
	// Values below 2 match instruments one after the other.
	Workers int
	OnError ErrorPolicy
	Logger  *zap.Logger
}

// Report is the outcome of a reconciliation.
type Report struct {
	AsOf date.Date
	// Ledgers only holds instruments with at least one entry.
	Ledgers map[string]*InstrumentLedger
	// Open holds the residual open fills of every instrument that has some.
	Open map[string][]*ContractFill
	// Orphans holds closing fills that kept quantity after the pass, i.e.
	// closes without a matching open in the input.
	Orphans map[string][]*ContractFill
	// Years is the sorted set of distinct settlement years.
	Years []int
	// Failures holds instruments skipped under the SkipInstrument policy.
	Failures map[string]error
}

// Reconcile runs the lot matcher on every instrument of books, as of now,
// and accumulates the results.
//
// The input books are not modified: each instrument is matched on a private
// copy of its fills, so Reconcile can be run several times on the same
// input with the same result.
func Reconcile(books Books, now date.Date, opts *Options) (*Report, error) {
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	symbols := books.Symbols()
	results := make([]*lotMatcher, len(symbols))
	errs := make([]error, len(symbols))

	// Under AbortRun, an instrument is not started once an instrument that
	// sorts before it has failed. Instruments before the first failure
	// always run, so the reported error does not depend on scheduling.
	var failed atomic.Int64
	failed.Store(int64(len(symbols)))
	fail := func(i int, err error) {
		errs[i] = err
		for {
			cur := failed.Load()
			if int64(i) >= cur || failed.CompareAndSwap(cur, int64(i)) {
				return
			}
		}
	}

	var g errgroup.Group
	g.SetLimit(max(opts.Workers, 1))
	for i, symbol := range symbols {
		book := books[symbol].clone()
		g.Go(func() error {
			if opts.OnError == AbortRun && int64(i) > failed.Load() {
				log.Debug("instrument-not-started", zap.String("symbol", symbol))
				return nil
			}
			if err := book.Validate(); err != nil {
				fail(i, fmt.Errorf("instrument %s: %w", symbol, err))
				return nil
			}
			m, err := matchLots(symbol, book, now, log)
			if err != nil {
				fail(i, fmt.Errorf("instrument %s: %w", symbol, err))
				return nil
			}
			results[i] = m
			return nil
		})
	}
	_ = g.Wait() // workers report through errs

	report := &Report{
		AsOf:     now,
		Ledgers:  make(map[string]*InstrumentLedger),
		Open:     make(map[string][]*ContractFill),
		Orphans:  make(map[string][]*ContractFill),
		Failures: make(map[string]error),
	}
	years := make(map[int]struct{})
	for i, symbol := range symbols {
		if err := errs[i]; err != nil {
			if opts.OnError == AbortRun {
				return nil, err
			}
			log.Warn("instrument-skipped", zap.String("symbol", symbol), zap.Error(err))
			report.Failures[symbol] = err
			continue
		}
		m := results[i]
		if len(m.open) > 0 {
			report.Open[symbol] = m.open
		}
		if len(m.orphans) > 0 {
			report.Orphans[symbol] = m.orphans
		}
		if len(m.entries) == 0 {
			continue
		}
		report.Ledgers[symbol] = &InstrumentLedger{
			Symbol:  symbol,
			Entries: m.entries,
			Open:    m.open,
		}
		maps.Copy(years, m.years)
	}
	report.Years = slices.Sorted(maps.Keys(years))

	log.Info("reconciled",
		zap.Stringer("as-of", now),
		zap.Int("instruments", len(symbols)),
		zap.Int("ledgers", len(report.Ledgers)),
		zap.Int("failures", len(report.Failures)),
		zap.Ints("years", report.Years))
	return report, nil
}

// Symbols returns the sorted symbols that have a ledger.
func (r *Report) Symbols() []string {
	return slices.Sorted(maps.Keys(r.Ledgers))
}

// Entries returns all ledger entries, symbol by symbol.
func (r *Report) Entries() []LedgerEntry {
	var entries []LedgerEntry
	for _, s := range r.Symbols() {
		entries = append(entries, r.Ledgers[s].Entries...)
	}
	return entries
}

// OpenFills returns all residual open fills, symbol by symbol.
func (r *Report) OpenFills() []*ContractFill {
	var fills []*ContractFill
	for _, s := range slices.Sorted(maps.Keys(r.Open)) {
		fills = append(fills, r.Open[s]...)
	}
	return fills
}

// OrphanFills returns all orphan closing fills, symbol by symbol.
func (r *Report) OrphanFills() []*ContractFill {
	var fills []*ContractFill
	for _, s := range slices.Sorted(maps.Keys(r.Orphans)) {
		fills = append(fills, r.Orphans[s]...)
	}
	return fills
}

// ProfitByYear sums the profit of all instruments per settlement year.
func (r *Report) ProfitByYear() map[int]Money {
	byYear := make(map[int]Money)
	for _, l := range r.Ledgers {
		for y, p := range l.ProfitByYear() {
			byYear[y] = byYear[y].Add(p)
		}
	}
	return byYear
}

// Profit returns the total realized profit.
func (r *Report) Profit() Money {
	var total Money
	for _, l := range r.Ledgers {
		total = total.Add(l.Profit())
	}
	return total
}
