// Package renderer formats reconciliation reports as markdown, CSV and
// HTML. Amounts are shown per contract.
package renderer

import (
	"fmt"
	"io"
	"slices"
	"strings"

	optionpl "github.com/etnz/optionpl"
)

// ReportMarkdown renders the summary, the itemized ledger and the skipped
// instruments of a report.
func ReportMarkdown(r *optionpl.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Option P/L as of %s\n\n", r.AsOf)
	if len(r.Ledgers) == 0 {
		fmt.Fprint(&b, "No realized profit or loss.\n\n")
	} else {
		b.WriteString(SummaryMarkdown(r))
		b.WriteString(ItemizedMarkdown(r))
	}
	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Skipped Instruments\n\n")
		fmt.Fprintln(w, "| Symbol | Error |")
		fmt.Fprintln(w, "|:---|:---|")
		for _, s := range sortedKeys(r.Failures) {
			fmt.Fprintf(w, "| %s | %s |\n", s, escape(r.Failures[s].Error()))
		}
		fmt.Fprintln(w)
		return len(r.Failures) > 0
	})
	return b.String()
}

// SummaryMarkdown renders realized profit per symbol and settlement year,
// with totals per symbol and per year.
func SummaryMarkdown(r *optionpl.Report) string {
	var b strings.Builder
	fmt.Fprint(&b, "## Summary\n\n")

	fmt.Fprint(&b, "| Symbol |")
	for _, y := range r.Years {
		fmt.Fprintf(&b, " %d |", y)
	}
	fmt.Fprintln(&b, " Total |")
	fmt.Fprint(&b, "|:---|")
	for range r.Years {
		fmt.Fprint(&b, "---:|")
	}
	fmt.Fprintln(&b, "---:|")

	for _, s := range r.Symbols() {
		l := r.Ledgers[s]
		byYear := l.ProfitByYear()
		fmt.Fprintf(&b, "| %s |", s)
		for _, y := range r.Years {
			fmt.Fprintf(&b, " %s |", cell(byYear, y))
		}
		fmt.Fprintf(&b, " %s |\n", contract(l.Profit()))
	}

	byYear := r.ProfitByYear()
	fmt.Fprint(&b, "| **Total** |")
	for _, y := range r.Years {
		fmt.Fprintf(&b, " **%s** |", cell(byYear, y))
	}
	fmt.Fprintf(&b, " **%s** |\n\n", contract(r.Profit()))
	return b.String()
}

func cell(byYear map[int]optionpl.Money, year int) string {
	p, ok := byYear[year]
	if !ok {
		return ""
	}
	return contract(p).String()
}

// ItemizedMarkdown renders every ledger entry, symbol by symbol.
func ItemizedMarkdown(r *optionpl.Report) string {
	var b strings.Builder
	fmt.Fprint(&b, "## Itemized\n\n")
	fmt.Fprintln(&b, "| Symbol | Strategy | Event | Quantity | Opened | Settled | Days | Year | Cost | Profit |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|:---|:---|---:|---:|---:|---:|")
	for _, e := range r.Entries() {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %d | %d | %s | %s |\n",
			e.Symbol,
			e.Strategy,
			e.Kind,
			e.Quantity,
			e.Opened,
			e.Settled,
			e.Duration,
			e.Year,
			contract(e.Cost),
			contract(e.Profit),
		)
	}
	fmt.Fprintln(&b)
	return b.String()
}

// OpenMarkdown renders the residual open fills and the closing fills that
// found no opening fill.
func OpenMarkdown(r *optionpl.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Open Positions as of %s\n\n", r.AsOf)

	open := r.OpenFills()
	if len(open) == 0 {
		fmt.Fprint(&b, "No open position.\n\n")
	} else {
		fills(&b, open)
	}

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Closes Without Open\n\n")
		orphans := r.OrphanFills()
		fills(w, orphans)
		return len(orphans) > 0
	})
	return b.String()
}

func fills(w io.Writer, fills []*optionpl.ContractFill) {
	fmt.Fprintln(w, "| Symbol | Order | Strategy | Strike | Expiration | Created | Remaining | Price |")
	fmt.Fprintln(w, "|:---|:---|:---|---:|:---|:---|---:|---:|")
	for _, f := range fills {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			f.Symbol,
			f.Order,
			f.Strategy(),
			f.Strike,
			f.Expiration,
			f.CreatedAt,
			f.Remaining,
			contract(f.Price),
		)
	}
	fmt.Fprintln(w)
}

// escape keeps a free text inside a table cell.
func escape(s string) string {
	return strings.NewReplacer("|", "\\|", "\n", " ").Replace(s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
