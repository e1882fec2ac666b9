package renderer

import (
	"fmt"
	"io"

	optionpl "github.com/etnz/optionpl"
	"github.com/gocarina/gocsv"
)

// ItemizedRow is one ledger entry as exported to spreadsheets.
type ItemizedRow struct {
	Symbol   string `csv:"ticker"`
	Strategy string `csv:"strategy"`
	Event    string `csv:"event"`
	Quantity string `csv:"quantity"`
	Opened   string `csv:"opened"`
	Settled  string `csv:"settled"`
	Duration int    `csv:"duration"`
	Year     int    `csv:"year"`
	Cost     string `csv:"cost"`
	Profit   string `csv:"profit"`
	Currency string `csv:"currency"`
}

// ItemizedRows converts the report entries into rows, amounts per contract.
func ItemizedRows(r *optionpl.Report) []*ItemizedRow {
	var rows []*ItemizedRow
	for _, e := range r.Entries() {
		rows = append(rows, &ItemizedRow{
			Symbol:   e.Symbol,
			Strategy: e.Strategy.String(),
			Event:    e.Kind.String(),
			Quantity: e.Quantity.String(),
			Opened:   e.Opened.String(),
			Settled:  e.Settled.String(),
			Duration: e.Duration,
			Year:     e.Year,
			Cost:     contract(e.Cost).Decimal().StringFixed(2),
			Profit:   contract(e.Profit).Decimal().StringFixed(2),
			Currency: e.Profit.Currency(),
		})
	}
	return rows
}

// CSV writes the itemized ledger in CSV format, with a header line.
func CSV(w io.Writer, r *optionpl.Report) error {
	rows := ItemizedRows(r)
	if len(rows) == 0 {
		// header only
		_, err := fmt.Fprintln(w, "ticker,strategy,event,quantity,opened,settled,duration,year,cost,profit,currency")
		return err
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("cannot write csv: %w", err)
	}
	return nil
}
