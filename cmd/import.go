package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	optionpl "github.com/etnz/optionpl"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type importCmd struct {
	orders      string
	instruments string
	output      string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "convert a broker option export into fills" }
func (*importCmd) Usage() string {
	return `opl import [-orders <file>] [-instruments <file>] [-o <fills.jsonl>]

  Reads the broker's option orders and the option instruments they refer to,
  and writes one fill per leg of every filled single-leg order.
  Files default to the [import] section of the configuration.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.orders, "orders", "", "orders export (JSON array or JSONL)")
	f.StringVar(&c.instruments, "instruments", "", "instruments export (JSON object or array)")
	f.StringVar(&c.output, "o", "", "output fills file, defaults to the configured fills file, '-' for stdout")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer e.log.Sync()

	ordersFile := c.orders
	if ordersFile == "" {
		ordersFile = e.cfg.Import.Orders
	}
	instrumentsFile := c.instruments
	if instrumentsFile == "" {
		instrumentsFile = e.cfg.Import.Instruments
	}
	output := c.output
	if output == "" {
		output = e.cfg.Reconcile.Fills
	}

	orders, err := readOrders(ordersFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading orders: %v\n", err)
		return subcommands.ExitFailure
	}
	instruments, err := readInstruments(instrumentsFile, e)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading instruments: %v\n", err)
		return subcommands.ExitFailure
	}

	lookup, err := optionpl.NewCachedInstruments(instruments, e.cfg.Import.CacheSize, e.log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer lookup.Close()

	n := &optionpl.Normalizer{
		Lookup:   lookup,
		Currency: e.cfg.Currency,
		Logger:   e.log,
		OnError:  e.cfg.ImportPolicy(),
	}
	books, err := n.Normalize(ctx, orders)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error normalizing orders: %v\n", err)
		return subcommands.ExitFailure
	}

	w, closeOutput, err := createOutput(output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", output, err)
		return subcommands.ExitFailure
	}
	if err := optionpl.EncodeFills(w, books); err != nil {
		closeOutput()
		fmt.Fprintf(os.Stderr, "Error writing fills: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := closeOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing %q: %v\n", output, err)
		return subcommands.ExitFailure
	}

	if len(n.Failures) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d orders skipped\n", len(n.Failures))
	}
	e.log.Info("fills-imported",
		zap.String("orders", ordersFile),
		zap.String("output", output),
		zap.Int("fills", len(books.Fills())),
		zap.Int("skipped", len(n.Failures)))
	return subcommands.ExitSuccess
}

func readOrders(path string) ([]optionpl.RawOrder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return optionpl.DecodeOrders(f)
}

func readInstruments(path string, e *env) (*optionpl.JSONInstruments, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return optionpl.DecodeInstruments(f, e.cfg.InstrumentPaths(), e.cfg.Currency)
}
