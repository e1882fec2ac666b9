package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/optionpl/renderer"
	"github.com/google/subcommands"
)

type openCmd struct {
	fills string
	date  string
}

func (*openCmd) Name() string     { return "open" }
func (*openCmd) Synopsis() string { return "list open positions and unmatched closes" }
func (*openCmd) Usage() string {
	return `opl open [-fills <file>] [-d <date>]

  Lists the opening fills that still hold contracts and have not expired,
  and the closing fills for which no opening fill was found.
`
}

func (c *openCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fills, "fills", "", "fills file, defaults to the configured one")
	f.StringVar(&c.date, "d", "", "as-of date, defaults to today")
}

func (c *openCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer e.log.Sync()

	asOf, err := e.asOf(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	report, err := e.reconcile(ctx, e.fillsPath(c.fills), asOf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reconciling fills: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.OpenMarkdown(report))
	return subcommands.ExitSuccess
}
