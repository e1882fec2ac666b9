package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	optionpl "github.com/etnz/optionpl"
	"github.com/etnz/optionpl/renderer"
	"github.com/google/subcommands"
)

type reportCmd struct {
	fills  string
	date   string
	format string
	output string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "reconcile fills and report the realized P/L" }
func (*reportCmd) Usage() string {
	return `opl report [-fills <file>] [-d <date>] [-format md|csv|html|json] [-o <file>]

  Matches opening and closing fills, settles expired positions, and reports
  the realized profit and loss per underlying and settlement year, followed
  by every match.

  Formats:
    md    summary and itemized tables, rendered for the terminal
    csv   itemized ledger
    html  summary and itemized tables
    json  one ledger entry per line
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fills, "fills", "", "fills file, defaults to the configured one")
	f.StringVar(&c.date, "d", "", "as-of date, defaults to today")
	f.StringVar(&c.format, "format", "md", "output format: md, csv, html or json")
	f.StringVar(&c.output, "o", "", "output file, defaults to stdout")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	if c.format == "md" && (c.output == "" || c.output == "-") {
		printMarkdown(renderer.ReportMarkdown(report))
		return subcommands.ExitSuccess
	}

	w, closeOutput, err := createOutput(c.output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", c.output, err)
		return subcommands.ExitFailure
	}
	defer closeOutput()

	switch c.format {
	case "md":
		_, err = fmt.Fprint(w, renderer.ReportMarkdown(report))
	case "csv":
		err = renderer.CSV(w, report)
	case "html":
		var html string
		html, err = renderer.HTML(renderer.ReportMarkdown(report))
		if err == nil {
			_, err = fmt.Fprint(w, html)
		}
	case "json":
		err = optionpl.EncodeLedger(w, report)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
