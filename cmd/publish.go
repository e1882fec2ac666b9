package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/optionpl/store"
	"github.com/google/subcommands"
)

type publishCmd struct {
	fills  string
	date   string
	runID  string
	schema bool
}

func (*publishCmd) Name() string { return "publish" }

func (*publishCmd) Synopsis() string { return "insert the reconciled ledger into PostgreSQL" }

func (*publishCmd) Usage() string {
	return `opl publish [-fills <file>] [-d <date>] [-run <uuid>] [-schema]

  Reconciles the fills and inserts every ledger entry into the configured
  PostgreSQL table, in a single transaction. Each publication is identified
  by a run id, generated unless given.
`
}

func (c *publishCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fills, "fills", "", "fills file, defaults to the configured one")
	f.StringVar(&c.date, "d", "", "as-of date, defaults to today")
	f.StringVar(&c.runID, "run", "", "run id (UUID), generated when empty")
	f.BoolVar(&c.schema, "schema", false, "create the table if it does not exist")
}

func (c *publishCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer e.log.Sync()

	if e.cfg.Postgres.DSN == "" {
		fmt.Fprintln(os.Stderr, "Error: no postgres dsn configured (postgres.dsn or OPL_POSTGRES_DSN)")
		return subcommands.ExitUsageError
	}
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

	db, err := store.Open(ctx, e.cfg.Postgres.DSN, e.cfg.Postgres.Table, e.log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	if c.schema {
		if err := db.EnsureSchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	runID, err := db.Publish(ctx, c.runID, report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error publishing ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Published %d entries as run %s\n", len(report.Entries()), runID)
	return subcommands.ExitSuccess
}
