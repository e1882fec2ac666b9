package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	optionpl "github.com/etnz/optionpl"
	"github.com/etnz/optionpl/agent"
	"github.com/etnz/optionpl/date"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

type assistCmd struct {
	fills string
}

func (*assistCmd) Name() string { return "assist" }

func (*assistCmd) Synopsis() string { return "start an interactive session with the AI assistant" }

func (*assistCmd) Usage() string {
	return `opl assist [-fills <file>] [question...]

  Start an interactive session with the AI assistant. The assistant reads
  the reconciled ledger to answer questions about realized P/L. An optional
  first question can be given as arguments.
`
}

func (c *assistCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fills, "fills", "", "fills file, defaults to the configured one")
}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer e.log.Sync()

	loc, err := e.cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	var clientConfig *genai.ClientConfig
	if e.cfg.Assistant.APIKey != "" {
		clientConfig = &genai.ClientConfig{APIKey: e.cfg.Assistant.APIKey, Backend: genai.BackendGeminiAPI}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	fills := e.fillsPath(c.fills)
	reconcile := func(ctx context.Context, asOf date.Date) (*optionpl.Report, error) {
		return e.reconcile(ctx, fills, asOf)
	}

	model := e.cfg.Assistant.Model
	accountant := agent.NewAccountant(model, reconcile, loc)
	accountant.Logger = e.log
	strategist := agent.NewStrategist(model)
	strategist.Logger = e.log

	a := agent.New(os.Stdout, os.Stdin, model, accountant, strategist)
	a.Facilitator.Logger = e.log
	a.Print = func(_ io.Writer, text string) { printMarkdown(text) }

	var prompts []string
	if f.NArg() > 0 {
		prompts = append(prompts, strings.Join(f.Args(), " "))
	}
	if err := a.Run(ctx, client, prompts...); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
