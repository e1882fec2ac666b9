// Package cmd implements the opl command line application.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/glamour"
	optionpl "github.com/etnz/optionpl"
	"github.com/etnz/optionpl/config"
	"github.com/etnz/optionpl/date"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&importCmd{}, "ledger")
	c.Register(&reportCmd{}, "ledger")
	c.Register(&openCmd{}, "ledger")
	c.Register(&publishCmd{}, "ledger")
	c.Register(&assistCmd{}, "help")
	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

// DefaultConfigFile is read when present.
const DefaultConfigFile = "opl.toml"

var configFile = flag.String("config", DefaultConfigFile, "Path to the TOML configuration file")

// Verbose enables debug logs.
var Verbose = flag.Bool("v", false, "Enable debug logs")

// env holds what every command needs.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

// loadEnv loads and validates the configuration and builds the logger. A
// missing default configuration file is not an error.
func loadEnv() (*env, error) {
	path := *configFile
	if path == DefaultConfigFile {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load configuration %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := cfg.NewLogger(*Verbose)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: logger}, nil
}

// asOf parses the -d flag, defaulting to today in the configured time zone.
func (e *env) asOf(d string) (date.Date, error) {
	if d != "" {
		return date.Parse(d)
	}
	loc, err := e.cfg.Location()
	if err != nil {
		return date.Date{}, err
	}
	return date.Today(loc), nil
}

// fillsPath returns the -fills flag value, or the configured one.
func (e *env) fillsPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return e.cfg.Reconcile.Fills
}

// decodeFills reads the fills file.
func decodeFills(path string) (optionpl.Books, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open fills file %q: %w", path, err)
	}
	defer f.Close()

	books, err := optionpl.DecodeFills(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode fills file %q: %w", path, err)
	}
	return books, nil
}

// reconcile reads the fills and reconciles them as of asOf.
func (e *env) reconcile(_ context.Context, fills string, asOf date.Date) (*optionpl.Report, error) {
	books, err := decodeFills(fills)
	if err != nil {
		return nil, err
	}
	opts := e.cfg.Options()
	opts.Logger = e.log
	return optionpl.Reconcile(books, asOf, opts)
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// createOutput returns the file to write to, or stdout for "" and "-".
func createOutput(path string) (*os.File, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
