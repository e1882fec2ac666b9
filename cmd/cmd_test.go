package cmd

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
)

const testOrders = `[
 {"id":"1","chain_symbol":"AAPL","state":"filled","opening_strategy":"long_call","closing_strategy":null,
  "created_at":"2021-01-04T15:30:00Z","direction":"debit","quantity":"1.00000","processed_quantity":"1.00000",
  "legs":[{"option":"aaa","side":"buy","executions":[{"price":"2.00000000","quantity":"1.00000"}]}]},
 {"id":"2","chain_symbol":"AAPL","state":"filled","opening_strategy":null,"closing_strategy":"long_call",
  "created_at":"2021-01-20T15:30:00Z","direction":"credit","quantity":"1.00000","processed_quantity":"1.00000",
  "legs":[{"option":"aaa","side":"sell","executions":[{"price":"5.00000000","quantity":"1.00000"}]}]},
 {"id":"3","chain_symbol":"AAPL","state":"cancelled","opening_strategy":"long_call",
  "created_at":"2021-01-05T15:30:00Z","direction":"debit","quantity":"1.00000","processed_quantity":"0.00000",
  "legs":[{"option":"aaa","side":"buy","executions":[]}]}
]`

const testInstruments = `{"aaa":{"expiration_date":"2021-03-19","strike_price":"130.0000","type":"call"}}`

// setup writes a configuration and a broker export in a temporary
// directory and points the global flags to it.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	write("orders.json", testOrders)
	write("instruments.json", testInstruments)
	conf := write("opl.toml", `log_level = "error"
currency = "USD"

[import]
orders = "`+filepath.Join(dir, "orders.json")+`"
instruments = "`+filepath.Join(dir, "instruments.json")+`"

[reconcile]
fills = "`+filepath.Join(dir, "fills.jsonl")+`"
`)
	old := *configFile
	*configFile = conf
	t.Cleanup(func() { *configFile = old })
	return dir
}

// execute runs c with args the way the commander does.
func execute(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("%s: cannot parse %v: %v", c.Name(), args, err)
	}
	return c.Execute(context.Background(), f)
}

func TestImportThenReport(t *testing.T) {
	dir := setup(t)

	if got := execute(t, &importCmd{}); got != subcommands.ExitSuccess {
		t.Fatalf("import exit status = %v", got)
	}
	fills, err := os.ReadFile(filepath.Join(dir, "fills.jsonl"))
	if err != nil {
		t.Fatalf("fills were not written: %v", err)
	}
	if n := strings.Count(string(fills), "\n"); n != 2 {
		t.Errorf("import wrote %d fills, want 2:\n%s", n, fills)
	}

	ledger := filepath.Join(dir, "ledger.jsonl")
	if got := execute(t, &reportCmd{}, "-d", "2021-06-01", "-format", "json", "-o", ledger); got != subcommands.ExitSuccess {
		t.Fatalf("report exit status = %v", got)
	}
	out, err := os.ReadFile(ledger)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"symbol":"AAPL","kind":"match","strategy":"long_call"`, `"duration":16`, `"year":2021`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("ledger does not contain %q:\n%s", want, out)
		}
	}

	csv := filepath.Join(dir, "ledger.csv")
	if got := execute(t, &reportCmd{}, "-d", "2021-06-01", "-format", "csv", "-o", csv); got != subcommands.ExitSuccess {
		t.Fatalf("report exit status = %v", got)
	}
	out, _ = os.ReadFile(csv)
	if !strings.HasPrefix(string(out), "ticker,strategy,event") {
		t.Errorf("csv report starts with %q", strings.SplitN(string(out), "\n", 2)[0])
	}
}

func TestImport_OnError(t *testing.T) {
	dir := setup(t)
	withUnknown := strings.TrimSuffix(testOrders, "]") + `,
 {"id":"4","chain_symbol":"MSFT","state":"filled","opening_strategy":"short_put",
  "created_at":"2021-01-05T15:30:00Z","direction":"credit","quantity":"1.00000","processed_quantity":"1.00000",
  "legs":[{"option":"zzz","side":"sell","executions":[{"price":"1.00000000","quantity":"1.00000"}]}]}
]`
	if err := os.WriteFile(filepath.Join(dir, "orders.json"), []byte(withUnknown), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := execute(t, &importCmd{}); got != subcommands.ExitFailure {
		t.Errorf("import with an unknown instrument = %v, want %v", got, subcommands.ExitFailure)
	}

	t.Setenv("OPL_IMPORT_ON_ERROR", "skip")
	if got := execute(t, &importCmd{}); got != subcommands.ExitSuccess {
		t.Fatalf("import skipping invalid orders = %v, want %v", got, subcommands.ExitSuccess)
	}
	fills, err := os.ReadFile(filepath.Join(dir, "fills.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(fills), "\n"); n != 2 || strings.Contains(string(fills), "MSFT") {
		t.Errorf("import wrote:\n%s\nwant the 2 AAPL fills only", fills)
	}
}

func TestReport_Errors(t *testing.T) {
	setup(t)

	testCases := []struct {
		name string
		args []string
		want subcommands.ExitStatus
	}{
		{"missing fills", []string{"-fills", "does-not-exist.jsonl", "-d", "2021-06-01"}, subcommands.ExitFailure},
		{"bad date", []string{"-d", "yesterday-ish"}, subcommands.ExitUsageError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := execute(t, &reportCmd{}, tc.args...); got != tc.want {
				t.Errorf("report %v = %v, want %v", tc.args, got, tc.want)
			}
		})
	}
}

func TestPublish_NoDSN(t *testing.T) {
	setup(t)
	t.Setenv("OPL_POSTGRES_DSN", "")
	if got := execute(t, &publishCmd{}); got != subcommands.ExitUsageError {
		t.Errorf("publish without dsn = %v, want %v", got, subcommands.ExitUsageError)
	}
}

func TestLoadEnv_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(conf, []byte(`timezone = "Mars/Olympus"`), 0o644); err != nil {
		t.Fatal(err)
	}
	old := *configFile
	*configFile = conf
	defer func() { *configFile = old }()

	if _, err := loadEnv(); err == nil {
		t.Errorf("loadEnv() with an unknown time zone must fail")
	}
}
