package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	optionpl "github.com/etnz/optionpl"
	"github.com/etnz/optionpl/date"
	"google.golang.org/genai"
)

func TestAccountantLibrary(t *testing.T) {
	var asked date.Date
	reconcile := func(_ context.Context, asOf date.Date) (*optionpl.Report, error) {
		asked = asOf
		return optionpl.Reconcile(optionpl.Books{}, asOf, nil)
	}
	accountant := NewAccountant("model", reconcile, time.UTC)

	testCases := []struct {
		name      string
		call      *genai.FunctionCall
		wantKey   string
		wantText  string
		wantAsked string
	}{
		{
			name:      "ledger on a date",
			call:      &genai.FunctionCall{ID: "1", Name: "Ledger", Args: map[string]any{"date": "2021-6-1"}},
			wantKey:   "output",
			wantText:  "# Option P/L as of 2021-06-01",
			wantAsked: "2021-06-01",
		},
		{
			name:      "open positions",
			call:      &genai.FunctionCall{ID: "2", Name: "OpenPositions", Args: map[string]any{"date": "2021-01-31"}},
			wantKey:   "output",
			wantText:  "No open position.",
			wantAsked: "2021-01-31",
		},
		{
			name:     "bad date",
			call:     &genai.FunctionCall{ID: "3", Name: "Ledger", Args: map[string]any{"date": "tomorrow"}},
			wantKey:  "error",
			wantText: "must be a valid date",
		},
		{
			name:     "unknown function",
			call:     &genai.FunctionCall{ID: "4", Name: "Holdings"},
			wantKey:  "error",
			wantText: "unknown function Holdings",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			asked = date.Date{}
			resp := accountant.Library(context.Background(), tc.call)
			if resp.ID != tc.call.ID || resp.Name != tc.call.Name {
				t.Errorf("response id/name = %q/%q, want %q/%q", resp.ID, resp.Name, tc.call.ID, tc.call.Name)
			}
			got, _ := resp.Response[tc.wantKey].(string)
			if !strings.Contains(got, tc.wantText) {
				t.Errorf("response[%s] = %q, want it to contain %q", tc.wantKey, got, tc.wantText)
			}
			if tc.wantAsked != "" && asked.String() != tc.wantAsked {
				t.Errorf("reconciled as of %v, want %s", asked, tc.wantAsked)
			}
		})
	}
}

func TestAccountantDefaultsToToday(t *testing.T) {
	var asked date.Date
	reconcile := func(_ context.Context, asOf date.Date) (*optionpl.Report, error) {
		asked = asOf
		return nil, errors.New("no fills")
	}
	accountant := NewAccountant("model", reconcile, time.UTC)

	resp := accountant.Library(context.Background(), &genai.FunctionCall{Name: "Ledger"})
	if got, _ := resp.Response["error"].(string); !strings.Contains(got, "no fills") {
		t.Errorf("error = %q, want the reconciliation error", got)
	}
	if today := date.Today(time.UTC); asked != today && asked != today.Add(-1) {
		t.Errorf("asOf = %v, want today %v", asked, today)
	}
}

func TestFacilitatorDeclaresExperts(t *testing.T) {
	a := New(nil, strings.NewReader(""), "model", NewAccountant("model", nil, nil), NewStrategist("model"))
	decls := a.Facilitator.Config.Tools[0].FunctionDeclarations
	if len(decls) != 2 || decls[0].Name != "Accountant" || decls[1].Name != "Strategist" {
		t.Fatalf("declarations = %v", decls)
	}
	if decls[0].Parameters.Required[0] != "question" {
		t.Errorf("experts take a question")
	}

	resp := a.Facilitator.Library(context.Background(), &genai.FunctionCall{ID: "x", Name: "Accountant", Args: map[string]any{"question": 42}})
	if got, _ := resp.Response["error"].(string); !strings.Contains(got, "invalid question type") {
		t.Errorf("error = %q", got)
	}
}
