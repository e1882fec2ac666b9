package agent

import (
	"context"
	"fmt"
	"time"

	optionpl "github.com/etnz/optionpl"
	"github.com/etnz/optionpl/date"
	"github.com/etnz/optionpl/docs"
	"github.com/etnz/optionpl/renderer"
	"google.golang.org/genai"
)

// creates the facilitator
func newFacilitator(model string, experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and keep context of your previous questions.

			The user trades listed options and wants to understand their realized profit and loss,
			usually per underlying and per tax year. Ask the experts before answering, and never
			invent a figure that an expert did not give you.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewStrategist creates an expert in option strategies that grounds its
// answers with Google Search.
func NewStrategist(model string) *Expert {
	return &Expert{
		Name: "Strategist",
		Description: `This is an expert in listed options.
		Ask the Strategist about option strategies, expiration rules, assignment, and recent news
		about an underlying.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in listed equity options. You leverage Google Search to ground your
			assertions. You explain strategies (long and short calls and puts), expirations and
			their tax treatment in plain words.
			`}}},
		},
	}
}

// Reconciler reconciles the user's fills as of a date.
type Reconciler func(ctx context.Context, asOf date.Date) (*optionpl.Report, error)

// NewAccountant creates the expert reading the user's option ledger. Dates
// default to today in loc.
func NewAccountant(model string, reconcile Reconciler, loc *time.Location) *Expert {
	lib := []Function{
		reportFunc("Ledger", `Ledger returns the realized profit and loss of the user's option trades
		as of a date: a summary per underlying and settlement year, then every match or expiration.`,
			reconcile, loc, renderer.ReportMarkdown),
		reportFunc("OpenPositions", `OpenPositions lists the option positions still open as of a date,
		and the closing fills for which no opening fill was found.`,
			reconcile, loc, renderer.OpenMarkdown),
	}

	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant. It reads the user's option ledger and knows the realized
		profit, the cost basis and the holding duration of every trade.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an accountant in charge of the user's option ledger.
				Use the Tools to read the realized profit and loss and the open positions.
				Amounts are per contract, one contract being 100 shares.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// reportFunc declares a function taking an optional date and returning a
// markdown rendering of the report as of that date.
func reportFunc(name, description string, reconcile Reconciler, loc *time.Location, render func(*optionpl.Report) string) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        name,
			Description: description,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"date": {
						Type:        genai.TypeString,
						Description: "The as-of date, today by default.\n\n" + datesTopic(),
					},
				},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown document.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			asOf, err := parseDate(args, loc)
			if err != nil {
				return errorResponse(id, name, err)
			}
			report, err := reconcile(ctx, asOf)
			if err != nil {
				return errorResponse(id, name, fmt.Errorf("could not reconcile the ledger: %w", err))
			}
			return outputResponse(id, name, render(report))
		},
	}
}

func datesTopic() string {
	topic, err := docs.GetTopic("dates")
	if err != nil {
		return ""
	}
	return topic
}

func parseDate(args map[string]any, loc *time.Location) (date.Date, error) {
	idate, ok := args["date"]
	if !ok {
		return date.Today(loc), nil
	}
	sdate, ok := idate.(string)
	if !ok {
		return date.Date{}, fmt.Errorf("argument 'date' is not a string as expected but %T", idate)
	}
	d, err := date.Parse(sdate)
	if err != nil {
		return date.Date{}, fmt.Errorf("argument 'date' must be a valid date got %q. Below is the doc about the format date\n\n%s", sdate, datesTopic())
	}
	return d, nil
}
