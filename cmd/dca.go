package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/renderer"
	"github.com/google/subcommands"
)

// allocationsFlag collects repeated -a TICKER=PERCENT flags.
type allocationsFlag []stockfolio.Allocation

func (a *allocationsFlag) String() string {
	parts := make([]string, 0, len(*a))
	for _, al := range *a {
		parts = append(parts, al.Ticker+"="+al.Percent.String())
	}
	return strings.Join(parts, ",")
}

func (a *allocationsFlag) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		al, err := stockfolio.ParseAllocation(part)
		if err != nil {
			return err
		}
		*a = append(*a, al)
	}
	return nil
}

type dcaCmd struct {
	portfolio   string
	allocations allocationsFlag
	amount      float64
	start       string
	end         string
	frequency   int
	commission  float64
}

func (*dcaCmd) Name() string     { return "dca" }
func (*dcaCmd) Synopsis() string { return "invest a fixed amount on a recurring schedule" }
func (*dcaCmd) Usage() string {
	return `folio dca -p <portfolio> -a <ticker>=<percent> [-a ...] -amount <amount> [-s <start>] [-e <end>] [-f <days>] [-c <commission>]

  Executes a dollar cost averaging strategy: every -f days from -s to -e, the
  amount is split between the tickers according to their percents (which
  must sum to 100) and each part, minus the commission, buys shares at the
  close of the day.

  The portfolio is created (flexible) if it does not exist. Dates from today
  on are not invested yet. The same strategy cannot be executed twice into a
  portfolio. With -f 0 the amount is invested once, on the start date.

Usage Examples:
$ folio dca -p retirement -a VTI=60 -a BND=40 -amount 500 -s 2022-01-03 -e 2023-12-29 -f 30 -c 1
$ folio dca -p growth -a AAPL=100 -amount 1000
`
}

func (c *dcaCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Target portfolio, created if missing.")
	f.Var(&c.allocations, "a", "Allocation as TICKER=PERCENT. Repeat or separate with commas.")
	f.Float64Var(&c.amount, "amount", 0, "Amount invested on each date.")
	f.StringVar(&c.start, "s", "", "First investment date. Defaults to today.")
	f.StringVar(&c.end, "e", "", "End of the strategy. Defaults to today (open ended).")
	f.IntVar(&c.frequency, "f", 0, "Days between investments. 0 invests once.")
	f.Float64Var(&c.commission, "c", 0, "Commission paid for each purchase.")
}

func (c *dcaCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" {
		fmt.Fprintln(os.Stderr, "Error: -p is required")
		return subcommands.ExitUsageError
	}
	start, err := parseDate(c.start)
	if err != nil {
		return fail("parsing start date", err)
	}
	var end date.Date
	if c.end != "" {
		if end, err = parseDate(c.end); err != nil {
			return fail("parsing end date", err)
		}
	}

	e, err := openEnv()
	if err != nil {
		return fail("opening folio", err)
	}
	defer e.Close()
	book, err := e.Book()
	if err != nil {
		return fail("loading ledger", err)
	}

	cur := e.cfg.Currency
	execution, err := book.Execute(stockfolio.Strategy{
		Portfolio:   c.portfolio,
		Allocations: c.allocations,
		Invested:    stockfolio.M(c.amount, cur),
		Start:       start,
		End:         end,
		Frequency:   c.frequency,
		Commission:  stockfolio.M(c.commission, cur),
	})
	if err != nil {
		return fail("executing strategy", err)
	}
	if err := printMarkdown(renderer.ExecutionMarkdown(renderer.NewExecutionReport(execution))); err != nil {
		return fail("printing report", err)
	}
	return subcommands.ExitSuccess
}
