package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/renderer"
	"github.com/google/subcommands"
)

// dayReport holds the flags of the reports about one portfolio on one day.
type dayReport struct {
	portfolio string
	date      string
}

func (r *dayReport) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.portfolio, "p", "", "Portfolio to report on.")
	f.StringVar(&r.date, "d", "", "Date of the report. Defaults to today.")
}

// run loads the portfolio and prints what render makes of it.
func (r *dayReport) run(render func(v *stockfolio.Valuation, p *stockfolio.Portfolio, on date.Date) (string, error)) subcommands.ExitStatus {
	if r.portfolio == "" {
		fmt.Fprintln(os.Stderr, "Error: -p is required")
		return subcommands.ExitUsageError
	}
	on, err := parseDate(r.date)
	if err != nil {
		return fail("parsing date", err)
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
	p, err := book.Portfolio(r.portfolio)
	if err != nil {
		return fail("reading portfolio", err)
	}
	md, err := render(e.Valuation(), p, on)
	if err != nil {
		return fail("computing report", err)
	}
	if err := printMarkdown(md); err != nil {
		return fail("printing report", err)
	}
	return subcommands.ExitSuccess
}

type valueCmd struct{ dayReport }

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "market value of a portfolio on a date" }
func (*valueCmd) Usage() string {
	return `folio value -p <portfolio> [-d <date>]

  Prints the market value of the portfolio and of each position, using the
  latest close on or before the date. A flexible portfolio counts the lots
  dated strictly before the date.
`
}

func (c *valueCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(func(v *stockfolio.Valuation, p *stockfolio.Portfolio, on date.Date) (string, error) {
		report, err := renderer.NewValueReport(v, p, on)
		if err != nil {
			return "", err
		}
		return renderer.ValueMarkdown(report), nil
	})
}

type compositionCmd struct{ dayReport }

func (*compositionCmd) Name() string     { return "composition" }
func (*compositionCmd) Synopsis() string { return "share of each ticker in a portfolio on a date" }
func (*compositionCmd) Usage() string {
	return `folio composition -p <portfolio> [-d <date>]

  Prints the net quantity of each ticker and its share of the total number of
  shares held.
`
}

func (c *compositionCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(func(v *stockfolio.Valuation, p *stockfolio.Portfolio, on date.Date) (string, error) {
		report, err := renderer.NewCompositionReport(v, p, on)
		if err != nil {
			return "", err
		}
		return renderer.CompositionMarkdown(report), nil
	})
}

type costBasisCmd struct{ dayReport }

func (*costBasisCmd) Name() string     { return "costbasis" }
func (*costBasisCmd) Synopsis() string { return "cash committed to a flexible portfolio as of a date" }
func (*costBasisCmd) Usage() string {
	return `folio costbasis -p <portfolio> [-d <date>]

  Prints the cost of every buy plus every commission paid up to and including
  the date. Sale proceeds are not deducted.
`
}

func (c *costBasisCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(func(v *stockfolio.Valuation, p *stockfolio.Portfolio, on date.Date) (string, error) {
		report, err := renderer.NewCostBasisReport(v, p, on)
		if err != nil {
			return "", err
		}
		return renderer.CostBasisMarkdown(report), nil
	})
}
