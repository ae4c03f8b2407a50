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

type performanceCmd struct {
	portfolio string
	start     string
	end       string
	period    string
}

func (*performanceCmd) Name() string     { return "performance" }
func (*performanceCmd) Synopsis() string { return "chart the value of a portfolio over a date range" }
func (*performanceCmd) Usage() string {
	return `folio performance -p <portfolio> (-s <start> | -period <period>) [-e <end>]

  Charts the value of the portfolio on 5 to 30 dates sampled between start
  and end: days for short ranges, months up to 30 years, years beyond.
  Neither date can be in the future.

  With -period (week, month, quarter or year) the range is the calendar
  period containing the end date, up to today.

Usage Examples:
$ folio performance -p growth -s -1y
$ folio performance -p growth -s 2010-01-01 -e 2020-12-31
$ folio performance -p growth -period year -e 2023-06-30
`
}

func (c *performanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio to chart.")
	f.StringVar(&c.start, "s", "", "Start of the range.")
	f.StringVar(&c.end, "e", "", "End of the range. Defaults to today.")
	f.StringVar(&c.period, "period", "", "Chart the calendar period containing the end date instead of -s.")
}

// dateRange returns the range selected by the flags.
func (c *performanceCmd) dateRange(today date.Date) (date.Range, error) {
	end, err := parseDate(c.end)
	if err != nil {
		return date.Range{}, err
	}
	if c.period == "" {
		start, err := parseDate(c.start)
		if err != nil {
			return date.Range{}, err
		}
		return date.Range{From: start, To: end}, nil
	}
	period, err := date.ParsePeriod(c.period)
	if err != nil {
		return date.Range{}, fmt.Errorf("%v: %w", err, stockfolio.ErrInvalidDate)
	}
	r := date.NewRange(end, period)
	if r.To.After(today) {
		r.To = today
	}
	return r, nil
}

func (c *performanceCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" || (c.start == "") == (c.period == "") {
		fmt.Fprintln(os.Stderr, "Error: -p and exactly one of -s or -period are required")
		return subcommands.ExitUsageError
	}
	r, err := c.dateRange(date.Today())
	if err != nil {
		return fail("parsing range", err)
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
	p, err := book.Portfolio(c.portfolio)
	if err != nil {
		return fail("reading portfolio", err)
	}
	perf, err := e.Valuation().Performance(p, r.From, r.To, book.Today())
	if err != nil {
		return fail("computing performance over "+r.String(), err)
	}
	if err := printMarkdown(renderer.PerformanceMarkdown(perf)); err != nil {
		return fail("printing report", err)
	}
	return subcommands.ExitSuccess
}
