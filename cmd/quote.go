package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type quoteCmd struct {
	save bool
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "latest price of tickers from AlphaVantage" }
func (*quoteCmd) Usage() string {
	return `folio quote [-save] <ticker>...

  Fetches the latest trade of each ticker. With -save the prices are stored
  as the close of their trading day.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.save, "save", false, "Store the quotes in the price database.")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one ticker is required")
		return subcommands.ExitUsageError
	}
	e, err := openEnv()
	if err != nil {
		return fail("opening folio", err)
	}
	defer e.Close()
	client, err := e.Client()
	if err != nil {
		return fail("configuring AlphaVantage", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Quotes\n\n")
	fmt.Fprintln(&b, "| Ticker | Price | Trading Day |")
	fmt.Fprintln(&b, "|:---|---:|:---|")
	for _, ticker := range f.Args() {
		q, err := client.Quote(ctx, ticker)
		if err != nil {
			return fail("quoting "+ticker, err)
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", q.Ticker, stockfolio.M(q.Price, e.cfg.Currency), q.Date)
		if c.save {
			if err := e.prices.PutPrices(q.Ticker, map[date.Date]decimal.Decimal{q.Date: q.Price}); err != nil {
				return fail("saving "+ticker, err)
			}
		}
	}
	if err := printMarkdown(b.String()); err != nil {
		return fail("printing report", err)
	}
	return subcommands.ExitSuccess
}
