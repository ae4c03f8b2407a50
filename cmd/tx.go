package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/renderer"
	"github.com/google/subcommands"
)

// txCmd is both the buy and the sell command.
type txCmd struct {
	buy        bool
	portfolio  string
	date       string
	ticker     string
	quantity   string
	price      string
	commission float64
}

func (c *txCmd) Name() string {
	if c.buy {
		return "buy"
	}
	return "sell"
}

func (c *txCmd) Synopsis() string {
	return fmt.Sprintf("record a %s of shares in a flexible portfolio", c.Name())
}

func (c *txCmd) Usage() string {
	return fmt.Sprintf(`folio %s -p <portfolio> -t <ticker> -q <quantity> [-price <price>] [-d <date>] [-c <commission>]

  Records a %s in a flexible portfolio. The price defaults to the close on the
  transaction date, the date defaults to today.

  A sell is accepted only if the portfolio holds enough shares strictly
  before the sell date.
`, c.Name(), c.Name())
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio name.")
	f.StringVar(&c.date, "d", "", "Transaction date. Defaults to today.")
	f.StringVar(&c.ticker, "t", "", "Ticker symbol.")
	f.StringVar(&c.quantity, "q", "", "Number of shares, fractions allowed.")
	f.StringVar(&c.price, "price", "", "Price per share. Defaults to the close on the transaction date.")
	f.Float64Var(&c.commission, "c", 0, "Commission paid.")
}

func (c *txCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" || c.ticker == "" || c.quantity == "" {
		fmt.Fprintln(os.Stderr, "Error: -p, -t and -q are required")
		return subcommands.ExitUsageError
	}
	on, err := parseDate(c.date)
	if err != nil {
		return fail("parsing date", err)
	}
	qty, err := stockfolio.ParseQuantity(c.quantity)
	if err != nil {
		return fail("parsing quantity", err)
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

	pos := position{ticker: c.ticker, quantity: qty, price: c.price}
	lot, err := pos.lot(e.prices, on, c.commission, e.cfg.Currency)
	if err != nil {
		return fail("pricing "+c.ticker, err)
	}
	if c.buy {
		err = book.Buy(c.portfolio, lot)
	} else {
		err = book.Sell(c.portfolio, stockfolio.NewSell(lot.Date, lot.Ticker, lot.Quantity, lot.Price, lot.Commission))
	}
	if err != nil {
		return fail("recording "+c.Name(), err)
	}

	p, err := book.Portfolio(c.portfolio)
	if err != nil {
		return fail("reading portfolio", err)
	}
	if err := printMarkdown(renderer.PortfolioMarkdown(renderer.NewPortfolioReport(p))); err != nil {
		return fail("printing report", err)
	}
	return subcommands.ExitSuccess
}
