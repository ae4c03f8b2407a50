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

type createCmd struct {
	kind       string
	date       string
	commission float64
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create a new portfolio" }
func (*createCmd) Usage() string {
	return `folio create [-k flexible|inflexible] [-d <date>] [-c <commission>] <name> [<ticker>:<quantity>[@<price>] ...]

  Creates a portfolio, optionally with initial positions.

  A flexible portfolio can later buy and sell, its initial positions are
  bought on -d (today by default). An inflexible portfolio is fixed at
  creation: positions are whole numbers of shares bought today.

  The price of a position defaults to the close on its date.

Usage Examples:
$ folio create -k inflexible retirement AAPL:10 GOOG:4
$ folio create -d 2024-01-02 growth AAPL:2.5@185.64
`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "k", "flexible", "Portfolio kind: flexible or inflexible.")
	f.StringVar(&c.date, "d", "", "Date of the initial positions of a flexible portfolio. Defaults to today.")
	f.Float64Var(&c.commission, "c", 0, "Commission paid for each initial position.")
}

// position is a "TICKER:QUANTITY[@PRICE]" argument.
type position struct {
	ticker   string
	quantity stockfolio.Quantity
	price    string // empty when the close must be used
}

func parsePosition(arg string) (position, error) {
	ticker, rest, ok := strings.Cut(arg, ":")
	if !ok || strings.TrimSpace(ticker) == "" {
		return position{}, fmt.Errorf("invalid position %q, want TICKER:QUANTITY[@PRICE]: %w", arg, stockfolio.ErrInvalidLot)
	}
	qty, price, _ := strings.Cut(rest, "@")
	q, err := stockfolio.ParseQuantity(qty)
	if err != nil {
		return position{}, fmt.Errorf("invalid quantity in %q: %w", arg, err)
	}
	return position{ticker: strings.TrimSpace(ticker), quantity: q, price: strings.TrimSpace(price)}, nil
}

// lot turns the position into a buy on day, priced from lookup when no price was given.
func (p position) lot(lookup stockfolio.PriceLookup, day date.Date, commission float64, currency string) (stockfolio.Lot, error) {
	var price stockfolio.Money
	if p.price == "" {
		closing, err := lookup.PriceOn(p.ticker, day)
		if err != nil {
			return stockfolio.Lot{}, err
		}
		price = closing
	} else {
		parsed, err := stockfolio.ParseMoney(p.price, currency)
		if err != nil {
			return stockfolio.Lot{}, fmt.Errorf("invalid price %q: %w", p.price, stockfolio.ErrInvalidAmount)
		}
		price = parsed
	}
	return stockfolio.NewBuy(day, p.ticker, p.quantity, price, stockfolio.M(commission, price.Currency())), nil
}

func (c *createCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: a portfolio name is required")
		return subcommands.ExitUsageError
	}
	kind, err := stockfolio.ParseKind(c.kind)
	if err != nil {
		return fail("parsing kind", err)
	}
	on, err := parseDate(c.date)
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
	if kind == stockfolio.Inflexible {
		on = book.Today()
	}

	var lots []stockfolio.Lot
	for _, arg := range f.Args()[1:] {
		pos, err := parsePosition(arg)
		if err != nil {
			return fail("parsing position", err)
		}
		lot, err := pos.lot(e.prices, on, c.commission, e.cfg.Currency)
		if err != nil {
			return fail("pricing "+pos.ticker, err)
		}
		lots = append(lots, lot)
	}

	p, err := book.Create(f.Arg(0), kind, lots...)
	if err != nil {
		return fail("creating portfolio", err)
	}
	if err := printMarkdown(renderer.PortfolioMarkdown(renderer.NewPortfolioReport(p))); err != nil {
		return fail("printing report", err)
	}
	return subcommands.ExitSuccess
}
