package cmd

import (
	"context"
	"flag"

	"github.com/etnz/stockfolio/renderer"
	"github.com/google/subcommands"
)

type listCmd struct {
	portfolio string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list portfolios, or the lots of one portfolio" }
func (*listCmd) Usage() string {
	return `folio list [-p <portfolio>]

  Without -p, lists every portfolio with its kind, creation date and tickers.
  With -p, lists the lots of that portfolio.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "p", "", "Portfolio whose lots are listed.")
}

func (c *listCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		return fail("opening folio", err)
	}
	defer e.Close()
	book, err := e.Book()
	if err != nil {
		return fail("loading ledger", err)
	}

	var md string
	if c.portfolio == "" {
		md = renderer.ListMarkdown(renderer.NewListing(book.Today(), book.Portfolios()))
	} else {
		p, err := book.Portfolio(c.portfolio)
		if err != nil {
			return fail("reading portfolio", err)
		}
		md = renderer.PortfolioMarkdown(renderer.NewPortfolioReport(p))
	}
	if err := printMarkdown(md); err != nil {
		return fail("printing report", err)
	}
	return subcommands.ExitSuccess
}

// PortfolioNames returns the names of the portfolios of the configured
// ledger, or nothing if it cannot be read.
func PortfolioNames() []string {
	e, err := openEnv()
	if err != nil {
		return nil
	}
	defer e.Close()
	book, err := e.Book()
	if err != nil {
		return nil
	}
	var names []string
	for _, p := range book.Portfolios() {
		names = append(names, p.Name())
	}
	return names
}
