package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/etnz/stockfolio"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type refreshCmd struct {
	schedule bool
	spec     string
	full     bool
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "update daily closes from AlphaVantage" }
func (*refreshCmd) Usage() string {
	return `folio refresh [-full] [-schedule [-cron <spec>]] [<ticker>...]

  Fetches the daily closes of the given tickers, or of every ticker held in a
  portfolio, and stores them in the price database.

  With -schedule the command keeps running and refreshes on the cron spec of
  the configuration (refresh.schedule) until interrupted.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.schedule, "schedule", false, "Keep running and refresh on a cron schedule.")
	f.StringVar(&c.spec, "cron", "", "Cron spec (5 fields) overriding refresh.schedule.")
	f.BoolVar(&c.full, "full", false, "Fetch the full history instead of the last 100 closes.")
}

func (c *refreshCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		return fail("opening folio", err)
	}
	defer e.Close()
	client, err := e.Client()
	if err != nil {
		return fail("configuring AlphaVantage", err)
	}
	client.Full = c.full

	tickers := func() []string {
		if f.NArg() > 0 {
			return f.Args()
		}
		// the ledger is read again on every run
		book, err := e.Book()
		if err != nil {
			e.log.Error("cannot load ledger", zap.Error(err))
			return nil
		}
		return heldTickers(book)
	}
	r := &stockfolio.Refresher{Source: client, Sink: e.prices, Tickers: tickers, Log: e.log}

	if !c.schedule {
		n, err := r.Refresh(ctx)
		if err != nil {
			return fail("refreshing prices", err)
		}
		fmt.Fprintf(os.Stderr, "%d closes stored\n", n)
		return subcommands.ExitSuccess
	}

	spec := e.cfg.Refresh.Schedule
	if c.spec != "" {
		spec = c.spec
	}
	cr, err := r.Schedule(spec)
	if err != nil {
		return fail("scheduling refresh", err)
	}
	fmt.Fprintf(os.Stderr, "refreshing on %q, interrupt to stop\n", spec)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	<-cr.Stop().Done()
	return subcommands.ExitSuccess
}
