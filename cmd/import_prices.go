package cmd

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/google/subcommands"
)

type importPricesCmd struct{}

func (*importPricesCmd) Name() string     { return "import-prices" }
func (*importPricesCmd) Synopsis() string { return "import daily closes from csv files" }
func (*importPricesCmd) Usage() string {
	return `folio import-prices <folder or file.csv>...

  Imports AlphaVantage daily csv files (timestamp,open,high,low,close,volume)
  into the configured price database. The ticker is the file name without
  extension. A folder imports every csv file it contains.
`
}

func (c *importPricesCmd) SetFlags(f *flag.FlagSet) {}

// readPrices reads the csv files designated by paths.
func readPrices(currency string, paths ...string) (*stockfolio.MarketData, error) {
	md := stockfolio.NewMarketData(currency)
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, stockfolio.IOError(err)
		}
		if info.IsDir() {
			folder, err := stockfolio.StockDB{Dir: path}.Load(currency)
			if err != nil {
				return nil, err
			}
			for _, ticker := range folder.Tickers() {
				for on, v := range folder.Prices(ticker) {
					md.Add(ticker, on, v)
				}
			}
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, stockfolio.IOError(err)
		}
		ticker := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		err = stockfolio.ReadStockCSV(f, ticker, md)
		f.Close()
		if err != nil {
			return nil, err
		}
		if !md.Has(ticker) {
			return nil, stockfolio.IOError(fmt.Errorf("%s holds no daily close", path))
		}
	}
	return md, nil
}

// importer is a price store with a bulk import, like the sqlite one.
type importer interface {
	Import(md *stockfolio.MarketData) (int, error)
}

func importPrices(sink stockfolio.PriceSink, md *stockfolio.MarketData) (int, error) {
	if i, ok := sink.(importer); ok {
		return i.Import(md)
	}
	count := 0
	for _, ticker := range md.Tickers() {
		closes := maps.Collect(md.Prices(ticker))
		if err := sink.PutPrices(ticker, closes); err != nil {
			return count, fmt.Errorf("store %s: %w", ticker, err)
		}
		count += len(closes)
	}
	return count, nil
}

func (c *importPricesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a folder or csv file is required")
		return subcommands.ExitUsageError
	}
	e, err := openEnv()
	if err != nil {
		return fail("opening folio", err)
	}
	defer e.Close()

	md, err := readPrices(e.cfg.Currency, f.Args()...)
	if err != nil {
		return fail("reading prices", err)
	}
	count, err := importPrices(e.prices, md)
	if err != nil {
		return fail("storing prices", err)
	}
	fmt.Fprintf(os.Stderr, "%d closes of %d tickers imported\n", count, len(md.Tickers()))
	return subcommands.ExitSuccess
}
