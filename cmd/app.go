// Package cmd implements the folio CLI application.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/alphavantage"
	"github.com/etnz/stockfolio/config"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/pricedb"
	"github.com/etnz/stockfolio/renderer"
	"github.com/etnz/stockfolio/walstore"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&createCmd{}, "portfolios")
	c.Register(&txCmd{buy: true}, "portfolios")
	c.Register(&txCmd{buy: false}, "portfolios")
	c.Register(&dcaCmd{}, "portfolios")

	c.Register(&listCmd{}, "reports")
	c.Register(&valueCmd{}, "reports")
	c.Register(&compositionCmd{}, "reports")
	c.Register(&costBasisCmd{}, "reports")
	c.Register(&performanceCmd{}, "reports")

	c.Register(&quoteCmd{}, "prices")
	c.Register(&refreshCmd{}, "prices")
	c.Register(&importPricesCmd{}, "prices")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile = flag.String("config", "folio.yaml", "Path to the configuration file (YAML). A missing file means default settings.")
	ledgerPath = flag.String("ledger", "", "Ledger file (jsonl backend) or directory (wal backend). Overrides the configuration.")
	pricesPath = flag.String("prices", "", "Price folder (csv backend) or database (sqlite backend). Overrides the configuration.")
	format     = flag.String("format", "term", "Output format: term, md or html.")
)

// stdout is where reports are printed.
var stdout io.Writer = os.Stdout

// LoadConfig loads the configuration file and applies the global flags.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if *ledgerPath != "" {
		cfg.Ledger.Path = *ledgerPath
	}
	if *pricesPath != "" {
		cfg.Prices.Path = *pricesPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", *configFile, err)
	}
	return cfg, nil
}

// prices is a price store the commands can both read and update.
type prices interface {
	stockfolio.PriceLookup
	stockfolio.PriceSink
}

// csvPrices keeps a loaded StockDB folder in sync with the files.
type csvPrices struct {
	*stockfolio.MarketData
	db stockfolio.StockDB
}

func (c csvPrices) PutPrices(ticker string, closes map[date.Date]decimal.Decimal) error {
	if err := c.db.PutPrices(ticker, closes); err != nil {
		return err
	}
	for on, v := range closes {
		c.MarketData.Add(ticker, on, v)
	}
	return nil
}

// env is the runtime shared by commands: configuration, logger, ledger and prices.
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	store   stockfolio.LedgerStore
	prices  prices
	closers []io.Closer
}

// openEnv loads the configuration and opens the configured backends.
func openEnv() (*env, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: log}

	switch cfg.Ledger.Backend {
	case config.LedgerWAL:
		s, err := walstore.Open(cfg.Ledger.Path, log)
		if err != nil {
			return nil, err
		}
		e.store = s
		e.closers = append(e.closers, s)
	default:
		e.store = stockfolio.NewFileStore(cfg.Ledger.Path, log)
	}

	switch cfg.Prices.Backend {
	case config.PricesSQLite:
		s, err := pricedb.Open(cfg.Prices.Path, cfg.Currency, log)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.prices = s
		e.closers = append(e.closers, s)
	default:
		db := stockfolio.StockDB{Dir: cfg.Prices.Path}
		md, err := db.Load(cfg.Currency)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.prices = csvPrices{MarketData: md, db: db}
	}
	log.Debug("environment ready",
		zap.String("ledger", cfg.Ledger.Backend+":"+cfg.Ledger.Path),
		zap.String("prices", cfg.Prices.Backend+":"+cfg.Prices.Path),
	)
	return e, nil
}

// Close releases the backends and flushes the logger.
func (e *env) Close() {
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			e.log.Warn("close failed", zap.Error(err))
		}
	}
	_ = e.log.Sync()
}

// Book replays the ledger.
func (e *env) Book() (*stockfolio.Book, error) {
	return stockfolio.OpenBook(e.store, e.prices, stockfolio.WithLogger(e.log))
}

func (e *env) Valuation() *stockfolio.Valuation {
	return stockfolio.NewValuation(e.prices, e.cfg.Currency)
}

// Client returns an AlphaVantage client caching its answers in the data folder.
func (e *env) Client() (*alphavantage.Client, error) {
	if e.cfg.AlphaVantage.APIKey == "" {
		return nil, errors.New("missing AlphaVantage API key: set alphavantage.api_key or ALPHAVANTAGE_API_KEY")
	}
	c := alphavantage.New(e.cfg.AlphaVantage.APIKey, e.log)
	if e.cfg.AlphaVantage.BaseURL != "" {
		c.BaseURL = e.cfg.AlphaVantage.BaseURL
	}
	c.MaxRetries = e.cfg.AlphaVantage.MaxRetries
	c.HTTP = alphavantage.CachedHTTPClient(e.cfg.CacheDir(), e.log)
	return c, nil
}

// heldTickers returns the sorted tickers of every portfolio of the book.
func heldTickers(b *stockfolio.Book) []string {
	set := make(map[string]bool)
	for _, p := range b.Portfolios() {
		for _, t := range p.Tickers() {
			set[t] = true
		}
	}
	tickers := make([]string, 0, len(set))
	for t := range set {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// printMarkdown prints md in the output format selected by the -format flag.
func printMarkdown(md string) error {
	switch *format {
	case "md":
		_, err := io.WriteString(stdout, md)
		return err
	case "html":
		html, err := renderer.HTML(md)
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, html)
		return err
	case "term":
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
		if err != nil {
			return err
		}
		out, err := r.Render(md)
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, out)
		return err
	default:
		return fmt.Errorf("unknown output format %q (want term, md or html)", *format)
	}
}

// fail prints err and returns the matching exit status: validation errors are
// usage errors.
func fail(what string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
	if errors.Is(err, stockfolio.ErrValidation) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

// parseDate parses an optional date flag, defaulting to today.
func parseDate(s string) (date.Date, error) {
	if s == "" {
		return date.Today(), nil
	}
	on, err := date.Parse(s)
	if err != nil {
		return date.Date{}, fmt.Errorf("%v: %w", err, stockfolio.ErrInvalidDate)
	}
	return on, nil
}
