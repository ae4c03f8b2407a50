// Package pricedb stores daily close prices in a SQLite database.
//
// It is an alternative to the csv folder of stockfolio.StockDB for larger
// histories: lookups are indexed queries instead of a full load in memory.
package pricedb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store is a price database. It implements stockfolio.PriceLookup and
// stockfolio.PriceSink.
type Store struct {
	db       *sql.DB
	currency string
	log      *zap.Logger
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path, currency string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if currency == "" {
		currency = stockfolio.DefaultCurrency
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, stockfolio.IOError(fmt.Errorf("create database folder: %w", err))
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, stockfolio.IOError(fmt.Errorf("open sqlite: %w", err))
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, stockfolio.IOError(fmt.Errorf("set WAL mode: %w", err))
	}
	s := &Store{db: db, currency: currency, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, stockfolio.IOError(fmt.Errorf("migrate: %w", err))
	}
	log.Debug("price database opened", zap.String("path", path))
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS prices (
			ticker TEXT NOT NULL,
			day    TEXT NOT NULL,
			close  TEXT NOT NULL,
			PRIMARY KEY (ticker, day)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func normalize(ticker string) string { return strings.ToUpper(strings.TrimSpace(ticker)) }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// PutPrices implements stockfolio.PriceSink. Existing closes are replaced.
func (s *Store) PutPrices(ticker string, prices map[date.Date]decimal.Decimal) error {
	ticker = normalize(ticker)
	tx, err := s.db.Begin()
	if err != nil {
		return stockfolio.IOError(fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback()
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO prices (ticker, day, close) VALUES (?, ?, ?)`)
	if err != nil {
		return stockfolio.IOError(fmt.Errorf("prepare: %w", err))
	}
	defer stmt.Close()
	for on, v := range prices {
		if _, err := stmt.Exec(ticker, on.String(), v.String()); err != nil {
			return stockfolio.IOError(fmt.Errorf("insert %s on %s: %w", ticker, on, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return stockfolio.IOError(fmt.Errorf("commit: %w", err))
	}
	s.log.Debug("prices stored", zap.String("ticker", ticker), zap.Int("closes", len(prices)))
	return nil
}

// Import copies all the closes of md.
func (s *Store) Import(md *stockfolio.MarketData) (int, error) {
	count := 0
	for _, ticker := range md.Tickers() {
		prices := make(map[date.Date]decimal.Decimal)
		for on, v := range md.Prices(ticker) {
			prices[on] = v
		}
		if err := s.PutPrices(ticker, prices); err != nil {
			return count, err
		}
		count += len(prices)
	}
	return count, nil
}

// PriceOn implements stockfolio.PriceLookup.
func (s *Store) PriceOn(ticker string, day date.Date) (stockfolio.Money, error) {
	ticker = normalize(ticker)
	row := s.db.QueryRow(`SELECT day, close FROM prices WHERE ticker = ? AND day <= ? ORDER BY day DESC LIMIT 1`, ticker, day.String())
	price, _, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return stockfolio.Money{}, fmt.Errorf("no price for %s on or before %s: %w", ticker, day, stockfolio.ErrPriceUnavailable)
	}
	return price, err
}

// LatestPrice implements stockfolio.PriceLookup.
func (s *Store) LatestPrice(ticker string) (stockfolio.Money, date.Date, error) {
	ticker = normalize(ticker)
	row := s.db.QueryRow(`SELECT day, close FROM prices WHERE ticker = ? ORDER BY day DESC LIMIT 1`, ticker)
	price, on, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return stockfolio.Money{}, date.Date{}, fmt.Errorf("no prices for %s: %w", ticker, stockfolio.ErrPriceUnavailable)
	}
	return price, on, err
}

func (s *Store) scan(row *sql.Row) (stockfolio.Money, date.Date, error) {
	var day, closing string
	if err := row.Scan(&day, &closing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stockfolio.Money{}, date.Date{}, err
		}
		return stockfolio.Money{}, date.Date{}, stockfolio.IOError(fmt.Errorf("query prices: %w", err))
	}
	on, err := date.Parse(day)
	if err != nil {
		return stockfolio.Money{}, date.Date{}, stockfolio.IOError(fmt.Errorf("malformed day %q: %w", day, err))
	}
	price, err := stockfolio.ParseMoney(closing, s.currency)
	if err != nil {
		return stockfolio.Money{}, date.Date{}, stockfolio.IOError(fmt.Errorf("malformed close %q: %w", closing, err))
	}
	return price, on, nil
}

// Tickers returns the sorted list of tickers with prices.
func (s *Store) Tickers() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT ticker FROM prices ORDER BY ticker`)
	if err != nil {
		return nil, stockfolio.IOError(fmt.Errorf("query tickers: %w", err))
	}
	defer rows.Close()
	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, stockfolio.IOError(err)
		}
		tickers = append(tickers, t)
	}
	return tickers, stockfolio.IOError(rows.Err())
}
