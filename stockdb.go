package stockfolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
)

// StockDB is a folder of daily price files, one TICKER.csv per ticker, in the
// AlphaVantage TIME_SERIES_DAILY csv format:
//
//	timestamp,open,high,low,close,volume
//	2024-03-01,179.55,180.53,177.38,179.66,73488997
//
// Rows are newest first.
type StockDB struct {
	Dir string
}

var stockCSVHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

const closeColumn = 4

// Load reads every csv file of the folder. A missing folder is an empty database.
func (db StockDB) Load(currency string) (*MarketData, error) {
	md := NewMarketData(currency)
	entries, err := os.ReadDir(db.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return md, nil
	}
	if err != nil {
		return nil, ioErrorf("cannot read stock database %q: %w", db.Dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		ticker := strings.TrimSuffix(name, filepath.Ext(name))
		f, err := os.Open(filepath.Join(db.Dir, name))
		if err != nil {
			return nil, ioErrorf("cannot open prices of %s: %w", ticker, err)
		}
		err = ReadStockCSV(f, ticker, md)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	return md, nil
}

// ReadStockCSV reads daily closes of ticker from r into md.
func ReadStockCSV(r io.Reader, ticker string, md *MarketData) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return ioErrorf("malformed prices of %s: %w", ticker, err)
	}
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == stockCSVHeader[0] {
			continue
		}
		if len(row) <= closeColumn {
			return ioErrorf("malformed prices of %s line %d: want at least %d columns, got %d", ticker, i+1, closeColumn+1, len(row))
		}
		on, err := date.Parse(row[0])
		if err != nil {
			return ioErrorf("malformed prices of %s line %d: %w", ticker, i+1, err)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(row[closeColumn]))
		if err != nil {
			return ioErrorf("malformed prices of %s line %d: %w", ticker, i+1, err)
		}
		md.Add(ticker, on, price)
	}
	return nil
}

// PutPrices writes the whole series of ticker, replacing its file.
//
// Only the close column is meaningful, open, high and low repeat it and volume
// is zero.
func (db StockDB) PutPrices(ticker string, prices map[date.Date]decimal.Decimal) error {
	ticker = normalizeTicker(ticker)
	if err := os.MkdirAll(db.Dir, 0o755); err != nil {
		return ioErrorf("cannot create stock database %q: %w", db.Dir, err)
	}
	path := filepath.Join(db.Dir, ticker+".csv")

	// merge with existing rows
	md := NewMarketData("")
	if f, err := os.Open(path); err == nil {
		err = ReadStockCSV(f, ticker, md)
		f.Close()
		if err != nil {
			return err
		}
	}
	for on, v := range prices {
		md.Add(ticker, on, v)
	}

	rows := [][]string{stockCSVHeader}
	for on, v := range md.Prices(ticker) {
		c := v.String()
		rows = append(rows, []string{on.String(), c, c, c, c, "0"})
	}
	slices.Reverse(rows[1:])

	err := atomicWrite(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return cw.Error()
	})
	if err != nil {
		return ioErrorf("cannot write prices of %s: %w", ticker, err)
	}
	return nil
}

// atomicWrite writes a file through a temporary file renamed over path.
func atomicWrite(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*"+filepath.Ext(path))
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	return os.Rename(tmpPath, path)
}
