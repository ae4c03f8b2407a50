package pricedb

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "prices.db"), "USD", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PriceOn(t *testing.T) {
	s := openTest(t)
	require.NoError(t, s.PutPrices("aapl", map[date.Date]decimal.Decimal{
		date.MustParse("2024-02-29"): decimal.RequireFromString("180.75"),
		date.MustParse("2024-03-01"): decimal.RequireFromString("179.66"),
		date.MustParse("2024-03-04"): decimal.RequireFromString("175.10"),
	}))

	tests := []struct {
		on   string
		want string
	}{
		{"2024-02-29", "180.75"},
		{"2024-03-02", "179.66"},
		{"2024-03-03", "179.66"},
		{"2024-03-04", "175.10"},
		{"2030-01-01", "175.10"},
	}
	for _, tt := range tests {
		t.Run(tt.on, func(t *testing.T) {
			got, err := s.PriceOn("AAPL", date.MustParse(tt.on))
			require.NoError(t, err)
			assert.True(t, got.Decimal().Equal(decimal.RequireFromString(tt.want)), "got %v", got.Decimal())
			assert.Equal(t, "USD", got.Currency())
		})
	}

	_, err := s.PriceOn("AAPL", date.MustParse("2024-01-01"))
	assert.True(t, errors.Is(err, stockfolio.ErrPriceUnavailable), "got %v", err)
	_, err = s.PriceOn("MSFT", date.MustParse("2024-03-04"))
	assert.True(t, errors.Is(err, stockfolio.ErrPriceUnavailable), "got %v", err)

	price, on, err := s.LatestPrice("AAPL")
	require.NoError(t, err)
	assert.Equal(t, date.MustParse("2024-03-04"), on)
	assert.True(t, price.Decimal().Equal(decimal.RequireFromString("175.1")))
	_, _, err = s.LatestPrice("MSFT")
	assert.True(t, errors.Is(err, stockfolio.ErrPriceUnavailable), "got %v", err)
}

func TestStore_Replace(t *testing.T) {
	s := openTest(t)
	on := date.MustParse("2024-03-04")
	require.NoError(t, s.PutPrices("AAPL", map[date.Date]decimal.Decimal{on: decimal.NewFromInt(1)}))
	require.NoError(t, s.PutPrices("AAPL", map[date.Date]decimal.Decimal{on: decimal.NewFromInt(2)}))
	got, err := s.PriceOn("AAPL", on)
	require.NoError(t, err)
	assert.True(t, got.Decimal().Equal(decimal.NewFromInt(2)))
}

func TestStore_Import(t *testing.T) {
	md := stockfolio.NewMarketData("USD").
		Add("AAPL", date.MustParse("2024-03-01"), decimal.NewFromInt(180)).
		Add("AAPL", date.MustParse("2024-03-04"), decimal.NewFromInt(175)).
		Add("GOOG", date.MustParse("2024-03-04"), decimal.NewFromInt(130))

	s := openTest(t)
	n, err := s.Import(md)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	tickers, err := s.Tickers()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "GOOG"}, tickers)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.db")
	s, err := Open(path, "EUR", nil)
	require.NoError(t, err)
	require.NoError(t, s.PutPrices("AIR", map[date.Date]decimal.Decimal{date.MustParse("2024-03-04"): decimal.NewFromInt(150)}))
	require.NoError(t, s.Close())

	s, err = Open(path, "EUR", nil)
	require.NoError(t, err)
	defer s.Close()
	price, _, err := s.LatestPrice("AIR")
	require.NoError(t, err)
	assert.Equal(t, "EUR", price.Currency())
}

func TestStore_Valuation(t *testing.T) {
	s := openTest(t)
	require.NoError(t, s.PutPrices("AAPL", map[date.Date]decimal.Decimal{date.MustParse("2024-01-01"): decimal.NewFromInt(10)}))

	p, err := stockfolio.NewPortfolio("p", stockfolio.Flexible, date.MustParse("2024-01-01"),
		stockfolio.NewBuy(date.MustParse("2024-01-02"), "AAPL", stockfolio.Q(3), stockfolio.M(10, "USD"), stockfolio.M(0, "USD")))
	require.NoError(t, err)
	v, err := stockfolio.NewValuation(s, "USD").Value(p, date.MustParse("2024-02-01"))
	require.NoError(t, err)
	assert.True(t, v.Equal(stockfolio.M(30, "USD")), "got %v", v)
}
