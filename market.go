package stockfolio

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
)

// PriceLookup gives historical close prices.
type PriceLookup interface {
	// PriceOn returns the close of ticker on the last trading day on or before
	// day. It fails with ErrPriceUnavailable if there is none.
	PriceOn(ticker string, day date.Date) (Money, error)
	// LatestPrice returns the most recent close of ticker and its date.
	LatestPrice(ticker string) (Money, date.Date, error)
}

// MarketData holds daily close prices in memory.
type MarketData struct {
	currency string
	prices   map[string]*date.History[decimal.Decimal]
}

// NewMarketData returns a new empty market data collection. Prices are
// expressed in currency.
func NewMarketData(currency string) *MarketData {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &MarketData{
		currency: currency,
		prices:   make(map[string]*date.History[decimal.Decimal]),
	}
}

// Currency returns the currency prices are expressed in.
func (m *MarketData) Currency() string { return m.currency }

// Add records the close of ticker on day.
func (m *MarketData) Add(ticker string, day date.Date, price decimal.Decimal) *MarketData {
	ticker = normalizeTicker(ticker)
	h, ok := m.prices[ticker]
	if !ok {
		h = new(date.History[decimal.Decimal])
		m.prices[ticker] = h
	}
	h.Append(day, price)
	return m
}

// Has reports whether ticker has at least one price.
func (m *MarketData) Has(ticker string) bool {
	_, ok := m.prices[normalizeTicker(ticker)]
	return ok
}

// Tickers returns the sorted list of tickers with prices.
func (m *MarketData) Tickers() []string { return slices.Sorted(maps.Keys(m.prices)) }

// Prices iterates over the closes of ticker in chronological order.
func (m *MarketData) Prices(ticker string) iter.Seq2[date.Date, decimal.Decimal] {
	h, ok := m.prices[normalizeTicker(ticker)]
	if !ok {
		return func(func(date.Date, decimal.Decimal) bool) {}
	}
	return h.Values()
}

// PriceOn implements PriceLookup.
func (m *MarketData) PriceOn(ticker string, day date.Date) (Money, error) {
	h, ok := m.prices[normalizeTicker(ticker)]
	if !ok {
		return Money{}, fmt.Errorf("no prices for %s: %w", ticker, ErrPriceUnavailable)
	}
	v, _, ok := h.ValueAsOf(day)
	if !ok {
		return Money{}, fmt.Errorf("no price for %s on or before %s: %w", ticker, day, ErrPriceUnavailable)
	}
	return M(v, m.currency), nil
}

// LatestPrice implements PriceLookup.
func (m *MarketData) LatestPrice(ticker string) (Money, date.Date, error) {
	h, ok := m.prices[normalizeTicker(ticker)]
	if !ok || h.Len() == 0 {
		return Money{}, date.Date{}, fmt.Errorf("no prices for %s: %w", ticker, ErrPriceUnavailable)
	}
	on, v := h.Latest()
	return M(v, m.currency), on, nil
}
