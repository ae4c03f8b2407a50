package stockfolio

import (
	"fmt"
	"slices"

	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
)

// Valuation answers the time parameterized questions about a portfolio: its
// market value, its composition and its cost basis as of a date.
//
// All operations are pure functions of the portfolio, the date and the price
// lookup.
type Valuation struct {
	prices   PriceLookup
	currency string
}

// NewValuation returns a valuation engine that prices lots with prices and
// reports amounts in currency.
func NewValuation(prices PriceLookup, currency string) *Valuation {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Valuation{prices: prices, currency: currency}
}

// held returns the lots of p that count on day.
//
// A flexible portfolio holds the lots dated strictly before day, an inflexible
// one holds all its lots whatever the date.
func held(p *Portfolio, day date.Date) []Lot {
	if p.Kind() == Inflexible {
		return p.Lots()
	}
	return p.Lots(Before(day))
}

// netQuantities returns the net quantity per ticker of lots, and the tickers in
// order.
func netQuantities(lots []Lot) (map[string]Quantity, []string) {
	net := make(map[string]Quantity)
	tickers := make([]string, 0)
	for _, lot := range lots {
		q, ok := net[lot.Ticker]
		if !ok {
			q = Q(0)
			tickers = append(tickers, lot.Ticker)
		}
		net[lot.Ticker] = q.Add(lot.Signed())
	}
	slices.Sort(tickers)
	return net, tickers
}

// Value returns the market value of p on day: the sum over held lots of the
// close price on day times the signed quantity.
//
// Every ticker involved must have a price on or before day, a missing price
// is an error, never a zero.
func (v *Valuation) Value(p *Portfolio, day date.Date) (Money, error) {
	holdings, err := v.Holdings(p, day)
	if err != nil {
		return Money{}, err
	}
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.Value.Decimal())
	}
	return M(total, v.currency), nil
}

// Holding is the priced net position of one ticker.
type Holding struct {
	Ticker   string
	Quantity Quantity
	Price    Money // close on or before the valuation date
	Value    Money
}

// Holdings returns the priced net position of every ticker held by p on day,
// sorted by ticker. Tickers sold out are listed with a zero quantity.
func (v *Valuation) Holdings(p *Portfolio, day date.Date) ([]Holding, error) {
	net, tickers := netQuantities(held(p, day))
	holdings := make([]Holding, 0, len(tickers))
	for _, ticker := range tickers {
		price, err := v.prices.PriceOn(ticker, day)
		if err != nil {
			return nil, fmt.Errorf("cannot value %s on %s: %w", p.Name(), day, err)
		}
		holdings = append(holdings, Holding{
			Ticker:   ticker,
			Quantity: net[ticker],
			Price:    price,
			Value:    M(price.Mul(net[ticker]).Decimal(), v.currency),
		})
	}
	return holdings, nil
}

// Share is the weight of one ticker in a Composition.
type Share struct {
	Ticker   string
	Quantity Quantity // net quantity held
	Percent  Percent  // Quantity / total net quantity
}

// Key returns the "TICKER quantity" label of the share.
func (s Share) Key() string { return fmt.Sprintf("%s %v", s.Ticker, s.Quantity) }

// Composition is the list of shares of a portfolio, sorted by ticker.
type Composition []Share

// Map returns the composition keyed by "TICKER quantity".
func (c Composition) Map() map[string]Percent {
	m := make(map[string]Percent, len(c))
	for _, s := range c {
		m[s.Key()] = s.Percent
	}
	return m
}

// Total returns the sum of all percents, 100 for any non empty composition.
func (c Composition) Total() Percent {
	var t Percent
	for _, s := range c {
		t += s.Percent
	}
	return t
}

// Composition returns each ticker's share of the total net quantity held on day.
//
// An empty portfolio has an empty composition. A portfolio whose net
// quantities sum to zero fails with ErrNoHoldings.
func (v *Valuation) Composition(p *Portfolio, day date.Date) (Composition, error) {
	net, tickers := netQuantities(held(p, day))
	if len(tickers) == 0 {
		return Composition{}, nil
	}
	total := Q(0)
	for _, t := range tickers {
		total = total.Add(net[t])
	}
	if total.IsZero() {
		return nil, fmt.Errorf("composition of %s on %s: %w", p.Name(), day, ErrNoHoldings)
	}
	hundred := decimal.NewFromInt(100)
	c := make(Composition, 0, len(tickers))
	for _, t := range tickers {
		pct := net[t].Decimal().Div(total.Decimal()).Mul(hundred)
		c = append(c, Share{Ticker: t, Quantity: net[t], Percent: Percent(pct.InexactFloat64())})
	}
	return c, nil
}

// CostBasis returns the cash committed to p up to and including day: the cost
// and commission of every buy plus the commission of every sell. Sale
// proceeds are not deducted.
//
// Only flexible portfolios have a cost basis.
func (v *Valuation) CostBasis(p *Portfolio, day date.Date) (Money, error) {
	if p.Kind() != Flexible {
		return Money{}, fmt.Errorf("%s: cost basis applies only to flexible portfolios: %w", p.Name(), ErrWrongKind)
	}
	total := decimal.Zero
	for _, lot := range p.Lots(OnOrBefore(day)) {
		total = total.Add(lot.Commission.Decimal())
		if lot.Buy {
			total = total.Add(lot.Cost().Decimal())
		}
	}
	return M(total, v.currency), nil
}

// Performance is the value of a portfolio sampled over a range.
type Performance struct {
	Portfolio string
	Bins      date.BinSet
	Values    []Money // Values[i] is the value on Bins.Dates[i]
}

// Performance samples the value of p over [start, end] using the date range
// binner. Neither date can be after today.
func (v *Valuation) Performance(p *Portfolio, start, end, today date.Date) (Performance, error) {
	if err := CheckRange(start, end, today); err != nil {
		return Performance{}, err
	}
	bins, err := date.Bin(start, end)
	if err != nil {
		return Performance{}, fmt.Errorf("%v: %w", err, ErrDateOrder)
	}
	perf := Performance{Portfolio: p.Name(), Bins: bins, Values: make([]Money, 0, bins.Len())}
	for _, on := range bins.Dates {
		value, err := v.Value(p, on)
		if err != nil {
			return Performance{}, err
		}
		perf.Values = append(perf.Values, value)
	}
	return perf, nil
}

// CheckRange validates a start and end date pair against today.
func CheckRange(start, end, today date.Date) error {
	switch {
	case start.After(today):
		return fmt.Errorf("start date %s cannot be in the future: %w", start, ErrFutureDate)
	case end.After(today):
		return fmt.Errorf("end date %s cannot be in the future: %w", end, ErrFutureDate)
	case end.Before(start):
		return fmt.Errorf("%s is before %s: %w", end, start, ErrDateOrder)
	}
	return nil
}
