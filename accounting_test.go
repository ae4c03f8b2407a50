package stockfolio

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// testMarket returns prices for AAPL and GOOG in early 2024.
func testMarket() *MarketData {
	md := NewMarketData("USD")
	md.Add("AAPL", day("2024-01-02"), decimal.NewFromInt(100))
	md.Add("AAPL", day("2024-02-01"), decimal.NewFromInt(110))
	md.Add("AAPL", day("2024-03-01"), decimal.NewFromInt(120))
	md.Add("GOOG", day("2024-01-02"), decimal.NewFromInt(50))
	md.Add("GOOG", day("2024-03-01"), decimal.NewFromInt(40))
	return md
}

func testFlexible(t *testing.T) *Portfolio {
	t.Helper()
	p, err := NewPortfolio("growth", Flexible, day("2024-01-01"),
		NewBuy(day("2024-01-02"), "AAPL", Q(10), USD(100), USD(5)),
		buy("2024-01-02", "GOOG", 30, 50),
		NewSell(day("2024-02-01"), "AAPL", Q(4), USD(110), USD(1)),
	)
	if err != nil {
		t.Fatalf("NewPortfolio() error: %v", err)
	}
	return p
}

func TestValuation_Value(t *testing.T) {
	v := NewValuation(testMarket(), "USD")
	p := testFlexible(t)

	tests := []struct {
		on   string
		want float64
	}{
		{"2024-01-02", 0},              // lots are strictly before
		{"2024-01-03", 10*100 + 30*50}, // priced on 01-02
		{"2024-02-01", 10*110 + 30*50}, // sell not yet counted
		{"2024-02-02", 6*110 + 30*50},  // sell counted
		{"2024-03-15", 6*120 + 30*40},  // latest closes
		{"2025-01-01", 6*120 + 30*40},  // no newer price
	}
	for _, tt := range tests {
		t.Run(tt.on, func(t *testing.T) {
			got, err := v.Value(p, day(tt.on))
			if err != nil {
				t.Fatalf("Value() error: %v", err)
			}
			if !got.Equal(USD(tt.want)) {
				t.Errorf("Value(%s) = %v, want %v", tt.on, got, tt.want)
			}
		})
	}
}

func TestValuation_Holdings(t *testing.T) {
	v := NewValuation(testMarket(), "USD")
	holdings, err := v.Holdings(testFlexible(t), day("2024-03-15"))
	if err != nil {
		t.Fatalf("Holdings() error: %v", err)
	}
	want := []struct {
		ticker   string
		quantity float64
		price    float64
	}{
		{"AAPL", 6, 120},
		{"GOOG", 30, 40},
	}
	if len(holdings) != len(want) {
		t.Fatalf("Holdings() returned %d holdings, want %d", len(holdings), len(want))
	}
	for i, w := range want {
		h := holdings[i]
		if h.Ticker != w.ticker || !h.Quantity.Equal(Q(w.quantity)) || !h.Price.Equal(USD(w.price)) {
			t.Errorf("holding %d = %s %v @ %v, want %s %v @ %v", i, h.Ticker, h.Quantity, h.Price, w.ticker, w.quantity, w.price)
		}
		if !h.Value.Equal(USD(w.quantity * w.price)) {
			t.Errorf("holding %s value = %v, want %v", h.Ticker, h.Value, w.quantity*w.price)
		}
	}
}

func TestValuation_ValueInflexible(t *testing.T) {
	v := NewValuation(testMarket(), "USD")
	p, err := NewPortfolio("fixed", Inflexible, day("2024-03-01"),
		buy("2024-03-01", "AAPL", 2, 1),
		buy("2024-03-01", "GOOG", 3, 1),
	)
	if err != nil {
		t.Fatalf("NewPortfolio() error: %v", err)
	}
	// no date filter: positions count even before creation
	got, err := v.Value(p, day("2024-02-15"))
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	if want := USD(2*110 + 3*50); !got.Equal(want) {
		t.Errorf("Value() = %v, want %v", got, want)
	}
}

func TestValuation_ValueMissingPrice(t *testing.T) {
	v := NewValuation(testMarket(), "USD")
	p, err := NewPortfolio("p", Flexible, day("2024-01-01"), buy("2024-01-02", "MSFT", 1, 300))
	if err != nil {
		t.Fatalf("NewPortfolio() error: %v", err)
	}
	if _, err := v.Value(p, day("2024-03-01")); !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("Value() error = %v, want ErrPriceUnavailable", err)
	}

	// AAPL has no close before 2024-01-02
	p, _ = NewPortfolio("q", Inflexible, day("2024-03-01"), buy("2024-03-01", "AAPL", 1, 1))
	if _, err := v.Value(p, day("2023-12-01")); !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("Value() error = %v, want ErrPriceUnavailable", err)
	}
}

func TestValuation_ValueMonotonicInQuantity(t *testing.T) {
	md := NewMarketData("USD").Add("AAPL", day("2020-01-01"), decimal.NewFromInt(10))
	v := NewValuation(md, "USD")
	p, _ := NewPortfolio("p", Flexible, day("2020-01-01"))
	previous := USD(0)
	for i, on := range []string{"2021-01-01", "2021-06-01", "2022-01-01"} {
		p.append(buy(on, "AAPL", float64(i+1), 10))
		got, err := v.Value(p, day("2023-01-01"))
		if err != nil {
			t.Fatalf("Value() error: %v", err)
		}
		if got.LessThan(previous) {
			t.Errorf("value decreased from %v to %v after a buy", previous, got)
		}
		previous = got
	}
}

func TestValuation_Composition(t *testing.T) {
	v := NewValuation(testMarket(), "USD")
	p := testFlexible(t)

	c, err := v.Composition(p, day("2024-03-01"))
	if err != nil {
		t.Fatalf("Composition() error: %v", err)
	}
	want := map[string]Percent{
		"AAPL 6":  Percent(100 * 6.0 / 36.0),
		"GOOG 30": Percent(100 * 30.0 / 36.0),
	}
	got := c.Map()
	if len(got) != len(want) {
		t.Fatalf("Composition() = %v, want %v", got, want)
	}
	for k, w := range want {
		if !got[k].Equal(w) {
			t.Errorf("Composition()[%q] = %v, want %v", k, got[k], w)
		}
	}
	if !c.Total().Equal(100) {
		t.Errorf("Total() = %v, want 100", c.Total())
	}

	empty, _ := NewPortfolio("empty", Flexible, day("2024-01-01"))
	if c, err := v.Composition(empty, day("2024-03-01")); err != nil || len(c) != 0 {
		t.Errorf("Composition(empty) = %v, %v, want empty", c, err)
	}

	flat, _ := NewPortfolio("flat", Flexible, day("2024-01-01"),
		buy("2024-01-02", "AAPL", 5, 100),
		sell("2024-01-03", "AAPL", 5, 100),
	)
	if _, err := v.Composition(flat, day("2024-03-01")); !errors.Is(err, ErrNoHoldings) {
		t.Errorf("Composition(flat) error = %v, want ErrNoHoldings", err)
	}
}

func TestValuation_CostBasis(t *testing.T) {
	v := NewValuation(testMarket(), "USD")
	p := testFlexible(t)

	tests := []struct {
		on   string
		want float64
	}{
		{"2024-01-01", 0},
		{"2024-01-02", 10*100 + 5 + 30*50}, // inclusive of the day
		{"2024-02-01", 10*100 + 5 + 30*50 + 1},
		{"2030-01-01", 10*100 + 5 + 30*50 + 1},
	}
	previous := USD(0)
	for _, tt := range tests {
		got, err := v.CostBasis(p, day(tt.on))
		if err != nil {
			t.Fatalf("CostBasis() error: %v", err)
		}
		if !got.Equal(USD(tt.want)) {
			t.Errorf("CostBasis(%s) = %v, want %v", tt.on, got, tt.want)
		}
		if got.LessThan(previous) {
			t.Errorf("CostBasis(%s) = %v is less than %v", tt.on, got, previous)
		}
		previous = got
	}

	fixed, _ := NewPortfolio("fixed", Inflexible, day("2024-03-01"), buy("2024-03-01", "AAPL", 2, 1))
	if _, err := v.CostBasis(fixed, day("2024-03-01")); !errors.Is(err, ErrWrongKind) {
		t.Errorf("CostBasis(inflexible) error = %v, want ErrWrongKind", err)
	}
}

func TestValuation_Performance(t *testing.T) {
	v := NewValuation(testMarket(), "USD")
	p := testFlexible(t)
	today := day("2024-03-20")

	perf, err := v.Performance(p, day("2024-01-03"), day("2024-03-15"), today)
	if err != nil {
		t.Fatalf("Performance() error: %v", err)
	}
	if len(perf.Values) != perf.Bins.Len() {
		t.Fatalf("got %d values for %d bins", len(perf.Values), perf.Bins.Len())
	}
	last := perf.Values[len(perf.Values)-1]
	if want := USD(6*120 + 30*40); !last.Equal(want) {
		t.Errorf("last value = %v, want %v", last, want)
	}

	if _, err := v.Performance(p, day("2024-01-03"), day("2024-04-01"), today); !errors.Is(err, ErrFutureDate) {
		t.Errorf("Performance(future) error = %v, want ErrFutureDate", err)
	}
	if _, err := v.Performance(p, day("2024-03-01"), day("2024-01-03"), today); !errors.Is(err, ErrDateOrder) {
		t.Errorf("Performance(reversed) error = %v, want ErrDateOrder", err)
	}
}
