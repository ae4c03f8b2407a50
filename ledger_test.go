package stockfolio

import (
	"slices"
	"testing"
)

func TestLedger_Append(t *testing.T) {
	var l Ledger
	l.Append(buy("2024-01-10", "aapl", 10, 100))
	l.Append(NewBuy(day("2024-01-10"), "AAPL", Q(30), USD(200), USD(2)))
	l.Append(buy("2024-01-11", "AAPL", 1, 100))
	l.Append(sell("2024-01-11", "AAPL", 1, 100))

	if got, want := l.Len(), 3; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	merged := slices.Collect(l.Lots())[0]
	if !merged.Quantity.Equal(Q(40)) {
		t.Errorf("merged quantity = %v, want 40", merged.Quantity)
	}
	// (10*100 + 30*200) / 40
	if !merged.Price.Equal(USD(175)) {
		t.Errorf("merged price = %v, want 175", merged.Price)
	}
	if !merged.Commission.Equal(USD(2)) {
		t.Errorf("merged commission = %v, want 2", merged.Commission)
	}
	if !merged.Cost().Equal(USD(7000)) {
		t.Errorf("merged cost = %v, want 7000", merged.Cost())
	}
}

func TestLedger_Tickers(t *testing.T) {
	var l Ledger
	for _, lot := range []Lot{
		buy("2025-01-15", "GOOG", 50, 2800),
		buy("2025-01-10", "AAPL", 100, 150),
		sell("2025-02-01", "AAPL", 25, 160),
	} {
		l.Append(lot)
	}
	if got, want := l.Tickers(), []string{"AAPL", "GOOG"}; !slices.Equal(got, want) {
		t.Errorf("Tickers() = %v, want %v", got, want)
	}
}

func TestLedger_AppendCurrencies(t *testing.T) {
	var l Ledger
	l.Append(NewBuy(day("2024-02-01"), "AAPL", Q(1), USD(10), USD(0)))
	l.Append(NewBuy(day("2024-02-01"), "AAPL", Q(1), M(10, "EUR"), M(0, "EUR")))

	if got, want := l.Len(), 2; got != want {
		t.Fatalf("Len() = %d, want %d: lots in different currencies must not merge", got, want)
	}
}

func TestLedger_Filters(t *testing.T) {
	var l Ledger
	l.Append(buy("2025-01-10", "AAPL", 1, 1))
	l.Append(buy("2025-01-11", "GOOG", 1, 1))
	l.Append(sell("2025-01-12", "AAPL", 1, 1))

	count := func(filters ...func(Lot) bool) int {
		n := 0
		for range l.Lots(filters...) {
			n++
		}
		return n
	}
	tests := []struct {
		name    string
		filters []func(Lot) bool
		want    int
	}{
		{"all", nil, 3},
		{"before", []func(Lot) bool{Before(day("2025-01-11"))}, 1},
		{"on or before", []func(Lot) bool{OnOrBefore(day("2025-01-11"))}, 2},
		{"ticker", []func(Lot) bool{ForTicker("AAPL")}, 2},
		{"buys", []func(Lot) bool{Buys}, 2},
		{"sells of AAPL", []func(Lot) bool{Sells, ForTicker("AAPL")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := count(tt.filters...); got != tt.want {
				t.Errorf("got %d lots, want %d", got, tt.want)
			}
		})
	}
}
