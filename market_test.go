package stockfolio

import (
	"errors"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMarketData_PriceOn(t *testing.T) {
	md := NewMarketData("USD")
	md.Add("aapl", day("2024-03-01"), decimal.NewFromInt(180)) // Friday
	md.Add("AAPL", day("2024-03-04"), decimal.NewFromInt(175))
	md.Add("AAPL", day("2024-02-29"), decimal.NewFromInt(181))

	tests := []struct {
		on      string
		want    float64
		wantErr bool
	}{
		{"2024-02-28", 0, true},
		{"2024-02-29", 181, false},
		{"2024-03-02", 180, false}, // Saturday
		{"2024-03-03", 180, false}, // Sunday
		{"2024-03-04", 175, false},
		{"2025-01-01", 175, false},
	}
	for _, tt := range tests {
		t.Run(tt.on, func(t *testing.T) {
			got, err := md.PriceOn("AAPL", day(tt.on))
			if tt.wantErr {
				if !errors.Is(err, ErrPriceUnavailable) {
					t.Errorf("PriceOn() error = %v, want ErrPriceUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PriceOn() error: %v", err)
			}
			if !got.Equal(USD(tt.want)) {
				t.Errorf("PriceOn() = %v, want %v", got, tt.want)
			}
		})
	}

	price, on, err := md.LatestPrice("aapl")
	if err != nil || on != day("2024-03-04") || !price.Equal(USD(175)) {
		t.Errorf("LatestPrice() = %v, %s, %v, want 175 on 2024-03-04", price, on, err)
	}
	if _, _, err := md.LatestPrice("MSFT"); !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("LatestPrice(MSFT) error = %v, want ErrPriceUnavailable", err)
	}
	if _, err := md.PriceOn("MSFT", day("2024-03-04")); !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("PriceOn(MSFT) error = %v, want ErrPriceUnavailable", err)
	}
	if !md.Has("Aapl") || md.Has("MSFT") {
		t.Error("Has() is wrong")
	}
	if got := md.Tickers(); !slices.Equal(got, []string{"AAPL"}) {
		t.Errorf("Tickers() = %v", got)
	}
}
