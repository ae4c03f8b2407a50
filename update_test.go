package stockfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
)

type fakeSource map[string]map[date.Date]decimal.Decimal

func (f fakeSource) Daily(_ context.Context, ticker string) (map[date.Date]decimal.Decimal, error) {
	prices, ok := f[ticker]
	if !ok {
		return nil, errors.New("unknown ticker")
	}
	return prices, nil
}

func TestRefresher_Refresh(t *testing.T) {
	source := fakeSource{
		"AAPL": {day("2024-03-01"): decimal.NewFromInt(180), day("2024-03-04"): decimal.NewFromInt(175)},
		"GOOG": {},
	}
	db := StockDB{Dir: t.TempDir()}
	r := &Refresher{
		Source:  source,
		Sink:    db,
		Tickers: func() []string { return []string{"AAPL", "GOOG", "MSFT"} },
	}
	n, err := r.Refresh(context.Background())
	if err == nil {
		t.Error("Refresh() should report the MSFT failure")
	}
	if n != 2 {
		t.Errorf("Refresh() wrote %d closes, want 2", n)
	}
	md, err := db.Load("USD")
	if err != nil {
		t.Fatal(err)
	}
	if got, err := md.PriceOn("AAPL", day("2024-03-05")); err != nil || !got.Equal(USD(175)) {
		t.Errorf("PriceOn() = %v, %v, want 175", got, err)
	}
	if md.Has("GOOG") {
		t.Error("GOOG has no close and should not have been written")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Refresh(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Refresh(canceled) error = %v, want context.Canceled", err)
	}
}

func TestRefresher_Schedule(t *testing.T) {
	r := &Refresher{Tickers: func() []string { return nil }}
	if _, err := r.Schedule("every day"); err == nil {
		t.Error("Schedule() accepted an invalid spec")
	}
	c, err := r.Schedule("0 18 * * 1-5")
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	defer c.Stop()
	if got := len(c.Entries()); got != 1 {
		t.Errorf("got %d cron entries, want 1", got)
	}
}
