package stockfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/stockfolio/date"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// This file contains functions to update the price database with the latest
// closes from a remote provider.

// PriceSource fetches the daily closes of a ticker.
type PriceSource interface {
	Daily(ctx context.Context, ticker string) (map[date.Date]decimal.Decimal, error)
}

// PriceSink stores daily closes. StockDB and the sqlite price store are sinks.
type PriceSink interface {
	PutPrices(ticker string, prices map[date.Date]decimal.Decimal) error
}

// Refresher copies the closes of a set of tickers from a source into a sink.
type Refresher struct {
	Source  PriceSource
	Sink    PriceSink
	Tickers func() []string // tickers to refresh, read on every run
	Log     *zap.Logger
}

func (r *Refresher) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

// Refresh updates every ticker and returns the number of closes written.
// A failing ticker does not stop the others, failures are joined.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	var errs error
	count := 0
	for _, ticker := range r.Tickers() {
		if err := ctx.Err(); err != nil {
			return count, errors.Join(errs, err)
		}
		prices, err := r.Source.Daily(ctx, ticker)
		if err != nil {
			r.logger().Warn("cannot fetch prices", zap.String("ticker", ticker), zap.Error(err))
			errs = errors.Join(errs, fmt.Errorf("fetch %s: %w", ticker, err))
			continue
		}
		if len(prices) == 0 {
			r.logger().Info("no prices found", zap.String("ticker", ticker))
			continue
		}
		if err := r.Sink.PutPrices(ticker, prices); err != nil {
			errs = errors.Join(errs, fmt.Errorf("store %s: %w", ticker, err))
			continue
		}
		count += len(prices)
		r.logger().Info("prices refreshed", zap.String("ticker", ticker), zap.Int("closes", len(prices)))
	}
	return count, errs
}

// Schedule returns a started cron running Refresh on the standard five field
// cron spec. Stop the returned cron to end the refreshes.
func (r *Refresher) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := r.Refresh(ctx); err != nil {
			r.logger().Error("scheduled refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	c.Start()
	r.logger().Info("refresh scheduled", zap.String("schedule", spec))
	return c, nil
}
