package stockfolio

import "github.com/etnz/stockfolio/date"

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// day is a helper for test to parse a date from const
func day(s string) date.Date { return date.MustParse(s) }

// buy is a helper for test to create a buy lot with no commission.
func buy(on, ticker string, qty, price float64) Lot {
	return NewBuy(day(on), ticker, Q(qty), USD(price), USD(0))
}

// sell is a helper for test to create a sell lot with no commission.
func sell(on, ticker string, qty, price float64) Lot {
	return NewSell(day(on), ticker, Q(qty), USD(price), USD(0))
}
