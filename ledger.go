package stockfolio

import (
	"iter"
	"slices"

	"github.com/etnz/stockfolio/date"
)

// Ledger is the collection of lots of one portfolio.
//
// Storage order is the append order, queries never depend on it. A Ledger
// only grows: lots are appended, never edited nor removed.
type Ledger struct {
	lots []Lot
}

// Append adds a lot to the ledger.
//
// A lot for the same ticker, date and direction as an existing one is merged
// into it: quantities and commissions add up and the price becomes their
// quantity weighted average.
func (l *Ledger) Append(lot Lot) {
	if i := slices.IndexFunc(l.lots, lot.sameSlot); i >= 0 {
		l.lots[i] = l.lots[i].merge(lot)
		return
	}
	l.lots = append(l.lots, lot)
}

// Len returns the number of lots in the ledger.
func (l *Ledger) Len() int { return len(l.lots) }

// Lots returns an iterator over the lots matching all the filters.
func (l *Ledger) Lots(filters ...func(Lot) bool) iter.Seq[Lot] {
	return func(yield func(Lot) bool) {
	next:
		for _, lot := range l.lots {
			for _, keep := range filters {
				if !keep(lot) {
					continue next
				}
			}
			if !yield(lot) {
				return
			}
		}
	}
}

// Tickers returns the sorted list of tickers that appear in the ledger.
func (l *Ledger) Tickers() []string {
	tickers := make([]string, 0)
	for _, lot := range l.lots {
		if !slices.Contains(tickers, lot.Ticker) {
			tickers = append(tickers, lot.Ticker)
		}
	}
	slices.Sort(tickers)
	return tickers
}

// Before keeps lots dated strictly before day.
func Before(day date.Date) func(Lot) bool {
	return func(l Lot) bool { return l.Date.Before(day) }
}

// OnOrBefore keeps lots dated on or before day.
func OnOrBefore(day date.Date) func(Lot) bool {
	return func(l Lot) bool { return !l.Date.After(day) }
}

// ForTicker keeps lots of ticker.
func ForTicker(ticker string) func(Lot) bool {
	return func(l Lot) bool { return l.Ticker == ticker }
}

// Buys keeps buy lots, Sells keeps sell lots.
func Buys(l Lot) bool  { return l.Buy }
func Sells(l Lot) bool { return !l.Buy }
