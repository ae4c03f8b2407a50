package stockfolio

import "fmt"

// CheckSell reports an ErrOversell error if sell cannot be appended to l.
//
// Shares available are the shares bought strictly before the sell date.
// Shares already sold are those sold before or on the sell date. A buy on the
// same day as the sell does not cover it. The check is on aggregate
// quantities, no particular lot is matched.
func CheckSell(l *Ledger, sell Lot) error {
	bought, sold := Q(0), Q(0)
	for lot := range l.Lots(ForTicker(sell.Ticker)) {
		switch {
		case lot.Buy && lot.Date.Before(sell.Date):
			bought = bought.Add(lot.Quantity)
		case !lot.Buy && !lot.Date.After(sell.Date):
			sold = sold.Add(lot.Quantity)
		}
	}
	if sold.Add(sell.Quantity).GreaterThan(bought) {
		return fmt.Errorf("on %s, cannot sell %v of %s, position is only %v: %w",
			sell.Date, sell.Quantity, sell.Ticker, bought.Sub(sold), ErrOversell)
	}
	return nil
}
