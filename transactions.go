package stockfolio

import (
	"fmt"
	"strings"

	"github.com/etnz/stockfolio/date"
)

// CommandType is a typed string for identifying ledger records.
type CommandType string

// Command types used for identifying records.
const (
	CmdCreate CommandType = "create"
	CmdBuy    CommandType = "buy"
	CmdSell   CommandType = "sell"
	CmdDCA    CommandType = "dca"
)

// Lot is one recorded transaction: a buy or a sell of Quantity shares of
// Ticker at Price on Date, paying a flat Commission.
//
// Quantity is always positive, the direction is given by Buy. Lots are values,
// a Ledger never hands out a reference to the lots it holds.
type Lot struct {
	Ticker     string
	Quantity   Quantity
	Price      Money
	Date       date.Date
	Buy        bool
	Commission Money
}

// NewBuy creates a new buy Lot.
func NewBuy(day date.Date, ticker string, quantity Quantity, price, commission Money) Lot {
	return Lot{
		Ticker:     normalizeTicker(ticker),
		Quantity:   quantity,
		Price:      price,
		Date:       day,
		Buy:        true,
		Commission: commission,
	}
}

// NewSell creates a new sell Lot.
func NewSell(day date.Date, ticker string, quantity Quantity, price, commission Money) Lot {
	l := NewBuy(day, ticker, quantity, price, commission)
	l.Buy = false
	return l
}

func normalizeTicker(ticker string) string { return strings.ToUpper(strings.TrimSpace(ticker)) }

// What returns the command type of the lot.
func (l Lot) What() CommandType {
	if l.Buy {
		return CmdBuy
	}
	return CmdSell
}

// Signed returns the quantity, negated for a sell.
func (l Lot) Signed() Quantity {
	if l.Buy {
		return l.Quantity
	}
	return l.Quantity.Neg()
}

// Cost returns price times quantity, commission excluded.
func (l Lot) Cost() Money { return l.Price.Mul(l.Quantity) }

// Validate checks the lot fields.
func (l Lot) Validate() error {
	switch {
	case l.Ticker == "":
		return fmt.Errorf("ticker is missing: %w", ErrInvalidLot)
	case l.Date.IsZero():
		return fmt.Errorf("%s %s: date is missing: %w", l.What(), l.Ticker, ErrInvalidLot)
	case !l.Quantity.IsPositive():
		return fmt.Errorf("%s %s on %s: quantity must be positive, got %v: %w", l.What(), l.Ticker, l.Date, l.Quantity, ErrInvalidLot)
	case !l.Price.IsPositive():
		return fmt.Errorf("%s %s on %s: price must be positive, got %v: %w", l.What(), l.Ticker, l.Date, l.Price.Decimal(), ErrInvalidLot)
	case l.Commission.IsNegative():
		return fmt.Errorf("%s %s on %s: commission cannot be negative, got %v: %w", l.What(), l.Ticker, l.Date, l.Commission.Decimal(), ErrInvalidLot)
	case l.Commission.Currency() != "" && l.Commission.Currency() != l.Price.Currency():
		return fmt.Errorf("%s %s on %s: commission in %s for a price in %s: %w", l.What(), l.Ticker, l.Date, l.Commission.Currency(), l.Price.Currency(), ErrInvalidLot)
	}
	return nil
}

// sameSlot reports whether both lots are merged together in a ledger. Lots
// priced in different currencies are never merged.
func (l Lot) sameSlot(x Lot) bool {
	return l.Ticker == x.Ticker && l.Date == x.Date && l.Buy == x.Buy &&
		l.Price.Currency() == x.Price.Currency() && l.Commission.Currency() == x.Commission.Currency()
}

// merge returns a lot with both quantities and commissions. Price is the
// quantity weighted average, so that Cost is preserved.
func (l Lot) merge(x Lot) Lot {
	qty := l.Quantity.Add(x.Quantity)
	m := l
	m.Quantity = qty
	m.Price = l.Cost().Add(x.Cost()).Div(qty)
	m.Commission = l.Commission.Add(x.Commission)
	return m
}

// MarshalJSON implements the json.Marshaler interface for Lot.
func (l Lot) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("command", l.What())
	w.Append("date", l.Date)
	w.Append("ticker", l.Ticker)
	w.Append("quantity", l.Quantity)
	w.Append("price", l.Price.Decimal())
	if !l.Commission.IsZero() {
		w.Append("commission", l.Commission.Decimal())
	}
	w.Optional("currency", l.Price.Currency())
	return w.MarshalJSON()
}
