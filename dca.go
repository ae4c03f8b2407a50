package stockfolio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/etnz/stockfolio/date"
	"github.com/google/uuid"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/shopspring/decimal"
)

// Allocation is the share of each investment going to one ticker.
type Allocation struct {
	Ticker  string
	Percent decimal.Decimal // 25 for 25%
}

// ParseAllocation parses "TICKER=PERCENT" like "AAPL=75".
func ParseAllocation(s string) (Allocation, error) {
	ticker, pct, ok := strings.Cut(s, "=")
	if !ok {
		return Allocation{}, fmt.Errorf("allocation %q: want TICKER=PERCENT: %w", s, ErrProportions)
	}
	v, err := decimal.NewFromString(strings.TrimSpace(pct))
	if err != nil {
		return Allocation{}, fmt.Errorf("allocation %q: %v: %w", s, err, ErrProportions)
	}
	return Allocation{Ticker: normalizeTicker(ticker), Percent: v}, nil
}

// Strategy is a dollar cost averaging plan: every Frequency days from Start to
// End, Invested is split across Allocations and bought into Portfolio.
//
// The Commission is charged once per allocation and investment date, it is
// taken out of the amount invested rather than recorded on the lot.
type Strategy struct {
	Portfolio   string
	Allocations []Allocation
	Invested    Money
	Start       date.Date
	End         date.Date // zero means today
	Frequency   int       // in days, zero for a single investment on Start
	Commission  Money
}

var strategyNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("stockfolio/dca"))

// fingerprint is the canonical form of a strategy hashed into its ID.
type fingerprint struct {
	Portfolio   string
	Allocations []string
	Invested    string
	Currency    string
	Start       string
	End         string
	Frequency   int
	Commission  string
}

// ID returns a stable identity for the strategy parameters, as given: an open
// end date is part of the identity as such.
func (s Strategy) ID() (uuid.UUID, error) {
	name, _ := CanonicalName(s.Portfolio)
	fp := fingerprint{
		Portfolio:  name,
		Invested:   s.Invested.Decimal().String(),
		Currency:   s.Invested.Currency(),
		Start:      s.Start.String(),
		Frequency:  s.Frequency,
		Commission: s.Commission.Decimal().String(),
	}
	if !s.End.IsZero() {
		fp.End = s.End.String()
	}
	for _, a := range s.Allocations {
		fp.Allocations = append(fp.Allocations, normalizeTicker(a.Ticker)+"="+a.Percent.String())
	}
	h, err := hashstructure.Hash(fp, hashstructure.FormatV2, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("cannot hash strategy: %w", err)
	}
	return uuid.NewSHA1(strategyNamespace, []byte(strconv.FormatUint(h, 16))), nil
}

// Normalize checks the strategy parameters and returns a copy with a canonical
// portfolio name and tickers, and an end date no later than today.
//
// The sum of allocations is not checked here but when lots are generated.
func (s Strategy) Normalize(today date.Date) (Strategy, error) {
	name, err := CanonicalName(s.Portfolio)
	if err != nil {
		return s, err
	}
	s.Portfolio = name
	switch {
	case s.Start.IsZero():
		return s, fmt.Errorf("start date is missing: %w", ErrInvalidDate)
	case s.Start.After(today):
		return s, fmt.Errorf("start date %s should not be a future date: %w", s.Start, ErrFutureDate)
	}
	if s.End.IsZero() || s.End.After(today) {
		s.End = today
	}
	switch {
	case s.Start.After(s.End):
		return s, fmt.Errorf("start date %s cannot be after end date %s: %w", s.Start, s.End, ErrDateOrder)
	case !s.Invested.IsPositive():
		return s, fmt.Errorf("invested amount must be greater than 0, got %v: %w", s.Invested.Decimal(), ErrInvalidAmount)
	case s.Commission.Currency() != "" && s.Commission.Currency() != s.Invested.Currency():
		return s, fmt.Errorf("commission in %s for an investment in %s: %w", s.Commission.Currency(), s.Invested.Currency(), ErrInvalidAmount)
	case s.Commission.IsNegative():
		return s, fmt.Errorf("commission fee cannot be less than 0, got %v: %w", s.Commission.Decimal(), ErrInvalidAmount)
	case s.Frequency < 0:
		return s, fmt.Errorf("frequency of investments cannot be less than 0, got %d: %w", s.Frequency, ErrInvalidAmount)
	case len(s.Allocations) == 0:
		return s, fmt.Errorf("no allocation: %w", ErrProportions)
	}
	allocations := make([]Allocation, 0, len(s.Allocations))
	for _, a := range s.Allocations {
		a.Ticker = normalizeTicker(a.Ticker)
		if a.Ticker == "" {
			return s, fmt.Errorf("allocation ticker is missing: %w", ErrProportions)
		}
		if !a.Percent.IsPositive() {
			return s, fmt.Errorf("allocation of %s must be positive, got %v: %w", a.Ticker, a.Percent, ErrProportions)
		}
		allocations = append(allocations, a)
	}
	s.Allocations = allocations
	return s, nil
}

// Schedule returns the investment dates: Start, then every Frequency days
// while the next date is strictly before End.
func (s Strategy) Schedule() []date.Date {
	dates := []date.Date{s.Start}
	if s.Frequency <= 0 {
		return dates
	}
	for on := s.Start; s.End.After(on.Add(s.Frequency)); {
		on = on.Add(s.Frequency)
		dates = append(dates, on)
	}
	return dates
}

// Lots returns the buys the strategy generates, one per allocation and
// investment date strictly before today. Later dates are skipped.
//
// Each buy invests Invested * Percent / 100 - Commission at the close price of
// the day, with no commission on the lot itself.
func (s Strategy) Lots(prices PriceLookup, today date.Date) ([]Lot, error) {
	sum := decimal.Zero
	for _, a := range s.Allocations {
		sum = sum.Add(a.Percent)
	}
	if !sum.Equal(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("sum of percentage to be invested in each stock is %v: %w", sum, ErrProportions)
	}

	schedule := s.Schedule()
	hundred := Q(100)
	lots := make([]Lot, 0, len(schedule)*len(s.Allocations))
	for _, a := range s.Allocations {
		amount := s.Invested.Mul(Q(a.Percent)).Div(hundred).Sub(s.Commission)
		if !amount.IsPositive() {
			return nil, fmt.Errorf("amount invested in %s after commission must be greater than 0, got %v: %w", a.Ticker, amount.Decimal(), ErrInvalidAmount)
		}
		for _, on := range schedule {
			if !on.Before(today) {
				continue
			}
			price, err := prices.PriceOn(a.Ticker, on)
			if err != nil {
				return nil, fmt.Errorf("ticker details not available: %w", err)
			}
			if !price.IsPositive() {
				return nil, fmt.Errorf("close of %s on %s is %v: %w", a.Ticker, on, price.Decimal(), ErrPriceUnavailable)
			}
			lots = append(lots, NewBuy(on, a.Ticker, amount.DivPrice(price), price, M(0, price.Currency())))
		}
	}
	return lots, nil
}
