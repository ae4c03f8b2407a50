package stockfolio

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/etnz/stockfolio/date"
	"github.com/google/uuid"
)

// Kind tells how a portfolio evolves.
type Kind int

const (
	// Flexible portfolios grow by dated buys and sells.
	Flexible Kind = iota
	// Inflexible portfolios hold a fixed set of positions given at creation.
	Inflexible
)

func (k Kind) String() string {
	switch k {
	case Flexible:
		return "flexible"
	case Inflexible:
		return "inflexible"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses "flexible" or "inflexible".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flexible", "flex":
		return Flexible, nil
	case "inflexible", "inflex":
		return Inflexible, nil
	default:
		return Flexible, fmt.Errorf("%q: %w", s, ErrInvalidKind)
	}
}

var nameRE = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// CanonicalName validates a portfolio name and returns its canonical,
// upper case, form. Names are compared case insensitively.
func CanonicalName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !nameRE.MatchString(name) {
		return "", fmt.Errorf("invalid portfolio name %q: %w", name, ErrInvalidName)
	}
	return strings.ToUpper(name), nil
}

// Portfolio is a named collection of lots.
//
// The ledger is private: accessors return copies, and only the Book mutates a
// portfolio, by appending.
type Portfolio struct {
	name    string
	kind    Kind
	created date.Date
	ledger  Ledger
	records []Record    // appended records, in order, for persistence
	dca     []uuid.UUID // strategies executed into this portfolio
}

// NewPortfolio creates a portfolio from its initial lots.
//
// An Inflexible portfolio needs at least one lot, and only whole share buys
// dated on the creation day.
func NewPortfolio(name string, kind Kind, created date.Date, lots ...Lot) (*Portfolio, error) {
	name, err := CanonicalName(name)
	if err != nil {
		return nil, err
	}
	if created.IsZero() {
		return nil, fmt.Errorf("portfolio %s: creation date is missing: %w", name, ErrInvalidLot)
	}
	if kind == Inflexible && len(lots) == 0 {
		return nil, fmt.Errorf("inflexible portfolio %s needs at least one position: %w", name, ErrInvalidLot)
	}
	p := &Portfolio{name: name, kind: kind, created: created}
	p.records = append(p.records, Record{Command: CmdCreate, Portfolio: name, Kind: kind, Date: created})
	for _, lot := range lots {
		if kind == Inflexible {
			lot.Date = created
		}
		if err := lot.Validate(); err != nil {
			return nil, err
		}
		if err := p.checkCurrency(lot); err != nil {
			return nil, err
		}
		if kind == Inflexible {
			if !lot.Buy {
				return nil, fmt.Errorf("inflexible portfolio %s cannot sell %s: %w", name, lot.Ticker, ErrInvalidLot)
			}
			if !lot.Quantity.IsWhole() {
				return nil, fmt.Errorf("inflexible portfolio %s: quantity of %s must be a whole number of shares, got %v: %w", name, lot.Ticker, lot.Quantity, ErrInvalidLot)
			}
		} else if !lot.Buy {
			if err := CheckSell(&p.ledger, lot); err != nil {
				return nil, err
			}
		}
		p.append(lot)
	}
	return p, nil
}

// Name returns the canonical name of the portfolio.
func (p *Portfolio) Name() string { return p.name }

// Kind returns the kind of portfolio.
func (p *Portfolio) Kind() Kind { return p.kind }

// Created returns the creation date.
func (p *Portfolio) Created() date.Date { return p.created }

// Len returns the number of lots.
func (p *Portfolio) Len() int { return p.ledger.Len() }

// Tickers returns the sorted tickers the portfolio ever held.
func (p *Portfolio) Tickers() []string { return p.ledger.Tickers() }

// Lots returns a copy of the lots matching filters.
func (p *Portfolio) Lots(filters ...func(Lot) bool) []Lot {
	return slices.Collect(p.ledger.Lots(filters...))
}

// Records returns a copy of the records describing the portfolio history.
func (p *Portfolio) Records() []Record { return slices.Clone(p.records) }

// Executed reports whether the strategy id has already been executed into
// this portfolio.
func (p *Portfolio) Executed(id uuid.UUID) bool { return slices.Contains(p.dca, id) }

// append appends a lot and records it.
func (p *Portfolio) append(lot Lot) {
	p.ledger.Append(lot)
	p.records = append(p.records, Record{Command: lot.What(), Portfolio: p.name, Kind: p.kind, Date: lot.Date, Lot: lot})
}

// markExecuted records that a strategy was executed into this portfolio.
func (p *Portfolio) markExecuted(id uuid.UUID, on date.Date) {
	p.dca = append(p.dca, id)
	p.records = append(p.records, Record{Command: CmdDCA, Portfolio: p.name, Kind: p.kind, Date: on, Strategy: id})
}

// currency returns the currency the lots of p are priced in, empty while p
// has no lot.
func (p *Portfolio) currency() string {
	for lot := range p.ledger.Lots() {
		return lot.Price.Currency()
	}
	return ""
}

// checkCurrency verifies that lot is priced in the currency of the other lots
// of p.
func (p *Portfolio) checkCurrency(lot Lot) error {
	if cur := p.currency(); cur != "" && lot.Price.Currency() != cur {
		return fmt.Errorf("%s %s on %s: price in %s but portfolio %s is in %s: %w",
			lot.What(), lot.Ticker, lot.Date, lot.Price.Currency(), p.name, cur, ErrInvalidLot)
	}
	return nil
}

// checkAppend verifies that lot can be appended to p.
func (p *Portfolio) checkAppend(lot Lot) error {
	if p.kind != Flexible {
		return fmt.Errorf("cannot %s %s in %s portfolio %s: %w", lot.What(), lot.Ticker, p.kind, p.name, ErrWrongKind)
	}
	if err := lot.Validate(); err != nil {
		return err
	}
	if err := p.checkCurrency(lot); err != nil {
		return err
	}
	if !lot.Buy {
		return CheckSell(&p.ledger, lot)
	}
	return nil
}

// Record is one entry of the flat stream a LedgerStore persists.
//
// A portfolio is described by a CmdCreate record followed by CmdBuy and
// CmdSell records for its lots and CmdDCA records for the strategies executed
// into it.
type Record struct {
	Command   CommandType
	Portfolio string
	Kind      Kind
	Date      date.Date // creation date, lot date or execution date
	Lot       Lot       // CmdBuy and CmdSell only
	Strategy  uuid.UUID // CmdDCA only
}
