package stockfolio

import (
	"fmt"
	"maps"
	"slices"

	"github.com/etnz/stockfolio/date"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerStore persists the records of every portfolio.
type LedgerStore interface {
	// Load returns all records in the order they were saved.
	Load() ([]Record, error)
	// Save persists the records of p that are not yet stored.
	Save(p *Portfolio) error
}

// Book is the set of named portfolios of a user. It is the only way to mutate
// a portfolio: every accepted mutation is saved to the store before returning.
//
// A Book is not safe for concurrent use.
type Book struct {
	store      LedgerStore
	prices     PriceLookup
	log        *zap.Logger
	today      func() date.Date
	portfolios map[string]*Portfolio
}

// Option configures a Book.
type Option func(*Book)

// WithLogger sets the logger, zap.NewNop() by default.
func WithLogger(l *zap.Logger) Option {
	return func(b *Book) {
		if l != nil {
			b.log = l
		}
	}
}

// WithClock sets the function returning the current date, date.Today by default.
func WithClock(today func() date.Date) Option {
	return func(b *Book) {
		if today != nil {
			b.today = today
		}
	}
}

// NewBook returns an empty book saving into store, which may be nil for an
// in memory book. Prices are used to execute strategies.
func NewBook(store LedgerStore, prices PriceLookup, opts ...Option) *Book {
	b := &Book{
		store:      store,
		prices:     prices,
		log:        zap.NewNop(),
		today:      date.Today,
		portfolios: make(map[string]*Portfolio),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OpenBook returns a book with the portfolios loaded from store.
func OpenBook(store LedgerStore, prices PriceLookup, opts ...Option) (*Book, error) {
	b := NewBook(store, prices, opts...)
	records, err := store.Load()
	if err != nil {
		return nil, IOError(err)
	}
	if err := b.Replay(records); err != nil {
		return nil, err
	}
	b.log.Debug("book loaded", zap.Int("records", len(records)), zap.Int("portfolios", len(b.portfolios)))
	return b, nil
}

// Replay rebuilds portfolios from records. Records are trusted to have been
// accepted once: inconsistent records make the store malformed.
func (b *Book) Replay(records []Record) error {
	for i, r := range records {
		if err := b.replay(r); err != nil {
			return ioErrorf("malformed ledger record %d (%s %s): %v", i+1, r.Command, r.Portfolio, err)
		}
	}
	return nil
}

func (b *Book) replay(r Record) error {
	name, err := CanonicalName(r.Portfolio)
	if err != nil {
		return err
	}
	p, exists := b.portfolios[name]
	if r.Command == CmdCreate {
		if exists {
			return ErrPortfolioExists
		}
		if r.Date.IsZero() {
			return fmt.Errorf("creation date is missing")
		}
		p = &Portfolio{name: name, kind: r.Kind, created: r.Date}
		p.records = append(p.records, Record{Command: CmdCreate, Portfolio: name, Kind: r.Kind, Date: r.Date})
		b.portfolios[name] = p
		return nil
	}
	if !exists {
		return ErrPortfolioNotFound
	}
	switch r.Command {
	case CmdBuy, CmdSell:
		lot := r.Lot
		if err := lot.Validate(); err != nil {
			return err
		}
		if err := p.checkCurrency(lot); err != nil {
			return err
		}
		if lot.What() != r.Command {
			return fmt.Errorf("lot is a %s", lot.What())
		}
		if !lot.Buy && p.kind == Flexible {
			if err := CheckSell(&p.ledger, lot); err != nil {
				return err
			}
		}
		p.append(lot)
	case CmdDCA:
		if r.Strategy == uuid.Nil {
			return fmt.Errorf("strategy id is missing")
		}
		p.markExecuted(r.Strategy, r.Date)
	default:
		return fmt.Errorf("unknown command %q", r.Command)
	}
	return nil
}

// Today returns the current date of the book clock.
func (b *Book) Today() date.Date { return b.today() }

// Portfolio returns the portfolio with the given name, case insensitively.
func (b *Book) Portfolio(name string) (*Portfolio, error) {
	canonical, err := CanonicalName(name)
	if err != nil {
		return nil, err
	}
	p, ok := b.portfolios[canonical]
	if !ok {
		return nil, fmt.Errorf("%s: %w", canonical, ErrPortfolioNotFound)
	}
	return p, nil
}

// Portfolios returns all portfolios sorted by name.
func (b *Book) Portfolios() []*Portfolio {
	names := slices.Sorted(maps.Keys(b.portfolios))
	ps := make([]*Portfolio, 0, len(names))
	for _, n := range names {
		ps = append(ps, b.portfolios[n])
	}
	return ps
}

// Create creates a new portfolio dated today. See NewPortfolio for the rules
// on the initial lots.
func (b *Book) Create(name string, kind Kind, lots ...Lot) (*Portfolio, error) {
	canonical, err := CanonicalName(name)
	if err != nil {
		return nil, err
	}
	if _, exists := b.portfolios[canonical]; exists {
		return nil, fmt.Errorf("%s: %w", canonical, ErrPortfolioExists)
	}
	today := b.today()
	if kind == Flexible {
		for _, lot := range lots {
			if lot.Date.After(today) {
				return nil, fmt.Errorf("%s %s on %s: %w", lot.What(), lot.Ticker, lot.Date, ErrFutureDate)
			}
		}
	}
	p, err := NewPortfolio(canonical, kind, today, lots...)
	if err != nil {
		return nil, err
	}
	b.portfolios[canonical] = p
	b.log.Info("portfolio created",
		zap.String("portfolio", canonical),
		zap.Stringer("kind", kind),
		zap.Int("lots", p.Len()),
	)
	return p, b.save(p)
}

// Buy appends a buy lot to a flexible portfolio.
func (b *Book) Buy(name string, lot Lot) error {
	lot.Buy = true
	return b.appendLot(name, lot)
}

// Sell appends a sell lot to a flexible portfolio. The portfolio must hold
// enough shares strictly before the sell date.
func (b *Book) Sell(name string, lot Lot) error {
	lot.Buy = false
	return b.appendLot(name, lot)
}

func (b *Book) appendLot(name string, lot Lot) error {
	p, err := b.Portfolio(name)
	if err != nil {
		return err
	}
	if lot.Date.After(b.today()) {
		return fmt.Errorf("%s %s on %s: %w", lot.What(), lot.Ticker, lot.Date, ErrFutureDate)
	}
	if err := p.checkAppend(lot); err != nil {
		return err
	}
	p.append(lot)
	b.log.Info("lot appended",
		zap.String("portfolio", p.Name()),
		zap.String("command", string(lot.What())),
		zap.String("ticker", lot.Ticker),
		zap.Stringer("quantity", lot.Quantity),
		zap.Stringer("date", lot.Date),
	)
	return b.save(p)
}

// Execution is the outcome of executing a strategy.
type Execution struct {
	ID        uuid.UUID
	Portfolio string
	Created   bool  // the portfolio was created by the execution
	Lots      []Lot // lots appended, in generation order
}

// Execute runs the strategy into its portfolio, creating a flexible portfolio
// if it does not exist yet.
//
// A strategy is executed at most once into a portfolio. All prices are
// resolved before any lot is appended, so that a failure leaves the portfolio
// untouched.
func (b *Book) Execute(s Strategy) (Execution, error) {
	id, err := s.ID()
	if err != nil {
		return Execution{}, err
	}
	today := b.today()
	if s, err = s.Normalize(today); err != nil {
		return Execution{}, err
	}
	p, exists := b.portfolios[s.Portfolio]
	if exists {
		if p.Kind() != Flexible {
			return Execution{}, fmt.Errorf("cannot execute a strategy into %s portfolio %s: %w", p.Kind(), p.Name(), ErrWrongKind)
		}
		if p.Executed(id) {
			return Execution{}, fmt.Errorf("strategy %s into %s: %w", id, p.Name(), ErrStrategyExecuted)
		}
	}
	if b.prices == nil {
		return Execution{}, fmt.Errorf("no price source: %w", ErrPriceUnavailable)
	}
	lots, err := s.Lots(b.prices, today)
	if err != nil {
		return Execution{}, err
	}
	if exists && len(lots) > 0 {
		if err := p.checkCurrency(lots[0]); err != nil {
			return Execution{}, err
		}
	}

	if !exists {
		if p, err = NewPortfolio(s.Portfolio, Flexible, today); err != nil {
			return Execution{}, err
		}
		b.portfolios[p.Name()] = p
	}
	for _, lot := range lots {
		p.append(lot)
	}
	p.markExecuted(id, today)
	b.log.Info("strategy executed",
		zap.Stringer("id", id),
		zap.String("portfolio", p.Name()),
		zap.Bool("created", !exists),
		zap.Int("lots", len(lots)),
	)
	return Execution{ID: id, Portfolio: p.Name(), Created: !exists, Lots: lots}, b.save(p)
}

func (b *Book) save(p *Portfolio) error {
	if b.store == nil {
		return nil
	}
	if err := b.store.Save(p); err != nil {
		b.log.Error("cannot save portfolio", zap.String("portfolio", p.Name()), zap.Error(err))
		return ioErrorf("cannot save portfolio %s: %w", p.Name(), err)
	}
	return nil
}
