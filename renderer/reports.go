package renderer

import (
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
)

// Listing is the list of portfolios of a book.
type Listing struct {
	Today      date.Date
	Portfolios []PortfolioSummary
}

// PortfolioSummary is one line of a Listing.
type PortfolioSummary struct {
	Name    string
	Kind    stockfolio.Kind
	Created date.Date
	Lots    int
	Tickers string
}

// NewListing summarizes portfolios.
func NewListing(today date.Date, portfolios []*stockfolio.Portfolio) *Listing {
	l := &Listing{Today: today}
	for _, p := range portfolios {
		l.Portfolios = append(l.Portfolios, PortfolioSummary{
			Name:    p.Name(),
			Kind:    p.Kind(),
			Created: p.Created(),
			Lots:    p.Len(),
			Tickers: strings.Join(p.Tickers(), ", "),
		})
	}
	return l
}

// PortfolioReport lists the lots of a portfolio.
type PortfolioReport struct {
	Name    string
	Kind    stockfolio.Kind
	Created date.Date
	Lots    []stockfolio.Lot
}

func NewPortfolioReport(p *stockfolio.Portfolio) *PortfolioReport {
	return &PortfolioReport{Name: p.Name(), Kind: p.Kind(), Created: p.Created(), Lots: p.Lots()}
}

// ValueReport is the market value of a portfolio with its priced positions.
type ValueReport struct {
	Portfolio string
	Kind      stockfolio.Kind
	On        date.Date
	Value     stockfolio.Money
	Positions []stockfolio.Holding
}

// NewValueReport values p on day.
func NewValueReport(v *stockfolio.Valuation, p *stockfolio.Portfolio, on date.Date) (*ValueReport, error) {
	holdings, err := v.Holdings(p, on)
	if err != nil {
		return nil, err
	}
	value, err := v.Value(p, on)
	if err != nil {
		return nil, err
	}
	return &ValueReport{Portfolio: p.Name(), Kind: p.Kind(), On: on, Value: value, Positions: holdings}, nil
}

// CompositionReport is the share of each ticker in a portfolio.
type CompositionReport struct {
	Portfolio   string
	Kind        stockfolio.Kind
	On          date.Date
	Composition stockfolio.Composition
}

func NewCompositionReport(v *stockfolio.Valuation, p *stockfolio.Portfolio, on date.Date) (*CompositionReport, error) {
	c, err := v.Composition(p, on)
	if err != nil {
		return nil, err
	}
	return &CompositionReport{Portfolio: p.Name(), Kind: p.Kind(), On: on, Composition: c}, nil
}

// CostBasisReport is the cash committed to a portfolio.
type CostBasisReport struct {
	Portfolio string
	Kind      stockfolio.Kind
	On        date.Date
	CostBasis stockfolio.Money
	Buys      int
	Sells     int
}

func NewCostBasisReport(v *stockfolio.Valuation, p *stockfolio.Portfolio, on date.Date) (*CostBasisReport, error) {
	cb, err := v.CostBasis(p, on)
	if err != nil {
		return nil, err
	}
	return &CostBasisReport{
		Portfolio: p.Name(),
		Kind:      p.Kind(),
		On:        on,
		CostBasis: cb,
		Buys:      len(p.Lots(stockfolio.OnOrBefore(on), stockfolio.Buys)),
		Sells:     len(p.Lots(stockfolio.OnOrBefore(on), stockfolio.Sells)),
	}, nil
}

// ExecutionReport describes a DCA strategy execution.
type ExecutionReport struct {
	ID        string
	Portfolio string
	Created   bool
	Invested  stockfolio.Money // total cash committed by the generated lots
	Lots      []stockfolio.Lot
}

func NewExecutionReport(e stockfolio.Execution) *ExecutionReport {
	r := &ExecutionReport{ID: e.ID.String(), Portfolio: e.Portfolio, Created: e.Created, Lots: e.Lots}
	for i, lot := range e.Lots {
		cost := lot.Cost().Add(lot.Commission)
		if i == 0 {
			r.Invested = cost
			continue
		}
		r.Invested = r.Invested.Add(cost)
	}
	return r
}
