package renderer

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"gonum.org/v1/gonum/floats"
)

// chartWidth is the number of stars of the largest bar.
const chartWidth = 50

// Chart is a horizontal bar chart of a portfolio performance. Each bar is
// made of stars worth Step above Base.
type Chart struct {
	Portfolio string
	From, To  string
	Labels    []string
	Bars      []int // number of stars per label
	Step      stockfolio.Money
	Base      stockfolio.Money
}

// label formats a bin date at the granularity it was chosen at.
func label(period date.Period, on date.Date) string {
	switch period {
	case date.Yearly:
		return on.Format("2006")
	case date.Monthly:
		return on.Format("Jan 2006")
	default:
		return on.String()
	}
}

// stars returns the bar length of value. Any positive value has at least one
// star, even when it is the base.
func stars(value, base float64, step int) int {
	if value <= 0 {
		return 0
	}
	n := 1
	for x := value - base - float64(step); x > 0; x -= float64(step) {
		n++
	}
	return n
}

// NewChart scales perf so that the widest bar has about 50 stars.
func NewChart(perf stockfolio.Performance) Chart {
	c := Chart{Portfolio: perf.Portfolio}
	if len(perf.Values) == 0 {
		return c
	}
	cur := perf.Values[0].Currency()
	values := make([]float64, len(perf.Values))
	for i, v := range perf.Values {
		values[i] = v.Float64()
	}
	lo, hi := floats.Min(values), floats.Max(values)
	step := max(1, int(math.Ceil((hi-lo)/chartWidth)))

	c.Step = stockfolio.M(step, cur)
	c.Base = stockfolio.M(lo, cur)
	c.From = label(perf.Bins.Period, perf.Bins.Dates[0])
	c.To = label(perf.Bins.Period, perf.Bins.Dates[len(perf.Bins.Dates)-1])
	for i, on := range perf.Bins.Dates {
		c.Labels = append(c.Labels, label(perf.Bins.Period, on))
		c.Bars = append(c.Bars, stars(values[i], lo, step))
	}
	return c
}

// String renders the chart as plain text, one "label : ****" line per bin.
func (c Chart) String() string {
	var b strings.Builder
	for i, l := range c.Labels {
		fmt.Fprintf(&b, "%s : %s\n", l, strings.Repeat("*", c.Bars[i]))
	}
	fmt.Fprintf(&b, "Scale: * = %s\n", c.Step)
	fmt.Fprintf(&b, "Base Amount = %s\n", c.Base)
	return b.String()
}

// PerformanceMarkdown renders the performance of a portfolio as a text chart.
func PerformanceMarkdown(perf stockfolio.Performance) string {
	c := NewChart(perf)
	var b strings.Builder
	fmt.Fprintf(&b, "# Performance of portfolio %s from %s to %s\n\n", c.Portfolio, c.From, c.To)
	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "```text\n%s```\n", c)
		return len(c.Labels) > 0
	})
	return b.String()
}
