package date

import "fmt"

// Range represents a range of dates, both bounds included.
type Range struct{ From, To Date }

// NewRange return the period containing d.
func NewRange(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d.EndOf(period)}
}

func (r Range) String() string { return fmt.Sprintf("%s..%s", r.From, r.To) }
