package date

import "errors"

// ErrReversedRange is returned when a range ends before it starts. The date
// package sits below the stockfolio error classes, callers in the root
// package report it as stockfolio.ErrDateOrder.
var ErrReversedRange = errors.New("end date cannot be before start date")

// BinSet is an ordered set of sample dates representing a range.
//
// Period is Daily, Monthly or Yearly and tells the granularity the dates were
// chosen at. The first date is the (normalized) start of the range and the
// last one is its end.
type BinSet struct {
	Period Period
	Dates  []Date
}

// Len returns the number of sample dates.
func (b BinSet) Len() int { return len(b.Dates) }

// Bin reduces the range [start, end] to a few sample dates suitable for a chart.
//
// Ranges shorter than 900 days are sampled by days, shorter than 30 years by
// months, longer ones by years. The day tier starts on the first day of
// start's month and always yields at least 5 dates.
func Bin(start, end Date) (BinSet, error) {
	if end.Before(start) {
		return BinSet{}, ErrReversedRange
	}
	return dayBins(start, end), nil
}

// roundedQuotient implements the step rounding of the binner: the quotient is
// rounded up only when the remainder exceeds one.
func roundedQuotient(q, r int) int {
	if r > 1 {
		return q + 1
	}
	return q
}

const (
	binDivisor  = 30
	minDayBins  = 5
	maxDayQuot  = 30 // day quotient from which months are used
	maxMonthQuo = 12 // month quotient from which years are used
)

func dayBins(start, end Date) BinSet {
	start = start.StartOf(Monthly)
	span := DaysBetween(start, end) + 1
	q, r := span/binDivisor, span%binDivisor
	if q >= maxDayQuot {
		return monthBins(start, end)
	}

	factor := roundedQuotient(q, r)
	bins := 0
	if factor > 0 {
		bins = roundedQuotient(span/factor, span%factor)
	}
	if bins < minDayBins {
		bins, factor = minDayBins, 1
		end = start.Add(minDayBins - 1)
	}

	dates := make([]Date, 0, bins)
	dates = append(dates, start)
	on := start
	for i := 0; i < bins-2; i++ {
		on = on.Add(factor)
		dates = append(dates, on)
	}
	dates = append(dates, end)
	return BinSet{Period: Daily, Dates: dates}
}

func monthBins(start, end Date) BinSet {
	span := MonthsBetween(start, end)
	q, r := span/binDivisor, span%binDivisor
	if q >= maxMonthQuo {
		return yearBins(start, end)
	}
	factor := max(roundedQuotient(q, r), 1)

	dates := []Date{start}
	on := start
	for on.Before(end) {
		on = on.StartOf(Monthly).AddMonths(factor).EndOf(Monthly)
		dates = append(dates, on)
	}
	// the last computed point is replaced by the actual end.
	dates[len(dates)-1] = end
	return BinSet{Period: Monthly, Dates: dates}
}

func yearBins(start, end Date) BinSet {
	start = start.EndOf(Yearly)
	span := YearsBetween(start, end)
	factor := max(roundedQuotient(span/binDivisor, span%binDivisor), 1)

	dates := []Date{start}
	on := start
	for on.Before(end) {
		on = on.AddYears(factor)
		dates = append(dates, on)
	}
	dates[len(dates)-1] = end
	return BinSet{Period: Yearly, Dates: dates}
}
