package stockfolio

import "fmt"

// Percent is a ratio expressed in percent: 12.5 is 12.5%.
type Percent float64

// Equal compares with a precision of 0.0001 percent.
func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}
