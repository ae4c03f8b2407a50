package renderer

import (
	"strings"
	"testing"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStars(t *testing.T) {
	tests := []struct {
		value, base float64
		step        int
		want        int
	}{
		{0, 0, 10, 0},
		{-5, -10, 1, 0},   // non positive values have no bar
		{100, 100, 10, 1}, // the base still gets a star
		{105, 100, 10, 1},
		{110, 100, 10, 1},
		{111, 100, 10, 2},
		{600, 100, 10, 50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stars(tt.value, tt.base, tt.step), "stars(%v, %v, %v)", tt.value, tt.base, tt.step)
	}
}

func TestNewChart(t *testing.T) {
	perf := stockfolio.Performance{
		Portfolio: "GROWTH",
		Bins: date.BinSet{Period: date.Monthly, Dates: []date.Date{
			day("2018-09-30"), day("2019-05-31"), day("2020-01-31"), day("2021-12-15"),
		}},
		Values: []stockfolio.Money{usd(0), usd(14000), usd(24000), usd(38850)},
	}
	c := NewChart(perf)
	assert.Equal(t, []string{"Sep 2018", "May 2019", "Jan 2020", "Dec 2021"}, c.Labels)
	assert.True(t, c.Step.Equal(usd(777)), "step %v", c.Step)
	assert.True(t, c.Base.Equal(usd(0)), "base %v", c.Base)
	assert.Equal(t, []int{0, 19, 31, 50}, c.Bars)
	assert.Equal(t, "Sep 2018", c.From)
	assert.Equal(t, "Dec 2021", c.To)

	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Sep 2018 : ", lines[0])
	assert.Equal(t, "Dec 2021 : "+strings.Repeat("*", 50), lines[3])
	assert.Equal(t, "Scale: * = $777.00", lines[4])
	assert.Equal(t, "Base Amount = $0.00", lines[5])
}

func TestNewChart_Flat(t *testing.T) {
	perf := stockfolio.Performance{
		Portfolio: "P",
		Bins:      date.BinSet{Period: date.Yearly, Dates: []date.Date{day("2010-12-31"), day("2011-12-31")}},
		Values:    []stockfolio.Money{usd(10), usd(10)},
	}
	c := NewChart(perf)
	assert.Equal(t, []string{"2010", "2011"}, c.Labels)
	assert.True(t, c.Step.Equal(usd(1)), "step is at least one")
	assert.Equal(t, []int{1, 1}, c.Bars)
}

func TestPerformanceMarkdown(t *testing.T) {
	md := stockfolio.NewMarketData("USD").
		Add("AAPL", day("2024-01-01"), decimal.NewFromInt(100)).
		Add("AAPL", day("2024-01-03"), decimal.NewFromInt(150))
	p, err := stockfolio.NewPortfolio("growth", stockfolio.Flexible, day("2024-01-01"),
		stockfolio.NewBuy(day("2024-01-01"), "AAPL", stockfolio.Q(1), usd(100), usd(0)))
	require.NoError(t, err)
	perf, err := stockfolio.NewValuation(md, "USD").Performance(p, day("2024-01-01"), day("2024-01-03"), day("2024-01-10"))
	require.NoError(t, err)

	doc := parse(t, PerformanceMarkdown(perf))
	assert.Equal(t, []string{"Performance of portfolio GROWTH from 2024-01-01 to 2024-01-05"}, doc.headings)
	// values are 0, 100, 150, 150, 150: a star is worth ceil(150/50)
	assert.Contains(t, doc.text, "```text\n2024-01-01 : \n2024-01-02 : "+strings.Repeat("*", 34)+"\n")
	assert.Contains(t, doc.text, "2024-01-05 : "+strings.Repeat("*", 50)+"\n")
	assert.Contains(t, doc.text, "Scale: * = $3.00\n")
	assert.Contains(t, doc.text, "Base Amount = $0.00\n```\n")
}
