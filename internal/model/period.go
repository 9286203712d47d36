package model

import "BitcoinAdvisor/internal/apperr"

// Period is a lookback window accepted by the entry points.
type Period string

const (
	Period1M Period = "1mo"
	Period3M Period = "3mo"
	Period6M Period = "6mo"
	Period1Y Period = "1y"
	Period2Y Period = "2y"
	Period5Y Period = "5y"
)

var periodDays = map[Period]int{
	Period1M: 30,
	Period3M: 90,
	Period6M: 180,
	Period1Y: 365,
	Period2Y: 730,
	Period5Y: 1825,
}

// ParsePeriod validates a lookback period. An empty string selects 1y.
func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return Period1Y, nil
	}
	p := Period(s)
	if _, ok := periodDays[p]; !ok {
		return "", apperr.InvalidParameter("unknown period %q", s)
	}
	return p, nil
}

// Days returns the approximate number of calendar days covered by p.
func (p Period) Days() int { return periodDays[p] }
