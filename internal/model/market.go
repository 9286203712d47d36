package model

import "time"

// Observation is a raw price sample as returned by a market-data source.
// Timestamps may be intraday or irregular.
type Observation struct {
	Time   time.Time
	Price  float64
	Volume float64
}

// PricePoint is one calendar day (UTC midnight) of a normalized series.
type PricePoint struct {
	Date   time.Time
	Price  float64
	Volume float64
}

// TimeSeries is an ordered, gap-free daily series. It is built fresh per
// request and never mutated afterwards.
type TimeSeries struct {
	Symbol string
	Points []PricePoint
}

func (s TimeSeries) Len() int { return len(s.Points) }

// Prices returns the price column.
func (s TimeSeries) Prices() []float64 {
	prices := make([]float64, len(s.Points))
	for i, p := range s.Points {
		prices[i] = p.Price
	}
	return prices
}

// Last returns the latest point. It panics on an empty series.
func (s TimeSeries) Last() PricePoint {
	return s.Points[len(s.Points)-1]
}

// DateFormat is the wire format for calendar days.
const DateFormat = "2006-01-02"

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
