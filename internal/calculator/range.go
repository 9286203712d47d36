package calculator

import (
	"errors"
	"math"

	"BitcoinAdvisor/internal/model"
)

// PeriodRange returns the highest and lowest price over the whole series.
func PeriodRange(series model.TimeSeries) (high, low float64, err error) {
	if series.Len() == 0 {
		return 0, 0, errors.New("empty series")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range series.Points {
		if p.Price > high {
			high = p.Price
		}
		if p.Price < low {
			low = p.Price
		}
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high], clamped to 0..1.
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
