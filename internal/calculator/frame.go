package calculator

import (
	"time"

	"BitcoinAdvisor/internal/model"
)

// ComputeFrames annotates every point of series with its indicators.
func ComputeFrames(series model.TimeSeries, params model.IndicatorParams) []model.IndicatorFrame {
	prices := series.Prices()
	short := SMASeries(prices, params.ShortWindow)
	long := SMASeries(prices, params.LongWindow)
	rsi := RSISeries(prices, params.RSIWindow)

	frames := make([]model.IndicatorFrame, len(prices))
	for i, p := range series.Points {
		frames[i] = model.IndicatorFrame{
			Date:     p.Date,
			SMAShort: short[i],
			SMALong:  long[i],
			RSI:      rsi[i],
		}
	}
	return frames
}

// LatestSnapshot builds the latest-date snapshot. DefaultAllocation is left
// for the recommendation engine to fill in.
func LatestSnapshot(series model.TimeSeries, frames []model.IndicatorFrame) model.Snapshot {
	if series.Len() == 0 || len(frames) != series.Len() {
		return model.Snapshot{}
	}
	last := series.Last()
	f := frames[len(frames)-1]
	snap := model.Snapshot{
		Date:         last.Date,
		CurrentPrice: last.Price,
		SMAShort:     f.SMAShort,
		SMALong:      f.SMALong,
		RSI:          f.RSI,
	}
	if high, low, err := PeriodRange(series); err == nil {
		snap.PeriodHigh, snap.PeriodLow = high, low
	}
	return snap
}

func unixDay(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
