package calculator

import "BitcoinAdvisor/internal/model"

// DetectCrosses returns the edge-triggered crossovers between the short and
// long SMA. frames must be aligned with series.Points. A date only qualifies
// when both averages are defined on it and on the previous day.
func DetectCrosses(series model.TimeSeries, frames []model.IndicatorFrame) []model.CrossEvent {
	var events []model.CrossEvent
	for i := 1; i < len(frames) && i < len(series.Points); i++ {
		cur, prev := frames[i], frames[i-1]
		if !cur.SMAShort.OK || !cur.SMALong.OK || !prev.SMAShort.OK || !prev.SMALong.OK {
			continue
		}
		switch {
		case cur.SMAShort.V > cur.SMALong.V && prev.SMAShort.V <= prev.SMALong.V:
			events = append(events, model.CrossEvent{Date: cur.Date, Direction: model.CrossGolden, Price: series.Points[i].Price})
		case cur.SMAShort.V < cur.SMALong.V && prev.SMAShort.V >= prev.SMALong.V:
			events = append(events, model.CrossEvent{Date: cur.Date, Direction: model.CrossDeath, Price: series.Points[i].Price})
		}
	}
	return events
}

// LatestCross returns the most recent event, if any.
func LatestCross(events []model.CrossEvent) (model.CrossEvent, bool) {
	if len(events) == 0 {
		return model.CrossEvent{}, false
	}
	return events[len(events)-1], true
}
