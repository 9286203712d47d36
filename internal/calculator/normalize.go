package calculator

import (
	"math"
	"sort"

	"BitcoinAdvisor/internal/apperr"
	"BitcoinAdvisor/internal/model"
)

// Normalize resamples raw observations to one point per UTC calendar day.
// Same-day observations are averaged; days without observations carry the
// previous day's price forward with zero volume.
func Normalize(symbol string, raw []model.Observation) (model.TimeSeries, error) {
	if len(raw) == 0 {
		return model.TimeSeries{}, apperr.DataUnavailable("no observations for "+symbol, nil)
	}

	type bucket struct {
		sum    float64
		count  int
		volume float64
	}
	buckets := make(map[int64]*bucket)
	for _, o := range raw {
		if o.Price <= 0 || math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
			continue
		}
		key := model.DayOf(o.Time).Unix()
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.sum += o.Price
		b.count++
		if o.Volume > 0 {
			b.volume += o.Volume
		}
	}
	if len(buckets) == 0 {
		return model.TimeSeries{}, apperr.DataUnavailable("no valid prices for "+symbol, nil)
	}

	days := make([]int64, 0, len(buckets))
	for k := range buckets {
		days = append(days, k)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	const secondsPerDay = 24 * 60 * 60
	first, last := days[0], days[len(days)-1]
	points := make([]model.PricePoint, 0, (last-first)/secondsPerDay+1)

	var prev float64
	for day := first; day <= last; day += secondsPerDay {
		p := model.PricePoint{Date: unixDay(day)}
		if b, ok := buckets[day]; ok {
			p.Price = b.sum / float64(b.count)
			p.Volume = b.volume
		} else {
			p.Price = prev
		}
		prev = p.Price
		points = append(points, p)
	}

	return model.TimeSeries{Symbol: symbol, Points: points}, nil
}
