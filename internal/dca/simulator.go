// Package dca replays a fixed-amount periodic purchase schedule over a daily
// price series.
package dca

import (
	"math"

	"BitcoinAdvisor/internal/apperr"
	"BitcoinAdvisor/internal/model"
)

// Simulate buys amount worth of the asset on every scheduled date present in
// series and values the position at the final series price.
func Simulate(series model.TimeSeries, amount float64, sch Schedule) (model.DCAResult, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return model.DCAResult{}, apperr.InvalidParameter("amount must be a positive number, got %v", amount)
	}
	if err := sch.validate(); err != nil {
		return model.DCAResult{}, err
	}
	if series.Len() == 0 {
		return model.DCAResult{}, apperr.DataUnavailable("empty series for "+series.Symbol, nil)
	}

	byDay := make(map[int64]model.PricePoint, series.Len())
	for _, p := range series.Points {
		byDay[model.DayOf(p.Date).Unix()] = p
	}

	first, last := series.Points[0].Date, series.Last().Date
	var (
		res      model.DCAResult
		units    float64
		invested float64
	)
	for _, d := range sch.Dates(model.DayOf(first), model.DayOf(last)) {
		p, ok := byDay[d.Unix()]
		if !ok || p.Price <= 0 {
			continue
		}
		bought := amount / p.Price
		units += bought
		invested += amount
		res.Transactions = append(res.Transactions, model.DCATransaction{
			Date:               p.Date,
			Price:              p.Price,
			Amount:             amount,
			Units:              bought,
			CumulativeUnits:    units,
			CumulativeInvested: invested,
			MarketValue:        units * p.Price,
		})
	}
	if len(res.Transactions) == 0 {
		return res, nil
	}

	finalPrice := series.Last().Price
	finalValue := units * finalPrice
	profit := finalValue - invested
	res.Summary = &model.DCASummary{
		TotalInvested: invested,
		TotalUnits:    units,
		FinalPrice:    finalPrice,
		FinalValue:    finalValue,
		Profit:        profit,
		ROI:           profit / invested * 100,
	}
	return res, nil
}
