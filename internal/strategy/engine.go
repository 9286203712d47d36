package strategy

import (
	"strconv"
	"strings"

	"BitcoinAdvisor/internal/calculator"
	"BitcoinAdvisor/internal/model"
)

// Engine evaluates a rule table against an indicator-annotated series.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	table model.RuleTable
	buy   []model.RuleBand
	sell  []model.RuleBand
}

// NewEngine validates table and prepares the ordered band scans.
func NewEngine(table model.RuleTable) (*Engine, error) {
	if err := Validate(table); err != nil {
		return nil, err
	}
	buy, sell := splitSides(table.Bands)
	return &Engine{table: table, buy: buy, sell: sell}, nil
}

// Table returns the rule table in use.
func (e *Engine) Table() model.RuleTable { return e.table }

// Evaluate produces the ordered recommendation list for the latest date:
// RSI buy band, RSI sell band, golden cross, then trend.
func (e *Engine) Evaluate(series model.TimeSeries, frames []model.IndicatorFrame, crosses []model.CrossEvent) model.Evaluation {
	ev := model.Evaluation{DefaultAllocation: e.table.DefaultAllocation}
	if series.Len() == 0 || len(frames) != series.Len() {
		ev.Insufficient = true
		ev.Warning = "insufficient history: empty series"
		return ev
	}

	last := series.Last()
	frame := frames[len(frames)-1]
	rsi := frame.RSI

	var missing []string
	if !rsi.OK {
		missing = append(missing, "rsi")
	}
	if !frame.SMAShort.OK {
		missing = append(missing, "sma_short")
	}
	if !frame.SMALong.OK {
		missing = append(missing, "sma_long")
	}
	if len(missing) > 0 {
		ev.Insufficient = true
		ev.Warning = "insufficient history: " + strings.Join(missing, ", ") + " undefined at " + last.Date.Format(model.DateFormat)
	}

	if rsi.OK {
		if band, ok := firstMatch(e.buy, rsi.V); ok {
			ev.DefaultAllocation = band.Percent
			ev.Recommendations = append(ev.Recommendations, fromBand(band, last, rsi))
		}
		if band, ok := firstMatch(e.sell, rsi.V); ok {
			ev.Recommendations = append(ev.Recommendations, fromBand(band, last, rsi))
		}
	}

	if cross, ok := calculator.LatestCross(crosses); ok {
		c := cross
		ev.LatestCross = &c
		if cross.Direction == model.CrossGolden {
			ev.Recommendations = append(ev.Recommendations, model.Recommendation{
				Type:        model.LabelGoldenCross,
				Date:        cross.Date,
				Price:       cross.Price,
				Strength:    "Bullish Signal",
				Description: "Short-term SMA crossed above long-term SMA, combine with the " + formatNum(ev.DefaultAllocation, 0) + "% RSI allocation",
				Percent:     ev.DefaultAllocation,
				Side:        model.SideBuy,
				RSI:         rsi,
				Confidence:  model.ConfidenceModerate,
			})
		}
	}

	if rec, ok := trend(last, frame, rsi); ok {
		ev.Recommendations = append(ev.Recommendations, rec)
	}
	return ev
}

func firstMatch(bands []model.RuleBand, rsi float64) (model.RuleBand, bool) {
	for _, b := range bands {
		if b.Contains(rsi) {
			return b, true
		}
	}
	return model.RuleBand{}, false
}

func fromBand(b model.RuleBand, last model.PricePoint, rsi model.Value) model.Recommendation {
	return model.Recommendation{
		Type:        b.Label,
		Date:        last.Date,
		Price:       last.Price,
		Strength:    b.Strength,
		Description: describe(b, rsi.V),
		Percent:     b.Percent,
		Side:        b.Side,
		RSI:         rsi,
		Confidence:  b.Tier,
	}
}

// trend compares price with the long SMA, falling back to the short SMA
// while the long window is still warming up.
func trend(last model.PricePoint, f model.IndicatorFrame, rsi model.Value) (model.Recommendation, bool) {
	ref, name := f.SMALong, "long-term SMA"
	if !ref.OK {
		ref, name = f.SMAShort, "short-term SMA (long-term SMA not yet available)"
	}
	if !ref.OK {
		return model.Recommendation{}, false
	}
	rec := model.Recommendation{
		Date:  last.Date,
		Price: last.Price,
		Side:  model.SideBuy,
		RSI:   rsi,
	}
	if last.Price > ref.V {
		rec.Type = model.LabelAboveTrend
		rec.Strength = "Cautious Buy / Hold"
		rec.Description = "Price " + formatNum(last.Price, 2) + " is above the " + name + " " + formatNum(ref.V, 2)
		rec.Confidence = model.ConfidenceLowModerate
	} else {
		rec.Type = model.LabelBelowTrend
		rec.Strength = "Caution"
		rec.Description = "Price " + formatNum(last.Price, 2) + " is at or below the " + name + " " + formatNum(ref.V, 2)
		rec.Confidence = model.ConfidenceLow
	}
	return rec, true
}

func placeholders(tmpl string, rsi, pct float64) string {
	return strings.NewReplacer("{rsi}", formatNum(rsi, 2), "{pct}", formatNum(pct, 0)).Replace(tmpl)
}

func formatNum(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
