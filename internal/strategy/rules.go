package strategy

import (
	"fmt"
	"math"
	"sort"

	"BitcoinAdvisor/internal/apperr"
	"BitcoinAdvisor/internal/model"
)

var (
	buyBands = []model.RuleBand{
		{Lower: 0, Upper: 15, Side: model.SideBuy, Label: "RSI Extreme Oversold", Strength: "Strong Buy Opportunity", Tier: model.ConfidenceHigh, Percent: 60,
			Description: "RSI at extremely low level ({rsi}), consider allocating {pct}% of capital"},
		{Lower: 15, Upper: 30, Side: model.SideBuy, Label: "RSI Oversold", Strength: "Buy Opportunity", Tier: model.ConfidenceModerate, Percent: 30,
			Description: "RSI at low level ({rsi}), consider allocating {pct}% of capital"},
		{Lower: 30, Upper: 100, Side: model.SideBuy, Label: "RSI Normal", Strength: "Normal Market", Tier: model.ConfidenceLowModerate, Percent: 10,
			Description: "RSI at normal level ({rsi}), consider allocating {pct}% of capital"},
	}
	sellBands = []model.RuleBand{
		{Lower: 70, Upper: 80, Side: model.SideSell, Label: "RSI Overbought", Strength: "Take Partial Profit", Tier: model.ConfidenceModerate, Percent: 25,
			Description: "RSI at high level ({rsi}), consider selling {pct}% of holdings"},
		{Lower: 80, Upper: 100, Side: model.SideSell, Label: "RSI Extreme Overbought", Strength: "Strong Sell Signal", Tier: model.ConfidenceHigh, Percent: 50,
			Description: "RSI at extremely high level ({rsi}), consider selling {pct}% of holdings"},
	}
)

// DefaultSellFloor is the overbought threshold used when a table leaves
// sell_floor unset.
const DefaultSellFloor = 70.0

// DefaultTable has the 15/30 buy bands with 60/30/10 allocations and no sell bands.
var DefaultTable = model.RuleTable{
	Name:              "default",
	DefaultAllocation: 10,
	Bands:             buyBands,
}

// OverboughtTable adds take-profit sell bands above RSI 70 to the default
// buy bands. Both a buy and a sell recommendation are emitted above 70.
var OverboughtTable = model.RuleTable{
	Name:              "overbought",
	DefaultAllocation: DefaultTable.DefaultAllocation,
	SellFloor:         DefaultSellFloor,
	Bands:             append(append([]model.RuleBand{}, buyBands...), sellBands...),
}

// Presets are the named tables selectable from config.
var Presets = map[string]model.RuleTable{
	DefaultTable.Name:    DefaultTable,
	OverboughtTable.Name: OverboughtTable,
}

// Validate checks the configuration contract of a rule table: buy bands are
// contiguous and exhaustive over [0,100), sell bands start at or above the
// sell floor and do not overlap each other, and every percentage lies in [0,100].
func Validate(table model.RuleTable) error {
	if math.IsNaN(table.SellFloor) || table.SellFloor < 0 || table.SellFloor > 100 {
		return apperr.InvalidParameter("rules %q: sell_floor %v out of [0,100]", table.Name, table.SellFloor)
	}
	if math.IsNaN(table.DefaultAllocation) || table.DefaultAllocation < 0 || table.DefaultAllocation > 100 {
		return apperr.InvalidParameter("rules %q: default_allocation %v out of [0,100]", table.Name, table.DefaultAllocation)
	}
	buy, sell := splitSides(table.Bands)
	for _, b := range table.Bands {
		if b.Side != model.SideBuy && b.Side != model.SideSell {
			return apperr.InvalidParameter("rules %q: band %q has unknown side %q", table.Name, b.Label, b.Side)
		}
		if b.Label == "" {
			return apperr.InvalidParameter("rules %q: band [%v,%v) has no label", table.Name, b.Lower, b.Upper)
		}
		if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) || math.IsNaN(b.Percent) {
			return apperr.InvalidParameter("rules %q: band %q has a NaN bound or percent", table.Name, b.Label)
		}
		if b.Lower >= b.Upper || b.Lower < 0 || b.Upper > 100 {
			return apperr.InvalidParameter("rules %q: band %q has invalid range [%v,%v)", table.Name, b.Label, b.Lower, b.Upper)
		}
		if b.Percent < 0 || b.Percent > 100 {
			return apperr.InvalidParameter("rules %q: band %q percent %v out of [0,100]", table.Name, b.Label, b.Percent)
		}
	}

	if len(buy) == 0 {
		return apperr.InvalidParameter("rules %q: no buy bands", table.Name)
	}
	edge := 0.0
	for _, b := range buy {
		if b.Lower != edge {
			return apperr.InvalidParameter("rules %q: buy bands leave a gap or overlap at %v", table.Name, edge)
		}
		edge = b.Upper
	}
	if edge != 100 {
		return apperr.InvalidParameter("rules %q: buy bands end at %v, want 100", table.Name, edge)
	}

	floor := SellFloor(table)
	for _, b := range sell {
		if b.Lower < floor {
			return apperr.InvalidParameter("rules %q: sell band %q starts at %v, below the overbought floor %v", table.Name, b.Label, b.Lower, floor)
		}
	}
	for i := 1; i < len(sell); i++ {
		if sell[i].Lower < sell[i-1].Upper {
			return apperr.InvalidParameter("rules %q: sell bands %q and %q overlap", table.Name, sell[i-1].Label, sell[i].Label)
		}
	}
	return nil
}

// SellFloor is the table's overbought threshold, DefaultSellFloor when unset.
func SellFloor(table model.RuleTable) float64 {
	if table.SellFloor == 0 {
		return DefaultSellFloor
	}
	return table.SellFloor
}

// splitSides returns buy and sell bands, each sorted by lower bound.
func splitSides(bands []model.RuleBand) (buy, sell []model.RuleBand) {
	for _, b := range bands {
		switch b.Side {
		case model.SideBuy:
			buy = append(buy, b)
		case model.SideSell:
			sell = append(sell, b)
		}
	}
	byLower := func(s []model.RuleBand) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Lower < s[j].Lower })
	}
	byLower(buy)
	byLower(sell)
	return buy, sell
}

// Resolve picks the table to use: explicit bands win over a preset name.
func Resolve(preset string, custom *model.RuleTable) (model.RuleTable, error) {
	if custom != nil && len(custom.Bands) > 0 {
		t := *custom
		if t.Name == "" {
			t.Name = "custom"
		}
		return t, Validate(t)
	}
	if preset == "" {
		preset = DefaultTable.Name
	}
	t, ok := Presets[preset]
	if !ok {
		return model.RuleTable{}, apperr.InvalidParameter("unknown rules preset %q", preset)
	}
	return t, nil
}

func describe(b model.RuleBand, rsi float64) string {
	if b.Description == "" {
		return fmt.Sprintf("%s (RSI %.2f)", b.Label, rsi)
	}
	return placeholders(b.Description, rsi, b.Percent)
}
