package model

import "time"

// Side tells whether a rule band recommends committing or withdrawing capital.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Confidence is a coarse confidence tier attached to a recommendation.
type Confidence string

const (
	ConfidenceLow         Confidence = "low"
	ConfidenceLowModerate Confidence = "low-moderate"
	ConfidenceModerate    Confidence = "moderate"
	ConfidenceHigh        Confidence = "high"
)

// RuleBand maps an RSI range [Lower, Upper) to a recommendation.
type RuleBand struct {
	Lower       float64    `yaml:"lower"`
	Upper       float64    `yaml:"upper"`
	Label       string     `yaml:"label"`
	Strength    string     `yaml:"strength"`
	Tier        Confidence `yaml:"tier"`
	Percent     float64    `yaml:"percent"`
	Side        Side       `yaml:"side"`
	Description string     `yaml:"description"`
}

// Contains reports whether rsi falls in [Lower, Upper). The band ending at
// 100 also contains 100 itself.
func (b RuleBand) Contains(rsi float64) bool {
	if rsi >= b.Lower && rsi < b.Upper {
		return true
	}
	return b.Upper >= 100 && rsi == 100
}

// RuleTable is an ordered list of RSI bands plus the allocation used when no
// buy band can be evaluated. Sell bands may not start below SellFloor.
type RuleTable struct {
	Name              string     `yaml:"name"`
	DefaultAllocation float64    `yaml:"default_allocation"`
	SellFloor         float64    `yaml:"sell_floor"`
	Bands             []RuleBand `yaml:"bands"`
}

// CrossDirection distinguishes golden from death crosses.
type CrossDirection string

const (
	CrossGolden CrossDirection = "golden"
	CrossDeath  CrossDirection = "death"
)

// CrossEvent marks a date where the short SMA flipped relative to the long SMA.
type CrossEvent struct {
	Date      time.Time
	Direction CrossDirection
	Price     float64
}

// Recommendation labels used outside the rule table.
const (
	LabelGoldenCross = "Golden Cross"
	LabelAboveTrend  = "Above Long SMA"
	LabelBelowTrend  = "Below Long SMA"
)

// Recommendation is one emitted advice record. Order within a batch is significant.
type Recommendation struct {
	Type        string
	Date        time.Time
	Price       float64
	Strength    string
	Description string
	Percent     float64
	Side        Side
	RSI         Value
	Confidence  Confidence
}

// Evaluation is the output of the recommendation engine.
type Evaluation struct {
	Recommendations   []Recommendation
	DefaultAllocation float64
	LatestCross       *CrossEvent
	Insufficient      bool
	Warning           string
}
