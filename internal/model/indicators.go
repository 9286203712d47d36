package model

import "time"

// Value is an indicator reading that may be undefined during warm-up.
type Value struct {
	V  float64
	OK bool
}

// Defined wraps v as a defined value.
func Defined(v float64) Value { return Value{V: v, OK: true} }

// Undefined is the zero Value.
var Undefined = Value{}

// IndicatorParams holds the indicator window sizes.
type IndicatorParams struct {
	ShortWindow int `yaml:"sma_short"`
	LongWindow  int `yaml:"sma_long"`
	RSIWindow   int `yaml:"rsi"`
}

// DefaultIndicatorParams are SMA(20), SMA(50) and RSI(14).
var DefaultIndicatorParams = IndicatorParams{ShortWindow: 20, LongWindow: 50, RSIWindow: 14}

// IndicatorFrame holds the indicators computed for one series point.
type IndicatorFrame struct {
	Date     time.Time
	SMAShort Value
	SMALong  Value
	RSI      Value
}

// Snapshot is the latest-date view of price and indicators.
type Snapshot struct {
	Date              time.Time
	CurrentPrice      float64
	SMAShort          Value
	SMALong           Value
	RSI               Value
	DefaultAllocation float64
	PeriodHigh        float64
	PeriodLow         float64
}
