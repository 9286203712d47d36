// Package presenter turns pipeline output into wire DTOs. All rounding to
// two decimals and all date formatting happens here.
package presenter

import (
	"time"

	"github.com/shopspring/decimal"

	"BitcoinAdvisor/internal/currency"
	"BitcoinAdvisor/internal/model"
	"BitcoinAdvisor/internal/recorder"
)

// Round2 rounds half away from zero on the decimal representation of v.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func roundValue(v model.Value) *float64 {
	if !v.OK {
		return nil
	}
	r := Round2(v.V)
	return &r
}

func date(t time.Time) string { return t.Format(model.DateFormat) }

type Recommendation struct {
	Type        string   `json:"type"`
	Date        string   `json:"date"`
	Price       float64  `json:"price"`
	Strength    string   `json:"strength"`
	Description string   `json:"description"`
	Percentage  float64  `json:"percentage"`
	Side        string   `json:"side"`
	RSI         *float64 `json:"rsi"`
	Confidence  string   `json:"confidence"`
}

// Snapshot keeps the historical sma_20 / sma_50 keys whatever the configured windows.
type Snapshot struct {
	CurrentPrice      float64  `json:"current_price"`
	SMA20             *float64 `json:"sma_20"`
	SMA50             *float64 `json:"sma_50"`
	RSI               *float64 `json:"rsi"`
	DefaultAllocation float64  `json:"default_allocation"`
	PeriodHigh        float64  `json:"period_high"`
	PeriodLow         float64  `json:"period_low"`
	LastUpdated       string   `json:"last_updated"`
}

type Cross struct {
	Date      string  `json:"date"`
	Direction string  `json:"direction"`
	Price     float64 `json:"price"`
}

// Display carries values converted to the display currency.
type Display struct {
	Currency     string  `json:"currency"`
	Rate         float64 `json:"rate"`
	Source       string  `json:"source"`
	CurrentPrice float64 `json:"current_price,omitempty"`
	FinalValue   float64 `json:"final_value,omitempty"`
	Invested     float64 `json:"total_invested,omitempty"`
}

// Chart is the per-date series for plotting price with its indicators.
type Chart struct {
	Dates    []string   `json:"dates"`
	Price    []float64  `json:"price"`
	SMAShort []*float64 `json:"sma_short"`
	SMALong  []*float64 `json:"sma_long"`
	RSI      []*float64 `json:"rsi"`
	Crosses  []Cross    `json:"crosses"`
}

// Analysis is the analysis DTO. RunID travels in the X-Run-ID response
// header so identical inputs produce identical bodies.
type Analysis struct {
	RunID           string           `json:"-"`
	Symbol          string           `json:"symbol"`
	Period          string           `json:"period"`
	Snapshot        Snapshot         `json:"snapshot"`
	Recommendations []Recommendation `json:"recommendations"`
	LatestCross     *Cross           `json:"latest_cross"`
	Insufficient    bool             `json:"insufficient_history"`
	Warning         string           `json:"warning,omitempty"`
	Display         *Display         `json:"display,omitempty"`
	Chart           *Chart           `json:"chart,omitempty"`
}

func fromCross(c model.CrossEvent) Cross {
	return Cross{Date: date(c.Date), Direction: string(c.Direction), Price: Round2(c.Price)}
}

func fromRecommendations(recs []model.Recommendation) []Recommendation {
	out := make([]Recommendation, len(recs))
	for i, r := range recs {
		out[i] = Recommendation{
			Type:        r.Type,
			Date:        date(r.Date),
			Price:       Round2(r.Price),
			Strength:    r.Strength,
			Description: r.Description,
			Percentage:  Round2(r.Percent),
			Side:        string(r.Side),
			RSI:         roundValue(r.RSI),
			Confidence:  string(r.Confidence),
		}
	}
	return out
}

func fromSnapshot(s model.Snapshot) Snapshot {
	return Snapshot{
		CurrentPrice:      Round2(s.CurrentPrice),
		SMA20:             roundValue(s.SMAShort),
		SMA50:             roundValue(s.SMALong),
		RSI:               roundValue(s.RSI),
		DefaultAllocation: Round2(s.DefaultAllocation),
		PeriodHigh:        Round2(s.PeriodHigh),
		PeriodLow:         Round2(s.PeriodLow),
		LastUpdated:       date(s.Date),
	}
}

// NewAnalysis builds the analysis DTO. quote may be nil when no conversion is available.
func NewAnalysis(run recorder.AnalysisRun, quote *currency.Quote) Analysis {
	out := Analysis{
		RunID:           run.ID,
		Symbol:          run.Symbol,
		Period:          string(run.Period),
		Snapshot:        fromSnapshot(run.Snapshot),
		Recommendations: fromRecommendations(run.Evaluation.Recommendations),
		Insufficient:    run.Evaluation.Insufficient,
		Warning:         run.Evaluation.Warning,
	}
	out.Snapshot.DefaultAllocation = Round2(run.Evaluation.DefaultAllocation)
	if c := run.Evaluation.LatestCross; c != nil {
		cross := fromCross(*c)
		out.LatestCross = &cross
	}
	if quote != nil {
		out.Display = &Display{
			Currency:     quote.To,
			Rate:         Round2(quote.Rate),
			Source:       string(quote.Source),
			CurrentPrice: Round2(run.Snapshot.CurrentPrice * quote.Rate),
		}
	}
	return out
}

// NewChart builds the chart payload for series and its frames.
func NewChart(series model.TimeSeries, frames []model.IndicatorFrame, crosses []model.CrossEvent) *Chart {
	n := series.Len()
	c := &Chart{
		Dates:    make([]string, n),
		Price:    make([]float64, n),
		SMAShort: make([]*float64, n),
		SMALong:  make([]*float64, n),
		RSI:      make([]*float64, n),
		Crosses:  make([]Cross, len(crosses)),
	}
	for i, p := range series.Points {
		c.Dates[i] = date(p.Date)
		c.Price[i] = Round2(p.Price)
		if i < len(frames) {
			c.SMAShort[i] = roundValue(frames[i].SMAShort)
			c.SMALong[i] = roundValue(frames[i].SMALong)
			c.RSI[i] = roundValue(frames[i].RSI)
		}
	}
	for i, x := range crosses {
		c.Crosses[i] = fromCross(x)
	}
	return c
}

type Transaction struct {
	Date               string  `json:"date"`
	Price              float64 `json:"price"`
	Amount             float64 `json:"amount"`
	Units              float64 `json:"units"`
	CumulativeUnits    float64 `json:"cumulative_units"`
	CumulativeInvested float64 `json:"cumulative_invested"`
	MarketValue        float64 `json:"market_value"`
}

type Summary struct {
	TotalInvested float64 `json:"total_invested"`
	TotalUnits    float64 `json:"total_units"`
	FinalPrice    float64 `json:"final_price"`
	FinalValue    float64 `json:"final_value"`
	Profit        float64 `json:"profit"`
	ROI           float64 `json:"roi"`
}

// DCA is the simulation DTO. RunID is kept out of the body like Analysis.RunID.
type DCA struct {
	RunID          string        `json:"-"`
	Symbol         string        `json:"symbol"`
	Period         string        `json:"period"`
	Interval       string        `json:"interval"`
	Amount         float64       `json:"amount"`
	NoTransactions bool          `json:"no_transactions"`
	Transactions   []Transaction `json:"transactions"`
	Summary        *Summary      `json:"summary"`
	Display        *Display      `json:"display,omitempty"`
}

// Units are rounded to eight places since two decimals would erase a BTC position.
func roundUnits(v float64) float64 {
	return decimal.NewFromFloat(v).Round(8).InexactFloat64()
}

// NewDCA builds the simulation DTO. quote may be nil.
func NewDCA(run recorder.DCARun, result model.DCAResult, quote *currency.Quote) DCA {
	out := DCA{
		RunID:          run.ID,
		Symbol:         run.Symbol,
		Period:         string(run.Period),
		Interval:       run.Interval,
		Amount:         Round2(run.Amount),
		NoTransactions: result.NoTransactions(),
		Transactions:   make([]Transaction, len(result.Transactions)),
	}
	for i, tx := range result.Transactions {
		out.Transactions[i] = Transaction{
			Date:               date(tx.Date),
			Price:              Round2(tx.Price),
			Amount:             Round2(tx.Amount),
			Units:              roundUnits(tx.Units),
			CumulativeUnits:    roundUnits(tx.CumulativeUnits),
			CumulativeInvested: Round2(tx.CumulativeInvested),
			MarketValue:        Round2(tx.MarketValue),
		}
	}
	if s := result.Summary; s != nil {
		out.Summary = &Summary{
			TotalInvested: Round2(s.TotalInvested),
			TotalUnits:    roundUnits(s.TotalUnits),
			FinalPrice:    Round2(s.FinalPrice),
			FinalValue:    Round2(s.FinalValue),
			Profit:        Round2(s.Profit),
			ROI:           Round2(s.ROI),
		}
		if quote != nil {
			out.Display = &Display{
				Currency:   quote.To,
				Rate:       Round2(quote.Rate),
				Source:     string(quote.Source),
				FinalValue: Round2(s.FinalValue * quote.Rate),
				Invested:   Round2(s.TotalInvested * quote.Rate),
			}
		}
	}
	return out
}

// HistoryEntry is a compact view of a persisted analysis run.
type HistoryEntry struct {
	RunID           string           `json:"run_id"`
	CreatedAt       string           `json:"created_at"`
	Symbol          string           `json:"symbol"`
	Period          string           `json:"period"`
	Snapshot        Snapshot         `json:"snapshot"`
	Recommendations []Recommendation `json:"recommendations"`
}

func NewHistory(runs []recorder.AnalysisRun) []HistoryEntry {
	out := make([]HistoryEntry, len(runs))
	for i, r := range runs {
		out[i] = HistoryEntry{
			RunID:           r.ID,
			CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
			Symbol:          r.Symbol,
			Period:          string(r.Period),
			Snapshot:        fromSnapshot(r.Snapshot),
			Recommendations: fromRecommendations(r.Evaluation.Recommendations),
		}
	}
	return out
}
