package model

import "time"

// DCATransaction is one simulated purchase with running totals.
type DCATransaction struct {
	Date               time.Time
	Price              float64
	Amount             float64
	Units              float64
	CumulativeUnits    float64
	CumulativeInvested float64
	MarketValue        float64
}

// DCASummary is the profitability of a completed schedule.
type DCASummary struct {
	TotalInvested float64
	TotalUnits    float64
	FinalPrice    float64
	FinalValue    float64
	Profit        float64
	ROI           float64 // percent
}

// DCAResult holds the purchase log. Summary is nil when no purchase executed.
type DCAResult struct {
	Transactions []DCATransaction
	Summary      *DCASummary
}

// NoTransactions reports whether the schedule produced zero purchases.
func (r DCAResult) NoTransactions() bool { return len(r.Transactions) == 0 }
