package collector

import (
	"context"

	"BitcoinAdvisor/internal/model"
)

// Fetcher defines the interface for fetching raw market data. Returned
// observations may be intraday or irregular; the collector normalizes them.
type Fetcher interface {
	FetchSeries(ctx context.Context, symbol string, period model.Period) ([]model.Observation, error)
	Name() string
}
