package collector

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"BitcoinAdvisor/internal/apperr"
	"BitcoinAdvisor/internal/cache"
	"BitcoinAdvisor/internal/calculator"
	"BitcoinAdvisor/internal/metrics"
	"BitcoinAdvisor/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price        float64
	Observations []model.Observation
	Err          error
	End          time.Time // last day of generated data; zero means today
	Calls        int

	mu sync.Mutex
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSeries(_ context.Context, _ string, period model.Period) ([]model.Observation, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Observations != nil {
		return m.Observations, nil
	}
	end := m.End
	if end.IsZero() {
		end = time.Now()
	}
	return generateMockSeries(m.Price, period.Days(), model.DayOf(end)), nil
}

// generateMockSeries produces a deterministic oscillating series ending at end.
func generateMockSeries(basePrice float64, count int, end time.Time) []model.Observation {
	obs := make([]model.Observation, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.15*math.Sin(float64(i)/15) + float64(i-count/2)*0.0005)
		obs[i] = model.Observation{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Price:  p,
			Volume: 1000000,
		}
	}
	return obs
}

// Collector fetches raw observations through a cache and normalizes them.
type Collector struct {
	Fetcher Fetcher
	Cache   cache.SeriesCache
	Metrics *metrics.Metrics
	Health  *metrics.HealthStatus
}

// NewCollector creates a new Collector. Cache, metrics and health may be nil.
func NewCollector(fetcher Fetcher, c cache.SeriesCache, m *metrics.Metrics, h *metrics.HealthStatus) *Collector {
	return &Collector{Fetcher: fetcher, Cache: c, Metrics: m, Health: h}
}

// Series returns the normalized daily series for symbol over period. Upstream
// failures and empty results are DataUnavailable. Cache errors only log.
func (c *Collector) Series(ctx context.Context, symbol string, period model.Period) (model.TimeSeries, error) {
	raw, err := c.raw(ctx, symbol, period)
	if err != nil {
		return model.TimeSeries{}, err
	}
	return calculator.Normalize(symbol, raw)
}

func (c *Collector) raw(ctx context.Context, symbol string, period model.Period) ([]model.Observation, error) {
	if c.Cache != nil {
		obs, ok, err := c.Cache.Get(ctx, symbol, period)
		if err != nil {
			zap.L().Warn("series cache read failed", zap.String("symbol", symbol), zap.Error(err))
		} else if ok && len(obs) > 0 {
			if c.Metrics != nil {
				c.Metrics.CacheHits.Inc()
			}
			return obs, nil
		}
	}
	if c.Metrics != nil {
		c.Metrics.CacheMisses.Inc()
	}

	obs, err := c.Fetcher.FetchSeries(ctx, symbol, period)
	if err == nil && len(obs) == 0 {
		err = apperr.DataUnavailable("no observations returned for "+symbol, nil)
	}
	if c.Health != nil {
		c.Health.SetFetch(err == nil)
	}
	if err != nil {
		if c.Metrics != nil {
			c.Metrics.FetchFailures.WithLabelValues(c.Fetcher.Name()).Inc()
		}
		zap.L().Error("market data fetch failed",
			zap.String("provider", c.Fetcher.Name()),
			zap.String("symbol", symbol),
			zap.String("period", string(period)),
			zap.Error(err))
		if apperr.KindOf(err) == apperr.KindDataUnavailable {
			return nil, err
		}
		return nil, apperr.DataUnavailable("fetch "+symbol+" from "+c.Fetcher.Name(), err)
	}

	if c.Cache != nil {
		if err := c.Cache.Set(ctx, symbol, period, obs); err != nil {
			zap.L().Warn("series cache write failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
	return obs, nil
}
