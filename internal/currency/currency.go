package currency

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"BitcoinAdvisor/internal/apperr"
	"BitcoinAdvisor/internal/httpclient"
	"BitcoinAdvisor/internal/metrics"
)

// Source tells where a quote came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Quote is one exchange rate: 1 From = Rate To.
type Quote struct {
	From   string
	To     string
	Rate   float64
	Source Source
	AsOf   time.Time
}

// Converter returns exchange rates between ISO currency codes.
type Converter interface {
	Rate(ctx context.Context, from, to string) (Quote, error)
}

// HTTPConverter queries an exchangerate-style JSON API:
// GET {BaseURL}/{FROM} -> {"result":"success","rates":{"IDR":15800.5}}.
// Successful lookups are cached for TTL.
type HTTPConverter struct {
	BaseURL string
	Client  *httpclient.Client
	TTL     time.Duration

	mu    sync.Mutex
	cache map[string]Quote
	now   func() time.Time
}

func NewHTTPConverter(baseURL string, client *httpclient.Client, ttl time.Duration) *HTTPConverter {
	return &HTTPConverter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
		TTL:     ttl,
		cache:   make(map[string]Quote),
		now:     time.Now,
	}
}

type ratesResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func (c *HTTPConverter) Rate(ctx context.Context, from, to string) (Quote, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return Quote{From: from, To: to, Rate: 1, Source: SourceLive, AsOf: c.now()}, nil
	}
	key := from + "/" + to

	c.mu.Lock()
	if q, ok := c.cache[key]; ok && c.now().Sub(q.AsOf) < c.TTL {
		c.mu.Unlock()
		return q, nil
	}
	c.mu.Unlock()

	var resp ratesResponse
	if err := c.Client.GetJSON(ctx, c.BaseURL+"/"+from, nil, &resp); err != nil {
		return Quote{}, fmt.Errorf("exchange rate %s: %w", key, err)
	}
	if resp.Result != "" && resp.Result != "success" {
		return Quote{}, fmt.Errorf("exchange rate %s: result %q", key, resp.Result)
	}
	rate, ok := resp.Rates[to]
	if !ok || rate <= 0 {
		return Quote{}, fmt.Errorf("exchange rate %s: no rate for %s", key, to)
	}

	q := Quote{From: from, To: to, Rate: rate, Source: SourceLive, AsOf: c.now()}
	c.mu.Lock()
	c.cache[key] = q
	c.mu.Unlock()
	return q, nil
}

// FallbackPolicy is the declared behavior when the live source fails.
type FallbackPolicy struct {
	Allow bool
	// Rates maps "FROM/TO" to the rate used when the live lookup fails.
	Rates map[string]float64
}

// FallbackConverter applies a FallbackPolicy over a primary converter. When
// fallback is not allowed or no rate is declared for the pair, the live
// failure is returned as DataUnavailable.
type FallbackConverter struct {
	Primary Converter
	Policy  FallbackPolicy
	Metrics *metrics.Metrics
	now     func() time.Time
}

func NewFallbackConverter(primary Converter, policy FallbackPolicy, m *metrics.Metrics) *FallbackConverter {
	return &FallbackConverter{Primary: primary, Policy: policy, Metrics: m, now: time.Now}
}

func (c *FallbackConverter) Rate(ctx context.Context, from, to string) (Quote, error) {
	q, err := c.Primary.Rate(ctx, from, to)
	if err == nil {
		return q, nil
	}
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	rate, ok := c.Policy.Rates[from+"/"+to]
	if !c.Policy.Allow || !ok {
		return Quote{}, apperr.DataUnavailable("exchange rate "+from+"/"+to+" unavailable", err)
	}
	zap.L().Warn("using fallback exchange rate",
		zap.String("pair", from+"/"+to),
		zap.Float64("rate", rate),
		zap.Error(err))
	if c.Metrics != nil {
		c.Metrics.FallbackRates.Inc()
	}
	return Quote{From: from, To: to, Rate: rate, Source: SourceFallback, AsOf: c.now()}, nil
}

// Static always returns the configured rates. Used when no live source is configured.
type Static map[string]float64

func (s Static) Rate(_ context.Context, from, to string) (Quote, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return Quote{From: from, To: to, Rate: 1, Source: SourceFallback}, nil
	}
	rate, ok := s[from+"/"+to]
	if !ok {
		return Quote{}, apperr.DataUnavailable("no static rate for "+from+"/"+to, nil)
	}
	return Quote{From: from, To: to, Rate: rate, Source: SourceFallback}, nil
}
