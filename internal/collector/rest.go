package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"BitcoinAdvisor/internal/httpclient"
	"BitcoinAdvisor/internal/model"
)

// RESTFetcher implements Fetcher against a generic bars REST API:
// GET {base}/api/v1/bars/daily?symbol=X&limit=N returning
// [{"timestamp":unix,"close":f,"volume":f}].
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *httpclient.Client
}

func NewRESTFetcher(baseURL, apiKey string, client *httpclient.Client) *RESTFetcher {
	return &RESTFetcher{BaseURL: baseURL, APIKey: apiKey, Client: client}
}

func (f *RESTFetcher) Name() string { return "rest" }

type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *RESTFetcher) FetchSeries(ctx context.Context, symbol string, period model.Period) ([]model.Observation, error) {
	days := period.Days()
	if days == 0 {
		return nil, fmt.Errorf("rest: unsupported period %q", period)
	}
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&limit=%d", f.BaseURL, url.QueryEscape(symbol), days)

	header := http.Header{}
	if f.APIKey != "" {
		header.Set("Authorization", "Bearer "+f.APIKey)
	}
	var bars []restBar
	if err := f.Client.GetJSON(ctx, endpoint, header, &bars); err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}

	obs := make([]model.Observation, len(bars))
	for i, b := range bars {
		obs[i] = model.Observation{Time: time.Unix(b.Timestamp, 0).UTC(), Price: b.Close, Volume: b.Volume}
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].Time.Before(obs[j].Time) })
	return obs, nil
}
