package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"BitcoinAdvisor/internal/advisor"
	"BitcoinAdvisor/internal/apperr"
	"BitcoinAdvisor/internal/collector"
	"BitcoinAdvisor/internal/metrics"
	"BitcoinAdvisor/internal/presenter"
	"BitcoinAdvisor/internal/strategy"
)

type fakeAdvisor struct {
	err       error
	lastAnal  advisor.AnalyzeRequest
	lastDCA   advisor.DCARequest
	lastLimit int
}

func (f *fakeAdvisor) Analyze(_ context.Context, req advisor.AnalyzeRequest) (presenter.Analysis, error) {
	f.lastAnal = req
	if f.err != nil {
		return presenter.Analysis{}, f.err
	}
	rsi := 25.0
	return presenter.Analysis{
		Symbol:   "BTC-USD",
		Period:   "1y",
		Snapshot: presenter.Snapshot{CurrentPrice: 60000, RSI: &rsi, DefaultAllocation: 30, LastUpdated: "2024-05-01"},
		Recommendations: []presenter.Recommendation{
			{Type: "RSI Oversold", Date: "2024-05-01", Percentage: 30},
		},
	}, nil
}

func (f *fakeAdvisor) SimulateDCA(_ context.Context, req advisor.DCARequest) (presenter.DCA, error) {
	f.lastDCA = req
	if f.err != nil {
		return presenter.DCA{}, f.err
	}
	return presenter.DCA{Interval: "weekly", Amount: req.Amount, NoTransactions: true, Transactions: []presenter.Transaction{}}, nil
}

func (f *fakeAdvisor) History(_ context.Context, limit int) ([]presenter.HistoryEntry, error) {
	f.lastLimit = limit
	return []presenter.HistoryEntry{}, f.err
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var out map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, out
}

func TestRecommendations_FlatEnvelope(t *testing.T) {
	fa := &fakeAdvisor{}
	h := NewServer(0, fa, metrics.New(), nil, 100).Handler()

	rec, out := do(t, h, "POST", "/get_recommendations", `{"period":"6mo"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if out["status"] != "success" || out["current_price"] != 60000.0 || out["rsi"] != 25.0 || out["last_updated"] != "2024-05-01" {
		t.Errorf("unexpected body %v", out)
	}
	if _, ok := out["sma_50"]; !ok || out["sma_50"] != nil {
		t.Errorf("sma_50 should be present and null, got %v", out["sma_50"])
	}
	if fa.lastAnal.Period != "6mo" || !fa.lastAnal.IncludeChart {
		t.Errorf("request not forwarded: %+v", fa.lastAnal)
	}
}

func TestRecommendations_ChartOptOut(t *testing.T) {
	fa := &fakeAdvisor{}
	h := NewServer(0, fa, nil, nil, 100).Handler()
	do(t, h, "POST", "/get_recommendations", `{"chart":false}`)
	if fa.lastAnal.IncludeChart {
		t.Error("chart:false should disable the chart payload")
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
		kind string
	}{
		{apperr.InvalidParameter("unknown period %q", "7d"), http.StatusBadRequest, "INVALID_PARAMETER"},
		{apperr.DataUnavailable("upstream", errors.New("timeout")), http.StatusBadGateway, "DATA_UNAVAILABLE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		h := NewServer(0, &fakeAdvisor{err: tt.err}, nil, nil, 100).Handler()
		rec, out := do(t, h, "POST", "/get_recommendations", `{}`)
		if rec.Code != tt.code || out["status"] != "error" || out["code"] != tt.kind {
			t.Errorf("%v: got %d %v", tt.err, rec.Code, out)
		}
	}
}

func TestInternalErrorMessageHidden(t *testing.T) {
	h := NewServer(0, &fakeAdvisor{err: errors.New("db password wrong")}, nil, nil, 100).Handler()
	_, out := do(t, h, "POST", "/simulate_dca", `{}`)
	if out["message"] != "internal error" {
		t.Errorf("internal details leaked: %v", out["message"])
	}
}

func TestMalformedBody(t *testing.T) {
	h := NewServer(0, &fakeAdvisor{}, nil, nil, 100).Handler()
	rec, out := do(t, h, "POST", "/simulate_dca", `{"amount":`)
	if rec.Code != http.StatusBadRequest || out["code"] != "INVALID_PARAMETER" {
		t.Errorf("got %d %v", rec.Code, out)
	}
}

func TestSimulateDCA_DefaultAmount(t *testing.T) {
	fa := &fakeAdvisor{}
	h := NewServer(0, fa, nil, nil, 250).Handler()

	do(t, h, "POST", "/simulate_dca", `{"interval":"monthly"}`)
	if fa.lastDCA.Amount != 250 || fa.lastDCA.Interval != "monthly" {
		t.Errorf("defaults not applied: %+v", fa.lastDCA)
	}
	_, out := do(t, h, "POST", "/simulate_dca", `{"amount":0}`)
	if fa.lastDCA.Amount != 0 {
		t.Errorf("explicit zero amount must reach validation, got %v", fa.lastDCA.Amount)
	}
	if out["no_transactions"] != true {
		t.Errorf("expected flattened DCA fields, got %v", out)
	}
}

func TestHistory_Limit(t *testing.T) {
	fa := &fakeAdvisor{}
	h := NewServer(0, fa, nil, nil, 100).Handler()

	rec, _ := do(t, h, "GET", "/history?limit=3", "")
	if rec.Code != http.StatusOK || fa.lastLimit != 3 {
		t.Errorf("got %d limit=%d", rec.Code, fa.lastLimit)
	}
	rec, _ = do(t, h, "GET", "/history?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewServer(0, &fakeAdvisor{}, nil, nil, 100).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/get_recommendations", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	m := metrics.New()
	h := NewServer(0, &fakeAdvisor{}, m, metrics.NewHealthStatus("memory", "noop"), 100).Handler()

	do(t, h, "POST", "/get_recommendations", `{}`)
	rec, out := do(t, h, "GET", "/health", "")
	if rec.Code != http.StatusOK || out["status"] != "ok" || out["health"] == nil {
		t.Errorf("health: %d %v", rec.Code, out)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `advisor_requests_total{endpoint="get_recommendations",status="200"} 1`) {
		t.Errorf("request counter missing from /metrics")
	}
}

func TestEndToEnd_WithService(t *testing.T) {
	engine, err := strategy.NewEngine(strategy.DefaultTable)
	if err != nil {
		t.Fatal(err)
	}
	svc := advisor.NewService(advisor.Options{
		Source:        collector.NewCollector(&collector.MockFetcher{Price: 30000, End: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)}, nil, nil, nil),
		Engine:        engine,
		DefaultSymbol: "BTC-USD",
	})
	h := NewServer(0, svc, nil, nil, 100).Handler()

	rec, out := do(t, h, "POST", "/get_recommendations", `{"period":"1y"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	recs, _ := out["recommendations"].([]any)
	if len(recs) == 0 || out["chart"] == nil || out["last_updated"] != "2024-01-31" {
		t.Errorf("unexpected response %v", out)
	}

	rec, out = do(t, h, "POST", "/get_recommendations", `{"period":"forever"}`)
	if rec.Code != http.StatusBadRequest || out["code"] != "INVALID_PARAMETER" {
		t.Errorf("invalid period: %d %v", rec.Code, out)
	}

	rec, out = do(t, h, "POST", "/simulate_dca", `{"period":"3mo","amount":50,"interval":"every-2-weeks"}`)
	if rec.Code != http.StatusOK || out["interval"] != "every-2-weeks" {
		t.Errorf("dca: %d %v", rec.Code, out)
	}
}

func TestEndToEnd_RepeatedRequestsSameBody(t *testing.T) {
	engine, err := strategy.NewEngine(strategy.DefaultTable)
	if err != nil {
		t.Fatal(err)
	}
	svc := advisor.NewService(advisor.Options{
		Source:        collector.NewCollector(&collector.MockFetcher{Price: 30000, End: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)}, nil, nil, nil),
		Engine:        engine,
		DefaultSymbol: "BTC-USD",
	})
	h := NewServer(0, svc, nil, nil, 100).Handler()

	for _, tt := range []struct{ path, body string }{
		{"/get_recommendations", `{"period":"6mo"}`},
		{"/simulate_dca", `{"period":"6mo","amount":25,"interval":"monthly"}`},
	} {
		a, _ := do(t, h, "POST", tt.path, tt.body)
		b, _ := do(t, h, "POST", tt.path, tt.body)
		if a.Code != http.StatusOK || b.Code != http.StatusOK {
			t.Fatalf("%s: status %d / %d", tt.path, a.Code, b.Code)
		}
		if a.Body.String() != b.Body.String() {
			t.Errorf("%s: bodies differ:\n%s\n%s", tt.path, a.Body.String(), b.Body.String())
		}
		if strings.Contains(a.Body.String(), "run_id") {
			t.Errorf("%s: run id leaked into the body", tt.path)
		}
		idA, idB := a.Header().Get(RunIDHeader), b.Header().Get(RunIDHeader)
		if idA == "" || idA == idB {
			t.Errorf("%s: expected distinct run id headers, got %q and %q", tt.path, idA, idB)
		}
	}
}
