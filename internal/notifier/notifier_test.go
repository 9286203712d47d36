package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"BitcoinAdvisor/internal/advisor"
	"BitcoinAdvisor/internal/apperr"
	"BitcoinAdvisor/internal/presenter"
)

func testNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.BaseURL = url
	n.InitialBackoff = time.Millisecond
	return n
}

func TestSend_PostsMessage(t *testing.T) {
	var got map[string]string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	if err := testNotifier(srv.URL).Send(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/botTOKEN/sendMessage" || got["chat_id"] != "42" || got["text"] != "hello" || got["parse_mode"] != "HTML" {
		t.Errorf("unexpected request %s %v", path, got)
	}
}

func TestSendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	if err := testNotifier(srv.URL).SendWithRetry(context.Background(), "hi", 3); err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := testNotifier(srv.URL).SendWithRetry(context.Background(), "hi", 2)
	if err == nil || !strings.Contains(err.Error(), "3 retries exhausted") {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestStartPolling_DispatchesCommands(t *testing.T) {
	var mu sync.Mutex
	var replies []string
	var polls int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if atomic.AddInt32(&polls, 1) == 1 {
				fmt.Fprint(w, `{"ok":true,"result":[{"update_id":7,"message":{"text":" /help "}},{"update_id":8}]}`)
				return
			}
			if r.URL.Query().Get("offset") != "9" {
				t.Errorf("offset not advanced: %s", r.URL.RawQuery)
			}
			cancel()
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			replies = append(replies, body["text"])
			mu.Unlock()
			fmt.Fprint(w, `{"ok":true}`)
		}
	}))
	defer srv.Close()

	done := make(chan struct{})
	go func() {
		testNotifier(srv.URL).StartPolling(ctx, func(_ context.Context, cmd string) string {
			return "got " + cmd
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop after cancel")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(replies) != 1 || replies[0] != "got /help" {
		t.Errorf("unexpected replies %v", replies)
	}
}

func ptr(v float64) *float64 { return &v }

func sampleAnalysis() presenter.Analysis {
	return presenter.Analysis{
		Symbol: "BTC-USD",
		Period: "1y",
		Snapshot: presenter.Snapshot{
			CurrentPrice: 60000, SMA20: ptr(59000), RSI: ptr(25.5),
			DefaultAllocation: 30, PeriodHigh: 70000, PeriodLow: 50000, LastUpdated: "2024-05-01",
		},
		Recommendations: []presenter.Recommendation{
			{Type: "RSI Oversold", Side: "buy", Confidence: "moderate", Percentage: 30, Description: "RSI at low level (25.50)"},
			{Type: "Above Long SMA", Side: "buy", Confidence: "low-moderate"},
		},
		LatestCross: &presenter.Cross{Date: "2024-04-20", Direction: "golden"},
		Display:     &presenter.Display{Currency: "IDR", CurrentPrice: 960000000, Source: "live"},
		Warning:     "insufficient history: sma_long undefined at 2024-05-01",
	}
}

func TestFormatAnalysisReport(t *testing.T) {
	msg := FormatAnalysisReport(sampleAnalysis())
	for _, want := range []string{
		"BTC-USD analysis",
		"Price: 60000.00",
		"IDR 960000000",
		"SMA long: n/a",
		"RSI: 25.50",
		"(at 50%)",
		"golden on 2024-04-20",
		"<b>RSI Oversold</b> (buy, moderate) 30%",
		"Default allocation: 30%",
		"⚠️",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("report missing %q\n%s", want, msg)
		}
	}
}

func TestFormatDCAReport(t *testing.T) {
	empty := FormatDCAReport(presenter.DCA{Symbol: "BTC-USD", Period: "1mo", Interval: "monthly", NoTransactions: true})
	if !strings.Contains(empty, "No purchase dates") {
		t.Errorf("empty report: %s", empty)
	}
	full := FormatDCAReport(presenter.DCA{
		Symbol: "BTC-USD", Period: "1y", Interval: "weekly", Amount: 100,
		Transactions: make([]presenter.Transaction, 52),
		Summary:      &presenter.Summary{TotalInvested: 5200, FinalValue: 6000, Profit: 800, ROI: 15.38},
	})
	if !strings.Contains(full, "Purchases: 52") || !strings.Contains(full, "ROI +15.38%") {
		t.Errorf("full report: %s", full)
	}
}

type fakeAdvisor struct {
	anal  advisor.AnalyzeRequest
	dca   advisor.DCARequest
	limit int
	err   error
}

func (f *fakeAdvisor) Analyze(_ context.Context, req advisor.AnalyzeRequest) (presenter.Analysis, error) {
	f.anal = req
	return sampleAnalysis(), f.err
}

func (f *fakeAdvisor) SimulateDCA(_ context.Context, req advisor.DCARequest) (presenter.DCA, error) {
	f.dca = req
	return presenter.DCA{NoTransactions: true}, f.err
}

func (f *fakeAdvisor) History(_ context.Context, limit int) ([]presenter.HistoryEntry, error) {
	f.limit = limit
	return nil, f.err
}

func TestCommands(t *testing.T) {
	fa := &fakeAdvisor{}
	c := &Commands{Advisor: fa, DefaultAmount: 100}
	ctx := context.Background()

	if reply := c.Handle(ctx, "/analyze@AdvisorBot 6mo"); !strings.Contains(reply, "analysis") || fa.anal.Period != "6mo" {
		t.Errorf("/analyze: %q %+v", reply, fa.anal)
	}
	c.Handle(ctx, "/dca 2y 50 monthly")
	if fa.dca.Period != "2y" || fa.dca.Amount != 50 || fa.dca.Interval != "monthly" {
		t.Errorf("/dca args: %+v", fa.dca)
	}
	c.Handle(ctx, "/dca")
	if fa.dca.Amount != 100 {
		t.Errorf("/dca default amount: %+v", fa.dca)
	}
	if reply := c.Handle(ctx, "/dca 1y lots"); !strings.HasPrefix(reply, "❌") {
		t.Errorf("bad amount reply: %q", reply)
	}
	if reply := c.Handle(ctx, "/history"); reply != "No analyses recorded yet." || fa.limit != 5 {
		t.Errorf("/history: %q limit=%d", reply, fa.limit)
	}
	if reply := c.Handle(ctx, "hello"); reply != "" {
		t.Errorf("unknown text should be ignored, got %q", reply)
	}

	fa.err = apperr.InvalidParameter("unknown period %q", "7d")
	if reply := c.Handle(ctx, "/analyze 7d"); !strings.Contains(reply, "unknown period") {
		t.Errorf("error reply: %q", reply)
	}
}
