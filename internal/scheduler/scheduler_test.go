package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"BitcoinAdvisor/internal/advisor"
	"BitcoinAdvisor/internal/presenter"
)

type fakeAdvisor struct {
	analysis presenter.Analysis
	err      error
	dcaReq   advisor.DCARequest
}

func (f *fakeAdvisor) Analyze(context.Context, advisor.AnalyzeRequest) (presenter.Analysis, error) {
	return f.analysis, f.err
}

func (f *fakeAdvisor) SimulateDCA(_ context.Context, req advisor.DCARequest) (presenter.DCA, error) {
	f.dcaReq = req
	return presenter.DCA{Symbol: "BTC-USD", NoTransactions: true}, f.err
}

func (f *fakeAdvisor) History(context.Context, int) ([]presenter.HistoryEntry, error) {
	return nil, nil
}

type captureSender struct{ sent []string }

func (c *captureSender) SendWithRetry(_ context.Context, text string, _ int) error {
	c.sent = append(c.sent, text)
	return nil
}

func TestAnalysisTask_SendsReportWithAlert(t *testing.T) {
	fa := &fakeAdvisor{analysis: presenter.Analysis{
		Symbol: "BTC-USD",
		Recommendations: []presenter.Recommendation{
			{Type: "RSI Normal", Side: "buy", Confidence: "low-moderate", Percentage: 10},
			{Type: "RSI Extreme Overbought", Side: "sell", Confidence: "high", Percentage: 50},
		},
	}}
	cs := &captureSender{}
	s := NewScheduler(context.Background(), fa, cs, 100)
	s.RunAnalysisNow()

	if len(cs.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(cs.sent))
	}
	if !strings.HasPrefix(cs.sent[0], "⚠️ <b>Take-profit alert</b>: RSI Extreme Overbought, consider selling 50%") {
		t.Errorf("unexpected message %q", cs.sent[0])
	}
}

func TestAnalysisTask_ReportsFailure(t *testing.T) {
	cs := &captureSender{}
	s := NewScheduler(context.Background(), &fakeAdvisor{err: errors.New("upstream down")}, cs, 100)
	s.RunAnalysisNow()
	if len(cs.sent) != 1 || !strings.Contains(cs.sent[0], "upstream down") {
		t.Errorf("unexpected messages %v", cs.sent)
	}
}

func TestAlertFor(t *testing.T) {
	buy := presenter.Analysis{Recommendations: []presenter.Recommendation{
		{Type: "RSI Extreme Oversold", Side: "buy", Confidence: "high", Percentage: 60},
	}}
	if got := alertFor(buy); !strings.Contains(got, "Buy alert") || !strings.Contains(got, "60%") {
		t.Errorf("buy alert: %q", got)
	}
	calm := presenter.Analysis{Recommendations: []presenter.Recommendation{
		{Type: "RSI Normal", Side: "buy", Confidence: "low-moderate", Percentage: 10},
	}}
	if got := alertFor(calm); got != "" {
		t.Errorf("expected no alert, got %q", got)
	}
}

func TestRegisterAll(t *testing.T) {
	fa := &fakeAdvisor{}
	s := NewScheduler(context.Background(), fa, nil, 250)
	if err := s.RegisterAll("0 5 0 * * *", "0 0 9 * * 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 2 {
		t.Errorf("expected 2 jobs, got %d", n)
	}
	if err := NewScheduler(context.Background(), fa, nil, 0).RegisterAll("not a cron", ""); err == nil {
		t.Error("expected an error for a bad cron expression")
	}

	s.dcaTask()
	if fa.dcaReq.Amount != 250 {
		t.Errorf("dca amount %v", fa.dcaReq.Amount)
	}
}
