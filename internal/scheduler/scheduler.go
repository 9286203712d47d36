package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"BitcoinAdvisor/internal/advisor"
	"BitcoinAdvisor/internal/model"
	"BitcoinAdvisor/internal/notifier"
	"BitcoinAdvisor/internal/presenter"
)

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Advisor   notifier.Advisor
	Notifier  notifier.Sender // nil disables delivery; reports are only logged
	DCAAmount float64
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, a notifier.Advisor, n notifier.Sender, dcaAmount float64) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Advisor:   a,
		Notifier:  n,
		DCAAmount: dcaAmount,
		Ctx:       ctx,
	}
}

// RegisterAll registers the daily analysis and, when dcaCron is set, the
// periodic DCA summary.
func (s *Scheduler) RegisterAll(analysisCron, dcaCron string) error {
	if _, err := s.Cron.AddFunc(analysisCron, s.analysisTask); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	if dcaCron != "" {
		if _, err := s.Cron.AddFunc(dcaCron, s.dcaTask); err != nil {
			return fmt.Errorf("register dca task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	zap.L().Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	zap.L().Info("scheduler stopped")
}

// RunAnalysisNow executes the analysis task immediately (RUN_ON_START).
func (s *Scheduler) RunAnalysisNow() {
	s.analysisTask()
}

func (s *Scheduler) analysisTask() {
	zap.L().Info("running scheduled analysis")
	out, err := s.Advisor.Analyze(s.Ctx, advisor.AnalyzeRequest{})
	if err != nil {
		zap.L().Error("scheduled analysis failed", zap.Error(err))
		s.trySend(fmt.Sprintf("❌ Scheduled analysis failed: %v", err))
		return
	}
	report := notifier.FormatAnalysisReport(out)
	if alert := alertFor(out); alert != "" {
		report = alert + "\n\n" + report
	}
	s.trySend(report)
}

func (s *Scheduler) dcaTask() {
	zap.L().Info("running scheduled dca summary")
	out, err := s.Advisor.SimulateDCA(s.Ctx, advisor.DCARequest{Amount: s.DCAAmount})
	if err != nil {
		zap.L().Error("scheduled dca simulation failed", zap.Error(err))
		return
	}
	s.trySend(notifier.FormatDCAReport(out))
}

// alertFor highlights sell advice and high-confidence buy advice.
func alertFor(a presenter.Analysis) string {
	for _, r := range a.Recommendations {
		if r.Side == string(model.SideSell) {
			return fmt.Sprintf("⚠️ <b>Take-profit alert</b>: %s, consider selling %.0f%%", r.Type, r.Percentage)
		}
	}
	for _, r := range a.Recommendations {
		if r.Side == string(model.SideBuy) && r.Confidence == string(model.ConfidenceHigh) {
			return fmt.Sprintf("🎣 <b>Buy alert</b>: %s, consider allocating %.0f%%", r.Type, r.Percentage)
		}
	}
	return ""
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		zap.L().Info("notification (delivery disabled)", zap.String("text", text))
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		zap.L().Error("send notification failed", zap.Error(err))
	}
}
