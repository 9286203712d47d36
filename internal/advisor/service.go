// Package advisor wires the analysis pipeline: fetch, normalize, compute
// indicators, detect crosses, recommend, persist and present.
package advisor

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"BitcoinAdvisor/internal/apperr"
	"BitcoinAdvisor/internal/calculator"
	"BitcoinAdvisor/internal/currency"
	"BitcoinAdvisor/internal/dca"
	"BitcoinAdvisor/internal/metrics"
	"BitcoinAdvisor/internal/model"
	"BitcoinAdvisor/internal/presenter"
	"BitcoinAdvisor/internal/recorder"
	"BitcoinAdvisor/internal/strategy"
)

// SeriesSource yields the normalized daily series for a symbol and period.
type SeriesSource interface {
	Series(ctx context.Context, symbol string, period model.Period) (model.TimeSeries, error)
}

// Options configures a Service. Converter, Metrics and Health may be nil.
type Options struct {
	Source          SeriesSource
	Engine          *strategy.Engine
	Params          model.IndicatorParams
	Recorder        recorder.Recorder
	Converter       currency.Converter
	DisplayCurrency string
	DefaultSymbol   string
	DefaultPeriod   model.Period
	DefaultInterval string
	Metrics         *metrics.Metrics
	Health          *metrics.HealthStatus
}

// Service runs the analysis and DCA pipelines. It holds no per-request state.
type Service struct {
	opts Options
	now  func() time.Time
}

func NewService(opts Options) *Service {
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.DefaultPeriod == "" {
		opts.DefaultPeriod = model.Period1Y
	}
	if opts.DefaultInterval == "" {
		opts.DefaultInterval = "weekly"
	}
	if opts.Params == (model.IndicatorParams{}) {
		opts.Params = model.DefaultIndicatorParams
	}
	return &Service{opts: opts, now: time.Now}
}

type AnalyzeRequest struct {
	Symbol       string
	Period       string
	IncludeChart bool
}

type DCARequest struct {
	Symbol   string
	Period   string
	Amount   float64
	Interval string
}

func (s *Service) symbol(req string) string {
	if req != "" {
		return req
	}
	return s.opts.DefaultSymbol
}

func (s *Service) period(req string) (model.Period, error) {
	if req == "" {
		return s.opts.DefaultPeriod, nil
	}
	return model.ParsePeriod(req)
}

// Analyze computes indicators and recommendations for the latest date.
// Parameters are validated before any I/O.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (presenter.Analysis, error) {
	start := time.Now()
	period, err := s.period(req.Period)
	if err != nil {
		return presenter.Analysis{}, err
	}
	symbol := s.symbol(req.Symbol)
	if symbol == "" {
		return presenter.Analysis{}, apperr.InvalidParameter("symbol is required")
	}

	series, err := s.opts.Source.Series(ctx, symbol, period)
	if err != nil {
		return presenter.Analysis{}, err
	}

	frames := calculator.ComputeFrames(series, s.opts.Params)
	crosses := calculator.DetectCrosses(series, frames)
	ev := s.opts.Engine.Evaluate(series, frames, crosses)
	snap := calculator.LatestSnapshot(series, frames)
	snap.DefaultAllocation = ev.DefaultAllocation
	if ev.Insufficient {
		zap.L().Warn("analysis ran on short history", zap.String("symbol", symbol), zap.String("warning", ev.Warning))
	}

	run := recorder.AnalysisRun{
		ID:         uuid.NewString(),
		CreatedAt:  s.now(),
		Symbol:     symbol,
		Period:     period,
		Snapshot:   snap,
		Evaluation: ev,
	}
	if err := s.opts.Recorder.RecordAnalysis(ctx, &run); err != nil {
		zap.L().Error("record analysis failed", zap.String("run_id", run.ID), zap.Error(err))
	}

	out := presenter.NewAnalysis(run, s.quote(ctx, symbol))
	if req.IncludeChart {
		out.Chart = presenter.NewChart(series, frames, crosses)
	}

	if m := s.opts.Metrics; m != nil {
		for _, r := range ev.Recommendations {
			m.Recommendations.WithLabelValues(r.Type).Inc()
		}
		m.LastPrice.Set(snap.CurrentPrice)
		m.ObservePipeline("analyze", start)
	}
	if s.opts.Health != nil {
		s.opts.Health.SetAnalysis(s.now())
	}
	zap.L().Info("analysis complete",
		zap.String("run_id", run.ID),
		zap.String("symbol", symbol),
		zap.String("period", string(period)),
		zap.Int("points", series.Len()),
		zap.Int("recommendations", len(ev.Recommendations)),
		zap.Duration("took", time.Since(start)))
	return out, nil
}

// SimulateDCA replays a fixed-amount schedule over the series for period.
func (s *Service) SimulateDCA(ctx context.Context, req DCARequest) (presenter.DCA, error) {
	start := time.Now()
	period, err := s.period(req.Period)
	if err != nil {
		return presenter.DCA{}, err
	}
	interval := req.Interval
	if interval == "" {
		interval = s.opts.DefaultInterval
	}
	sch, err := dca.ParseInterval(interval)
	if err != nil {
		return presenter.DCA{}, err
	}
	if req.Amount <= 0 {
		return presenter.DCA{}, apperr.InvalidParameter("amount must be positive, got %v", req.Amount)
	}
	symbol := s.symbol(req.Symbol)
	if symbol == "" {
		return presenter.DCA{}, apperr.InvalidParameter("symbol is required")
	}

	series, err := s.opts.Source.Series(ctx, symbol, period)
	if err != nil {
		return presenter.DCA{}, err
	}
	result, err := dca.Simulate(series, req.Amount, sch)
	if err != nil {
		return presenter.DCA{}, err
	}

	run := recorder.DCARun{
		ID:           uuid.NewString(),
		CreatedAt:    s.now(),
		Symbol:       symbol,
		Period:       period,
		Interval:     sch.String(),
		Amount:       req.Amount,
		Transactions: len(result.Transactions),
		Summary:      result.Summary,
	}
	if err := s.opts.Recorder.RecordDCA(ctx, &run); err != nil {
		zap.L().Error("record dca run failed", zap.String("run_id", run.ID), zap.Error(err))
	}

	var quote *currency.Quote
	if !result.NoTransactions() {
		quote = s.quote(ctx, symbol)
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObservePipeline("dca", start)
	}
	zap.L().Info("dca simulation complete",
		zap.String("run_id", run.ID),
		zap.String("symbol", symbol),
		zap.String("interval", run.Interval),
		zap.Int("transactions", run.Transactions))
	return presenter.NewDCA(run, result, quote), nil
}

// History returns the most recent persisted analyses.
func (s *Service) History(ctx context.Context, limit int) ([]presenter.HistoryEntry, error) {
	if limit <= 0 || limit > 100 {
		return nil, apperr.InvalidParameter("limit must be between 1 and 100, got %d", limit)
	}
	runs, err := s.opts.Recorder.RecentAnalyses(ctx, limit)
	if err != nil {
		return nil, err
	}
	return presenter.NewHistory(runs), nil
}

// quoteCurrency is the part of a pair symbol after the dash, USD otherwise.
func quoteCurrency(symbol string) string {
	if i := strings.LastIndex(symbol, "-"); i >= 0 && i < len(symbol)-1 {
		return strings.ToUpper(symbol[i+1:])
	}
	return "USD"
}

// quote looks up the display conversion. Failures degrade to no display block.
func (s *Service) quote(ctx context.Context, symbol string) *currency.Quote {
	if s.opts.Converter == nil || s.opts.DisplayCurrency == "" {
		return nil
	}
	from := quoteCurrency(symbol)
	q, err := s.opts.Converter.Rate(ctx, from, s.opts.DisplayCurrency)
	if err != nil {
		zap.L().Warn("display conversion unavailable",
			zap.String("from", from),
			zap.String("to", s.opts.DisplayCurrency),
			zap.Error(err))
		return nil
	}
	return &q
}
