package recorder

import (
	"context"
	"time"

	"BitcoinAdvisor/internal/model"
)

// AnalysisRun is one recommendation batch together with the snapshot it was
// computed from. Recommendations keep their emission order.
type AnalysisRun struct {
	ID         string
	CreatedAt  time.Time
	Symbol     string
	Period     model.Period
	Snapshot   model.Snapshot
	Evaluation model.Evaluation
}

// DCARun is one persisted DCA simulation summary.
type DCARun struct {
	ID           string
	CreatedAt    time.Time
	Symbol       string
	Period       model.Period
	Interval     string
	Amount       float64
	Transactions int
	Summary      *model.DCASummary
}

// Recorder persists analysis and simulation history. Writes are append-only.
type Recorder interface {
	RecordAnalysis(ctx context.Context, run *AnalysisRun) error
	RecordDCA(ctx context.Context, run *DCARun) error
	RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRun, error)
	Name() string
	Close() error
}
