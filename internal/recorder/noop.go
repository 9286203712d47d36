package recorder

import "context"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(context.Context, *AnalysisRun) error { return nil }
func (n *NoopRecorder) RecordDCA(context.Context, *DCARun) error           { return nil }
func (n *NoopRecorder) RecentAnalyses(context.Context, int) ([]AnalysisRun, error) {
	return nil, nil
}
func (n *NoopRecorder) Name() string { return "noop" }
func (n *NoopRecorder) Close() error { return nil }
