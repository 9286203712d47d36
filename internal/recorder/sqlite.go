package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"BitcoinAdvisor/internal/model"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so history reads do not block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	zap.L().Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) Name() string { return "sqlite" }

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id                 TEXT PRIMARY KEY,
			created_at         INTEGER NOT NULL,
			symbol             TEXT NOT NULL,
			period             TEXT NOT NULL,
			as_of              TEXT NOT NULL,
			price              REAL,
			sma_short          REAL,
			sma_long           REAL,
			rsi                REAL,
			period_high        REAL,
			period_low         REAL,
			default_allocation REAL,
			insufficient       INTEGER NOT NULL DEFAULT 0,
			warning            TEXT,
			cross_date         TEXT,
			cross_direction    TEXT,
			cross_price        REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_created ON analysis_runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS recommendations (
			run_id      TEXT NOT NULL REFERENCES analysis_runs(id),
			seq         INTEGER NOT NULL,
			type        TEXT NOT NULL,
			date        TEXT NOT NULL,
			price       REAL,
			strength    TEXT,
			description TEXT,
			percent     REAL,
			side        TEXT,
			rsi         REAL,
			confidence  TEXT,
			PRIMARY KEY (run_id, seq)
		)`,

		`CREATE TABLE IF NOT EXISTS dca_runs (
			id             TEXT PRIMARY KEY,
			created_at     INTEGER NOT NULL,
			symbol         TEXT NOT NULL,
			period         TEXT NOT NULL,
			interval       TEXT NOT NULL,
			amount         REAL,
			transactions   INTEGER,
			total_invested REAL,
			total_units    REAL,
			final_price    REAL,
			final_value    REAL,
			profit         REAL,
			roi            REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dca_created ON dca_runs(created_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps an undefined indicator to SQL NULL.
func nullable(v model.Value) any {
	if !v.OK {
		return nil
	}
	return v.V
}

func fromNull(n sql.NullFloat64) model.Value {
	if !n.Valid {
		return model.Undefined
	}
	return model.Defined(n.Float64)
}

func (r *SQLiteRecorder) RecordAnalysis(ctx context.Context, run *AnalysisRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = r.now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	snap, ev := run.Snapshot, run.Evaluation
	var crossDate, crossDir, crossPrice any
	if ev.LatestCross != nil {
		crossDate = ev.LatestCross.Date.Format(model.DateFormat)
		crossDir = string(ev.LatestCross.Direction)
		crossPrice = ev.LatestCross.Price
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO analysis_runs
		(id, created_at, symbol, period, as_of, price, sma_short, sma_long, rsi,
		 period_high, period_low, default_allocation, insufficient, warning,
		 cross_date, cross_direction, cross_price)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.CreatedAt.UnixMilli(), run.Symbol, string(run.Period),
		snap.Date.Format(model.DateFormat), snap.CurrentPrice,
		nullable(snap.SMAShort), nullable(snap.SMALong), nullable(snap.RSI),
		snap.PeriodHigh, snap.PeriodLow, ev.DefaultAllocation, ev.Insufficient, ev.Warning,
		crossDate, crossDir, crossPrice,
	)
	if err != nil {
		return fmt.Errorf("insert analysis run: %w", err)
	}

	for i, rec := range ev.Recommendations {
		_, err := tx.ExecContext(ctx, `INSERT INTO recommendations
			(run_id, seq, type, date, price, strength, description, percent, side, rsi, confidence)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			run.ID, i, rec.Type, rec.Date.Format(model.DateFormat), rec.Price,
			rec.Strength, rec.Description, rec.Percent, string(rec.Side),
			nullable(rec.RSI), string(rec.Confidence),
		)
		if err != nil {
			return fmt.Errorf("insert recommendation %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordDCA(ctx context.Context, run *DCARun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = r.now()
	}

	var invested, units, finalPrice, finalValue, profit, roi any
	if s := run.Summary; s != nil {
		invested, units, finalPrice, finalValue, profit = s.TotalInvested, s.TotalUnits, s.FinalPrice, s.FinalValue, s.Profit
		roi = s.ROI
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO dca_runs
		(id, created_at, symbol, period, interval, amount, transactions,
		 total_invested, total_units, final_price, final_value, profit, roi)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.CreatedAt.UnixMilli(), run.Symbol, string(run.Period), run.Interval,
		run.Amount, run.Transactions, invested, units, finalPrice, finalValue, profit, roi,
	)
	if err != nil {
		return fmt.Errorf("insert dca run: %w", err)
	}
	return nil
}

// RecentAnalyses returns the newest runs first, each with its recommendations
// in emission order.
func (r *SQLiteRecorder) RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, created_at, symbol, period, as_of, price,
		sma_short, sma_long, rsi, period_high, period_low, default_allocation,
		insufficient, warning, cross_date, cross_direction, cross_price
		FROM analysis_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analysis runs: %w", err)
	}

	var runs []AnalysisRun
	for rows.Next() {
		var (
			run                    AnalysisRun
			createdAt              int64
			period, asOf           string
			smaShort, smaLong, rsi sql.NullFloat64
			warning                sql.NullString
			crossDate, crossDir    sql.NullString
			crossPrice             sql.NullFloat64
		)
		if err := rows.Scan(&run.ID, &createdAt, &run.Symbol, &period, &asOf, &run.Snapshot.CurrentPrice,
			&smaShort, &smaLong, &rsi, &run.Snapshot.PeriodHigh, &run.Snapshot.PeriodLow,
			&run.Evaluation.DefaultAllocation, &run.Evaluation.Insufficient, &warning,
			&crossDate, &crossDir, &crossPrice); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan analysis run: %w", err)
		}
		run.CreatedAt = time.UnixMilli(createdAt).UTC()
		run.Period = model.Period(period)
		run.Snapshot.Date = parseDate(asOf)
		run.Snapshot.SMAShort, run.Snapshot.SMALong, run.Snapshot.RSI = fromNull(smaShort), fromNull(smaLong), fromNull(rsi)
		run.Snapshot.DefaultAllocation = run.Evaluation.DefaultAllocation
		run.Evaluation.Warning = warning.String
		if crossDate.Valid {
			run.Evaluation.LatestCross = &model.CrossEvent{
				Date:      parseDate(crossDate.String),
				Direction: model.CrossDirection(crossDir.String),
				Price:     crossPrice.Float64,
			}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		recs, err := r.recommendations(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Evaluation.Recommendations = recs
	}
	return runs, nil
}

func (r *SQLiteRecorder) recommendations(ctx context.Context, runID string) ([]model.Recommendation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT type, date, price, strength, description, percent, side, rsi, confidence
		FROM recommendations WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []model.Recommendation
	for rows.Next() {
		var (
			rec              model.Recommendation
			date, side, conf string
			rsi              sql.NullFloat64
		)
		if err := rows.Scan(&rec.Type, &date, &rec.Price, &rec.Strength, &rec.Description,
			&rec.Percent, &side, &rsi, &conf); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		rec.Date = parseDate(date)
		rec.Side = model.Side(side)
		rec.Confidence = model.Confidence(conf)
		rec.RSI = fromNull(rsi)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(model.DateFormat, s)
	return t
}

func (r *SQLiteRecorder) Close() error {
	zap.L().Info("closing sqlite recorder")
	return r.db.Close()
}

// Open returns a SQLite recorder for path, or a no-op recorder when path is empty.
func Open(path string) (Recorder, error) {
	if path == "" {
		return NewNoopRecorder(), nil
	}
	r, err := NewSQLiteRecorder(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}
