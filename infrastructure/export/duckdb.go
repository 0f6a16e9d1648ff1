package export

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
	"github.com/ahrav/go-tally/internal/report"
)

// schemaDDL creates the analysis_runs, model_stats and error_buckets
// tables.
//
//go:embed schema.sql
var schemaDDL string

// DuckDBExporter appends each exported summary as a new run to a DuckDB
// database file, creating the schema on first use. Rows of one run share
// a random run id and are written in a single transaction.
type DuckDBExporter struct {
	// Now stamps exported_at; time.Now when nil.
	Now func() time.Time
}

var _ ports.Exporter = (*DuckDBExporter)(nil)

// Format implements ports.Exporter.
func (*DuckDBExporter) Format() string { return FormatDuckDB }

// Export implements ports.Exporter. The returned error wraps the
// driver error; nothing of the run is stored when it fails.
func (e *DuckDBExporter) Export(ctx context.Context, summary domain.AnalysisSummary, path string) error {
	_, err := e.ExportRun(ctx, summary, path)
	return err
}

// ExportRun is Export that also returns the id of the stored run.
func (e *DuckDBExporter) ExportRun(ctx context.Context, summary domain.AnalysisSummary, path string) (string, error) {
	fail := func(err error) (string, error) {
		return "", ports.NewExportError(FormatDuckDB, path, err)
	}

	hash, err := summaryFingerprint(summary)
	if err != nil {
		return fail(err)
	}

	if err := os.MkdirAll(filepath.Dir(filepath.Clean(path)), 0o755); err != nil {
		return fail(fmt.Errorf("create directory: %w", err))
	}
	db, err := sql.Open("duckdb", filepath.Clean(path))
	if err != nil {
		return fail(fmt.Errorf("open duckdb: %w", err))
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fail(fmt.Errorf("apply schema: %w", err))
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	runID := uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fail(fmt.Errorf("begin: %w", err))
	}
	if err := insertRun(ctx, tx, runID, hash, now().UTC(), summary); err != nil {
		_ = tx.Rollback()
		return fail(err)
	}
	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("commit: %w", err))
	}
	return runID, nil
}

func insertRun(ctx context.Context, tx *sql.Tx, runID, hash string, at time.Time, s domain.AnalysisSummary) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO analysis_runs (run_id, source, content_hash, exported_at, overall_success_rate,
			total_tests, total_passed, total_failed, skipped_records, total_cost, total_tokens)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, s.Source, hash, at, s.OverallSuccessRate,
		s.TotalTests, s.TotalPassed, s.TotalFailed, s.SkippedRecords, s.TotalCost, s.TotalTokens,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	modelStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO model_stats (run_id, model, total, passed, failed, success_rate, total_cost,
			avg_latency_ms, total_tokens, cost_per_success)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare model_stats: %w", err)
	}
	defer modelStmt.Close()

	for _, m := range s.PerModel {
		if _, err := modelStmt.ExecContext(ctx,
			runID, m.Model, m.Total, m.Passed, m.Failed, m.SuccessRate, m.TotalCost,
			nullableFloat(m.AvgLatency), m.TotalTokens, nullableFloat(m.CostPerSuccess),
		); err != nil {
			return fmt.Errorf("insert model %s: %w", m.Model, err)
		}
	}

	bucketStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO error_buckets (run_id, category, failure_count, example_test_ids) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare error_buckets: %w", err)
	}
	defer bucketStmt.Close()

	for _, b := range s.WorstErrors {
		ids, err := json.Marshal(b.ExampleTestIDs)
		if err != nil {
			return fmt.Errorf("encode examples: %w", err)
		}
		if _, err := bucketStmt.ExecContext(ctx, runID, b.Category.String(), b.Count, string(ids)); err != nil {
			return fmt.Errorf("insert bucket %s: %w", b.Category, err)
		}
	}
	return nil
}

// summaryFingerprint hashes the canonical JSON form of the summary.
// encoding/json sorts map keys, so equal summaries hash equally.
func summaryFingerprint(s domain.AnalysisSummary) (string, error) {
	data, err := json.Marshal(report.Structured(s))
	if err != nil {
		return "", fmt.Errorf("fingerprint summary: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
