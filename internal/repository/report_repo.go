package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"smartpark/internal/db"
)

const (
	DefaultReportLimit = 20
	MaxReportLimit     = 200
)

const reportSchema = `
CREATE TABLE IF NOT EXISTS analysis_reports (
	id                SERIAL PRIMARY KEY,
	request_id        TEXT NOT NULL,
	total             INTEGER NOT NULL,
	occupied          INTEGER NOT NULL,
	available         INTEGER NOT NULL,
	available_by_type INTEGER[] NOT NULL,
	analysis          TEXT NOT NULL,
	trigger_source    TEXT NOT NULL,
	generated_at      TIMESTAMPTZ NOT NULL
)`

// ReportRepository archives analysis reports in Postgres. Lot state is
// never written here.
type ReportRepository struct {
	DB *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{DB: db}
}

// EnsureSchema creates the reports table when it does not exist.
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, reportSchema); err != nil {
		return fmt.Errorf("error creating analysis_reports table: %w", err)
	}
	return nil
}

func (r *ReportRepository) SaveReport(ctx context.Context, report *db.AnalysisReport) (int64, error) {
	query := `INSERT INTO analysis_reports
		(request_id, total, occupied, available, available_by_type, analysis, trigger_source, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		report.RequestID, report.Total, report.Occupied, report.Available,
		pq.Array(report.AvailableByType), report.Analysis, report.Trigger, report.GeneratedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error inserting analysis report: %w", err)
	}
	return id, nil
}

// ListReports returns the newest reports first.
func (r *ReportRepository) ListReports(ctx context.Context, limit int) ([]db.AnalysisReport, error) {
	query := `SELECT id, request_id, total, occupied, available, available_by_type, analysis, trigger_source, generated_at
		FROM analysis_reports ORDER BY generated_at DESC, id DESC LIMIT $1`
	rows, err := r.DB.QueryContext(ctx, query, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error querying analysis reports: %w", err)
	}
	defer rows.Close()

	var reports []db.AnalysisReport
	for rows.Next() {
		var rep db.AnalysisReport
		if err := rows.Scan(&rep.ID, &rep.RequestID, &rep.Total, &rep.Occupied, &rep.Available,
			pq.Array(&rep.AvailableByType), &rep.Analysis, &rep.Trigger, &rep.GeneratedAt); err != nil {
			return nil, fmt.Errorf("error scanning analysis report: %w", err)
		}
		reports = append(reports, rep)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return reports, nil
}

func (r *ReportRepository) CountReports(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_reports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting analysis reports: %w", err)
	}
	return n, nil
}

// ClampLimit maps a requested page size into [1, MaxReportLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultReportLimit
	case limit > MaxReportLimit:
		return MaxReportLimit
	}
	return limit
}
