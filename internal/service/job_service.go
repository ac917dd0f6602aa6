package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"smartpark/internal/entities"
)

// SnapshotSource exposes the latest lot snapshot.
type SnapshotSource interface {
	Snapshot() *entities.Snapshot
}

// ReportJob analyzes the current lot, archives the result and sends it to
// the configured recipients.
type ReportJob struct {
	lot      SnapshotSource
	analysis *AnalysisService
	notifier *ReportNotifier
	timeout  time.Duration
	logger   *slog.Logger
}

func NewReportJob(lot SnapshotSource, analysis *AnalysisService, notifier *ReportNotifier, timeout time.Duration, logger *slog.Logger) *ReportJob {
	return &ReportJob{lot: lot, analysis: analysis, notifier: notifier, timeout: timeout, logger: logger}
}

// Run executes one report cycle.
func (j *ReportJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	snap := j.lot.Snapshot()
	j.logger.Info("Report job: analyzing lot", "version", snap.Version, "available", snap.Stats.Available, "total", snap.Stats.Total)

	report, err := j.analysis.Analyze(ctx, snap.Stats, TriggerScheduled)
	if err != nil {
		// the report is still sent when only archiving failed
		j.logger.Error("Report job: failed to archive report", "request_id", report.RequestID, "error", err)
	}

	if j.notifier == nil || !j.notifier.Enabled() {
		j.logger.Info("Report job: no recipients configured, skipping delivery", "request_id", report.RequestID)
		return err
	}
	if sendErr := j.notifier.SendReport(ctx, report); sendErr != nil {
		return fmt.Errorf("report job: delivery failed: %w", sendErr)
	}

	j.logger.Info("Report job: report delivered", "request_id", report.RequestID)
	return err
}

// Schedule registers the job on c under a standard five-field cron spec.
func (j *ReportJob) Schedule(ctx context.Context, c *cron.Cron, spec string) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, func() {
		if err := j.Run(ctx); err != nil {
			j.logger.Error("Report job failed", "error", err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("invalid REPORT_SCHEDULE %q: %w", spec, err)
	}
	return id, nil
}
