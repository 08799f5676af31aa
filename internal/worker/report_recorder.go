package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/escrow-portal/internal/application/service"
)

// ReportRecorder reconciles the live backend on an interval and stores the
// run's summary in the report history
type ReportRecorder struct {
	*ticker
	reconciler service.ReconciliationService
	reports    service.ReportService
	opts       service.ViewOptions
	timeout    time.Duration
	logger     *zap.Logger
}

// NewReportRecorder creates a report recorder. Each run is bounded by timeout
// when it is positive.
func NewReportRecorder(
	reconciler service.ReconciliationService,
	reports service.ReportService,
	opts service.ViewOptions,
	interval, timeout time.Duration,
	logger *zap.Logger,
) *ReportRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ReportRecorder{
		reconciler: reconciler,
		reports:    reports,
		opts:       opts,
		timeout:    timeout,
		logger:     logger,
	}
	r.ticker = &ticker{name: "ReportRecorder", interval: interval, fn: r.RunOnce, logger: logger}
	return r
}

// RunOnce records one report. Failures are logged; the next tick retries.
func (r *ReportRecorder) RunOnce(ctx context.Context) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	snap, err := r.reconciler.Snapshot(ctx, r.opts)
	if err != nil {
		r.logger.Error("Scheduled reconciliation failed", zap.Error(err))
		return
	}

	report, err := r.reports.Record(ctx, snap)
	if err != nil {
		r.logger.Error("Failed to store scheduled report", zap.Error(err))
		return
	}

	r.logger.Info("Scheduled report recorded",
		zap.String("report_id", report.ID),
		zap.Int64("total_earned_cents", report.TotalEarnedCents),
		zap.Duration("elapsed", time.Since(start)))
}
