package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/escrow-portal/internal/application/port"
	"github.com/garyjia/escrow-portal/internal/domain/bucket"
	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/domain/event"
)

// ReportService keeps a history of reconciliation runs. Only counts and
// totals are stored; dashboards always render from a fresh snapshot.
type ReportService interface {
	Record(ctx context.Context, snap *Snapshot) (*entity.ReportSnapshot, error)
	Get(ctx context.Context, id string) (*entity.ReportSnapshot, error)
	List(ctx context.Context, limit, offset int) ([]*entity.ReportSnapshot, error)
}

type reportServiceImpl struct {
	repo      port.ReportRepository
	txManager port.TransactionManager
	events    port.EventPublisher
	retain    int
	logger    Logger
}

// NewReportService creates a ReportService keeping at most retain reports.
// retain <= 0 keeps everything. events may be nil.
func NewReportService(
	repo port.ReportRepository,
	txManager port.TransactionManager,
	events port.EventPublisher,
	retain int,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		repo:      repo,
		txManager: txManager,
		events:    events,
		retain:    retain,
		logger:    loggerOrNop(logger),
	}
}

// Record stores a snapshot's bucket summaries and prunes old reports in the
// same transaction
func (s *reportServiceImpl) Record(ctx context.Context, snap *Snapshot) (*entity.ReportSnapshot, error) {
	if snap == nil || snap.Dashboard == nil {
		return nil, fmt.Errorf("record report: empty snapshot")
	}

	report := &entity.ReportSnapshot{
		ID:               uuid.NewString(),
		GeneratedAt:      snap.GeneratedAt,
		IncludeArchived:  snap.Options.IncludeArchived,
		TotalEarnedCents: snap.Dashboard.TotalEarned.Cents,
		CreatedAt:        time.Now().UTC(),
	}
	report.Buckets = appendBuckets(report.Buckets, snap.Dashboard.MilestoneBuckets)
	report.Buckets = appendBuckets(report.Buckets, snap.Dashboard.InvoiceBuckets)
	if snap.Expenses != nil {
		report.Buckets = appendBuckets(report.Buckets, snap.Expenses.Buckets)
	}
	if snap.Disputes != nil {
		report.Buckets = appendBuckets(report.Buckets, snap.Disputes.Buckets)
	}

	var pruned int64
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, report); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		if s.retain > 0 {
			n, err := s.repo.DeleteOlderThan(ctx, s.retain)
			if err != nil {
				return fmt.Errorf("prune reports: %w", err)
			}
			pruned = n
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record report", "error", err)
		return nil, err
	}

	s.logger.Info("Report recorded",
		"report_id", report.ID,
		"buckets", len(report.Buckets),
		"total_earned_cents", report.TotalEarnedCents,
		"pruned", pruned)

	if s.events != nil {
		s.events.PublishAsync(ctx, event.NewEvent(event.TypeReportRecorded, report.ID, map[string]interface{}{
			"total_earned_cents": report.TotalEarnedCents,
			"pruned":             pruned,
		}))
	}
	return report, nil
}

// Get retrieves a report with its bucket rows
func (s *reportServiceImpl) Get(ctx context.Context, id string) (*entity.ReportSnapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("get report %q: %w", id, port.ErrNotFound)
	}
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}
	return report, nil
}

// List returns reports newest first
func (s *reportServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.ReportSnapshot, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	reports, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

func appendBuckets(rows []entity.ReportBucket, set *bucket.Set) []entity.ReportBucket {
	if set == nil {
		return rows
	}
	summaries := set.Summaries()
	for _, key := range set.Keys() {
		sum := summaries[key]
		rows = append(rows, entity.ReportBucket{
			Kind:       set.Kind(),
			Bucket:     key,
			Count:      sum.Count,
			TotalCents: sum.Total.Cents,
		})
	}
	return rows
}
