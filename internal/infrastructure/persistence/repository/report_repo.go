package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/escrow-portal/internal/application/port"
	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/infrastructure/persistence/sqlite"
)

// ReportRepository implements port.ReportRepository
type ReportRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB, logger *zap.Logger) port.ReportRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the snapshot row and its bucket rows. Callers wanting both
// to land atomically run it inside WithTransaction.
func (r *ReportRepository) Create(ctx context.Context, report *entity.ReportSnapshot) error {
	exec := r.getExecutor(ctx)

	query := `
		INSERT INTO report_snapshots (
			id, generated_at, include_archived, total_earned_cents, created_at, seq
		) VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM report_snapshots))
	`
	_, err := exec.ExecContext(ctx, query,
		report.ID,
		report.GeneratedAt.UTC(),
		report.IncludeArchived,
		report.TotalEarnedCents,
		report.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create report", zap.String("id", report.ID), zap.Error(err))
		return fmt.Errorf("failed to create report: %w", err)
	}

	bucketQuery := `
		INSERT INTO report_buckets (report_id, kind, bucket, item_count, total_cents, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i, b := range report.Buckets {
		if _, err := exec.ExecContext(ctx, bucketQuery,
			report.ID, string(b.Kind), b.Bucket, b.Count, b.TotalCents, i,
		); err != nil {
			r.logger.Error("Failed to create report bucket",
				zap.String("id", report.ID),
				zap.String("kind", string(b.Kind)),
				zap.String("bucket", b.Bucket),
				zap.Error(err))
			return fmt.Errorf("failed to create report bucket: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a snapshot with its bucket rows in stored order
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*entity.ReportSnapshot, error) {
	query := `
		SELECT id, generated_at, include_archived, total_earned_cents, created_at
		FROM report_snapshots
		WHERE id = ?
	`

	report, err := scanReport(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get report by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	buckets, err := r.buckets(ctx, id)
	if err != nil {
		return nil, err
	}
	report.Buckets = buckets
	return report, nil
}

// List returns snapshots newest first, without bucket rows
func (r *ReportRepository) List(ctx context.Context, limit, offset int) ([]*entity.ReportSnapshot, error) {
	query := `
		SELECT id, generated_at, include_archived, total_earned_cents, created_at
		FROM report_snapshots
		ORDER BY seq DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list reports", zap.Error(err))
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*entity.ReportSnapshot, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// DeleteOlderThan keeps the newest keep snapshots. Bucket rows go with them
// through the foreign key cascade.
func (r *ReportRepository) DeleteOlderThan(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	query := `
		DELETE FROM report_snapshots
		WHERE id NOT IN (
			SELECT id FROM report_snapshots ORDER BY seq DESC LIMIT ?
		)
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, keep)
	if err != nil {
		r.logger.Error("Failed to prune reports", zap.Int("keep", keep), zap.Error(err))
		return 0, fmt.Errorf("failed to prune reports: %w", err)
	}
	return result.RowsAffected()
}

func (r *ReportRepository) buckets(ctx context.Context, reportID string) ([]entity.ReportBucket, error) {
	query := `
		SELECT kind, bucket, item_count, total_cents
		FROM report_buckets
		WHERE report_id = ?
		ORDER BY position ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, reportID)
	if err != nil {
		r.logger.Error("Failed to load report buckets", zap.String("id", reportID), zap.Error(err))
		return nil, fmt.Errorf("failed to load report buckets: %w", err)
	}
	defer rows.Close()

	buckets := make([]entity.ReportBucket, 0)
	for rows.Next() {
		var b entity.ReportBucket
		var kind string
		if err := rows.Scan(&kind, &b.Bucket, &b.Count, &b.TotalCents); err != nil {
			return nil, fmt.Errorf("failed to scan report bucket: %w", err)
		}
		b.Kind = entity.Kind(kind)
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row scanner) (*entity.ReportSnapshot, error) {
	var report entity.ReportSnapshot
	if err := row.Scan(
		&report.ID,
		&report.GeneratedAt,
		&report.IncludeArchived,
		&report.TotalEarnedCents,
		&report.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &report, nil
}

// getExecutor returns appropriate executor based on context
func (r *ReportRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

// Verify interface compliance
var _ port.ReportRepository = (*ReportRepository)(nil)
