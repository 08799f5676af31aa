package port

import (
	"context"
	"errors"

	"github.com/garyjia/escrow-portal/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no stored row or backend resource matches
	ErrNotFound = errors.New("record not found")

	// ErrBackendUnavailable is returned when the portal backend cannot be reached
	ErrBackendUnavailable = errors.New("portal backend unavailable")
)

// ReportRepository defines persistence operations for ReportSnapshot
type ReportRepository interface {
	// Create stores a snapshot together with its bucket rows
	Create(ctx context.Context, report *entity.ReportSnapshot) error

	// GetByID retrieves a snapshot with its bucket rows
	GetByID(ctx context.Context, id string) (*entity.ReportSnapshot, error)

	// List returns snapshots newest first, without bucket rows
	List(ctx context.Context, limit, offset int) ([]*entity.ReportSnapshot, error)

	// DeleteOlderThan removes all but the newest keep snapshots
	DeleteOlderThan(ctx context.Context, keep int) (int64, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
