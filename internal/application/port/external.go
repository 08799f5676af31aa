package port

import (
	"context"

	"github.com/garyjia/escrow-portal/internal/domain/entity"
)

// PortalBackend reads raw records from the portal backend. Record shapes vary
// between backend revisions; callers normalize them.
type PortalBackend interface {
	ListMilestones(ctx context.Context) ([]entity.Record, error)
	ListInvoices(ctx context.Context) ([]entity.Record, error)
	ListExpenses(ctx context.Context) ([]entity.Record, error)
	ListDisputes(ctx context.Context) ([]entity.Record, error)
	ListHomeowners(ctx context.Context) ([]entity.Record, error)
	GetAgreement(ctx context.Context, id string) (entity.Record, error)
}

// ReferenceCache holds fetched reference lists. Get returns a nil value on a
// miss. A stale value is returned with isFresh false so callers can fall back
// to it when a refresh fails. Cached empty lists come back non-nil.
type ReferenceCache interface {
	Get(ctx context.Context, key string) (value []entity.Record, isFresh bool)
	Set(ctx context.Context, key string, value []entity.Record) error
	Invalidate(ctx context.Context, key string) error
}
