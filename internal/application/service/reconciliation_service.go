package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garyjia/escrow-portal/internal/application/port"
	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/domain/event"
)

// Snapshot is one full reconciliation run over freshly fetched records
type Snapshot struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Options     ViewOptions     `json:"options"`
	Dashboard   *DashboardView  `json:"dashboard"`
	Expenses    *ExpenseSummary `json:"expenses"`
	Disputes    *DisputeSummary `json:"disputes"`
}

// ReconciliationService fetches records from the backend and runs the
// pipeline from scratch on every call. Nothing derived is kept between calls.
type ReconciliationService interface {
	Snapshot(ctx context.Context, opts ViewOptions) (*Snapshot, error)
	Dashboard(ctx context.Context, opts ViewOptions) (*DashboardView, error)
	Expenses(ctx context.Context, opts ViewOptions) (*ExpenseSummary, error)
	Disputes(ctx context.Context, opts ViewOptions) (*DisputeSummary, error)
}

type reconciliationServiceImpl struct {
	backend   port.PortalBackend
	dashboard DashboardService
	events    port.EventPublisher
	logger    Logger
	now       func() time.Time
}

// NewReconciliationService creates a ReconciliationService. events may be nil.
func NewReconciliationService(
	backend port.PortalBackend,
	dashboard DashboardService,
	events port.EventPublisher,
	logger Logger,
) ReconciliationService {
	return &reconciliationServiceImpl{
		backend:   backend,
		dashboard: dashboard,
		events:    events,
		logger:    loggerOrNop(logger),
		now:       time.Now,
	}
}

// Snapshot fetches all four collections in parallel and reconciles them.
// Any failed fetch fails the whole snapshot; partial results are never merged.
func (s *reconciliationServiceImpl) Snapshot(ctx context.Context, opts ViewOptions) (*Snapshot, error) {
	records, err := s.fetch(ctx, entity.KindMilestone, entity.KindInvoice, entity.KindExpense, entity.KindDispute)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		GeneratedAt: s.now().UTC(),
		Options:     opts,
		Dashboard:   s.dashboard.GetDashboardView(records[entity.KindMilestone], records[entity.KindInvoice], opts),
		Expenses:    s.dashboard.SummarizeExpenses(records[entity.KindExpense], opts),
		Disputes:    s.dashboard.SummarizeDisputes(records[entity.KindDispute], opts),
	}

	s.logger.Info("Snapshot reconciled",
		"include_archived", opts.IncludeArchived,
		"milestones", snap.Dashboard.MilestoneBuckets.Len(),
		"invoices", snap.Dashboard.InvoiceBuckets.Len(),
		"expenses", snap.Expenses.Buckets.Len(),
		"disputes", snap.Disputes.Buckets.Len(),
		"total_earned", snap.Dashboard.TotalEarned.String())

	if s.events != nil {
		s.events.PublishAsync(ctx, event.NewEvent(event.TypeSnapshotReconciled, "", map[string]interface{}{
			"include_archived":   opts.IncludeArchived,
			"total_earned_cents": snap.Dashboard.TotalEarned.Cents,
		}))
	}
	return snap, nil
}

// Dashboard fetches milestones and invoices and builds the dashboard view
func (s *reconciliationServiceImpl) Dashboard(ctx context.Context, opts ViewOptions) (*DashboardView, error) {
	records, err := s.fetch(ctx, entity.KindMilestone, entity.KindInvoice)
	if err != nil {
		return nil, err
	}
	return s.dashboard.GetDashboardView(records[entity.KindMilestone], records[entity.KindInvoice], opts), nil
}

// Expenses fetches and summarizes expenses
func (s *reconciliationServiceImpl) Expenses(ctx context.Context, opts ViewOptions) (*ExpenseSummary, error) {
	records, err := s.fetch(ctx, entity.KindExpense)
	if err != nil {
		return nil, err
	}
	return s.dashboard.SummarizeExpenses(records[entity.KindExpense], opts), nil
}

// Disputes fetches and summarizes disputes
func (s *reconciliationServiceImpl) Disputes(ctx context.Context, opts ViewOptions) (*DisputeSummary, error) {
	records, err := s.fetch(ctx, entity.KindDispute)
	if err != nil {
		return nil, err
	}
	return s.dashboard.SummarizeDisputes(records[entity.KindDispute], opts), nil
}

// fetch lists the given kinds concurrently. The first error cancels the rest.
func (s *reconciliationServiceImpl) fetch(ctx context.Context, kinds ...entity.Kind) (map[entity.Kind][]entity.Record, error) {
	results := make([][]entity.Record, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			records, err := s.list(gctx, kind)
			if err != nil {
				return fmt.Errorf("fetch %s records: %w", kind, err)
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Backend fetch failed", "error", err)
		return nil, err
	}

	out := make(map[entity.Kind][]entity.Record, len(kinds))
	for i, kind := range kinds {
		out[kind] = results[i]
	}
	return out, nil
}

func (s *reconciliationServiceImpl) list(ctx context.Context, kind entity.Kind) ([]entity.Record, error) {
	switch kind {
	case entity.KindMilestone:
		return s.backend.ListMilestones(ctx)
	case entity.KindInvoice:
		return s.backend.ListInvoices(ctx)
	case entity.KindExpense:
		return s.backend.ListExpenses(ctx)
	case entity.KindDispute:
		return s.backend.ListDisputes(ctx)
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}
