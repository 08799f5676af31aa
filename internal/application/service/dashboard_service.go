package service

import (
	"github.com/garyjia/escrow-portal/internal/domain/bucket"
	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/domain/filter"
	"github.com/garyjia/escrow-portal/internal/domain/money"
	"github.com/garyjia/escrow-portal/internal/domain/status"
	"github.com/garyjia/escrow-portal/internal/domain/workflow"
)

// ViewOptions controls archive inclusion and list search for a view
type ViewOptions struct {
	IncludeArchived bool   `json:"include_archived" form:"include_archived"`
	SearchTerm      string `json:"search" form:"search"`
}

// DashboardView is everything a dashboard render needs. TotalEarned is the
// paid invoice bucket's total, read from the same Set the table shows.
type DashboardView struct {
	MilestoneBuckets *bucket.Set   `json:"milestone_buckets"`
	InvoiceBuckets   *bucket.Set   `json:"invoice_buckets"`
	TotalEarned      money.Money   `json:"total_earned"`
	SearchedInvoices []bucket.Item `json:"searched_invoices"`
}

// ExpenseSummary buckets expenses by lifecycle status
type ExpenseSummary struct {
	Buckets          *bucket.Set   `json:"buckets"`
	TotalPaid        money.Money   `json:"total_paid"`
	TotalOutstanding money.Money   `json:"total_outstanding"`
	WithReceipts     int           `json:"with_receipts"`
	SearchedExpenses []bucket.Item `json:"searched_expenses"`
}

// DisputeSummary buckets disputes and totals their filing fees
type DisputeSummary struct {
	Buckets          *bucket.Set   `json:"buckets"`
	FeesPaid         money.Money   `json:"fees_paid"`
	FeesOutstanding  money.Money   `json:"fees_outstanding"`
	Attachments      int           `json:"attachments"`
	Active           int           `json:"active"`
	SearchedDisputes []bucket.Item `json:"searched_disputes"`
}

// DashboardService runs the reconciliation pipeline over a snapshot:
// archive filter, normalize, bucket, aggregate, then search for list views.
// It holds no state between calls.
type DashboardService interface {
	GetDashboardView(milestones, invoices []entity.Record, opts ViewOptions) *DashboardView
	SummarizeExpenses(expenses []entity.Record, opts ViewOptions) *ExpenseSummary
	SummarizeDisputes(disputes []entity.Record, opts ViewOptions) *DisputeSummary
}

type dashboardServiceImpl struct {
	normalizer *status.Normalizer
}

// NewDashboardService creates a DashboardService using n for status derivation
func NewDashboardService(n *status.Normalizer) DashboardService {
	if n == nil {
		n = status.NewNormalizer()
	}
	return &dashboardServiceImpl{normalizer: n}
}

// GetDashboardView buckets milestones and invoices and searches the invoice list
func (s *dashboardServiceImpl) GetDashboardView(milestones, invoices []entity.Record, opts ViewOptions) *DashboardView {
	milestoneItems := s.pipeline(entity.KindMilestone, milestones, opts)
	invoiceItems := s.pipeline(entity.KindInvoice, invoices, opts)

	invoiceSet := bucket.Partition(entity.KindInvoice, invoiceItems)

	return &DashboardView{
		MilestoneBuckets: bucket.Partition(entity.KindMilestone, milestoneItems),
		InvoiceBuckets:   invoiceSet,
		TotalEarned:      invoiceSet.Summary(entity.InvoicePaid).Total,
		SearchedInvoices: filter.Search(entity.KindInvoice, invoiceItems, opts.SearchTerm),
	}
}

// SummarizeExpenses buckets expenses. Outstanding is what is pending or
// approved but not yet paid.
func (s *dashboardServiceImpl) SummarizeExpenses(expenses []entity.Record, opts ViewOptions) *ExpenseSummary {
	items := s.pipeline(entity.KindExpense, expenses, opts)
	set := bucket.Partition(entity.KindExpense, items)

	receipts := 0
	for _, it := range items {
		if it.Record.FirstString("receipt_url", "receipt") != "" {
			receipts++
		}
	}

	outstanding := set.Summary(entity.ExpensePending).Total.Add(set.Summary(entity.ExpenseApproved).Total)

	return &ExpenseSummary{
		Buckets:          set,
		TotalPaid:        set.Summary(entity.ExpensePaid).Total,
		TotalOutstanding: outstanding,
		WithReceipts:     receipts,
		SearchedExpenses: filter.Search(entity.KindExpense, items, opts.SearchTerm),
	}
}

// SummarizeDisputes buckets disputes and splits filing fees into paid and
// outstanding. Only the attachment count matters, not the attachments.
func (s *dashboardServiceImpl) SummarizeDisputes(disputes []entity.Record, opts ViewOptions) *DisputeSummary {
	items := s.pipeline(entity.KindDispute, disputes, opts)
	set := bucket.Partition(entity.KindDispute, items)

	summary := &DisputeSummary{
		Buckets:          set,
		FeesPaid:         money.Zero,
		FeesOutstanding:  money.Zero,
		SearchedDisputes: filter.Search(entity.KindDispute, items, opts.SearchTerm),
	}
	for _, it := range items {
		fee := money.Zero
		if raw, ok := it.Record.Value("fee_amount"); ok {
			fee = money.Parse(raw)
		}
		if workflow.FeeSettled(it.Record) {
			summary.FeesPaid = summary.FeesPaid.Add(fee)
		} else {
			summary.FeesOutstanding = summary.FeesOutstanding.Add(fee)
		}
		summary.Attachments += it.Record.Len("attachments")
		if !workflow.State(it.Status).IsTerminal() {
			summary.Active++
		}
	}
	return summary
}

// pipeline drops archived records and derives items in input order
func (s *dashboardServiceImpl) pipeline(kind entity.Kind, records []entity.Record, opts ViewOptions) []bucket.Item {
	kept := filter.FilterArchived(records, opts.IncludeArchived)
	return bucket.Normalize(kept, func(rec entity.Record) string {
		return s.normalizer.Normalize(kind, rec)
	})
}
