package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/domain/status"
)

func fixedNormalizer() *status.Normalizer {
	return status.NewNormalizer(status.WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	}))
}

func sampleInvoices() []entity.Record {
	return []entity.Record{
		{"id": 1, "amount": "250.00", "status": "paid", "project_title": "Kitchen"},
		{"id": 2, "amount_due": 200, "due_date": "2020-01-01", "status": "pending", "project_title": "Bath"},
		{"id": 3, "total": 80.5, "due_date": "2025-01-01", "project_title": "Deck"},
		{"id": 4, "amount": 40, "paid": true, "disputed": true, "project_title": "Kitchen"},
		{"id": 5, "amount": 999, "paid": true, "agreement": map[string]interface{}{"is_archived": true}},
	}
}

func TestGetDashboardView_MilestoneScenario(t *testing.T) {
	svc := NewDashboardService(fixedNormalizer())
	milestones := []entity.Record{
		{"amount": 100, "completed": true},
		{"amount": 50, "status": "disputed"},
		{"amount": 25},
	}

	view := svc.GetDashboardView(milestones, nil, ViewOptions{})

	assert.Equal(t, "100.00", view.MilestoneBuckets.Summary(entity.MilestoneReview).Total.String())
	assert.Equal(t, "50.00", view.MilestoneBuckets.Summary(entity.MilestoneDisputed).Total.String())
	assert.Equal(t, "25.00", view.MilestoneBuckets.Summary(entity.MilestoneIncomplete).Total.String())
	all := view.MilestoneBuckets.Summary(entity.BucketAll)
	assert.Equal(t, 3, all.Count)
	assert.Equal(t, "175.00", all.Total.String())

	assert.Equal(t, 0, view.InvoiceBuckets.Len())
	assert.True(t, view.TotalEarned.IsZero())
	assert.Empty(t, view.SearchedInvoices)
}

func TestGetDashboardView_Invoices(t *testing.T) {
	svc := NewDashboardService(fixedNormalizer())

	view := svc.GetDashboardView(nil, sampleInvoices(), ViewOptions{})

	assert.Len(t, view.InvoiceBuckets.Bucket(entity.InvoicePaid), 1)
	assert.Len(t, view.InvoiceBuckets.Bucket(entity.InvoicePending), 1, "explicit pending beats computed overdue")
	assert.Len(t, view.InvoiceBuckets.Bucket(entity.InvoiceOverdue), 1)
	assert.Len(t, view.InvoiceBuckets.Bucket(entity.InvoiceDisputed), 1, "dispute beats paid flag")
	assert.Equal(t, 4, view.InvoiceBuckets.Len(), "archived invoice excluded")

	assert.Equal(t, "250.00", view.TotalEarned.String())
	assert.Equal(t, view.InvoiceBuckets.Summary(entity.InvoicePaid).Total, view.TotalEarned)
	assert.Len(t, view.SearchedInvoices, 4, "blank search keeps every live invoice")
}

func TestGetDashboardView_IncludeArchived(t *testing.T) {
	svc := NewDashboardService(fixedNormalizer())

	view := svc.GetDashboardView(nil, sampleInvoices(), ViewOptions{IncludeArchived: true})

	assert.Equal(t, 5, view.InvoiceBuckets.Len())
	assert.Equal(t, "1249.00", view.TotalEarned.String())
}

func TestGetDashboardView_SearchDoesNotAffectAggregates(t *testing.T) {
	svc := NewDashboardService(fixedNormalizer())

	view := svc.GetDashboardView(nil, sampleInvoices(), ViewOptions{SearchTerm: "kitchen"})

	require.Len(t, view.SearchedInvoices, 2)
	assert.Equal(t, "1", view.SearchedInvoices[0].Record.String("id"))
	assert.Equal(t, entity.InvoicePaid, view.SearchedInvoices[0].Status)
	assert.Equal(t, entity.InvoiceDisputed, view.SearchedInvoices[1].Status)
	assert.Equal(t, 4, view.InvoiceBuckets.Len())
}

func TestGetDashboardView_Idempotent(t *testing.T) {
	svc := NewDashboardService(fixedNormalizer())
	invoices := sampleInvoices()

	first := svc.GetDashboardView(nil, invoices, ViewOptions{})
	second := svc.GetDashboardView(nil, invoices, ViewOptions{})

	assert.Equal(t, first.InvoiceBuckets.Summaries(), second.InvoiceBuckets.Summaries())
	assert.Equal(t, first.TotalEarned, second.TotalEarned)
}

func TestSummarizeExpenses(t *testing.T) {
	svc := NewDashboardService(fixedNormalizer())
	expenses := []entity.Record{
		{"amount": 10, "status": "draft", "description": "Permit fee"},
		{"amount": 20, "status": "pending", "receipt_url": "https://r/1"},
		{"amount": 30, "status": "approved"},
		{"amount": 40, "status": "paid", "receipt_url": "https://r/2"},
		{"amount": 50, "status": "rejected"},
	}

	summary := svc.SummarizeExpenses(expenses, ViewOptions{SearchTerm: "permit"})

	assert.Equal(t, "40.00", summary.TotalPaid.String())
	assert.Equal(t, "50.00", summary.TotalOutstanding.String())
	assert.Equal(t, 2, summary.WithReceipts)
	assert.Equal(t, 5, summary.Buckets.Len())
	require.Len(t, summary.SearchedExpenses, 1)
	assert.Equal(t, entity.ExpenseDraft, summary.SearchedExpenses[0].Status)
}

func TestSummarizeDisputes(t *testing.T) {
	svc := NewDashboardService(fixedNormalizer())
	disputes := []entity.Record{
		{"status": "open", "fee_amount": "25.00", "fee_paid": true, "attachments": []interface{}{"a", "b"}},
		{"status": "initiated", "fee_amount": 25},
		{"status": "resolved", "resolution": "homeowner", "fee_amount": 25, "fee_paid": true},
		{"status": "canceled", "attachments": []interface{}{"c"}},
	}

	summary := svc.SummarizeDisputes(disputes, ViewOptions{})

	assert.Equal(t, "50.00", summary.FeesPaid.String())
	assert.Equal(t, "25.00", summary.FeesOutstanding.String())
	assert.Equal(t, 3, summary.Attachments)
	assert.Equal(t, 2, summary.Active)
	assert.Len(t, summary.Buckets.Bucket(entity.DisputeResolvedHomeowner), 1)
}

func TestNewDashboardService_NilNormalizer(t *testing.T) {
	svc := NewDashboardService(nil)
	view := svc.GetDashboardView([]entity.Record{{"amount": 1}}, nil, ViewOptions{})
	assert.Equal(t, 1, view.MilestoneBuckets.Summary(entity.MilestoneIncomplete).Count)
}
