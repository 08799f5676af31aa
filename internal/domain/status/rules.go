package status

import (
	"strings"
	"time"

	"github.com/garyjia/escrow-portal/internal/domain/entity"
)

// Milestone precedence: disputed > approved > invoiced > review > incomplete
var milestoneRules = []rule{
	{
		status: entity.MilestoneDisputed,
		match: anyOf(
			statusIn("disputed", "dispute", "in_dispute", "under_dispute", "dispute_open"),
			flag("is_disputed", "disputed", "has_dispute", "dispute_open"),
		),
	},
	{
		status: entity.MilestoneApproved,
		match: anyOf(
			statusIn("approved", "paid", "released", "payment_released", "homeowner_approved"),
			flag("is_approved", "approved", "homeowner_approved", "is_paid", "paid"),
		),
	},
	{
		status: entity.MilestoneInvoiced,
		match: anyOf(
			statusIn("invoiced", "invoice_sent", "billed", "pending_approval", "awaiting_approval"),
			flag("is_invoiced", "invoiced", "invoice_sent"),
			present("invoice_id"),
		),
	},
	{
		status: entity.MilestoneReview,
		match: anyOf(
			statusIn("completed", "complete", "review", "in_review", "pending_review", "awaiting_review", "done"),
			flag("completed", "is_completed", "is_complete", "complete"),
		),
	},
	{
		status: entity.MilestoneIncomplete,
		match:  statusIn("incomplete", "pending", "in_progress", "not_started", "scheduled", "open"),
	},
}

// Invoice precedence: disputed > paid > pending > overdue > submitted.
// An explicit pending status wins over a computed overdue fact.
var invoiceRules = []rule{
	{
		status: entity.InvoiceDisputed,
		match: anyOf(
			statusIn("disputed", "dispute", "in_dispute", "under_dispute"),
			flag("is_disputed", "disputed", "has_dispute"),
		),
	},
	{
		status: entity.InvoicePaid,
		match:  invoicePaid,
	},
	{
		status: entity.InvoicePending,
		match: anyOf(
			statusIn("pending", "pending_approval", "awaiting_approval", "pending_payment", "sent", "awaiting_payment"),
			flag("is_pending", "pending", "pending_approval"),
		),
	},
	{
		status: entity.InvoiceOverdue,
		match:  invoiceOverdue,
	},
	{
		status: entity.InvoiceSubmitted,
		match:  statusIn("submitted", "draft", "new", "issued", "open"),
	},
}

// Expense precedence follows the lifecycle, latest and most critical first
var expenseRules = []rule{
	{
		status: entity.ExpenseDisputed,
		match: anyOf(
			statusIn("disputed", "dispute", "in_dispute"),
			flag("is_disputed", "disputed"),
		),
	},
	{
		status: entity.ExpensePaid,
		match: anyOf(
			statusIn("paid", "reimbursed", "settled"),
			flag("is_paid", "paid"),
		),
	},
	{
		status: entity.ExpenseRejected,
		match: anyOf(
			statusIn("rejected", "declined", "denied"),
			flag("is_rejected", "rejected"),
		),
	},
	{
		status: entity.ExpenseApproved,
		match: anyOf(
			statusIn("approved", "homeowner_approved", "accepted"),
			flag("is_approved", "approved", "homeowner_approved"),
		),
	},
	{
		status: entity.ExpensePending,
		match:  statusIn("pending", "submitted", "pending_approval", "awaiting_approval", "sent"),
	},
	{
		status: entity.ExpenseContractorSigned,
		match: anyOf(
			statusIn("contractor_signed", "signed", "signed_by_contractor"),
			flag("contractor_signed", "signed_by_contractor"),
		),
	},
	{
		status: entity.ExpenseDraft,
		match:  statusIn("draft", "new"),
	},
}

// Dispute precedence: terminal outcomes first, then review, open, initiated.
// A bare "resolved" needs a side to become terminal; without one it stays
// under review.
var disputeRules = []rule{
	{
		status: entity.DisputeCanceled,
		match: anyOf(
			statusIn("canceled", "cancelled", "withdrawn"),
			flag("is_canceled", "canceled", "cancelled"),
		),
	},
	{
		status: entity.DisputeResolvedContractor,
		match: anyOf(
			statusIn("resolved_contractor", "resolved_for_contractor", "contractor_won"),
			resolvedFor("contractor"),
		),
	},
	{
		status: entity.DisputeResolvedHomeowner,
		match: anyOf(
			statusIn("resolved_homeowner", "resolved_for_homeowner", "homeowner_won"),
			resolvedFor("homeowner"),
		),
	},
	{
		status: entity.DisputeUnderReview,
		match:  statusIn("under_review", "in_review", "review", "resolved", "mediation"),
	},
	{
		status: entity.DisputeOpen,
		match:  statusIn("open", "opened", "active"),
	},
	{
		status: entity.DisputeInitiated,
		match:  statusIn("initiated", "new", "pending", "pending_fee"),
	},
}

func invoicePaid(v view) bool {
	return statusIn("paid", "approved", "released", "settled", "payment_released")(v) ||
		flag("is_paid", "paid", "approved", "is_approved", "escrow_released")(v)
}

// invoiceOverdue is a derived, time-dependent fact: a due date exists, the
// invoice is unpaid, and the due date is before now.
func invoiceOverdue(v view) bool {
	if invoicePaid(v) {
		return false
	}
	due, ok := parseDate(v.rec.FirstString("due_date", "due", "due_at", "payment_due_date"))
	if !ok {
		return false
	}
	return due.Before(v.now)
}

func resolvedFor(side string) func(v view) bool {
	return func(v view) bool {
		if v.status != "resolved" {
			return false
		}
		winner := entity.NormalizeToken(v.rec.FirstString("resolution", "resolved_in_favor_of", "winner", "outcome"))
		return strings.Contains(winner, side)
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// parseDate reads the date spellings backends emit. Dates without a zone are UTC.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
