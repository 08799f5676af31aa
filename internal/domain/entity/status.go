package entity

// Canonical milestone statuses
const (
	MilestoneIncomplete = "incomplete"
	MilestoneReview     = "review" // completed, not yet invoiced
	MilestoneInvoiced   = "invoiced"
	MilestoneApproved   = "approved"
	MilestoneDisputed   = "disputed"
)

// Canonical invoice statuses
const (
	InvoiceSubmitted = "submitted"
	InvoicePending   = "pending"
	InvoiceOverdue   = "overdue"
	InvoiceDisputed  = "disputed"
	InvoicePaid      = "paid"
)

// Canonical expense statuses
const (
	ExpenseDraft            = "draft"
	ExpenseContractorSigned = "contractor_signed"
	ExpensePending          = "pending"
	ExpenseApproved         = "approved"
	ExpenseRejected         = "rejected"
	ExpensePaid             = "paid"
	ExpenseDisputed         = "disputed"
)

// Canonical dispute statuses
const (
	DisputeInitiated          = "initiated"
	DisputeOpen               = "open"
	DisputeUnderReview        = "under_review"
	DisputeResolvedContractor = "resolved_contractor"
	DisputeResolvedHomeowner  = "resolved_homeowner"
	DisputeCanceled           = "canceled"
)

// BucketAll is the milestone-only bucket holding every record
const BucketAll = "all"

var statusOrder = map[Kind][]string{
	KindMilestone: {MilestoneIncomplete, MilestoneReview, MilestoneInvoiced, MilestoneDisputed, MilestoneApproved},
	KindInvoice:   {InvoiceSubmitted, InvoicePending, InvoiceOverdue, InvoiceDisputed, InvoicePaid},
	KindExpense: {
		ExpenseDraft, ExpenseContractorSigned, ExpensePending,
		ExpenseApproved, ExpenseRejected, ExpensePaid, ExpenseDisputed,
	},
	KindDispute: {
		DisputeInitiated, DisputeOpen, DisputeUnderReview,
		DisputeResolvedContractor, DisputeResolvedHomeowner, DisputeCanceled,
	},
}

// Statuses returns the canonical statuses of a kind in display order.
// The returned slice is a copy.
func Statuses(kind Kind) []string {
	order := statusOrder[kind]
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// IsCanonical returns true if status is one of the canonical values for kind
func IsCanonical(kind Kind, status string) bool {
	for _, s := range statusOrder[kind] {
		if s == status {
			return true
		}
	}
	return false
}

// DefaultStatus is the status a record falls back to when nothing is recognized
func DefaultStatus(kind Kind) string {
	switch kind {
	case KindMilestone:
		return MilestoneIncomplete
	case KindInvoice:
		return InvoiceSubmitted
	case KindExpense:
		return ExpenseDraft
	case KindDispute:
		return DisputeInitiated
	default:
		return ""
	}
}
