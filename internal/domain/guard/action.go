// Package guard gates portal actions on agreement and entity state.
//
// Every predicate is pure and total. Missing or malformed state yields false.
package guard

// Action names a user action the portal may enable
type Action string

// Agreement actions
const (
	ActionEdit                  Action = "edit"
	ActionSign                  Action = "sign"
	ActionSendInvite            Action = "send_invite"
	ActionFundEscrow            Action = "fund_escrow"
	ActionDownloadExecutedPDF   Action = "download_executed_pdf"
	ActionAmend                 Action = "amend"
	ActionMarkMilestoneComplete Action = "mark_milestone_complete"
)

// Milestone and invoice actions
const (
	ActionApproveMilestone Action = "approve_milestone"
	ActionDisputeMilestone Action = "dispute_milestone"
	ActionPayInvoice       Action = "pay_invoice"
	ActionDisputeInvoice   Action = "dispute_invoice"
)

// Expense actions
const (
	ActionSignExpense    Action = "sign_expense"
	ActionSubmitExpense  Action = "submit_expense"
	ActionApproveExpense Action = "approve_expense"
	ActionRejectExpense  Action = "reject_expense"
	ActionPayExpense     Action = "pay_expense"
	ActionDisputeExpense Action = "dispute_expense"
)

// Dispute actions
const (
	ActionOpenDispute              Action = "open_dispute"
	ActionReviewDispute            Action = "review_dispute"
	ActionResolveDisputeContractor Action = "resolve_dispute_contractor"
	ActionResolveDisputeHomeowner  Action = "resolve_dispute_homeowner"
	ActionCancelDispute            Action = "cancel_dispute"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// IsValid reports whether the action has a predicate
func (a Action) IsValid() bool {
	_, ok := predicates[a]
	return ok
}

// Actions returns every action in display order
func Actions() []Action {
	out := make([]Action, len(actionOrder))
	copy(out, actionOrder)
	return out
}

var actionOrder = []Action{
	ActionEdit, ActionSign, ActionSendInvite, ActionFundEscrow,
	ActionDownloadExecutedPDF, ActionAmend, ActionMarkMilestoneComplete,
	ActionApproveMilestone, ActionDisputeMilestone,
	ActionPayInvoice, ActionDisputeInvoice,
	ActionSignExpense, ActionSubmitExpense, ActionApproveExpense,
	ActionRejectExpense, ActionPayExpense, ActionDisputeExpense,
	ActionOpenDispute, ActionReviewDispute, ActionResolveDisputeContractor,
	ActionResolveDisputeHomeowner, ActionCancelDispute,
}
