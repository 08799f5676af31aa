package guard

import (
	"context"

	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/domain/status"
	"github.com/garyjia/escrow-portal/internal/domain/workflow"
)

// EntityState is the record an action targets. Status is the canonical
// status; when empty it is derived from Record with Normalizer, or with a
// wall-clock normalizer when Normalizer is nil.
type EntityState struct {
	Kind       entity.Kind        `json:"kind"`
	Status     string             `json:"status,omitempty"`
	Record     entity.Record      `json:"record,omitempty"`
	Normalizer *status.Normalizer `json:"-"`
}

// NewEntityState normalizes rec with n and wraps it for the guard
func NewEntityState(kind entity.Kind, rec entity.Record, n *status.Normalizer) *EntityState {
	return &EntityState{Kind: kind, Status: n.Normalize(kind, rec), Record: rec, Normalizer: n}
}

// resolved returns e with Status derived, so one decision sees one "now"
func (e *EntityState) resolved() *EntityState {
	if e == nil || e.Status != "" {
		return e
	}
	n := e.Normalizer
	if n == nil {
		n = status.NewNormalizer()
	}
	out := *e
	out.Status = n.Normalize(e.Kind, e.Record)
	return &out
}

func (e *EntityState) status() string {
	if e == nil {
		return ""
	}
	return e.resolved().Status
}

func (e *EntityState) is(kind entity.Kind, statuses ...string) bool {
	if e == nil || e.Kind != kind {
		return false
	}
	current := e.status()
	for _, s := range statuses {
		if current == s {
			return true
		}
	}
	return false
}

// Predicate decides one action
type Predicate func(a *entity.AgreementState, e *EntityState) bool

var (
	expenseLifecycle = workflow.NewExpenseLifecycle()
	disputeLifecycle = workflow.NewDisputeLifecycle()
)

var predicates = map[Action]Predicate{
	ActionEdit:                  func(a *entity.AgreementState, _ *EntityState) bool { return CanEdit(a) },
	ActionSign:                  func(a *entity.AgreementState, _ *EntityState) bool { return CanSign(a) },
	ActionSendInvite:            func(a *entity.AgreementState, _ *EntityState) bool { return CanSendInvite(a) },
	ActionFundEscrow:            func(a *entity.AgreementState, _ *EntityState) bool { return CanFundEscrow(a) },
	ActionDownloadExecutedPDF:   func(a *entity.AgreementState, _ *EntityState) bool { return CanDownloadExecutedPDF(a) },
	ActionAmend:                 func(a *entity.AgreementState, _ *EntityState) bool { return CanAmend(a) },
	ActionMarkMilestoneComplete: CanMarkMilestoneComplete,
	ActionApproveMilestone:      CanApproveMilestone,
	ActionDisputeMilestone:      CanDisputeMilestone,
	ActionPayInvoice:            CanPayInvoice,
	ActionDisputeInvoice:        CanDisputeInvoice,

	ActionSignExpense:    lifecycleAction(expenseLifecycle, workflow.TriggerSign),
	ActionSubmitExpense:  lifecycleAction(expenseLifecycle, workflow.TriggerSubmit),
	ActionApproveExpense: lifecycleAction(expenseLifecycle, workflow.TriggerApprove),
	ActionRejectExpense:  lifecycleAction(expenseLifecycle, workflow.TriggerReject),
	ActionPayExpense:     lifecycleAction(expenseLifecycle, workflow.TriggerPay),
	ActionDisputeExpense: lifecycleAction(expenseLifecycle, workflow.TriggerDispute),

	ActionOpenDispute:              lifecycleAction(disputeLifecycle, workflow.TriggerOpen),
	ActionReviewDispute:            lifecycleAction(disputeLifecycle, workflow.TriggerReview),
	ActionResolveDisputeContractor: lifecycleAction(disputeLifecycle, workflow.TriggerResolveContractor),
	ActionResolveDisputeHomeowner:  lifecycleAction(disputeLifecycle, workflow.TriggerResolveHomeowner),
	ActionCancelDispute:            lifecycleAction(disputeLifecycle, workflow.TriggerCancel),
}

// CanPerform reports whether action is allowed. Unknown actions are denied.
func CanPerform(action Action, a *entity.AgreementState, e *EntityState) bool {
	p, ok := predicates[action]
	if !ok {
		return false
	}
	return p(a, e.resolved())
}

// Evaluate returns the decision for every action
func Evaluate(a *entity.AgreementState, e *EntityState) map[Action]bool {
	e = e.resolved()
	out := make(map[Action]bool, len(actionOrder))
	for _, action := range actionOrder {
		out[action] = predicates[action](a, e)
	}
	return out
}

// CanEdit allows editing until the contractor signs
func CanEdit(a *entity.AgreementState) bool {
	return a != nil && !a.SignedByContractor
}

// CanSign allows the contractor to sign once
func CanSign(a *entity.AgreementState) bool {
	return a != nil && !a.SignedByContractor
}

// CanSendInvite allows inviting the homeowner after the contractor signed
func CanSendInvite(a *entity.AgreementState) bool {
	return a != nil && a.SignedByContractor && !a.SignedByHomeowner
}

// CanFundEscrow allows funding a fully signed, unfunded agreement
func CanFundEscrow(a *entity.AgreementState) bool {
	return a != nil && a.IsFullySigned && !a.EscrowFunded
}

// CanDownloadExecutedPDF allows downloading once escrow is funded
func CanDownloadExecutedPDF(a *entity.AgreementState) bool {
	return a != nil && a.EscrowFunded
}

// CanAmend allows amendments to a fully signed agreement
func CanAmend(a *entity.AgreementState) bool {
	return a != nil && a.IsFullySigned
}

// CanMarkMilestoneComplete requires funded escrow and an agreement status that
// has caught up with the funding. Backends can report escrow_funded before the
// status moves, so both are checked. When a milestone is given it must still
// be incomplete.
func CanMarkMilestoneComplete(a *entity.AgreementState, e *EntityState) bool {
	if a == nil || !a.EscrowFunded {
		return false
	}
	if !a.HasStatus(entity.AgreementStatusFunded, entity.AgreementStatusSigned, entity.AgreementStatusActive) {
		return false
	}
	return e == nil || e.is(entity.KindMilestone, entity.MilestoneIncomplete)
}

// CanApproveMilestone allows approving completed work on a funded agreement
func CanApproveMilestone(a *entity.AgreementState, e *EntityState) bool {
	return CanDownloadExecutedPDF(a) &&
		e.is(entity.KindMilestone, entity.MilestoneReview, entity.MilestoneInvoiced)
}

// CanDisputeMilestone allows disputing completed, unapproved work
func CanDisputeMilestone(a *entity.AgreementState, e *EntityState) bool {
	return CanDownloadExecutedPDF(a) &&
		e.is(entity.KindMilestone, entity.MilestoneReview, entity.MilestoneInvoiced)
}

// CanPayInvoice allows paying an open invoice from funded escrow
func CanPayInvoice(a *entity.AgreementState, e *EntityState) bool {
	return CanDownloadExecutedPDF(a) &&
		e.is(entity.KindInvoice, entity.InvoiceSubmitted, entity.InvoicePending, entity.InvoiceOverdue)
}

// CanDisputeInvoice allows disputing an open invoice
func CanDisputeInvoice(a *entity.AgreementState, e *EntityState) bool {
	return CanDownloadExecutedPDF(a) &&
		e.is(entity.KindInvoice, entity.InvoiceSubmitted, entity.InvoicePending, entity.InvoiceOverdue)
}

// lifecycleAction allows an action when the entity's lifecycle accepts trigger
func lifecycleAction(lc *workflow.Lifecycle, trigger workflow.Trigger) Predicate {
	return func(a *entity.AgreementState, e *EntityState) bool {
		if a == nil || e == nil || e.Kind != lc.Kind() {
			return false
		}
		m, err := lc.Machine(e.status(), e.Record)
		if err != nil {
			return false
		}
		return m.CanFire(context.Background(), trigger)
	}
}
