package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/domain/money"
)

// Lifecycle is an immutable transition table for one entity kind
type Lifecycle struct {
	kind    entity.Kind
	builder StateMachineBuilder
}

// Kind returns the entity kind the lifecycle governs
func (l *Lifecycle) Kind() entity.Kind {
	return l.kind
}

// Machine builds a machine seeded with a canonical status. Statuses outside
// the lifecycle are rejected with ErrInvalidState.
func (l *Lifecycle) Machine(status string, subject entity.Record) (StateMachine, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: no lifecycle", ErrInvalidState)
	}
	if !entity.IsCanonical(l.kind, status) {
		return nil, fmt.Errorf("%w: %q is not a %s status", ErrInvalidState, status, l.kind)
	}
	return l.builder.Build(State(status), subject), nil
}

// NewExpenseLifecycle configures the expense approval flow
func NewExpenseLifecycle() *Lifecycle {
	b := NewBuilder()

	b.Configure(StateExpenseDraft).
		Permit(TriggerSign, StateExpenseContractorSigned)

	b.Configure(StateExpenseContractorSigned).
		Permit(TriggerSubmit, StateExpensePending)

	b.Configure(StateExpensePending).
		Permit(TriggerApprove, StateExpenseApproved).
		Permit(TriggerReject, StateExpenseRejected).
		Permit(TriggerDispute, StateExpenseDisputed)

	b.Configure(StateExpenseApproved).
		Permit(TriggerPay, StateExpensePaid).
		Permit(TriggerDispute, StateExpenseDisputed)

	return &Lifecycle{kind: entity.KindExpense, builder: b}
}

// NewDisputeLifecycle configures the dispute resolution flow. A dispute only
// opens once its filing fee is settled.
func NewDisputeLifecycle() *Lifecycle {
	b := NewBuilder()

	b.Configure(StateDisputeInitiated).
		PermitIf(TriggerOpen, StateDisputeOpen, feeSettled).
		Permit(TriggerCancel, StateDisputeCanceled)

	b.Configure(StateDisputeOpen).
		Permit(TriggerReview, StateDisputeUnderReview).
		Permit(TriggerResolveContractor, StateDisputeResolvedContractor).
		Permit(TriggerResolveHomeowner, StateDisputeResolvedHomeowner).
		Permit(TriggerCancel, StateDisputeCanceled)

	b.Configure(StateDisputeUnderReview).
		Permit(TriggerResolveContractor, StateDisputeResolvedContractor).
		Permit(TriggerResolveHomeowner, StateDisputeResolvedHomeowner).
		Permit(TriggerCancel, StateDisputeCanceled)

	return &Lifecycle{kind: entity.KindDispute, builder: b}
}

func feeSettled(_ context.Context, subject entity.Record) bool {
	return FeeSettled(subject)
}

// FeeSettled reports whether a dispute's filing fee is paid or was never owed.
// A record with neither fee field, or an unreadable fee, is treated as unpaid.
func FeeSettled(rec entity.Record) bool {
	if rec.AnyBool("fee_paid", "is_fee_paid") {
		return true
	}
	raw, ok := rec.Value("fee_amount")
	if !ok {
		return false
	}
	if s, isString := raw.(string); isString && strings.Trim(s, "$0., ") != "" {
		return false
	}
	return money.Parse(raw).IsZero()
}
