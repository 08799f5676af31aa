package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/domain/status"
)

var (
	draft = &entity.AgreementState{Status: "draft"}

	contractorSigned = &entity.AgreementState{SignedByContractor: true, Status: "pending_homeowner"}

	fullySigned = &entity.AgreementState{
		SignedByContractor: true,
		SignedByHomeowner:  true,
		IsFullySigned:      true,
		Status:             "signed",
	}

	funded = &entity.AgreementState{
		SignedByContractor: true,
		SignedByHomeowner:  true,
		IsFullySigned:      true,
		EscrowFunded:       true,
		Status:             "funded",
	}

	// escrow flag flipped before the status caught up
	fundingInFlight = &entity.AgreementState{
		SignedByContractor: true,
		SignedByHomeowner:  true,
		IsFullySigned:      true,
		EscrowFunded:       true,
		Status:             "pending_funding",
	}
)

func TestAgreementPredicates(t *testing.T) {
	tests := []struct {
		name      string
		agreement *entity.AgreementState
		want      map[Action]bool
	}{
		{
			name:      "draft",
			agreement: draft,
			want: map[Action]bool{
				ActionEdit: true, ActionSign: true, ActionSendInvite: false, ActionFundEscrow: false,
				ActionDownloadExecutedPDF: false, ActionAmend: false, ActionMarkMilestoneComplete: false,
			},
		},
		{
			name:      "contractor signed",
			agreement: contractorSigned,
			want: map[Action]bool{
				ActionEdit: false, ActionSign: false, ActionSendInvite: true, ActionFundEscrow: false,
				ActionDownloadExecutedPDF: false, ActionAmend: false, ActionMarkMilestoneComplete: false,
			},
		},
		{
			name:      "fully signed",
			agreement: fullySigned,
			want: map[Action]bool{
				ActionEdit: false, ActionSign: false, ActionSendInvite: false, ActionFundEscrow: true,
				ActionDownloadExecutedPDF: false, ActionAmend: true, ActionMarkMilestoneComplete: false,
			},
		},
		{
			name:      "funded",
			agreement: funded,
			want: map[Action]bool{
				ActionEdit: false, ActionSign: false, ActionSendInvite: false, ActionFundEscrow: false,
				ActionDownloadExecutedPDF: true, ActionAmend: true, ActionMarkMilestoneComplete: true,
			},
		},
		{
			name:      "funding in flight",
			agreement: fundingInFlight,
			want: map[Action]bool{
				ActionFundEscrow: false, ActionDownloadExecutedPDF: true, ActionMarkMilestoneComplete: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for action, want := range tt.want {
				assert.Equal(t, want, CanPerform(action, tt.agreement, nil), action.String())
			}
		})
	}
}

func TestFailClosed(t *testing.T) {
	assert.False(t, CanFundEscrow(nil))

	for _, action := range Actions() {
		assert.False(t, CanPerform(action, nil, nil), action.String())
	}

	empty := &entity.AgreementState{}
	assert.False(t, CanFundEscrow(empty))
	assert.False(t, CanMarkMilestoneComplete(empty, nil))
	assert.False(t, CanPerform(Action("launch_rocket"), funded, nil))
}

func TestCanMarkMilestoneComplete_AcceptedStatuses(t *testing.T) {
	for _, s := range []string{"funded", "signed", "active"} {
		a := *funded
		a.Status = s
		assert.True(t, CanMarkMilestoneComplete(&a, nil), s)
	}

	a := *funded
	a.Status = ""
	assert.False(t, CanMarkMilestoneComplete(&a, nil))
}

func TestCanMarkMilestoneComplete_FromRecord(t *testing.T) {
	a := entity.AgreementStateFromRecord(entity.Record{
		"signed_by_contractor": true,
		"signed_by_homeowner":  true,
		"escrow_funded":        "true",
		"status":               "Active",
	})
	assert.True(t, CanMarkMilestoneComplete(a, nil))
}

func TestMilestoneActions(t *testing.T) {
	n := status.NewNormalizer()
	incomplete := NewEntityState(entity.KindMilestone, entity.Record{"amount": 100}, n)
	review := NewEntityState(entity.KindMilestone, entity.Record{"completed": true}, n)
	approved := NewEntityState(entity.KindMilestone, entity.Record{"status": "approved"}, n)

	assert.True(t, CanMarkMilestoneComplete(funded, incomplete))
	assert.False(t, CanMarkMilestoneComplete(funded, review))

	assert.True(t, CanApproveMilestone(funded, review))
	assert.True(t, CanDisputeMilestone(funded, review))
	assert.False(t, CanApproveMilestone(funded, incomplete))
	assert.False(t, CanDisputeMilestone(funded, approved))
	assert.False(t, CanApproveMilestone(fullySigned, review))

	// wrong kind
	invoice := &EntityState{Kind: entity.KindInvoice, Status: entity.InvoicePending}
	assert.False(t, CanApproveMilestone(funded, invoice))
	assert.False(t, CanMarkMilestoneComplete(funded, invoice))
}

func TestInvoiceActions(t *testing.T) {
	n := status.NewNormalizer(status.WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	}))

	tests := []struct {
		name    string
		rec     entity.Record
		pay     bool
		dispute bool
	}{
		{"submitted", entity.Record{"amount": 10}, true, true},
		{"pending", entity.Record{"status": "pending"}, true, true},
		{"overdue", entity.Record{"due_date": "2025-01-01"}, true, true},
		{"paid", entity.Record{"paid": true}, false, false},
		{"disputed", entity.Record{"disputed": true}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEntityState(entity.KindInvoice, tt.rec, n)
			assert.Equal(t, tt.pay, CanPayInvoice(funded, e))
			assert.Equal(t, tt.dispute, CanDisputeInvoice(funded, e))
			assert.False(t, CanPayInvoice(fullySigned, e))
		})
	}
}

func TestExpenseActions(t *testing.T) {
	pending := &EntityState{Kind: entity.KindExpense, Record: entity.Record{"status": "pending"}}

	assert.True(t, CanPerform(ActionApproveExpense, funded, pending))
	assert.True(t, CanPerform(ActionRejectExpense, funded, pending))
	assert.True(t, CanPerform(ActionDisputeExpense, funded, pending))
	assert.False(t, CanPerform(ActionPayExpense, funded, pending))
	assert.False(t, CanPerform(ActionSignExpense, funded, pending))

	// missing agreement fails closed
	assert.False(t, CanPerform(ActionApproveExpense, nil, pending))

	// a dispute record cannot drive expense actions
	dispute := &EntityState{Kind: entity.KindDispute, Status: entity.DisputeOpen}
	assert.False(t, CanPerform(ActionApproveExpense, funded, dispute))
}

func TestDisputeActions(t *testing.T) {
	unpaid := &EntityState{Kind: entity.KindDispute, Record: entity.Record{"status": "initiated", "fee_amount": 75}}
	paid := &EntityState{Kind: entity.KindDispute, Record: entity.Record{"status": "initiated", "fee_paid": true}}

	assert.False(t, CanPerform(ActionOpenDispute, funded, unpaid))
	assert.True(t, CanPerform(ActionCancelDispute, funded, unpaid))
	assert.True(t, CanPerform(ActionOpenDispute, funded, paid))

	review := &EntityState{Kind: entity.KindDispute, Status: entity.DisputeUnderReview}
	assert.True(t, CanPerform(ActionResolveDisputeHomeowner, funded, review))
	assert.False(t, CanPerform(ActionReviewDispute, funded, review))
}

func TestEvaluate(t *testing.T) {
	table := Evaluate(funded, nil)
	assert.Len(t, table, len(Actions()))
	assert.True(t, table[ActionDownloadExecutedPDF])
	assert.False(t, table[ActionEdit])
	assert.False(t, table[ActionApproveExpense])

	for action, allowed := range Evaluate(nil, nil) {
		assert.False(t, allowed, action.String())
	}
}

func TestEvaluate_DerivesStatusOnceWithInjectedClock(t *testing.T) {
	calls := 0
	n := status.NewNormalizer(status.WithClock(func() time.Time {
		calls++
		return time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	}))
	invoice := &EntityState{
		Kind:       entity.KindInvoice,
		Record:     entity.Record{"due_date": "2099-06-01"},
		Normalizer: n,
	}

	table := Evaluate(funded, invoice)
	assert.Equal(t, 1, calls)
	assert.True(t, table[ActionPayInvoice])
	assert.Empty(t, invoice.Status)

	resolved := invoice.resolved()
	assert.Equal(t, entity.InvoiceOverdue, resolved.Status)
	assert.Equal(t, 2, calls)

	assert.True(t, CanPerform(ActionDisputeInvoice, funded, invoice))
	assert.Equal(t, 3, calls)
}

func TestAction_IsValid(t *testing.T) {
	for _, action := range Actions() {
		assert.True(t, action.IsValid(), action.String())
	}
	assert.False(t, Action("").IsValid())
}
