package workflow

import "github.com/garyjia/escrow-portal/internal/domain/entity"

// State is a lifecycle state. Values are the canonical status names, so a
// normalized record status can seed a machine directly.
type State string

const (
	StateExpenseDraft            State = entity.ExpenseDraft
	StateExpenseContractorSigned State = entity.ExpenseContractorSigned
	StateExpensePending          State = entity.ExpensePending
	StateExpenseApproved         State = entity.ExpenseApproved
	StateExpenseRejected         State = entity.ExpenseRejected
	StateExpensePaid             State = entity.ExpensePaid
	StateExpenseDisputed         State = entity.ExpenseDisputed

	StateDisputeInitiated          State = entity.DisputeInitiated
	StateDisputeOpen               State = entity.DisputeOpen
	StateDisputeUnderReview        State = entity.DisputeUnderReview
	StateDisputeResolvedContractor State = entity.DisputeResolvedContractor
	StateDisputeResolvedHomeowner  State = entity.DisputeResolvedHomeowner
	StateDisputeCanceled           State = entity.DisputeCanceled
)

var validStates = map[State]bool{
	StateExpenseDraft:              true,
	StateExpenseContractorSigned:   true,
	StateExpensePending:            true,
	StateExpenseApproved:           true,
	StateExpenseRejected:           true,
	StateExpensePaid:               true,
	StateExpenseDisputed:           true,
	StateDisputeInitiated:          true,
	StateDisputeOpen:               true,
	StateDisputeUnderReview:        true,
	StateDisputeResolvedContractor: true,
	StateDisputeResolvedHomeowner:  true,
	StateDisputeCanceled:           true,
}

var terminalStates = map[State]bool{
	StateExpenseRejected:           true,
	StateExpensePaid:               true,
	StateExpenseDisputed:           true,
	StateDisputeResolvedContractor: true,
	StateDisputeResolvedHomeowner:  true,
	StateDisputeCanceled:           true,
}

// IsTerminal returns true if no further transitions leave the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state belongs to a known lifecycle
func (s State) IsValid() bool {
	return validStates[s]
}
