package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

// Expense triggers
const (
	TriggerSign    Trigger = "SIGN"
	TriggerSubmit  Trigger = "SUBMIT"
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
	TriggerPay     Trigger = "PAY"
	TriggerDispute Trigger = "DISPUTE"
)

// Dispute triggers
const (
	TriggerOpen              Trigger = "OPEN"
	TriggerReview            Trigger = "REVIEW"
	TriggerResolveContractor Trigger = "RESOLVE_CONTRACTOR"
	TriggerResolveHomeowner  Trigger = "RESOLVE_HOMEOWNER"
	TriggerCancel            Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
