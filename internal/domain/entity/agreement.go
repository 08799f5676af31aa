package entity

import "strings"

// AgreementState is the slice of an agreement the lifecycle guard reasons about.
// A nil *AgreementState means the agreement could not be loaded.
type AgreementState struct {
	ID                 string `json:"id,omitempty"`
	SignedByContractor bool   `json:"signed_by_contractor"`
	SignedByHomeowner  bool   `json:"signed_by_homeowner"`
	IsFullySigned      bool   `json:"is_fully_signed"`
	EscrowFunded       bool   `json:"escrow_funded"`
	Status             string `json:"status"`
}

// Agreement status values that permit milestone work
const (
	AgreementStatusFunded = "funded"
	AgreementStatusSigned = "signed"
	AgreementStatusActive = "active"
)

// AgreementStateFromRecord reads agreement detail fields, accepting the
// spellings older backend revisions used.
func AgreementStateFromRecord(rec Record) *AgreementState {
	if rec == nil {
		return nil
	}
	state := &AgreementState{
		ID:                 rec.FirstString("id", "agreement_id"),
		SignedByContractor: rec.AnyBool("signed_by_contractor", "contractor_signed", "is_signed_by_contractor"),
		SignedByHomeowner:  rec.AnyBool("signed_by_homeowner", "homeowner_signed", "is_signed_by_homeowner"),
		EscrowFunded:       rec.AnyBool("escrow_funded", "is_escrow_funded", "funded"),
		Status:             NormalizeToken(rec.FirstString("status", "agreement_status")),
	}
	state.IsFullySigned = rec.AnyBool("is_fully_signed", "fully_signed") ||
		(state.SignedByContractor && state.SignedByHomeowner)
	return state
}

// HasStatus reports whether the agreement's normalized status is one of statuses
func (a *AgreementState) HasStatus(statuses ...string) bool {
	if a == nil {
		return false
	}
	current := strings.TrimSpace(a.Status)
	if current == "" {
		return false
	}
	for _, s := range statuses {
		if current == s {
			return true
		}
	}
	return false
}
