// Package status derives one canonical status per record.
//
// Each entity kind has an ordered rule table. A rule recognizes its canonical
// status from any of the raw spellings backends have used for it, or from the
// boolean flags that mean the same thing. Rules are evaluated top to bottom and
// the first match wins, so the table order is the precedence order. When nothing
// matches the kind's default status applies; Normalize never fails.
package status

import (
	"time"

	"github.com/garyjia/escrow-portal/internal/domain/entity"
)

// StatusFields are the record fields that may carry the raw status string
var StatusFields = []string{"status", "state", "milestone_status", "invoice_status"}

// Normalizer maps raw records to canonical statuses
type Normalizer struct {
	now func() time.Time
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithClock overrides the time source used for date-dependent statuses
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// NewNormalizer creates a Normalizer evaluating overdue against the wall clock
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// view is a record together with the values every rule needs
type view struct {
	rec    entity.Record
	status string
	now    time.Time
}

func (n *Normalizer) view(rec entity.Record) view {
	now := time.Now()
	if n != nil && n.now != nil {
		now = n.now()
	}
	return view{
		rec:    rec,
		status: entity.NormalizeToken(rec.FirstString(StatusFields...)),
		now:    now,
	}
}

// rule recognizes one canonical status
type rule struct {
	status string
	match  func(v view) bool
}

// evaluate runs a rule table against a record
func (n *Normalizer) evaluate(rules []rule, fallback string, rec entity.Record) string {
	v := n.view(rec)
	for _, r := range rules {
		if r.match(v) {
			return r.status
		}
	}
	return fallback
}

// Normalize returns the canonical status of rec for the given kind.
// An unknown kind yields the empty string.
func (n *Normalizer) Normalize(kind entity.Kind, rec entity.Record) string {
	switch kind {
	case entity.KindMilestone:
		return n.Milestone(rec)
	case entity.KindInvoice:
		return n.Invoice(rec)
	case entity.KindExpense:
		return n.Expense(rec)
	case entity.KindDispute:
		return n.Dispute(rec)
	default:
		return ""
	}
}

// Milestone returns the canonical milestone status
func (n *Normalizer) Milestone(rec entity.Record) string {
	return n.evaluate(milestoneRules, entity.MilestoneIncomplete, rec)
}

// Invoice returns the canonical invoice status
func (n *Normalizer) Invoice(rec entity.Record) string {
	return n.evaluate(invoiceRules, entity.InvoiceSubmitted, rec)
}

// Expense returns the canonical expense status
func (n *Normalizer) Expense(rec entity.Record) string {
	return n.evaluate(expenseRules, entity.ExpenseDraft, rec)
}

// Dispute returns the canonical dispute status
func (n *Normalizer) Dispute(rec entity.Record) string {
	return n.evaluate(disputeRules, entity.DisputeInitiated, rec)
}

// statusIn matches any of the raw spellings
func statusIn(spellings ...string) func(v view) bool {
	set := make(map[string]struct{}, len(spellings))
	for _, s := range spellings {
		set[s] = struct{}{}
	}
	return func(v view) bool {
		_, ok := set[v.status]
		return ok
	}
}

// flag matches any truthy flag field
func flag(fields ...string) func(v view) bool {
	return func(v view) bool {
		return v.rec.AnyBool(fields...)
	}
}

// present matches any non-blank field
func present(fields ...string) func(v view) bool {
	return func(v view) bool {
		return v.rec.FirstString(fields...) != ""
	}
}

// anyOf ORs predicates
func anyOf(preds ...func(v view) bool) func(v view) bool {
	return func(v view) bool {
		for _, p := range preds {
			if p(v) {
				return true
			}
		}
		return false
	}
}
