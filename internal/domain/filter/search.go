package filter

import (
	"strings"

	"github.com/garyjia/escrow-portal/internal/domain/bucket"
	"github.com/garyjia/escrow-portal/internal/domain/entity"
)

// searchFields lists the display fields matched per kind. Each entry is a path
// into the record; nested objects are walked.
var searchFields = map[entity.Kind][][]string{
	entity.KindInvoice: {
		{"project_title"}, {"agreement_title"}, {"title"},
		{"homeowner_name"}, {"contractor_name"}, {"customer_name"},
		{"invoice_number"}, {"invoice_id"},
		{"agreement", "title"}, {"agreement", "project_title"},
		{"project", "title"}, {"homeowner", "name"},
	},
	entity.KindMilestone: {
		{"title"}, {"name"}, {"project_title"}, {"agreement_title"},
		{"homeowner_name"}, {"contractor_name"},
		{"agreement", "title"}, {"project", "title"}, {"homeowner", "name"},
	},
	entity.KindExpense: {
		{"description"}, {"title"}, {"agreement_title"}, {"project_title"},
		{"homeowner_name"}, {"agreement", "title"},
	},
	entity.KindDispute: {
		{"reason"}, {"title"}, {"agreement_title"}, {"milestone_title"},
		{"homeowner_name"}, {"contractor_name"}, {"agreement", "title"},
	},
}

// identifierFields are matched by substring of their stringified value
var identifierFields = []string{"id", "agreement_id", "project_id"}

// Search keeps the items whose display fields contain query, ignoring case.
// A blank query returns the input unchanged.
func Search(kind entity.Kind, items []bucket.Item, query string) []bucket.Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]bucket.Item, 0, len(items))
	for _, it := range items {
		if Matches(kind, it.Record, q) {
			out = append(out, it)
		}
	}
	return out
}

// Matches reports whether rec matches an already lower-cased, trimmed query
func Matches(kind entity.Kind, rec entity.Record, q string) bool {
	for _, path := range searchFields[kind] {
		if v := rec.Path(path...); v != "" && strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	for _, field := range identifierFields {
		if id := rec.String(field); id != "" && strings.Contains(strings.ToLower(id), q) {
			return true
		}
	}
	return false
}
