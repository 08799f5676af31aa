// Package filter holds the archive and search filters applied around the
// reconciliation pipeline.
package filter

import "github.com/garyjia/escrow-portal/internal/domain/entity"

var (
	ownArchiveFlags       = []string{"is_archived", "archived"}
	agreementArchiveFlags = []string{"agreement_is_archived", "agreement_archived"}
	projectArchiveFlags   = []string{"project_is_archived", "project_archived"}
)

// IsArchived reports whether a record belongs to archived work. The record's
// own flag is consulted first, then its parent agreement, then its parent
// project. A missing field means "not archived" at that level.
func IsArchived(rec entity.Record) bool {
	if rec == nil {
		return false
	}
	if rec.AnyBool(ownArchiveFlags...) {
		return true
	}
	if parentArchived(rec, "agreement", agreementArchiveFlags) {
		return true
	}
	return parentArchived(rec, "project", projectArchiveFlags)
}

func parentArchived(rec entity.Record, parent string, flatFlags []string) bool {
	if nested := rec.Nested(parent); nested != nil && nested.AnyBool(ownArchiveFlags...) {
		return true
	}
	return rec.AnyBool(flatFlags...)
}

// FilterArchived drops archived records unless includeArchived is set.
// It runs before normalization so archived work never reaches a bucket.
func FilterArchived(records []entity.Record, includeArchived bool) []entity.Record {
	if includeArchived {
		out := make([]entity.Record, len(records))
		copy(out, records)
		return out
	}
	out := make([]entity.Record, 0, len(records))
	for _, rec := range records {
		if !IsArchived(rec) {
			out = append(out, rec)
		}
	}
	return out
}
