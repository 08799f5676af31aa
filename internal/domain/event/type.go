package event

// Type identifies the type of domain event
type Type string

const (
	TypeSnapshotReconciled     Type = "snapshot.reconciled"
	TypeReportRecorded         Type = "report.recorded"
	TypeReferenceInvalidated   Type = "reference.invalidated"
	TypeReferenceRefreshFailed Type = "reference.refresh_failed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeSnapshotReconciled,
		TypeReportRecorded,
		TypeReferenceInvalidated,
		TypeReferenceRefreshFailed:
		return true
	default:
		return false
	}
}
