package entity

import "time"

// ReportSnapshot is the persisted summary of one reconciliation run.
// It records counts and totals only; buckets are always recomputed for display.
type ReportSnapshot struct {
	ID               string         `json:"id"`
	GeneratedAt      time.Time      `json:"generated_at"`
	IncludeArchived  bool           `json:"include_archived"`
	TotalEarnedCents int64          `json:"total_earned_cents"`
	Buckets          []ReportBucket `json:"buckets"`
	CreatedAt        time.Time      `json:"created_at"`
}

// ReportBucket is one bucket row of a report snapshot
type ReportBucket struct {
	Kind       Kind   `json:"kind"`
	Bucket     string `json:"bucket"`
	Count      int    `json:"count"`
	TotalCents int64  `json:"total_cents"`
}

// Bucket returns the row for kind/bucket, or nil if the snapshot has none
func (s *ReportSnapshot) Bucket(kind Kind, bucket string) *ReportBucket {
	for i := range s.Buckets {
		if s.Buckets[i].Kind == kind && s.Buckets[i].Bucket == bucket {
			return &s.Buckets[i]
		}
	}
	return nil
}
