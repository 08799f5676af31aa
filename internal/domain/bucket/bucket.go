// Package bucket partitions normalized records into status buckets and
// aggregates them.
//
// Counts, totals and drill-down lists are all read from the same Set, so a
// displayed total always matches the records listed under it.
package bucket

import (
	"encoding/json"

	"github.com/garyjia/escrow-portal/internal/domain/entity"
	"github.com/garyjia/escrow-portal/internal/domain/money"
)

// Item is a record with its derived canonical status and worth
type Item struct {
	Record entity.Record `json:"record"`
	Status string        `json:"status"`
	Amount money.Money   `json:"amount"`
}

// Classifier returns the canonical status of a record
type Classifier func(rec entity.Record) string

// Normalize derives an Item for every record, preserving order
func Normalize(records []entity.Record, classify Classifier) []Item {
	items := make([]Item, 0, len(records))
	for _, rec := range records {
		items = append(items, Item{
			Record: rec,
			Status: classify(rec),
			Amount: money.Of(rec),
		})
	}
	return items
}

// Summary is the count and total of one bucket
type Summary struct {
	Count int         `json:"count"`
	Total money.Money `json:"total"`
}

// Aggregate counts a bucket and sums its amounts
func Aggregate(items []Item) Summary {
	total := money.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return Summary{Count: len(items), Total: total}
}

// Set holds the buckets of one entity kind in display order
type Set struct {
	kind    entity.Kind
	keys    []string
	buckets map[string][]Item
}

// Partition places every item in the bucket named by its status. Items whose
// status is not canonical for kind land in the kind's default bucket, so the
// partition stays exhaustive. Milestones also get the "all" bucket.
func Partition(kind entity.Kind, items []Item) *Set {
	keys := entity.Statuses(kind)
	if kind == entity.KindMilestone {
		keys = append(keys, entity.BucketAll)
	}

	s := &Set{
		kind:    kind,
		keys:    keys,
		buckets: make(map[string][]Item, len(keys)),
	}
	for _, key := range keys {
		s.buckets[key] = []Item{}
	}

	fallback := entity.DefaultStatus(kind)
	for _, it := range items {
		key := it.Status
		if !entity.IsCanonical(kind, key) {
			key = fallback
			it.Status = fallback
		}
		if _, ok := s.buckets[key]; !ok {
			continue
		}
		s.buckets[key] = append(s.buckets[key], it)
		if kind == entity.KindMilestone {
			s.buckets[entity.BucketAll] = append(s.buckets[entity.BucketAll], it)
		}
	}
	return s
}

// Kind returns the entity kind the set was built for
func (s *Set) Kind() entity.Kind {
	return s.kind
}

// Keys returns bucket names in display order
func (s *Set) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Bucket returns the members of one bucket. Unknown keys yield an empty slice.
func (s *Set) Bucket(key string) []Item {
	if s == nil {
		return []Item{}
	}
	if items, ok := s.buckets[key]; ok {
		return items
	}
	return []Item{}
}

// Summary aggregates one bucket
func (s *Set) Summary(key string) Summary {
	return Aggregate(s.Bucket(key))
}

// Summaries aggregates every bucket
func (s *Set) Summaries() map[string]Summary {
	out := make(map[string]Summary, len(s.keys))
	for _, key := range s.keys {
		out[key] = Aggregate(s.buckets[key])
	}
	return out
}

// Len returns the number of distinct records in the set
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, key := range entity.Statuses(s.kind) {
		n += len(s.buckets[key])
	}
	return n
}

// bucketJSON is the wire form of one bucket
type bucketJSON struct {
	Key   string      `json:"key"`
	Count int         `json:"count"`
	Total money.Money `json:"total"`
	Items []Item      `json:"items"`
}

// MarshalJSON renders buckets as an ordered list with their aggregates
func (s *Set) MarshalJSON() ([]byte, error) {
	out := make([]bucketJSON, 0, len(s.keys))
	for _, key := range s.keys {
		items := s.buckets[key]
		sum := Aggregate(items)
		out = append(out, bucketJSON{Key: key, Count: sum.Count, Total: sum.Total, Items: items})
	}
	return json.Marshal(out)
}
