package entity

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is a loosely typed backend record as decoded from JSON.
// Field names and value types vary across backend versions, so every accessor
// tolerates missing keys and unexpected types.
type Record map[string]interface{}

// Kind identifies which entity family a record belongs to
type Kind string

const (
	KindMilestone Kind = "milestone"
	KindInvoice   Kind = "invoice"
	KindExpense   Kind = "expense"
	KindDispute   Kind = "dispute"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is one of the known entity families
func (k Kind) IsValid() bool {
	switch k {
	case KindMilestone, KindInvoice, KindExpense, KindDispute:
		return true
	default:
		return false
	}
}

// Value returns the raw value stored under key. A nil value counts as absent.
func (r Record) Value(key string) (interface{}, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Has reports whether key holds a non-nil value
func (r Record) Has(key string) bool {
	_, ok := r.Value(key)
	return ok
}

// String retrieves a value as text. Numbers are formatted without trailing zeros.
func (r Record) String(key string) string {
	v, ok := r.Value(key)
	if !ok {
		return ""
	}
	return Stringify(v)
}

// FirstString returns the first non-blank string among keys
func (r Record) FirstString(keys ...string) string {
	for _, key := range keys {
		if s := strings.TrimSpace(r.String(key)); s != "" {
			return s
		}
	}
	return ""
}

// Bool retrieves a flag value using lenient truthiness
func (r Record) Bool(key string) bool {
	v, ok := r.Value(key)
	if !ok {
		return false
	}
	return Truthy(v)
}

// AnyBool returns true if any of the keys holds a truthy flag
func (r Record) AnyBool(keys ...string) bool {
	for _, key := range keys {
		if r.Bool(key) {
			return true
		}
	}
	return false
}

// Nested returns the child object stored under key, or nil when the value is
// absent or is a bare identifier rather than an object.
func (r Record) Nested(key string) Record {
	v, ok := r.Value(key)
	if !ok {
		return nil
	}
	switch child := v.(type) {
	case Record:
		return child
	case map[string]interface{}:
		return Record(child)
	default:
		return nil
	}
}

// Path walks nested objects and returns the leaf value as text
func (r Record) Path(keys ...string) string {
	if len(keys) == 0 {
		return ""
	}
	cur := r
	for _, key := range keys[:len(keys)-1] {
		cur = cur.Nested(key)
		if cur == nil {
			return ""
		}
	}
	return cur.String(keys[len(keys)-1])
}

// Len returns the length of an array value, or 0 when it is not an array
func (r Record) Len(key string) int {
	v, ok := r.Value(key)
	if !ok {
		return 0
	}
	switch arr := v.(type) {
	case []interface{}:
		return len(arr)
	case []Record:
		return len(arr)
	case []map[string]interface{}:
		return len(arr)
	case []string:
		return len(arr)
	default:
		return 0
	}
}

// Stringify renders a scalar JSON value as text
func Stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Truthy interprets a flag value. Booleans are taken as is, numbers are true
// when non-zero, and strings are true for true/1/yes/y/t in any case.
func Truthy(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes", "y", "t":
			return true
		}
		return false
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	case float64:
		return val != 0
	case float32:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case int32:
		return val != 0
	case uint:
		return val != 0
	case uint64:
		return val != 0
	case uint32:
		return val != 0
	default:
		return false
	}
}

// NormalizeToken lower-cases a raw status string and folds separators so that
// "Pending Approval", "pending-approval" and "PENDING_APPROVAL" compare equal.
func NormalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return s
}
