// Package money parses heterogeneous amount fields into exact two-digit values.
//
// Backend records carry their worth under different field names and as numbers
// or strings depending on the revision that produced them. Parse is total: any
// input it cannot read as a finite amount becomes zero.
package money

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/escrow-portal/internal/domain/entity"
)

// AmountFields lists the record fields that may carry a record's worth, in the
// order they are consulted.
var AmountFields = []string{
	"amount",
	"total",
	"amount_due",
	"price",
	"total_amount",
	"balance",
	"invoice_amount",
	"milestone_amount",
}

// Money is an exact amount held in cents
type Money struct {
	Cents int64
}

// Zero is the zero amount
var Zero = Money{}

// maxCents bounds a single parsed amount. Sums past int64 saturate in Add.
const maxCents = math.MaxInt64 / 1024

var (
	hundred     = decimal.NewFromInt(100)
	maxDecimal  = decimal.NewFromInt(maxCents)
	minDecimal  = decimal.NewFromInt(-maxCents)
	stripPrefix = strings.NewReplacer("$", "", ",", "", " ", "")
)

// FromCents builds a Money value from a cent count
func FromCents(cents int64) Money {
	return Money{Cents: cents}
}

// Parse reads a number, numeric string or nil into an amount rounded to two
// fractional digits (half away from zero). Unreadable or non-finite input is 0.
func Parse(raw interface{}) Money {
	d, ok := toDecimal(raw)
	if !ok {
		return Zero
	}
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(maxDecimal) || cents.LessThan(minDecimal) {
		return Zero
	}
	return Money{Cents: cents.IntPart()}
}

// Of returns the worth of a record from the first populated amount field
func Of(rec entity.Record) Money {
	for _, field := range AmountFields {
		v, ok := rec.Value(field)
		if !ok {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return Parse(v)
	}
	return Zero
}

func toDecimal(raw interface{}) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, false
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case int32:
		return decimal.NewFromInt32(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(int64(v)), true
	case uint64:
		if v > math.MaxInt64 {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(int64(v)), true
	case uint32:
		return decimal.NewFromInt(int64(v)), true
	case json.Number:
		return parseString(v.String())
	case string:
		return parseString(v)
	case Money:
		return v.Decimal(), true
	default:
		return decimal.Zero, false
	}
}

func parseString(s string) (decimal.Decimal, bool) {
	s = stripPrefix.Replace(strings.TrimSpace(s))
	negative := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		negative = s[0] == '-'
		s = s[1:]
	}
	// one sign only
	if s == "" || s[0] == '-' || s[0] == '+' {
		return decimal.Zero, false
	}
	// decimal accepts exponents, which a 400-digit exponent turns into a
	// pathological allocation; amounts never need more than a handful.
	if i := strings.IndexAny(s, "eE"); i >= 0 && len(s)-i > 4 {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// Add returns m + other, saturating at the int64 limits
func (m Money) Add(other Money) Money {
	sum := m.Cents + other.Cents
	switch {
	case m.Cents > 0 && other.Cents > 0 && sum < 0:
		sum = math.MaxInt64
	case m.Cents < 0 && other.Cents < 0 && sum >= 0:
		sum = math.MinInt64
	}
	return Money{Cents: sum}
}

// Sum adds amounts together
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Decimal returns the amount as an exact decimal
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount as float64 for display purposes only
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with exactly two fractional digits
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a two-digit decimal string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a number or a numeric string
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw interface{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*m = Parse(raw)
	return nil
}
