// Package types provides common value types used across bazaar.
package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNegativeAmount is returned when an operation would produce a value
// below zero.
var ErrNegativeAmount = errors.New("amount: negative result")

// Amount is a non-negative integer quantity in the smallest unit of an
// asset. All arithmetic is exact; 18-decimal token amounts do not fit in
// an int64 so values are carried as integral decimals.
//
// The zero value is a valid zero amount.
//
//nolint:recvcheck // Value receivers for arithmetic, pointer receivers for decoding.
type Amount struct {
	d decimal.Decimal
}

// NewAmount returns the amount v.
func NewAmount(v uint64) Amount {
	return Amount{d: decimal.NewFromUint64(v)}
}

// ParseAmount parses a base-10 integer string. Fractions and negative
// values are rejected.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("amount: parse %q: %w", s, err)
	}
	if !d.IsInteger() {
		return Amount{}, fmt.Errorf("amount: parse %q: not an integer", s)
	}
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("amount: parse %q: %w", s, ErrNegativeAmount)
	}
	return Amount{d: d}, nil
}

// MustParseAmount is like ParseAmount but panics on error. Use for
// hardcoded values.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Pow10 returns 10^exp.
func Pow10(exp int32) Amount {
	return Amount{d: decimal.New(1, exp)}
}

// Zero returns the zero amount.
func Zero() Amount { return Amount{} }

// Arithmetic operations

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Sub returns a - b, or ErrNegativeAmount when b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.d.LessThan(b.d) {
		return Amount{}, fmt.Errorf("%w: %s - %s", ErrNegativeAmount, a, b)
	}
	return Amount{d: a.d.Sub(b.d)}, nil
}

// MulInt returns a * q.
func (a Amount) MulInt(q uint64) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromUint64(q))}
}

// Mul returns a * b.
func (a Amount) Mul(b Amount) Amount {
	return Amount{d: a.d.Mul(b.d)}
}

// MulDivFloor returns floor(a * num / den). It panics when den is zero.
func (a Amount) MulDivFloor(num, den uint64) Amount {
	return a.MulInt(num).DivFloor(NewAmount(den))
}

// DivFloor returns floor(a / b). It panics when b is zero.
func (a Amount) DivFloor(b Amount) Amount {
	if b.d.IsZero() {
		panic("amount: division by zero")
	}
	q, _ := a.d.QuoRem(b.d, 0)
	return Amount{d: q}
}

// Comparison methods

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

// GreaterThan reports whether a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.d.GreaterThan(b.d) }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.d.IsZero() }

// IsPositive reports whether the amount is greater than zero.
func (a Amount) IsPositive() bool { return a.d.IsPositive() }

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// Formatting and encoding

// String returns the base-10 integer representation.
func (a Amount) String() string { return a.d.String() }

// Format renders the amount in major units for an asset with the given
// number of decimal places, e.g. "1.5" for 1500000000000000000 at 18.
func (a Amount) Format(decimals uint8) string {
	return a.d.Shift(-int32(decimals)).String()
}

// MarshalJSON encodes the amount as a JSON string to keep precision.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.d.String())
}

// UnmarshalJSON accepts a JSON string or number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer. Amounts are stored as decimal text so
// that no backend truncates them.
func (a Amount) Value() (driver.Value, error) {
	return a.d.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case int64:
		if v < 0 {
			return ErrNegativeAmount
		}
		*a = NewAmount(uint64(v))
		return nil
	default:
		return fmt.Errorf("amount: cannot scan %T", src)
	}
}

// Sum adds all values.
func Sum(values ...Amount) Amount {
	var total Amount
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
