// Package money provides exact fixed-scale amounts for ledger arithmetic.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrScaleMismatch is returned when two amounts of different scale are
// combined without explicit conversion.
var ErrScaleMismatch = errors.New("money: scale mismatch")

// Money is an exact amount with a fixed number of minor-unit digits.
// The zero value is 0 at scale 0.
type Money struct {
	amount decimal.Decimal
	scale  int32
}

// New creates a Money from integer minor units, e.g. New(12345, 2) == 123.45.
func New(units int64, scale int32) Money {
	return Money{amount: decimal.New(units, -scale), scale: scale}
}

// Zero returns a zero amount at the given scale.
func Zero(scale int32) Money {
	return Money{amount: decimal.Zero, scale: scale}
}

// FromDecimal creates a Money from a decimal value. Fails if the value
// carries more precision than the scale can represent.
func FromDecimal(d decimal.Decimal, scale int32) (Money, error) {
	shifted := d.Shift(scale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return Money{}, fmt.Errorf("money: %s has more than %d decimal places", d, scale)
	}
	return Money{amount: d, scale: scale}, nil
}

// FromString parses an amount like "123.45" at the given scale.
func FromString(s string, scale int32) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: parsing %q: %w", s, err)
	}
	return FromDecimal(d, scale)
}

// MustParse is FromString that panics on error. For constants and tests.
func MustParse(s string, scale int32) Money {
	m, err := FromString(s, scale)
	if err != nil {
		panic(err)
	}
	return m
}

// Units returns the amount in integer minor units.
func (m Money) Units() int64 {
	return m.amount.Shift(m.scale).IntPart()
}

// Scale returns the number of minor-unit digits.
func (m Money) Scale() int32 {
	return m.scale
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Add returns m + o. Fails with ErrScaleMismatch on differing scales.
func (m Money) Add(o Money) (Money, error) {
	if m.scale != o.scale {
		return Money{}, fmt.Errorf("%w: %d vs %d", ErrScaleMismatch, m.scale, o.scale)
	}
	return Money{amount: m.amount.Add(o.amount), scale: m.scale}, nil
}

// Sub returns m - o. Fails with ErrScaleMismatch on differing scales.
func (m Money) Sub(o Money) (Money, error) {
	if m.scale != o.scale {
		return Money{}, fmt.Errorf("%w: %d vs %d", ErrScaleMismatch, m.scale, o.scale)
	}
	return Money{amount: m.amount.Sub(o.amount), scale: m.scale}, nil
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), scale: m.scale}
}

// Abs returns the absolute value of m.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs(), scale: m.scale}
}

// MulRate multiplies by an arbitrary-precision rate and rounds half-up
// back to m's scale, so the result stays representable.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(rate).Round(m.scale), scale: m.scale}
}

// Cmp compares m and o: -1 if m < o, 0 if equal, +1 if m > o.
// Fails with ErrScaleMismatch on differing scales.
func (m Money) Cmp(o Money) (int, error) {
	if m.scale != o.scale {
		return 0, fmt.Errorf("%w: %d vs %d", ErrScaleMismatch, m.scale, o.scale)
	}
	return m.amount.Cmp(o.amount), nil
}

// Equal reports whether m and o have the same scale and value.
func (m Money) Equal(o Money) bool {
	return m.scale == o.scale && m.amount.Equal(o.amount)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Sign returns -1, 0, or +1.
func (m Money) Sign() int {
	return m.amount.Sign()
}

// String renders the amount with exactly scale decimal places.
func (m Money) String() string {
	return m.amount.StringFixed(m.scale)
}

// Allocate splits m into n parts whose sum is exactly m. The remainder is
// distributed one minor unit at a time to the leading parts, so the split
// is deterministic and drift-free.
func (m Money) Allocate(n int) ([]Money, error) {
	if n <= 0 {
		return nil, fmt.Errorf("money: cannot allocate into %d parts", n)
	}
	units := m.Units()
	base := units / int64(n)
	rem := units - base*int64(n)

	step := int64(1)
	if rem < 0 {
		step = -1
		rem = -rem
	}

	parts := make([]Money, n)
	for i := range parts {
		u := base
		if int64(i) < rem {
			u += step
		}
		parts[i] = New(u, m.scale)
	}
	return parts, nil
}

// AllocateRatios splits m proportionally to the given ratios, distributing
// the leftover minor units by largest remainder (ties go to the earlier
// part). The parts always sum exactly to m.
func (m Money) AllocateRatios(ratios []int64) ([]Money, error) {
	if len(ratios) == 0 {
		return nil, errors.New("money: no ratios given")
	}
	var total int64
	for _, r := range ratios {
		if r < 0 {
			return nil, fmt.Errorf("money: negative ratio %d", r)
		}
		total += r
	}
	if total == 0 {
		return nil, errors.New("money: ratios sum to zero")
	}

	units := decimal.NewFromInt(m.Units())
	totalDec := decimal.NewFromInt(total)

	parts := make([]Money, len(ratios))
	remainders := make([]decimal.Decimal, len(ratios))
	var assigned int64
	for i, r := range ratios {
		num := units.Mul(decimal.NewFromInt(r))
		quo, rem := num.QuoRem(totalDec, 0)
		parts[i] = New(quo.IntPart(), m.scale)
		remainders[i] = rem.Abs()
		assigned += quo.IntPart()
	}

	leftover := m.Units() - assigned
	step := int64(1)
	if leftover < 0 {
		step = -1
		leftover = -leftover
	}
	for ; leftover > 0; leftover-- {
		best := -1
		for i, rem := range remainders {
			if best == -1 || rem.GreaterThan(remainders[best]) {
				best = i
			}
		}
		parts[best] = New(parts[best].Units()+step, m.scale)
		remainders[best] = decimal.Zero
	}
	return parts, nil
}
