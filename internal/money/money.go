// Package money implements the process-wide decimal arithmetic convention:
// a fixed scale of 2 fractional digits for stored amounts, banker's rounding
// (round half to even) on every scale reduction, and a scale-3 working
// precision used only inside share division before the result is rounded
// back to 2.
package money

import "github.com/shopspring/decimal"

// Scale is the number of fractional digits every stored Money value carries.
const Scale = 2

// workingScale is the intermediate precision used for commonFraction division.
const workingScale = 3

// Money is an exact fixed-point decimal at Scale fractional digits.
// The zero value is 0.00 and is safe to use.
type Money struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{d: decimal.Zero}

// New builds a Money from a decimal string such as "12.50". Returns an error
// if s is not a valid decimal literal.
func New(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{d: d.RoundBank(Scale)}, nil
}

// MustNew panics on an invalid literal; intended for tests and constants.
func MustNew(s string) Money {
	m, err := New(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromCents builds a Money from an integer number of cents, e.g. FromCents(1050) == 10.50.
func FromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -Scale)}
}

// FromFloat rounds f to Scale digits using banker's rounding. Present only
// for bridging external input (e.g. parsed literals already validated as
// decimal strings); callers should prefer New wherever the source is text.
func FromFloat(f float64) Money {
	return Money{d: decimal.NewFromFloat(f).RoundBank(Scale)}
}

// Add returns m + other, at Scale digits.
func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d).RoundBank(Scale)}
}

// Sub returns m - other, at Scale digits.
func (m Money) Sub(other Money) Money {
	return Money{d: m.d.Sub(other.d).RoundBank(Scale)}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// MulInt returns m * n, at Scale digits.
func (m Money) MulInt(n int64) Money {
	return Money{d: m.d.Mul(decimal.New(n, 0)).RoundBank(Scale)}
}

// Mul returns m * other, at Scale digits. Share computation does not use it:
// commonFraction is a Fraction and is applied with Fraction.MulMoney.
func (m Money) Mul(other Money) Money {
	return Money{d: m.d.Mul(other.d).RoundBank(Scale)}
}

// IsZero reports whether m is numerically 0, regardless of representation.
func (m Money) IsZero() bool {
	return m.d.Sign() == 0
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.d.Sign() < 0
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m.d.Sign() > 0
}

// Cmp compares m to other: -1, 0, or 1.
func (m Money) Cmp(other Money) int {
	return m.d.Cmp(other.d)
}

// Equal reports numeric equality, not representation equality.
func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

// Abs returns the absolute value of m.
func (m Money) Abs() Money {
	return Money{d: m.d.Abs()}
}

// Cents returns the normalized integer magnitude used by the settlement
// optimizer: abs(m) * 100. Safe because Money is always held at scale 2.
func (m Money) Cents() int64 {
	return m.d.Abs().Shift(Scale).RoundBank(0).IntPart()
}

// String renders m at exactly Scale fractional digits, e.g. "10.00".
func (m Money) String() string {
	return m.d.StringFixed(Scale)
}

// Fraction is a scale-3 intermediate value — exactly commonFraction from
// spec §4.2 step 3. It is a distinct type from Money (which is always held
// at Scale=2) so that the extra digit of precision survives the
// commonFraction-times-starMod multiplication and is only discarded, via
// banker's rounding, when the final per-participant share is computed.
type Fraction struct {
	d decimal.Decimal
}

// DivideAtScale3 computes numerator / denominator at workingScale precision
// using banker's rounding — commonFraction from spec §4.2 step 3.
func DivideAtScale3(numerator, denominator Money) Fraction {
	return Fraction{d: numerator.d.DivRound(denominator.d, workingScale+2).RoundBank(workingScale)}
}

// MulMoney returns f * m, rounded to Scale with banker's rounding — the
// "commonFraction × starMod" term of spec §4.2 step 4.
func (f Fraction) MulMoney(m Money) Money {
	return Money{d: f.d.Mul(m.d).RoundBank(Scale)}
}

// IsZero reports whether the fraction is numerically 0.
func (f Fraction) IsZero() bool {
	return f.d.Sign() == 0
}

// String renders f at workingScale fractional digits, e.g. "8.333".
func (f Fraction) String() string {
	return f.d.StringFixed(workingScale)
}

// MarshalText implements encoding.TextMarshaler so Money serializes as a
// plain decimal string in JSON, not a nested object.
func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.d.StringFixed(Scale)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Money) UnmarshalText(text []byte) error {
	d, err := decimal.NewFromString(string(text))
	if err != nil {
		return err
	}
	m.d = d.RoundBank(Scale)
	return nil
}
