package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// AmountPrecision number of fractional digits kept by Amount.
const AmountPrecision = 4

var (
	// ErrOverflow is returned when amount arithmetic leaves the representable range.
	ErrOverflow = errors.New("amount overflow")
	// ErrAmountSyntax is returned for anything but plain [+-]digits[.digits] notation.
	ErrAmountSyntax = errors.New("invalid amount syntax")
	// ErrAmountPrecision is returned when a value has more fractional digits than Amount keeps.
	ErrAmountPrecision = errors.New("amount precision exceeded")
	// ErrNegativeAmount is returned when a NonNegativeAmount is built from a negative value.
	ErrNegativeAmount = errors.New("expected non-negative amount")
	// ErrNonPositiveAmount is returned when a PositiveAmount is built from a value <= 0.
	ErrNonPositiveAmount = errors.New("expected positive amount")
)

var (
	maxAmount = decimal.New(math.MaxInt64, -AmountPrecision)
	minAmount = decimal.New(math.MinInt64, -AmountPrecision)
)

// Amount is a signed fixed-point number with AmountPrecision fractional digits.
// The zero value is 0.0000.
type Amount int64

// ZeroAmount is 0.0000.
const ZeroAmount Amount = 0

// maxQuotedInput bounds how much of a rejected input is echoed in errors.
const maxQuotedInput = 32

// ParseAmount parses a base-10 string of the form [+-]digits[.digits] exactly.
// Exponent notation is rejected. Binary floating point is never involved.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if !isPlainDecimal(s) {
		return 0, errors.Wrapf(ErrAmountSyntax, "got %s", quote(s))
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid amount %s", quote(s))
	}
	if !d.Equal(d.Truncate(AmountPrecision)) {
		return 0, errors.Wrapf(ErrAmountPrecision, "%s has more than %d fractional digits", quote(s), AmountPrecision)
	}
	if d.GreaterThan(maxAmount) || d.LessThan(minAmount) {
		return 0, errors.Wrapf(ErrOverflow, "%s is out of range", quote(s))
	}

	return Amount(d.Shift(AmountPrecision).IntPart()), nil
}

func isPlainDecimal(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" || (hasDot && frac == "") {
		return false
	}

	return isDigits(whole) && isDigits(frac)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

func quote(s string) string {
	if len(s) > maxQuotedInput {
		return strconv.Quote(s[:maxQuotedInput]) + "..."
	}

	return strconv.Quote(s)
}

// MustParseAmount is like ParseAmount but panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}

	return a
}

// Decimal returns the exact decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -AmountPrecision)
}

// String renders the amount with exactly AmountPrecision fractional digits.
func (a Amount) String() string {
	return a.Decimal().StringFixed(AmountPrecision)
}

// Sign returns -1, 0 or 1.
func (a Amount) Sign() int {
	switch {
	case a < 0:
		return -1
	case a > 0:
		return 1
	default:
		return 0
	}
}

// CheckedAdd returns a+b or ErrOverflow.
func (a Amount) CheckedAdd(b Amount) (Amount, error) {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return 0, errors.Wrapf(ErrOverflow, "%s + %s", a, b)
	}

	return r, nil
}

// CheckedSub returns a-b or ErrOverflow.
func (a Amount) CheckedSub(b Amount) (Amount, error) {
	r := a - b
	if (b > 0 && r > a) || (b < 0 && r < a) {
		return 0, errors.Wrapf(ErrOverflow, "%s - %s", a, b)
	}

	return r, nil
}

// SaturatingAdd returns a+b clamped to the representable range.
func (a Amount) SaturatingAdd(b Amount) Amount {
	r, err := a.CheckedAdd(b)
	if err == nil {
		return r
	}
	if b > 0 {
		return math.MaxInt64
	}

	return math.MinInt64
}

// SaturatingSub returns a-b clamped to the representable range.
func (a Amount) SaturatingSub(b Amount) Amount {
	r, err := a.CheckedSub(b)
	if err == nil {
		return r
	}
	if b > 0 {
		return math.MinInt64
	}

	return math.MaxInt64
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	v, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = v

	return nil
}

// PositiveAmount is an Amount strictly greater than zero.
// The zero value is not a valid PositiveAmount; use NewPositiveAmount.
type PositiveAmount struct {
	amount Amount
}

// NewPositiveAmount returns ErrNonPositiveAmount when a <= 0.
func NewPositiveAmount(a Amount) (PositiveAmount, error) {
	if a.Sign() <= 0 {
		return PositiveAmount{}, errors.Wrapf(ErrNonPositiveAmount, "got: %s", a)
	}

	return PositiveAmount{amount: a}, nil
}

// MustPositiveAmount parses s into a PositiveAmount and panics on error.
func MustPositiveAmount(s string) PositiveAmount {
	p, err := NewPositiveAmount(MustParseAmount(s))
	if err != nil {
		panic(err)
	}

	return p
}

// Amount returns the underlying value.
func (p PositiveAmount) Amount() Amount {
	return p.amount
}

// IsSet reports whether p was built by NewPositiveAmount.
func (p PositiveAmount) IsSet() bool {
	return p.amount > 0
}

func (p PositiveAmount) String() string {
	return p.amount.String()
}

// NonNegativeAmount is an Amount greater than or equal to zero. The zero value is 0.0000.
type NonNegativeAmount struct {
	amount Amount
}

// NewNonNegativeAmount returns ErrNegativeAmount when a < 0.
func NewNonNegativeAmount(a Amount) (NonNegativeAmount, error) {
	if a.Sign() < 0 {
		return NonNegativeAmount{}, errors.Wrapf(ErrNegativeAmount, "got: %s", a)
	}

	return NonNegativeAmount{amount: a}, nil
}

// Amount returns the underlying value.
func (n NonNegativeAmount) Amount() Amount {
	return n.amount
}

// Add adds a positive contribution. The result stays non-negative unless it overflows.
func (n NonNegativeAmount) Add(p PositiveAmount) (NonNegativeAmount, error) {
	sum, err := n.amount.CheckedAdd(p.amount)
	if err != nil {
		return n, err
	}

	return NonNegativeAmount{amount: sum}, nil
}

func (n NonNegativeAmount) String() string {
	return n.amount.String()
}
