package domain

import (
	"math"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Amount
		wantErr error
	}{
		{name: "integer", input: "1", want: 10_000},
		{name: "one fractional digit", input: "1.0", want: 10_000},
		{name: "four fractional digits", input: "0.0001", want: 1},
		{name: "trailing zeros beyond precision", input: "2.50000", want: 25_000},
		{name: "surrounding whitespace", input: "  3.1415 ", want: 31_415},
		{name: "negative", input: "-0.5", want: -5_000},
		{name: "too precise", input: "0.00001", wantErr: ErrAmountPrecision},
		{name: "out of range", input: "922337203685478", wantErr: ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount_Garbage(t *testing.T) {
	for _, input := range []string{"", "1.2.3", "abc", "1e5", "1E5", "1e2000000", "-", "+-1", ".5", "1.", "0x10", "1_000", "Inf", "NaN"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseAmount(input)
			assert.ErrorIs(t, err, ErrAmountSyntax)
		})
	}

	a, err := ParseAmount("+2.5")
	require.NoError(t, err)
	assert.Equal(t, Amount(25_000), a)
}

func TestParseAmount_ErrorQuotesTruncatedInput(t *testing.T) {
	long := "1" + strings.Repeat("0", 100_000)

	_, err := ParseAmount(long)
	require.ErrorIs(t, err, ErrOverflow)
	assert.Less(t, len(err.Error()), 128)
	assert.Contains(t, err.Error(), `"1000`)

	_, err = ParseAmount("1e2000000")
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 128)
	assert.Contains(t, err.Error(), `"1e2000000"`)
}

func TestParseAmount_NoFloatDrift(t *testing.T) {
	a := MustParseAmount("0.1")
	b := MustParseAmount("0.2")

	sum, err := a.CheckedAdd(b)
	require.NoError(t, err)
	assert.Equal(t, MustParseAmount("0.3"), sum)
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "1.0000", MustParseAmount("1").String())
	assert.Equal(t, "-0.0500", MustParseAmount("-0.05").String())
	assert.Equal(t, "0.0000", ZeroAmount.String())
	assert.True(t, decimal.RequireFromString("12.3456").Equal(MustParseAmount("12.3456").Decimal()))
}

func TestAmount_Checked(t *testing.T) {
	one := MustParseAmount("1")

	_, err := Amount(math.MaxInt64).CheckedAdd(one)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Amount(math.MinInt64).CheckedSub(one)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Amount(math.MinInt64).CheckedAdd(-one)
	assert.ErrorIs(t, err, ErrOverflow)

	diff, err := one.CheckedSub(MustParseAmount("1.5"))
	require.NoError(t, err)
	assert.Equal(t, MustParseAmount("-0.5"), diff)
}

func TestAmount_Saturating(t *testing.T) {
	one := MustParseAmount("1")

	assert.Equal(t, Amount(math.MaxInt64), Amount(math.MaxInt64).SaturatingAdd(one))
	assert.Equal(t, Amount(math.MinInt64), Amount(math.MinInt64).SaturatingSub(one))
	assert.Equal(t, Amount(math.MaxInt64), Amount(math.MaxInt64).SaturatingSub(-one))
	assert.Equal(t, Amount(math.MinInt64), Amount(math.MinInt64).SaturatingAdd(-one))
	assert.Equal(t, MustParseAmount("-1"), ZeroAmount.SaturatingSub(one))
}

func TestAmount_Sign(t *testing.T) {
	assert.Equal(t, -1, MustParseAmount("-0.0001").Sign())
	assert.Equal(t, 0, ZeroAmount.Sign())
	assert.Equal(t, 1, MustParseAmount("0.0001").Sign())
}

func TestAmount_TextRoundTrip(t *testing.T) {
	var a Amount
	require.NoError(t, a.UnmarshalText([]byte("42.42")))

	text, err := a.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "42.4200", string(text))
}

func TestPositiveAmount(t *testing.T) {
	_, err := NewPositiveAmount(ZeroAmount)
	assert.ErrorIs(t, err, ErrNonPositiveAmount)

	_, err = NewPositiveAmount(MustParseAmount("-1"))
	assert.ErrorIs(t, err, ErrNonPositiveAmount)
	assert.Contains(t, err.Error(), "-1.0000")

	p, err := NewPositiveAmount(MustParseAmount("0.0001"))
	require.NoError(t, err)
	assert.True(t, p.IsSet())
	assert.False(t, PositiveAmount{}.IsSet())
}

func TestNonNegativeAmount(t *testing.T) {
	_, err := NewNonNegativeAmount(MustParseAmount("-0.0001"))
	assert.ErrorIs(t, err, ErrNegativeAmount)

	zero, err := NewNonNegativeAmount(ZeroAmount)
	require.NoError(t, err)
	assert.Equal(t, NonNegativeAmount{}, zero)

	sum, err := zero.Add(MustPositiveAmount("1.25"))
	require.NoError(t, err)
	assert.Equal(t, MustParseAmount("1.25"), sum.Amount())

	full, err := NewNonNegativeAmount(math.MaxInt64)
	require.NoError(t, err)
	unchanged, err := full.Add(MustPositiveAmount("0.0001"))
	assert.True(t, errors.Is(err, ErrOverflow))
	assert.Equal(t, full, unchanged)
}
