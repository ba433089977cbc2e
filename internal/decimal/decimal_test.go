package decimal_test

import (
	"testing"

	"github.com/fd1az/marketfeed/internal/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "88000.50", want: "88000.50"},
		{name: "negative", input: "-1.5", want: "-1.5"},
		{name: "integer", input: "2000", want: "2000"},
		{name: "scientific negative exponent", input: "1.5e-8", want: "0.000000015"},
		{name: "scientific positive exponent", input: "2.0e3", want: "2000"},
		{name: "scientific upper case", input: "2.0E3", want: "2000"},
		{name: "leading plus", input: "+1.5", want: "1.5"},
		{name: "empty", input: "", wantErr: true},
		{name: "malformed exponent", input: "1.5e", wantErr: true},
		{name: "non digit", input: "1.5x", wantErr: true},
		{name: "bare dot", input: ".", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decimal.Parse(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"88000.50", "0", "-0.5", "123456789.000001", "2000"} {
		d, err := decimal.Parse(s)
		require.NoError(t, err)

		reparsed, err := decimal.Parse(d.String())
		require.NoError(t, err)
		assert.True(t, d.Equal(reparsed), "round trip mismatch for %q: got %q", s, d.String())
	}
}

func TestCmpTotalOrdering(t *testing.T) {
	a := decimal.MustParse("1.50")
	b := decimal.MustParse("1.5")
	c := decimal.MustParse("1.6")

	assert.True(t, a.Equal(b))
	assert.True(t, a.LessThan(c))
	assert.True(t, c.GreaterThan(b))
	assert.False(t, a.GreaterThan(b))
}

func TestAddSubMul(t *testing.T) {
	a := decimal.MustParse("1.5")
	b := decimal.MustParse("2.25")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "3.75", sum.String())

	diff, err := b.Sub(a)
	require.NoError(t, err)
	assert.Equal(t, "0.75", diff.String())

	product, err := a.Mul(b)
	require.NoError(t, err)
	assert.Equal(t, "3.375", product.String())
}

func TestMulOverflow(t *testing.T) {
	a, err := decimal.Parse(repeat("9", 40))
	require.NoError(t, err)
	b, err := decimal.Parse(repeat("9", 40))
	require.NoError(t, err)

	_, err = a.Mul(b)
	require.Error(t, err)
	var overflow *decimal.OverflowError
	assert.ErrorAs(t, err, &overflow)
}

func TestIsZero(t *testing.T) {
	assert.True(t, decimal.Zero.IsZero())
	assert.True(t, decimal.MustParse("0.00").IsZero())
	assert.False(t, decimal.MustParse("0.01").IsZero())
}

func TestStrippedDigits(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		targetScale int32
		want        string
	}{
		{name: "already at target scale, nothing to strip", input: "88000.5", targetScale: 1, want: "880005"},
		{name: "trailing zero stripped", input: "88000.50", targetScale: 2, want: "880005"},
		{name: "integer at zero scale", input: "100", targetScale: 0, want: "100"},
		{name: "negative value", input: "-1.50", targetScale: 2, want: "-15"},
		{name: "all zero", input: "0.00", targetScale: 2, want: "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := decimal.MustParse(tc.input)
			assert.Equal(t, tc.want, d.StrippedDigits(tc.targetScale))
		})
	}
}

func TestCanonicalKeyStableAcrossScale(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{name: "trailing zero", a: "88000.50", b: "88000.5"},
		{name: "integer vs zero scale decimal", a: "100", b: "100.0"},
		{name: "negative", a: "-1.50", b: "-1.5"},
		{name: "zero forms", a: "0", b: "0.00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := decimal.MustParse(tc.a)
			b := decimal.MustParse(tc.b)
			require.True(t, a.Equal(b))
			assert.Equal(t, a.CanonicalKey(), b.CanonicalKey())
		})
	}

	distinct := decimal.MustParse("88000.5")
	other := decimal.MustParse("88000.55")
	assert.NotEqual(t, distinct.CanonicalKey(), other.CanonicalKey())
}

func TestShopspringRoundTrip(t *testing.T) {
	d := decimal.MustParse("123.456")
	ss := d.ToShopspring()
	back, err := decimal.FromShopspring(ss)
	require.NoError(t, err)
	assert.True(t, d.Equal(back))
}

func repeat(s string, n int) string {
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
