// Package decimal implements an exact, base-10 fixed-scale number used for
// every price and quantity on the order-book hot path. It never uses
// float64 internally; all arithmetic is performed on a big.Int coefficient
// plus an explicit scale, modeled on the raw-unit pattern in this repo's
// asset.Amount (big.Int mantissa, scale carried alongside rather than baked
// into the type).
package decimal

import (
	"fmt"
	"math/big"
	"strings"
)

// maxDigits bounds the coefficient so arithmetic has a defined overflow
// point instead of growing big.Int without limit. 60 decimal digits covers
// any realistic price*quantity product with headroom to spare.
const maxDigits = 60

// maxScale bounds how many decimal places a value can carry. Repeated
// multiplication grows scale additively; without a cap a pathological
// sequence of deltas could make render() allocate unbounded strings.
const maxScale = 120

var (
	bigTen  = big.NewInt(10)
	maxCoef = new(big.Int).Exp(bigTen, big.NewInt(maxDigits), nil) // 10^maxDigits, exclusive bound
)

// Decimal is an exact, immutable base-10 number: value = unscaled * 10^-scale.
// The zero value is a valid representation of 0.
type Decimal struct {
	unscaled *big.Int // nil means zero
	scale    int32
}

// Zero is the additive identity.
var Zero = Decimal{}

// NewFromInt64 builds an integer-valued Decimal (scale 0).
func NewFromInt64(v int64) Decimal {
	if v == 0 {
		return Zero
	}
	return Decimal{unscaled: big.NewInt(v), scale: 0}
}

// Scale returns the number of digits after the decimal point.
func (d Decimal) Scale() int32 { return d.scale }

// IsZero reports whether the value is exactly zero.
func (d Decimal) IsZero() bool {
	return d.unscaled == nil || d.unscaled.Sign() == 0
}

// IsNegative reports whether the value is strictly less than zero.
func (d Decimal) IsNegative() bool {
	return d.unscaled != nil && d.unscaled.Sign() < 0
}

// IsPositive reports whether the value is strictly greater than zero.
func (d Decimal) IsPositive() bool {
	return d.unscaled != nil && d.unscaled.Sign() > 0
}

// Sign returns -1, 0, or 1.
func (d Decimal) Sign() int {
	if d.unscaled == nil {
		return 0
	}
	return d.unscaled.Sign()
}

func (d Decimal) coef() *big.Int {
	if d.unscaled == nil {
		return new(big.Int)
	}
	return d.unscaled
}

// rescaleUp returns the coefficient of d expressed at the given scale.
// target must be >= d.scale.
func (d Decimal) rescaleUp(target int32) *big.Int {
	diff := target - d.scale
	if diff == 0 {
		return new(big.Int).Set(d.coef())
	}
	factor := new(big.Int).Exp(bigTen, big.NewInt(int64(diff)), nil)
	return new(big.Int).Mul(d.coef(), factor)
}

// Cmp returns -1, 0, or 1 comparing d to o with exact total ordering,
// regardless of how many decimal places either value carries.
func (d Decimal) Cmp(o Decimal) int {
	scale := d.scale
	if o.scale > scale {
		scale = o.scale
	}
	return d.rescaleUp(scale).Cmp(o.rescaleUp(scale))
}

func (d Decimal) Equal(o Decimal) bool       { return d.Cmp(o) == 0 }
func (d Decimal) LessThan(o Decimal) bool    { return d.Cmp(o) < 0 }
func (d Decimal) GreaterThan(o Decimal) bool { return d.Cmp(o) > 0 }
func (d Decimal) LessOrEqual(o Decimal) bool { return d.Cmp(o) <= 0 }
func (d Decimal) GreaterOrEqual(o Decimal) bool {
	return d.Cmp(o) >= 0
}

func checkBounds(unscaled *big.Int, scale int32) error {
	if scale < 0 || scale > maxScale {
		return &OverflowError{Reason: fmt.Sprintf("scale %d exceeds bounds", scale)}
	}
	abs := new(big.Int).Abs(unscaled)
	if abs.Cmp(maxCoef) >= 0 {
		return &OverflowError{Reason: "coefficient exceeds representable range"}
	}
	return nil
}

// Add returns d+o, rescaled to the larger of the two input scales.
func (d Decimal) Add(o Decimal) (Decimal, error) {
	scale := d.scale
	if o.scale > scale {
		scale = o.scale
	}
	sum := new(big.Int).Add(d.rescaleUp(scale), o.rescaleUp(scale))
	if err := checkBounds(sum, scale); err != nil {
		return Decimal{}, err
	}
	return normalize(sum, scale), nil
}

// Sub returns d-o.
func (d Decimal) Sub(o Decimal) (Decimal, error) {
	scale := d.scale
	if o.scale > scale {
		scale = o.scale
	}
	diff := new(big.Int).Sub(d.rescaleUp(scale), o.rescaleUp(scale))
	if err := checkBounds(diff, scale); err != nil {
		return Decimal{}, err
	}
	return normalize(diff, scale), nil
}

// Mul returns d*o exactly; the result scale is the sum of the input scales.
func (d Decimal) Mul(o Decimal) (Decimal, error) {
	scale := int64(d.scale) + int64(o.scale)
	product := new(big.Int).Mul(d.coef(), o.coef())
	if scale > maxScale {
		return Decimal{}, &OverflowError{Reason: fmt.Sprintf("scale %d exceeds bounds", scale)}
	}
	if err := checkBounds(product, int32(scale)); err != nil {
		return Decimal{}, err
	}
	return normalize(product, int32(scale)), nil
}

// Neg returns -d.
func (d Decimal) Neg() Decimal {
	if d.IsZero() {
		return Zero
	}
	return Decimal{unscaled: new(big.Int).Neg(d.coef()), scale: d.scale}
}

// normalize strips a decimal down to scale 0 when scale went negative
// upstream (never happens post-parse here, kept for safety) and collapses
// a nil-coefficient zero to the canonical Zero value.
func normalize(unscaled *big.Int, scale int32) Decimal {
	if scale < 0 {
		unscaled = new(big.Int).Mul(unscaled, new(big.Int).Exp(bigTen, big.NewInt(int64(-scale)), nil))
		scale = 0
	}
	if unscaled.Sign() == 0 {
		return Decimal{scale: scale}
	}
	return Decimal{unscaled: unscaled, scale: scale}
}

// String renders the canonical decimal form, e.g. "88000.5", "-0.5", "0".
func (d Decimal) String() string {
	coef := d.coef()
	neg := coef.Sign() < 0
	digits := new(big.Int).Abs(coef).String()

	if d.scale == 0 {
		if neg {
			return "-" + digits
		}
		return digits
	}

	for int32(len(digits)) <= d.scale {
		digits = "0" + digits
	}
	intPart := digits[:len(digits)-int(d.scale)]
	fracPart := digits[len(digits)-int(d.scale):]
	s := intPart + "." + fracPart
	if neg {
		s = "-" + s
	}
	return s
}

// CanonicalKey returns a representation of d suitable for map keys where
// two values that Cmp equal must collide: unlike String, which renders at
// d's own literal scale (so "88000.50" and "88000.5" parse to values that
// Cmp equal but String differently), CanonicalKey first strips trailing
// zero digits from the coefficient, reducing scale to match, so both
// render to the same key. Not meant for display — use String for that.
func (d Decimal) CanonicalKey() string {
	if d.IsZero() {
		return "0"
	}
	coef := new(big.Int).Set(d.coef())
	scale := d.scale
	rem := new(big.Int)
	for scale > 0 {
		q, r := new(big.Int).QuoRem(coef, bigTen, rem)
		if r.Sign() != 0 {
			break
		}
		coef = q
		scale--
	}
	return fmt.Sprintf("%s:%d", coef.String(), scale)
}

// Float64 converts to float64. Boundary-only: never use on the hot path
// of book storage or checksum computation.
func (d Decimal) Float64() float64 {
	f := new(big.Float).SetInt(d.coef())
	if d.scale != 0 {
		denom := new(big.Float).SetInt(new(big.Int).Exp(bigTen, big.NewInt(int64(d.scale)), nil))
		f.Quo(f, denom)
	}
	out, _ := f.Float64()
	return out
}

// StrippedDigits renders d at the given target scale (zero-padding or, if
// d already carries more precision than target, left unchanged — callers
// are expected to pass the venue-declared precision that the value was
// already quantized to), strips trailing insignificant zeros from the
// fractional part, and returns the remaining digits with the decimal point
// removed and the sign preserved as a leading '-'. This is the exact
// encoding the checksum package needs (§4.3) and is not a general-purpose
// rendering: it intentionally does not round.
func (d Decimal) StrippedDigits(targetScale int32) string {
	scale := d.scale
	unscaled := d.coef()
	if targetScale > scale {
		factor := new(big.Int).Exp(bigTen, big.NewInt(int64(targetScale-scale)), nil)
		unscaled = new(big.Int).Mul(unscaled, factor)
		scale = targetScale
	}

	neg := unscaled.Sign() < 0
	digits := new(big.Int).Abs(unscaled).String()
	for int32(len(digits)) <= scale {
		digits = "0" + digits
	}

	if scale > 0 {
		intPart := digits[:len(digits)-int(scale)]
		fracPart := digits[len(digits)-int(scale):]
		fracPart = strings.TrimRight(fracPart, "0")
		digits = intPart + fracPart
		digits = strings.TrimLeft(digits, "0")
		if digits == "" {
			digits = "0"
		}
	}

	if neg && digits != "0" {
		return "-" + digits
	}
	return digits
}
