package decimal

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ToShopspring converts to shopspring/decimal.Decimal for display-layer
// consumers (the TUI, log formatting) that want its richer formatting
// helpers. Never used on the book storage or checksum hot path.
func (d Decimal) ToShopspring() decimal.Decimal {
	return decimal.NewFromBigInt(d.coef(), -d.scale)
}

// FromShopspring converts a shopspring/decimal.Decimal into the exact
// fixed-scale representation used internally.
func FromShopspring(v decimal.Decimal) (Decimal, error) {
	coef := v.Coefficient()
	exp := v.Exponent()
	scale := int64(-exp)
	if scale < 0 {
		factor := new(big.Int).Exp(bigTen, big.NewInt(-scale), nil)
		coef = new(big.Int).Mul(coef, factor)
		scale = 0
	}
	if scale > maxScale {
		return Decimal{}, &OverflowError{Reason: "shopspring scale exceeds bounds"}
	}
	if err := checkBounds(coef, int32(scale)); err != nil {
		return Decimal{}, err
	}
	return normalize(coef, int32(scale)), nil
}
