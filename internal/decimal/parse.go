package decimal

import (
	"math/big"
	"strings"
)

// Parse converts a wire-format numeric literal into a Decimal. It accepts
// plain decimal notation ("88000.50", "-1.5") and scientific notation
// ("1.5e-8", "2.0E3") without ever routing the value through a float.
func Parse(s string) (Decimal, error) {
	if s == "" {
		return Decimal{}, &ParseError{Input: s, Reason: "empty input"}
	}

	mantissa, exponent, err := splitExponent(s)
	if err != nil {
		return Decimal{}, err
	}

	unscaled, scale, err := parseMantissa(mantissa)
	if err != nil {
		return Decimal{}, err
	}

	newScale := int64(scale) - int64(exponent)
	if newScale < 0 {
		if -newScale > maxScale {
			return Decimal{}, &OverflowError{Reason: "exponent shifts scale out of bounds"}
		}
		factor := new(big.Int).Exp(bigTen, big.NewInt(-newScale), nil)
		unscaled = new(big.Int).Mul(unscaled, factor)
		newScale = 0
	}
	if newScale > maxScale {
		return Decimal{}, &OverflowError{Reason: "exponent shifts scale out of bounds"}
	}
	if err := checkBounds(unscaled, int32(newScale)); err != nil {
		return Decimal{}, err
	}

	return normalize(unscaled, int32(newScale)), nil
}

// MustParse is Parse but panics on error; intended for static literals
// (test fixtures, constants), never for wire input.
func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func splitExponent(s string) (mantissa string, exponent int64, err error) {
	idx := strings.IndexAny(s, "eE")
	if idx < 0 {
		return s, 0, nil
	}
	mantissa = s[:idx]
	expPart := s[idx+1:]
	if mantissa == "" || expPart == "" {
		return "", 0, &ParseError{Input: s, Reason: "malformed exponent"}
	}
	exponent, err = parseSignedInt(expPart)
	if err != nil {
		return "", 0, &ParseError{Input: s, Reason: "malformed exponent"}
	}
	return mantissa, exponent, nil
}

func parseSignedInt(s string) (int64, error) {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "" {
		return 0, &ParseError{Input: s, Reason: "empty exponent digits"}
	}
	var v int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, &ParseError{Input: s, Reason: "non-digit in exponent"}
		}
		v = v*10 + int64(c-'0')
	}
	if neg {
		v = -v
	}
	return v, nil
}

// parseMantissa parses a plain (non-exponent) decimal literal into an
// unscaled big.Int coefficient and its scale.
func parseMantissa(s string) (*big.Int, int32, error) {
	orig := s
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "" {
		return nil, 0, &ParseError{Input: orig, Reason: "missing digits"}
	}

	dot := strings.IndexByte(s, '.')
	var digits string
	var scale int32
	if dot < 0 {
		digits = s
		scale = 0
	} else {
		intPart := s[:dot]
		fracPart := s[dot+1:]
		if fracPart == "" && intPart == "" {
			return nil, 0, &ParseError{Input: orig, Reason: "missing digits"}
		}
		digits = intPart + fracPart
		scale = int32(len(fracPart))
	}

	if digits == "" {
		return nil, 0, &ParseError{Input: orig, Reason: "missing digits"}
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, 0, &ParseError{Input: orig, Reason: "non-digit character"}
		}
	}

	unscaled, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, 0, &ParseError{Input: orig, Reason: "invalid digit sequence"}
	}
	if neg {
		unscaled.Neg(unscaled)
	}
	return unscaled, scale, nil
}
