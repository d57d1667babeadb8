// Package numeral implements the canonical base-32 textual numeral form used
// to exchange arbitrary-precision values with the native compute back-end.
//
// Numeral Format:
// A nonzero numeral is written as an optional sign, a normalized mantissa
// (one nonzero leading digit, a radix point, then fractional digits), an '@'
// marker, and a signed decimal exponent scaling the mantissa by powers of the
// base:
//
//	-f.vlg00000000000@3   =  -(15 + 31/32 + 21/1024 + 16/32768) * 32^3
//	8.00000000000@-1      =  (8/32) * 32^0  =  0.25
//
// Exact zero is the bare literal "0" with no sign, point, or exponent.
//
// Digit Rule:
// For a working precision of P bits the mantissa carries exactly
// ceil(P/5) + 1 digits (each base-32 digit holds 5 bits; the extra digit
// absorbs the partial digit at the precision boundary). Both sides of the
// wire derive the digit count from P alone, so a value survives the
// engine -> back-end -> engine round trip byte-for-byte.
package numeral

import (
	"math/big"
	"strconv"
	"strings"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
)

const (
	// Base is the exchange base shared with the compute back-end.
	Base = 32

	// BitsPerDigit is log2(Base): every base-32 digit carries 5 bits.
	BitsPerDigit = 5

	// MaxExponentMagnitude bounds the exponent accepted by Decode. Larger
	// exponents exceed anything a bounding box can produce and would only
	// stress big.Float's exponent range.
	MaxExponentMagnitude = 1 << 28

	// MinEstimatedPrecision is the floor returned by EstimatePrecision for
	// short inputs such as "0" or "2".
	MinEstimatedPrecision = 64
)

// DigitCount returns the number of mantissa digits Encode produces for a
// value carrying prec bits: ceil(prec/5) + 1. The division is performed in
// integer arithmetic so the count is exact at every precision, including
// multiples of BitsPerDigit where a floating-point ceil could round either
// way.
//
// Parameters:
//   - prec: The working precision in bits.
//
// Returns:
//   - int: The mantissa digit count implied by prec.
func DigitCount(prec uint) int {
	return int((prec+BitsPerDigit-1)/BitsPerDigit) + 1
}

// Encode renders v in canonical form at the given precision.
//
// The value is first rounded to prec mantissa bits (round-to-nearest-even,
// big.Float's default), then rewritten as mant * 2^exp2 with mant in
// [0.5, 1). Aligning exp2 up to the next multiple of BitsPerDigit yields the
// base-32 exponent; shifting the mantissa by the full digit count then
// produces an integer whose base-32 text is exactly DigitCount(prec) digits
// with a nonzero lead. The shift is a pure exponent adjustment, so no second
// rounding ever occurs: the only rounding step is the initial SetPrec, which
// is the same rule the back-end applies. v must be finite.
//
// Parameters:
//   - v: The value to encode. A nil or zero value encodes as "0".
//   - prec: The working precision in bits.
//
// Returns:
//   - string: The canonical textual form of v at prec bits.
func Encode(v *big.Float, prec uint) string {
	if v == nil || v.Sign() == 0 {
		return "0"
	}

	w := new(big.Float).SetPrec(prec).Set(v)
	mant := new(big.Float)
	exp2 := w.MantExp(mant)
	neg := mant.Sign() < 0
	if neg {
		mant.Neg(mant)
	}

	// Smallest multiple of BitsPerDigit at or above exp2. The leftover
	// shift is in [0, BitsPerDigit), so mant*2^-shift stays in [1/32, 1).
	e32 := ceilDiv(exp2, BitsPerDigit)
	shift := e32*BitsPerDigit - exp2

	digits := DigitCount(prec)
	t := new(big.Float).SetMantExp(mant, digits*BitsPerDigit-shift)
	ti, _ := t.Int(nil)
	text := ti.Text(Base)

	var b strings.Builder
	b.Grow(len(text) + 16)
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte(text[0])
	b.WriteByte('.')
	b.WriteString(text[1:])
	b.WriteByte('@')
	b.WriteString(strconv.Itoa(e32 - 1))
	return b.String()
}

// Decode parses s as a base-32 numeral and returns its value at the given
// precision.
//
// The accepted grammar is a superset of what Encode emits: the radix point
// and exponent are optional, uppercase digits are accepted, and the mantissa
// need not be normalized. The mantissa digits form an integer M with f
// fractional digits; the value is M * 32^(exp-f), assembled as an exact
// integer conversion at prec bits followed by an exact power-of-two exponent
// shift, so rounding happens exactly once and in the same direction as
// Encode.
//
// Parameters:
//   - s: The textual numeral.
//   - prec: The working precision in bits for the returned value.
//
// Returns:
//   - *big.Float: The decoded value at prec bits.
//   - error: A MalformedNumeralError if s violates the grammar.
func Decode(s string, prec uint) (*big.Float, error) {
	if s == "" {
		return nil, apperrors.NewMalformedNumeralError(s, "empty input")
	}

	rest := s
	neg := false
	switch rest[0] {
	case '+':
		rest = rest[1:]
	case '-':
		neg = true
		rest = rest[1:]
	}

	mantText := rest
	expText := ""
	hasExp := false
	if i := strings.IndexByte(rest, '@'); i >= 0 {
		mantText, expText = rest[:i], rest[i+1:]
		hasExp = true
		if strings.IndexByte(expText, '@') >= 0 {
			return nil, apperrors.NewMalformedNumeralError(s, "more than one exponent marker")
		}
	}
	if mantText == "" {
		return nil, apperrors.NewMalformedNumeralError(s, "missing mantissa")
	}

	mantInt := new(big.Int)
	small := new(big.Int)
	fracDigits := 0
	sawPoint := false
	sawDigit := false
	for i := 0; i < len(mantText); i++ {
		c := mantText[i]
		if c == '.' {
			if sawPoint {
				return nil, apperrors.NewMalformedNumeralError(s, "more than one radix point")
			}
			sawPoint = true
			continue
		}
		d, ok := digitValue(c)
		if !ok {
			return nil, apperrors.NewMalformedNumeralError(s, "invalid digit %q", c)
		}
		sawDigit = true
		mantInt.Lsh(mantInt, BitsPerDigit)
		mantInt.Add(mantInt, small.SetUint64(uint64(d)))
		if sawPoint {
			fracDigits++
		}
	}
	if !sawDigit {
		return nil, apperrors.NewMalformedNumeralError(s, "mantissa has no digits")
	}

	exp := 0
	if hasExp {
		if expText == "" {
			return nil, apperrors.NewMalformedNumeralError(s, "empty exponent")
		}
		v, err := strconv.Atoi(expText)
		if err != nil {
			return nil, apperrors.NewMalformedNumeralError(s, "invalid exponent %q", expText)
		}
		if v > MaxExponentMagnitude || v < -MaxExponentMagnitude {
			return nil, apperrors.NewMalformedNumeralError(s, "exponent out of range")
		}
		exp = v
	}

	z := new(big.Float).SetPrec(prec)
	if mantInt.Sign() == 0 {
		return z, nil
	}
	z.SetInt(mantInt)
	if k := (exp - fracDigits) * BitsPerDigit; k != 0 {
		z.SetMantExp(z, z.MantExp(nil)+k)
	}
	if neg {
		z.Neg(z)
	}
	return z, nil
}

// MustDecode is Decode for trusted inputs; it panics on a malformed numeral.
// Intended for literals in tests and package-level constants.
func MustDecode(s string, prec uint) *big.Float {
	v, err := Decode(s, prec)
	if err != nil {
		panic(err)
	}
	return v
}

// EstimatePrecision returns a provisional working precision sufficient to
// decode s without losing mantissa information: 5 bits per mantissa digit,
// floored at MinEstimatedPrecision. The precision estimator uses this to
// bootstrap-decode bounding box corners before the real grid precision is
// known.
func EstimatePrecision(s string) uint {
	digits := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '@' {
			break
		}
		if _, ok := digitValue(c); ok {
			digits++
		}
	}
	p := uint(digits) * BitsPerDigit
	if p < MinEstimatedPrecision {
		return MinEstimatedPrecision
	}
	return p
}

// ceilDiv divides a by b rounding toward positive infinity. b must be
// positive.
func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}
	return q
}

// digitValue maps a base-32 digit character to its value. Uppercase letters
// are accepted on input; Encode only ever emits lowercase.
func digitValue(c byte) (uint, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint(c - '0'), true
	case c >= 'a' && c <= 'v':
		return uint(c-'a') + 10, true
	case c >= 'A' && c <= 'V':
		return uint(c-'A') + 10, true
	}
	return 0, false
}
