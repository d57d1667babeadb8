// Package convert translates values between decimal strings and canonical
// base-32 numerals at a chosen working precision.
package convert

import (
	"math"
	"math/big"
	"strings"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/agbru/mandelgrid/internal/numeral"
)

// DefaultPrecision is the working precision when the caller names none.
const DefaultPrecision = 256

// Convert re-expresses value from one base in another at prec bits.
// Supported bases are 10 (decimal strings) and 32 (canonical numerals).
// Converting a value to its own base normalizes it: the output is the
// canonical rendering at the requested precision.
//
// Parameters:
//   - value: The value to convert.
//   - fromBase: The base of value (10 or 32).
//   - toBase: The base of the result (10 or 32).
//   - prec: The working precision in bits; 0 uses DefaultPrecision.
//
// Returns:
//   - string: The converted value.
//   - error: A ValidationError on unsupported bases, or a parse error.
func Convert(value string, fromBase, toBase int, prec uint) (string, error) {
	if prec == 0 {
		prec = DefaultPrecision
	}
	if fromBase != 10 && fromBase != 32 {
		return "", apperrors.NewValidationError("from", "base must be 10 or 32", fromBase)
	}
	if toBase != 10 && toBase != 32 {
		return "", apperrors.NewValidationError("to", "base must be 10 or 32", toBase)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.NewValidationError("value", "must not be empty", value)
	}

	var v *big.Float
	var err error
	switch fromBase {
	case 10:
		v, _, err = big.ParseFloat(value, 10, prec, big.ToNearestEven)
		if err != nil {
			return "", apperrors.NewMalformedNumeralError(value, "not a decimal value: %v", err)
		}
	case 32:
		v, err = numeral.Decode(value, prec)
		if err != nil {
			return "", err
		}
	}

	switch toBase {
	case 32:
		return numeral.Encode(v, prec), nil
	default:
		return formatDecimal(v, prec), nil
	}
}

// formatDecimal renders v with enough decimal digits to carry prec bits.
func formatDecimal(v *big.Float, prec uint) string {
	digits := int(math.Ceil(float64(prec)*math.Log10(2))) + 1
	return v.Text('g', digits)
}
