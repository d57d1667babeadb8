package numeral

import (
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestRoundTrip_PropertyBased verifies the codec's round-trip law with
// property-based testing: for every value v representable at precision P,
//
//	Decode(Encode(v, P), P) == v
//
// exactly, not approximately. Coordinates produced by the grid generator are
// re-decoded by the native back-end, so any rounding asymmetry between the
// two directions would silently shift grid points.
func TestRoundTrip_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	for _, prec := range []uint{64, 128, 256, 384} {
		prec := prec
		properties.Property(
			fmt.Sprintf("round trip is exact at %d bits", prec),
			prop.ForAll(
				func(f float64) bool {
					// A float64 has 53 mantissa bits, so setting it at
					// prec >= 64 bits is exact and the law must hold
					// with equality.
					v := new(big.Float).SetPrec(prec).SetFloat64(f)
					decoded, err := Decode(Encode(v, prec), prec)
					if err != nil {
						t.Logf("Decode failed for %v at %d bits: %v", f, prec, err)
						return false
					}
					return decoded.Cmp(v) == 0
				},
				gen.Float64Range(-4, 4),
			))
	}

	properties.TestingRun(t)
}

// TestEncodeShape_PropertyBased verifies structural canonicality for every
// nonzero encoding: fixed digit count, nonzero leading digit, exactly one
// radix point and one exponent marker.
func TestEncodeShape_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("nonzero encodings are canonical", prop.ForAll(
		func(f float64, precStep uint8) bool {
			if f == 0 {
				return true
			}
			prec := 64 + uint(precStep%8)*64
			s := Encode(big.NewFloat(f), prec)

			body := strings.TrimPrefix(s, "-")
			at := strings.IndexByte(body, '@')
			if at < 0 || strings.Count(s, "@") != 1 {
				return false
			}
			mant := body[:at]
			if strings.Count(mant, ".") != 1 || mant[1] != '.' {
				return false
			}
			if mant[0] == '0' {
				return false
			}
			if len(mant)-1 != DigitCount(prec) {
				return false
			}
			// And the exponent parses back as a decimal integer.
			_, err := Decode(s, prec)
			return err == nil
		},
		gen.Float64Range(-1e6, 1e6),
		gen.UInt8(),
	))

	properties.Property("scaling by the base shifts only the exponent", prop.ForAll(
		func(f float64) bool {
			if f == 0 {
				return true
			}
			const prec = 128
			v := new(big.Float).SetPrec(prec).SetFloat64(f)
			scaled := new(big.Float).SetPrec(prec).SetMantExp(v, v.MantExp(nil)+BitsPerDigit)

			a := Encode(v, prec)
			b := Encode(scaled, prec)
			mantA := a[:strings.IndexByte(a, '@')]
			mantB := b[:strings.IndexByte(b, '@')]
			return mantA == mantB
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.TestingRun(t)
}

// TestDecodeMonotoneDigits_PropertyBased verifies that EstimatePrecision
// grows with mantissa length and never undershoots the floor.
func TestDecodeMonotoneDigits_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("estimate is floored and proportional", prop.ForAll(
		func(n uint8) bool {
			digits := int(n%60) + 1
			s := "1." + strings.Repeat("0", digits-1) + "@0"
			got := EstimatePrecision(s)
			if got < MinEstimatedPrecision {
				return false
			}
			if digits*BitsPerDigit > MinEstimatedPrecision {
				return got == uint(digits*BitsPerDigit)
			}
			return got == MinEstimatedPrecision
		},
		gen.UInt8(),
	))

	properties.TestingRun(t)
}
