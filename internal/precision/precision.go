// Package precision derives the arithmetic bit-width required for a grid
// evaluation from the bounding box and the requested resolution.
//
// Estimation Rule:
// Adjacent grid points differ by one step, step = span/resolution, per axis.
// To keep neighboring coordinates numerically distinguishable through the
// subtraction and division chains downstream, the working precision must
// cover ceil(log2(1/step)) bits for the smaller of the two steps, plus a
// guard margin against cancellation. The result is rounded up to a 64-bit
// boundary because the back-end allocates mantissa words in 64-bit limbs.
package precision

import (
	"math/big"

	"github.com/agbru/mandelgrid/internal/numeral"
)

const (
	// MinBits is the floor precision. Degenerate inputs (single-point
	// grids, zero spans) estimate to MinBits rather than failing.
	MinBits = 64

	// GuardBits is the safety margin added above the step-resolution
	// requirement.
	GuardBits = 32

	// StepBits is the rounding granularity of the returned precision.
	StepBits = 64
)

// Estimate computes the working precision in bits for evaluating a grid over
// the given bounding box.
//
// The four bounds are textual numerals; they are decoded at a provisional
// precision derived from their own digit counts, so the estimate never
// truncates the very bounds it measures. An axis with resolution <= 1 or a
// non-positive span contributes no step; if neither axis contributes one the
// floor precision is returned.
//
// Parameters:
//   - minRe, maxRe: Real-axis bounds in canonical numeral form.
//   - minIm, maxIm: Imaginary-axis bounds in canonical numeral form.
//   - resX: Requested resolution along the real axis.
//   - resY: Resolution along the imaginary axis.
//
// Returns:
//   - uint: The working precision: a multiple of StepBits, at least MinBits.
//   - error: A MalformedNumeralError if any bound fails to decode.
func Estimate(minRe, maxRe, minIm, maxIm string, resX, resY int) (uint, error) {
	provisional := MinBits
	for _, s := range []string{minRe, maxRe, minIm, maxIm} {
		if p := int(numeral.EstimatePrecision(s)); p > provisional {
			provisional = p
		}
	}

	bounds := make([]*big.Float, 4)
	for i, s := range []string{minRe, maxRe, minIm, maxIm} {
		v, err := numeral.Decode(s, uint(provisional))
		if err != nil {
			return 0, err
		}
		bounds[i] = v
	}

	step := smallerStep(
		axisStep(bounds[0], bounds[1], resX, uint(provisional)),
		axisStep(bounds[2], bounds[3], resY, uint(provisional)),
	)
	if step == nil {
		return MinBits, nil
	}

	// For step = m * 2^exp with m in [0.5, 1), ceil(log2(1/step)) is
	// 1 - exp, including the exact power-of-two case.
	bits := 1 - step.MantExp(nil)
	if bits < 0 {
		bits = 0
	}
	return roundUp(uint(bits) + GuardBits), nil
}

// axisStep returns span/res for one axis, or nil when the axis is degenerate
// (res <= 1 or span <= 0).
func axisStep(min, max *big.Float, res int, prec uint) *big.Float {
	if res <= 1 {
		return nil
	}
	span := new(big.Float).SetPrec(prec).Sub(max, min)
	if span.Sign() <= 0 {
		return nil
	}
	return span.Quo(span, new(big.Float).SetPrec(prec).SetInt64(int64(res)))
}

// smallerStep picks the smaller of two optional steps.
func smallerStep(a, b *big.Float) *big.Float {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Cmp(b) <= 0:
		return a
	default:
		return b
	}
}

// roundUp rounds bits up to the next multiple of StepBits, at least MinBits.
func roundUp(bits uint) uint {
	if bits < MinBits {
		bits = MinBits
	}
	return (bits + StepBits - 1) / StepBits * StepBits
}
