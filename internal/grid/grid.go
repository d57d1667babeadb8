// Package grid builds the arena of sample points evaluated by one run: a
// validated bounding box, an aspect-corrected secondary resolution, and one
// contiguous slice of points generated in row-major order.
package grid

import (
	"math/big"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/agbru/mandelgrid/internal/numeral"
)

// Rect is an immutable bounding box on the complex plane. Both axes run
// strictly from Min to Max.
type Rect struct {
	MinRe, MaxRe *big.Float
	MinIm, MaxIm *big.Float
}

// NewRect validates and builds a bounding box.
//
// Parameters:
//   - minRe, maxRe: Real-axis bounds; minRe must be strictly below maxRe.
//   - minIm, maxIm: Imaginary-axis bounds; minIm must be strictly below maxIm.
//
// Returns:
//   - Rect: The validated box.
//   - error: A ValidationError naming the offending axis.
func NewRect(minRe, maxRe, minIm, maxIm *big.Float) (Rect, error) {
	if minRe == nil || maxRe == nil || minIm == nil || maxIm == nil {
		return Rect{}, apperrors.NewValidationError("bounds", "all four bounds are required", nil)
	}
	if minRe.Cmp(maxRe) >= 0 {
		return Rect{}, apperrors.NewValidationError("real axis", "min bound must be below max bound", minRe.String())
	}
	if minIm.Cmp(maxIm) >= 0 {
		return Rect{}, apperrors.NewValidationError("imaginary axis", "min bound must be below max bound", minIm.String())
	}
	return Rect{MinRe: minRe, MaxRe: maxRe, MinIm: minIm, MaxIm: maxIm}, nil
}

// ParseRect decodes four textual numerals into a validated box at the given
// precision.
func ParseRect(minRe, maxRe, minIm, maxIm string, prec uint) (Rect, error) {
	values := make([]*big.Float, 4)
	for i, s := range []string{minRe, maxRe, minIm, maxIm} {
		v, err := numeral.Decode(s, prec)
		if err != nil {
			return Rect{}, err
		}
		values[i] = v
	}
	return NewRect(values[0], values[1], values[2], values[3])
}

// SpanRe returns MaxRe - MinRe at the given precision.
func (r Rect) SpanRe(prec uint) *big.Float {
	return new(big.Float).SetPrec(prec).Sub(r.MaxRe, r.MinRe)
}

// SpanIm returns MaxIm - MinIm at the given precision.
func (r Rect) SpanIm(prec uint) *big.Float {
	return new(big.Float).SetPrec(prec).Sub(r.MaxIm, r.MinIm)
}

// Point is one grid sample and its evaluation state. Coordinates are fixed
// at generation time; the iterate, escape flag and iteration count are
// updated between rounds as results arrive.
type Point struct {
	// X, Y are the grid indices of this sample.
	X, Y int
	// Ca, Cb are the sample coordinates.
	Ca, Cb *big.Float
	// Za, Zb carry the iterate across rounds, starting at zero.
	Za, Zb *big.Float
	// Escaped flips to true at most once; an escaped point is final.
	Escaped bool
	// Iterations accumulates across rounds and never decreases.
	Iterations uint64
}

// Grid is the arena of points for one run. Points are stored in generation
// order (real axis outer, imaginary axis inner), so the point at grid
// position (x, y) lives at index x*ResY + y. The slice is allocated once and
// never grows.
type Grid struct {
	Rect      Rect
	ResX      int
	ResY      int
	Precision uint
	Points    []Point
}

// Generate builds the arena for rect at the requested real-axis resolution.
//
// The imaginary-axis resolution derives from the box's aspect ratio,
// round(resolution * height/width) with a floor of one row, keeping cells
// approximately square for any region shape. Sample i of res along an axis
// lies at min + span*i/res: the max bound is exclusive and is never sampled.
//
// Parameters:
//   - rect: The bounding box to sample.
//   - resolution: Sample count along the real axis; must be at least 1.
//   - prec: Working precision for all coordinate arithmetic.
//
// Returns:
//   - *Grid: The generated arena.
//   - error: A ValidationError when resolution < 1.
func Generate(rect Rect, resolution int, prec uint) (*Grid, error) {
	if resolution < 1 {
		return nil, apperrors.NewValidationError("resolution", "must be at least 1", resolution)
	}

	spanRe := rect.SpanRe(prec)
	spanIm := rect.SpanIm(prec)
	resY := aspectRows(spanRe, spanIm, resolution, prec)

	g := &Grid{
		Rect:      rect,
		ResX:      resolution,
		ResY:      resY,
		Precision: prec,
		Points:    make([]Point, resolution*resY),
	}

	// Imaginary coordinates repeat across every column; compute them once.
	cbs := make([]*big.Float, resY)
	for y := 0; y < resY; y++ {
		cbs[y] = axisCoord(rect.MinIm, spanIm, y, resY, prec)
	}

	idx := 0
	for x := 0; x < resolution; x++ {
		ca := axisCoord(rect.MinRe, spanRe, x, resolution, prec)
		for y := 0; y < resY; y++ {
			g.Points[idx] = Point{
				X:  x,
				Y:  y,
				Ca: ca,
				Cb: cbs[y],
				Za: new(big.Float).SetPrec(prec),
				Zb: new(big.Float).SetPrec(prec),
			}
			idx++
		}
	}
	return g, nil
}

// At returns the point at grid position (x, y).
func (g *Grid) At(x, y int) *Point {
	return &g.Points[x*g.ResY+y]
}

// Len returns the number of points in the arena.
func (g *Grid) Len() int {
	return len(g.Points)
}

// Rows returns the aspect-derived imaginary-axis resolution for rect at the
// given real-axis resolution, without generating the arena. The convergence
// loop uses it to feed the precision estimate before the real grid exists.
func Rows(rect Rect, resX int, prec uint) int {
	return aspectRows(rect.SpanRe(prec), rect.SpanIm(prec), resX, prec)
}

// aspectRows computes the imaginary-axis resolution from the box shape:
// round(resX * spanIm/spanRe), at least 1.
func aspectRows(spanRe, spanIm *big.Float, resX int, prec uint) int {
	ratio := new(big.Float).SetPrec(prec).Quo(spanIm, spanRe)
	ratio.Mul(ratio, new(big.Float).SetPrec(prec).SetInt64(int64(resX)))
	ratio.Add(ratio, big.NewFloat(0.5))
	rows, _ := ratio.Int64()
	if rows < 1 {
		return 1
	}
	return int(rows)
}

// axisCoord returns min + span*i/res at the working precision.
func axisCoord(min, span *big.Float, i, res int, prec uint) *big.Float {
	c := new(big.Float).SetPrec(prec).SetInt64(int64(i))
	c.Mul(c, span)
	c.Quo(c, new(big.Float).SetPrec(prec).SetInt64(int64(res)))
	return c.Add(c, min)
}
