// Package zoom analyzes a finished grid and suggests a deeper window to
// evaluate next. It scores escaped boundary points by local complexity,
// picks a center from the top tier, and derives bounds and precision for
// the magnified window.
package zoom

import (
	"math"
	"math/big"
	"math/rand"
	"sort"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/agbru/mandelgrid/internal/numeral"
	"github.com/agbru/mandelgrid/internal/output"
	"github.com/agbru/mandelgrid/internal/precision"
	"github.com/agbru/mandelgrid/pkg/models"
)

// DefaultTopPercentile is the share of highest-scoring boundary points the
// zoom center is drawn from.
const DefaultTopPercentile = 0.01

// Options configures a zoom suggestion.
type Options struct {
	// MinRe, MaxRe, MinIm, MaxIm are the evaluated window's bounds as
	// numerals. They must be the bounds the grid was generated from.
	MinRe, MaxRe, MinIm, MaxIm string
	// Factor is the magnification ratio; it must be greater than 1.
	Factor float64
	// TopPercentile is the candidate share; 0 uses DefaultTopPercentile.
	TopPercentile float64
	// Rand is the source used to pick among the top candidates; nil uses
	// the package-global source.
	Rand *rand.Rand
}

// Suggestion is a proposed follow-up window.
type Suggestion struct {
	MinRe string `json:"min_re"`
	MaxRe string `json:"max_re"`
	MinIm string `json:"min_im"`
	MaxIm string `json:"max_im"`
	// CenterRe and CenterIm are the chosen boundary point's coordinates.
	CenterRe string `json:"center_re"`
	CenterIm string `json:"center_im"`
	// Precision is the working precision the new window needs, in bits.
	Precision uint `json:"precision"`
	// MaxIterations is the suggested iteration ceiling for the new run,
	// scaled by the square root of the magnification.
	MaxIterations uint64 `json:"max_iterations"`
	// Score is the chosen point's complexity score.
	Score float64 `json:"score"`
	// BoundaryPoints counts the escaped points considered.
	BoundaryPoints int `json:"boundary_points"`
	// Candidates counts the top-tier points the center was drawn from.
	Candidates int `json:"candidates"`
}

// scored pairs a record with its complexity score.
type scored struct {
	record models.Record
	score  float64
}

// Suggest picks a zoom window from an evaluated grid.
//
// Boundary points are the escaped records with more than one iteration.
// Each is scored I x sum(|I - In|) over its existing 8-neighborhood; the
// center is drawn uniformly from the top percentile (at least one point).
//
// Parameters:
//   - records: The grid's records, as read from CSV.
//   - opts: The suggestion options.
//
// Returns:
//   - Suggestion: The proposed window.
//   - error: A ValidationError when no boundary point exists or the
//     options are inconsistent.
func Suggest(records []models.Record, opts Options) (Suggestion, error) {
	if opts.Factor <= 1 {
		return Suggestion{}, apperrors.NewValidationError("zoom-factor", "must be greater than 1", opts.Factor)
	}
	pct := opts.TopPercentile
	if pct == 0 {
		pct = DefaultTopPercentile
	}
	if pct < 0 || pct > 1 {
		return Suggestion{}, apperrors.NewValidationError("top-percentile", "must be in [0, 1]", pct)
	}
	if len(records) == 0 {
		return Suggestion{}, apperrors.NewValidationError("input", "grid has no records", nil)
	}

	index := make(map[[2]int]uint64, len(records))
	for _, rec := range records {
		index[[2]int{rec.X, rec.Y}] = rec.Iterations
	}

	var boundary []scored
	var maxIterations uint64
	for _, rec := range records {
		if rec.Iterations > maxIterations {
			maxIterations = rec.Iterations
		}
		if !rec.Escaped || rec.Iterations <= 1 {
			continue
		}
		boundary = append(boundary, scored{record: rec, score: complexityScore(rec, index)})
	}
	if len(boundary) == 0 {
		return Suggestion{}, apperrors.NewValidationError("input", "no boundary points to analyze", nil)
	}

	sort.SliceStable(boundary, func(i, j int) bool { return boundary[i].score > boundary[j].score })
	top := int(float64(len(boundary)) * pct)
	if top < 1 {
		top = 1
	}
	var pick int
	if opts.Rand != nil {
		pick = opts.Rand.Intn(top)
	} else {
		pick = rand.Intn(top)
	}
	center := boundary[pick]

	resX, resY := output.Dimensions(records)
	s, err := window(center.record, opts, resX, resY)
	if err != nil {
		return Suggestion{}, err
	}
	s.MaxIterations = uint64(math.Round(float64(maxIterations) * math.Sqrt(opts.Factor)))
	s.Score = center.score
	s.BoundaryPoints = len(boundary)
	s.Candidates = top
	return s, nil
}

// complexityScore is the point's iteration count times the summed absolute
// iteration difference to its existing neighbors. Points with no neighbors
// score zero.
func complexityScore(rec models.Record, index map[[2]int]uint64) float64 {
	var gradient float64
	found := false
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n, ok := index[[2]int{rec.X + dx, rec.Y + dy}]
			if !ok {
				continue
			}
			found = true
			diff := float64(rec.Iterations) - float64(n)
			gradient += math.Abs(diff)
		}
	}
	if !found {
		return 0
	}
	return float64(rec.Iterations) * gradient
}

// window derives the magnified bounds around the chosen center and the
// precision the new window needs at the grid's resolution.
func window(center models.Record, opts Options, resX, resY int) (Suggestion, error) {
	// A generous provisional precision keeps the span arithmetic exact
	// enough to derive the real requirement from the shrunken bounds.
	provisional := uint(256)
	for _, s := range []string{opts.MinRe, opts.MaxRe, opts.MinIm, opts.MaxIm} {
		if p := numeral.EstimatePrecision(s); p > provisional {
			provisional = p
		}
	}

	bounds, err := shrink(center, opts, provisional)
	if err != nil {
		return Suggestion{}, err
	}

	prec, err := precision.Estimate(bounds[0], bounds[1], bounds[2], bounds[3], resX, resY)
	if err != nil {
		return Suggestion{}, err
	}

	// Recompute at the final precision so the emitted numerals carry it.
	bounds, err = shrink(center, opts, prec)
	if err != nil {
		return Suggestion{}, err
	}
	return Suggestion{
		MinRe:     bounds[0],
		MaxRe:     bounds[1],
		MinIm:     bounds[2],
		MaxIm:     bounds[3],
		CenterRe:  center.CA,
		CenterIm:  center.CB,
		Precision: prec,
	}, nil
}

// shrink computes [minRe, maxRe, minIm, maxIm] for the window of old span
// divided by the factor, centered on the chosen point, at prec bits.
func shrink(center models.Record, opts Options, prec uint) ([4]string, error) {
	var bounds [4]string
	parse := func(s string) (*big.Float, error) { return numeral.Decode(s, prec) }

	minRe, err := parse(opts.MinRe)
	if err != nil {
		return bounds, err
	}
	maxRe, err := parse(opts.MaxRe)
	if err != nil {
		return bounds, err
	}
	minIm, err := parse(opts.MinIm)
	if err != nil {
		return bounds, err
	}
	maxIm, err := parse(opts.MaxIm)
	if err != nil {
		return bounds, err
	}
	centerRe, err := parse(center.CA)
	if err != nil {
		return bounds, err
	}
	centerIm, err := parse(center.CB)
	if err != nil {
		return bounds, err
	}

	factor := new(big.Float).SetPrec(prec).SetFloat64(opts.Factor)
	two := new(big.Float).SetPrec(prec).SetInt64(2)

	halfWidth := new(big.Float).SetPrec(prec).Sub(maxRe, minRe)
	halfWidth.Quo(halfWidth, factor)
	halfWidth.Quo(halfWidth, two)
	halfHeight := new(big.Float).SetPrec(prec).Sub(maxIm, minIm)
	halfHeight.Quo(halfHeight, factor)
	halfHeight.Quo(halfHeight, two)

	bounds[0] = numeral.Encode(new(big.Float).SetPrec(prec).Sub(centerRe, halfWidth), prec)
	bounds[1] = numeral.Encode(new(big.Float).SetPrec(prec).Add(centerRe, halfWidth), prec)
	bounds[2] = numeral.Encode(new(big.Float).SetPrec(prec).Sub(centerIm, halfHeight), prec)
	bounds[3] = numeral.Encode(new(big.Float).SetPrec(prec).Add(centerIm, halfHeight), prec)
	return bounds, nil
}
