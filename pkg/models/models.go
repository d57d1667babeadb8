/*
Package models defines the shared data structures exchanged between the
evaluation engine and its consumers.

These models are used for:
- **Persisted output**: one Record per grid point, the contract between the
  engine and the downstream renderer, zoom suggester, and analyzer.
- **Run reporting**: the RunSummary emitted by the CLI, the HTTP API, and the
  structured logs at the end of every grid evaluation.
*/
package models

import "time"

// Record is the persisted state of one grid point after a run. CA, CB,
// FinalZa and FinalZb are canonical base-32 numerals so the record can be
// re-decoded at full precision by any downstream tool.
type Record struct {
	// X, Y are the grid indices of the point.
	X int `json:"x"`
	Y int `json:"y"`
	// CA, CB are the point coordinates.
	CA string `json:"ca"`
	CB string `json:"cb"`
	// Escaped reports whether the orbit left the escape radius.
	Escaped bool `json:"escaped"`
	// Iterations is the cumulative iteration count across all rounds.
	Iterations uint64 `json:"iterations"`
	// FinalZa, FinalZb are the final iterate when the run ended.
	FinalZa string `json:"final_za"`
	FinalZb string `json:"final_zb"`
}

// StopReason identifies why the convergence loop terminated.
type StopReason string

// The stop reasons reported in RunSummary.
const (
	// StopAllResolved means every point escaped or reached the ceiling.
	StopAllResolved StopReason = "all_resolved"
	// StopNoProgress means a round produced zero new escapes.
	StopNoProgress StopReason = "no_progress"
	// StopDiminishingReturns means the round's escape fraction fell below
	// the configured threshold.
	StopDiminishingReturns StopReason = "diminishing_returns"
	// StopCeiling means the iteration ceiling capped the final round.
	StopCeiling StopReason = "ceiling"
)

// RunSummary aggregates the outcome of one grid evaluation run.
type RunSummary struct {
	// RunID is the unique identifier assigned to the run.
	RunID string `json:"run_id"`
	// Backend is the registry name of the evaluation backend used.
	Backend string `json:"backend"`
	// Workers is the worker count of the pool.
	Workers int `json:"workers"`
	// ResX, ResY are the grid dimensions.
	ResX int `json:"res_x"`
	ResY int `json:"res_y"`
	// Precision is the working precision in bits.
	Precision uint `json:"precision"`
	// Rounds is the number of convergence rounds executed.
	Rounds int `json:"rounds"`
	// TotalIterations sums iterations consumed across all points and rounds.
	TotalIterations uint64 `json:"total_iterations"`
	// EscapedPoints counts points whose orbit left the escape radius.
	EscapedPoints int `json:"escaped_points"`
	// TotalPoints is the size of the grid.
	TotalPoints int `json:"total_points"`
	// StopReason explains why the loop terminated.
	StopReason StopReason `json:"stop_reason"`
	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration"`
}

// EscapedFraction returns the share of grid points that escaped, in [0, 1].
func (s RunSummary) EscapedFraction() float64 {
	if s.TotalPoints == 0 {
		return 0
	}
	return float64(s.EscapedPoints) / float64(s.TotalPoints)
}
