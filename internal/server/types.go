package server

import "github.com/agbru/mandelgrid/pkg/models"

// GridRequest is the JSON body of POST /api/v1/grid. Every field is
// optional: omitted fields fall back to the same defaults the CLI uses, and
// a named region fills the bounds and schedule before the explicit fields
// are applied.
type GridRequest struct {
	// MinRe, MaxRe, MinIm, MaxIm are the bounding box corners as numerals.
	MinRe string `json:"min_re,omitempty"`
	MaxRe string `json:"max_re,omitempty"`
	MinIm string `json:"min_im,omitempty"`
	MaxIm string `json:"max_im,omitempty"`
	// Region selects a named example region as the baseline.
	Region string `json:"region,omitempty"`
	// Resolution is the sample count along the real axis.
	Resolution int `json:"resolution,omitempty"`
	// Budget is the cumulative iteration target of the first round.
	Budget uint64 `json:"budget,omitempty"`
	// Ceiling is the global safety cap on cumulative iterations per point.
	Ceiling uint64 `json:"ceiling,omitempty"`
	// EscapeRadius is the escape threshold on |z| as a numeral.
	EscapeRadius string `json:"escape_radius,omitempty"`
	// EscapeThreshold is the diminishing-returns stop fraction in [0, 1).
	EscapeThreshold float64 `json:"escape_threshold,omitempty"`
	// Precision forces the working precision in bits; 0 means estimate it.
	Precision uint `json:"precision,omitempty"`
	// Workers is the worker pool size; 0 means one per CPU.
	Workers int `json:"workers,omitempty"`
	// Backend is the registry name of the evaluation backend.
	Backend string `json:"backend,omitempty"`
	// IncludeRecords requests the per-point records in the response.
	IncludeRecords bool `json:"include_records,omitempty"`
}

// GridResponse is the JSON body of a successful POST /api/v1/grid.
type GridResponse struct {
	Summary models.RunSummary `json:"summary"`
	// Records holds the per-point results when the request asked for them.
	Records []models.Record `json:"records,omitempty"`
}

// BackendsResponse is the JSON body of GET /api/v1/backends.
type BackendsResponse struct {
	Backends []string `json:"backends"`
	Default  string   `json:"default"`
}

// HealthResponse is the JSON body of GET /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the JSON body of every error status.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
