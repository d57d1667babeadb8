package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/agbru/mandelgrid/internal/config"
	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/agbru/mandelgrid/internal/orchestration"
	"github.com/agbru/mandelgrid/internal/output"
	"github.com/agbru/mandelgrid/internal/regions"
)

// handleHealth serves GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "only GET is supported")
		return
	}
	writeJSONResponse(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleBackends serves GET /api/v1/backends.
func (s *Server) handleBackends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "only GET is supported")
		return
	}
	writeJSONResponse(w, http.StatusOK, BackendsResponse{
		Backends: s.factory.List(),
		Default:  config.DefaultBackend,
	})
}

// handleGrid serves POST /api/v1/grid: it runs one full grid evaluation
// in-process and returns the summary, optionally with the per-point records.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "only POST is supported")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.securityConfig.MaxBodyBytes)
	var req GridRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	opts, err := s.buildOptions(req)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	opts.RunID = r.Header.Get(requestIDHeader)

	orch, err := orchestration.New(opts)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	g, summary, err := orch.Run(ctx)
	if err != nil {
		status := http.StatusInternalServerError
		var cfgErr apperrors.ConfigError
		var numErr apperrors.MalformedNumeralError
		switch {
		case errors.As(err, &cfgErr), errors.As(err, &numErr):
			status = http.StatusBadRequest
		case apperrors.IsContextError(err):
			status = http.StatusGatewayTimeout
		}
		writeErrorResponse(w, status, err.Error())
		return
	}

	resp := GridResponse{Summary: summary}
	if req.IncludeRecords {
		resp.Records = output.Records(g)
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// buildOptions merges the request over the named region (when given) and the
// application defaults, then enforces the server's request limits.
func (s *Server) buildOptions(req GridRequest) (orchestration.Options, error) {
	opts := orchestration.Options{
		MinRe:           config.DefaultMinRe,
		MaxRe:           config.DefaultMaxRe,
		MinIm:           config.DefaultMinIm,
		MaxIm:           config.DefaultMaxIm,
		Resolution:      config.DefaultResolution,
		Budget:          config.DefaultBudget,
		Ceiling:         config.DefaultCeiling,
		EscapeRadius:    config.DefaultEscapeRadius,
		EscapeThreshold: config.DefaultEscapeThreshold,
		Backend:         config.DefaultBackend,
		Source:          s.factory,
	}

	if req.Region != "" {
		region, ok := regions.Get(req.Region)
		if !ok {
			return orchestration.Options{}, apperrors.NewConfigError("unknown region %q, valid regions are %v", req.Region, regions.Names())
		}
		opts.MinRe, opts.MaxRe = region.MinRe, region.MaxRe
		opts.MinIm, opts.MaxIm = region.MinIm, region.MaxIm
		opts.Resolution = region.Resolution
		opts.Budget = region.Budget
		opts.EscapeRadius = region.EscapeRadius
		opts.Precision = region.Precision
	}

	if req.MinRe != "" {
		opts.MinRe = req.MinRe
	}
	if req.MaxRe != "" {
		opts.MaxRe = req.MaxRe
	}
	if req.MinIm != "" {
		opts.MinIm = req.MinIm
	}
	if req.MaxIm != "" {
		opts.MaxIm = req.MaxIm
	}
	if req.Resolution != 0 {
		opts.Resolution = req.Resolution
	}
	if req.Budget != 0 {
		opts.Budget = req.Budget
	}
	if req.Ceiling != 0 {
		opts.Ceiling = req.Ceiling
	}
	if req.EscapeRadius != "" {
		opts.EscapeRadius = req.EscapeRadius
	}
	if req.EscapeThreshold != 0 {
		opts.EscapeThreshold = req.EscapeThreshold
	}
	if req.Precision != 0 {
		opts.Precision = req.Precision
	}
	if req.Workers != 0 {
		opts.Workers = req.Workers
	}
	if req.Backend != "" {
		opts.Backend = req.Backend
	}
	if opts.Ceiling < opts.Budget {
		opts.Ceiling = opts.Budget
	}

	if opts.Resolution > s.securityConfig.MaxResolution {
		return orchestration.Options{}, apperrors.NewConfigError("resolution %d exceeds the server limit of %d", opts.Resolution, s.securityConfig.MaxResolution)
	}
	if opts.Ceiling > s.securityConfig.MaxCeiling {
		return orchestration.Options{}, apperrors.NewConfigError("ceiling %d exceeds the server limit of %d", opts.Ceiling, s.securityConfig.MaxCeiling)
	}
	return opts, nil
}

// writeJSONResponse marshals payload as the response body with the given
// status.
func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeErrorResponse writes the uniform error body.
func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	writeJSONResponse(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
