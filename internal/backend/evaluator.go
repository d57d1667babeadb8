// Package backend provides the evaluation backends for escape-time grid
// computation. It exposes an `Evaluator` interface that abstracts the
// underlying point evaluator, allowing different engines (in-process
// math/big, external worker processes, GMP-backed fixed point) to be used
// interchangeably. The package integrates a registry for backend selection,
// per-evaluation metrics, and the line protocol spoken with external workers.
package backend

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

var (
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mandelgrid_evaluations_total",
			Help: "The total number of point evaluations processed",
		},
		[]string{"backend", "status"},
	)
	evaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "mandelgrid_evaluation_duration_seconds",
			Help: "The duration of point evaluations in seconds",
		},
		[]string{"backend"},
	)
)

// Request describes one point evaluation. All numeric fields that carry
// arbitrary-precision values are canonical base-32 numerals; Precision is
// the number of mantissa bits the backend must compute with.
type Request struct {
	// Precision is the binary precision, in bits, for the evaluation.
	Precision uint
	// Za and Zb are the real and imaginary parts of the current iterate.
	Za, Zb string
	// Ca and Cb are the real and imaginary parts of the grid point constant.
	Ca, Cb string
	// Budget is the maximum number of iterations for this evaluation.
	Budget uint64
	// EscapeRadius is the escape threshold on |z|.
	EscapeRadius string
}

// Response carries the outcome of one point evaluation. Za and Zb are the
// final iterate as canonical base-32 numerals at the request precision, so
// a subsequent Request can resume the orbit exactly where this one stopped.
type Response struct {
	// Escaped reports whether |z| exceeded the escape radius.
	Escaped bool
	// Za and Zb are the real and imaginary parts of the final iterate.
	Za, Zb string
	// Iterations is the number of iterations consumed by this evaluation.
	Iterations uint64
}

// Evaluator defines the public interface for an evaluation backend.
// It is the primary abstraction used by the worker pool to advance grid
// points, hiding whether the arithmetic runs in-process or in an external
// worker.
type Evaluator interface {
	// Evaluate advances one point by at most req.Budget iterations. It is
	// designed for safe sequential use by a single worker goroutine and
	// supports cancellation through the provided context.
	//
	// Parameters:
	//   - ctx: The context for managing cancellation and deadlines.
	//   - req: The evaluation request.
	//
	// Returns:
	//   - Response: The evaluation outcome.
	//   - error: An error if one occurred (e.g., protocol violation).
	Evaluate(ctx context.Context, req Request) (Response, error)

	// Name returns the display name of the backend (e.g., "bigfloat").
	//
	// Returns:
	//   - string: The name of the backend.
	Name() string

	// Close releases backend resources. For process backends this
	// terminates the worker; for in-process backends it is a no-op.
	// Close is idempotent.
	//
	// Returns:
	//   - error: An error if shutdown failed.
	Close() error
}

// coreEvaluator defines the internal interface for a pure evaluation engine.
type coreEvaluator interface {
	EvaluateCore(ctx context.Context, req Request) (Response, error)
	Name() string
	Close() error
}

// instrumentedEvaluator is an implementation of the Evaluator interface that
// uses the Decorator design pattern.
// It wraps a coreEvaluator to add cross-cutting concerns: tracing, metrics,
// and debug logging for every evaluation.
type instrumentedEvaluator struct {
	core coreEvaluator
}

// NewEvaluator is a factory function that constructs and returns a new
// instrumented Evaluator.
// It takes a coreEvaluator as input, which represents the specific evaluation
// engine to be used. This function panics if the core evaluator is nil,
// ensuring system integrity.
//
// Parameters:
//   - core: The core evaluator to be wrapped.
//
// Returns:
//   - Evaluator: A new Evaluator instance wrapping the core engine.
func NewEvaluator(core coreEvaluator) Evaluator {
	if core == nil {
		panic("backend: the `coreEvaluator` implementation cannot be nil")
	}
	return &instrumentedEvaluator{core: core}
}

// Name returns the name of the encapsulated coreEvaluator, fulfilling the
// Evaluator interface by delegating the call.
//
// Returns:
//   - string: The name of the backend.
func (e *instrumentedEvaluator) Name() string {
	return e.core.Name()
}

// Close delegates shutdown to the encapsulated coreEvaluator.
//
// Returns:
//   - error: An error if shutdown failed.
func (e *instrumentedEvaluator) Close() error {
	return e.core.Close()
}

// Evaluate executes one evaluation through the wrapped engine, recording
// a trace span, Prometheus metrics, and a debug log entry around the call.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - req: The evaluation request.
//
// Returns:
//   - Response: The evaluation outcome.
//   - error: An error if one occurred.
func (e *instrumentedEvaluator) Evaluate(ctx context.Context, req Request) (resp Response, err error) {
	tracer := otel.Tracer("backend")
	ctx, span := tracer.Start(ctx, "Evaluate")
	defer span.End()

	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		status := "success"
		if err != nil {
			status = "error"
		}
		name := e.core.Name()
		evaluationsTotal.WithLabelValues(name, status).Inc()
		evaluationDuration.WithLabelValues(name).Observe(duration)

		log.Debug().
			Str("backend", name).
			Uint("precision", req.Precision).
			Uint64("budget", req.Budget).
			Float64("duration", duration).
			Str("status", status).
			Msg("evaluation completed")
	}()

	return e.core.EvaluateCore(ctx, req)
}
