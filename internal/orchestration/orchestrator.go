// Package orchestration drives one grid evaluation run from bounds to a
// finished arena: it estimates the working precision, generates the grid,
// and advances the convergence loop round by round through the worker pool
// until a stopping condition is met.
//
// The loop is a strict barrier machine: within a round every submitted task
// must complete and be applied before the next round's target budget is
// chosen. Rounds never overlap, so the arena needs no locking; only the
// loop's goroutine touches it between drains.
package orchestration

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/mandelgrid/internal/backend"
	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/agbru/mandelgrid/internal/grid"
	"github.com/agbru/mandelgrid/internal/logging"
	"github.com/agbru/mandelgrid/internal/metrics"
	"github.com/agbru/mandelgrid/internal/numeral"
	"github.com/agbru/mandelgrid/internal/pool"
	"github.com/agbru/mandelgrid/internal/precision"
	"github.com/agbru/mandelgrid/pkg/models"
)

// Options configures one grid evaluation run.
type Options struct {
	// MinRe, MaxRe, MinIm, MaxIm are the bounding box corners as numerals.
	MinRe, MaxRe, MinIm, MaxIm string
	// Resolution is the sample count along the real axis.
	Resolution int
	// Budget is the cumulative iteration target of the first round.
	Budget uint64
	// Ceiling is the global safety cap on cumulative iterations per point.
	Ceiling uint64
	// EscapeRadius is the escape threshold on |z| as a numeral.
	EscapeRadius string
	// EscapeThreshold is the diminishing-returns fraction: a round whose
	// escape share of the working set falls below it ends the run.
	EscapeThreshold float64
	// Precision forces the working precision in bits; 0 means estimate it
	// from the bounds and resolution.
	Precision uint
	// Workers is the pool size; 0 means one worker per CPU.
	Workers int
	// Backend is the registry name of the evaluation backend.
	Backend string
	// Source yields worker evaluators; nil means the global factory.
	Source pool.EvaluatorSource
	// Logger receives the run's structured events. The zero value is valid
	// and discards them.
	Logger zerolog.Logger
	// ProgressChan receives drain progress, stamped with the round number.
	ProgressChan chan<- pool.ProgressUpdate
	// RunID identifies the run in logs and the summary; empty generates one.
	RunID string
}

// Orchestrator owns the state of one run. It is single-use: construct with
// New, call Run once, then read the returned arena and summary.
type Orchestrator struct {
	opts   Options
	logger zerolog.Logger

	grid      *grid.Grid
	precision uint
	radius    string

	// target is the cumulative iteration budget of the active round.
	// finalRound marks the round whose target was clamped to the ceiling.
	target     uint64
	finalRound bool

	rounds     int
	totalIters uint64
}

// New validates the options and prepares a run.
//
// Parameters:
//   - opts: The run configuration.
//
// Returns:
//   - *Orchestrator: The prepared orchestrator.
//   - error: A ConfigError on inconsistent options.
func New(opts Options) (*Orchestrator, error) {
	if opts.Resolution < 1 {
		return nil, apperrors.NewConfigError("resolution must be at least 1, got %d", opts.Resolution)
	}
	if opts.Budget < 1 {
		return nil, apperrors.NewConfigError("starting budget must be at least 1")
	}
	if opts.Ceiling < opts.Budget {
		return nil, apperrors.NewConfigError("ceiling (%d) is below the starting budget (%d)", opts.Ceiling, opts.Budget)
	}
	if opts.EscapeThreshold < 0 || opts.EscapeThreshold >= 1 {
		return nil, apperrors.NewConfigError("escape threshold must be in [0, 1), got %g", opts.EscapeThreshold)
	}
	if opts.EscapeRadius == "" {
		opts.EscapeRadius = "2"
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	logger := logging.WithRunID(logging.WithComponent(opts.Logger, "orchestration"), opts.RunID)
	return &Orchestrator{opts: opts, logger: logger}, nil
}

// Run executes the full convergence loop and returns the evaluated arena
// plus a summary of the run.
//
// Parameters:
//   - ctx: The context bounding the whole run.
//
// Returns:
//   - *grid.Grid: The evaluated arena (nil on failure).
//   - models.RunSummary: The run outcome, valid only when err is nil.
//   - error: The first generation, pool, or backend error.
func (o *Orchestrator) Run(ctx context.Context) (*grid.Grid, models.RunSummary, error) {
	tracer := otel.Tracer("orchestration")
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", o.opts.RunID),
		attribute.String("backend", o.opts.Backend),
	)

	start := time.Now()

	if err := o.generate(); err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, models.RunSummary{}, err
	}

	p, err := pool.New(ctx, pool.Options{
		Workers:      o.opts.Workers,
		Backend:      o.opts.Backend,
		Source:       o.opts.Source,
		ProgressChan: o.opts.ProgressChan,
	})
	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, models.RunSummary{}, apperrors.NewBackendError("starting worker pool", err)
	}
	defer p.Shutdown()

	reason, err := o.loop(ctx, p)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, models.RunSummary{}, err
	}
	if err := p.Shutdown(); err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, models.RunSummary{}, apperrors.NewBackendError("stopping worker pool", err)
	}

	duration := time.Since(start)
	summary := o.summary(reason, duration)
	metrics.RunsTotal.WithLabelValues("success").Inc()
	metrics.RunDuration.Observe(duration.Seconds())

	o.logger.Info().
		Str("stop_reason", string(reason)).
		Int("rounds", summary.Rounds).
		Int("escaped", summary.EscapedPoints).
		Int("points", summary.TotalPoints).
		Uint64("total_iterations", summary.TotalIterations).
		Dur("duration", duration).
		Msg("run finished")
	return o.grid, summary, nil
}

// generate resolves the working precision, builds the arena, and primes the
// first round's budget.
func (o *Orchestrator) generate() error {
	prec := o.opts.Precision
	if prec == 0 {
		// The aspect-derived row count feeds the estimate, so compute it
		// provisionally at a precision taken from the bounds themselves.
		provisional := uint(precision.MinBits)
		for _, s := range []string{o.opts.MinRe, o.opts.MaxRe, o.opts.MinIm, o.opts.MaxIm} {
			if p := numeral.EstimatePrecision(s); p > provisional {
				provisional = p
			}
		}
		rect, err := grid.ParseRect(o.opts.MinRe, o.opts.MaxRe, o.opts.MinIm, o.opts.MaxIm, provisional)
		if err != nil {
			return err
		}
		rows := grid.Rows(rect, o.opts.Resolution, provisional)
		prec, err = precision.Estimate(
			o.opts.MinRe, o.opts.MaxRe, o.opts.MinIm, o.opts.MaxIm,
			o.opts.Resolution, rows)
		if err != nil {
			return err
		}
	}

	rect, err := grid.ParseRect(o.opts.MinRe, o.opts.MaxRe, o.opts.MinIm, o.opts.MaxIm, prec)
	if err != nil {
		return err
	}
	g, err := grid.Generate(rect, o.opts.Resolution, prec)
	if err != nil {
		return err
	}

	radius, err := numeral.Decode(o.opts.EscapeRadius, prec)
	if err != nil {
		return err
	}
	if radius.Sign() <= 0 {
		return apperrors.NewConfigError("escape radius must be positive, got %s", o.opts.EscapeRadius)
	}

	o.grid = g
	o.precision = prec
	o.radius = numeral.Encode(radius, prec)
	o.target = o.opts.Budget
	if o.target >= o.opts.Ceiling {
		o.target = o.opts.Ceiling
		o.finalRound = true
	}

	o.logger.Info().
		Int("res_x", g.ResX).
		Int("res_y", g.ResY).
		Uint("precision", prec).
		Uint64("budget", o.target).
		Uint64("ceiling", o.opts.Ceiling).
		Msg("grid generated")
	return nil
}

// loop runs convergence rounds until a stopping condition fires, returning
// the reason the run ended.
func (o *Orchestrator) loop(ctx context.Context, p *pool.Pool) (models.StopReason, error) {
	tracer := otel.Tracer("orchestration")

	for round := 1; ; round++ {
		working := o.selectWorkingSet()
		if len(working) == 0 {
			return models.StopAllResolved, nil
		}

		roundCtx, span := tracer.Start(ctx, "Round")
		span.SetAttributes(
			attribute.Int("round", round),
			attribute.Int("working_set", len(working)),
			attribute.Int64("target_budget", int64(o.target)),
		)

		roundStart := time.Now()
		metrics.WorkingSetSize.Set(float64(len(working)))
		metrics.TargetBudget.Set(float64(o.target))
		p.SetProgressSource(round)

		newlyEscaped, err := o.runRound(roundCtx, p, working)
		span.End()
		if err != nil {
			return "", err
		}

		o.rounds = round
		metrics.RoundsTotal.Inc()
		metrics.RoundDuration.Observe(time.Since(roundStart).Seconds())
		metrics.EscapedPointsTotal.Add(float64(newlyEscaped))

		fraction := float64(newlyEscaped) / float64(len(working))
		o.logger.Info().
			Int("round", round).
			Int("working", len(working)).
			Int("escaped", newlyEscaped).
			Float64("fraction", fraction).
			Uint64("target_budget", o.target).
			Dur("duration", time.Since(roundStart)).
			Msg("round complete")

		// Stopping conditions, in order: no progress, diminishing returns,
		// then the ceiling cap set when this round's budget was chosen.
		if newlyEscaped == 0 {
			return models.StopNoProgress, nil
		}
		if fraction < o.opts.EscapeThreshold {
			return models.StopDiminishingReturns, nil
		}
		if o.finalRound {
			return models.StopCeiling, nil
		}

		o.target *= 2
		if o.target >= o.opts.Ceiling {
			o.target = o.opts.Ceiling
			o.finalRound = true
		}
	}
}

// selectWorkingSet returns the arena indices still worth iterating: not
// escaped, below the ceiling, and below the current target.
func (o *Orchestrator) selectWorkingSet() []int {
	working := make([]int, 0, o.grid.Len())
	for i := range o.grid.Points {
		pt := &o.grid.Points[i]
		if pt.Escaped {
			continue
		}
		if pt.Iterations >= o.opts.Ceiling || pt.Iterations >= o.target {
			continue
		}
		working = append(working, i)
	}
	return working
}

// runRound submits one task per working point, waits for the full barrier,
// and applies every result. It returns how many points escaped this round.
//
// Submission runs concurrently with the drain: with bounded task and result
// channels, submitting the whole working set up front would deadlock once
// both queues fill.
func (o *Orchestrator) runRound(ctx context.Context, p *pool.Pool, working []int) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for _, idx := range working {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if err := p.Submit(o.taskFor(idx)); err != nil {
				return err
			}
		}
		return nil
	})
	metrics.RoundTasksTotal.Add(float64(len(working)))

	results, err := p.Drain(ctx, len(working))
	if serr := g.Wait(); err == nil {
		err = serr
	}
	if err != nil {
		return 0, apperrors.NewBackendError("round aborted", err)
	}

	// Results arrive in completion order and correlate by index alone.
	// The seen set makes application idempotent: a duplicated index can
	// never double-count iterations.
	seen := make(map[int]struct{}, len(working))
	newlyEscaped := 0
	for _, res := range results {
		escaped, err := o.applyResult(seen, res)
		if err != nil {
			return 0, err
		}
		if escaped {
			newlyEscaped++
		}
	}
	return newlyEscaped, nil
}

// taskFor builds the round task for the point at idx. The round-local budget
// is the distance from the point's cumulative count to the current target,
// so iterations already performed are never re-run.
func (o *Orchestrator) taskFor(idx int) pool.Task {
	pt := &o.grid.Points[idx]
	return pool.Task{
		Index: idx,
		Request: backend.Request{
			Precision:    o.precision,
			Za:           numeral.Encode(pt.Za, o.precision),
			Zb:           numeral.Encode(pt.Zb, o.precision),
			Ca:           numeral.Encode(pt.Ca, o.precision),
			Cb:           numeral.Encode(pt.Cb, o.precision),
			Budget:       o.target - pt.Iterations,
			EscapeRadius: o.radius,
		},
	}
}

// applyResult folds one worker result into the arena. Duplicate indices are
// ignored; out-of-range indices are a protocol violation. It reports whether
// the point escaped in this round.
func (o *Orchestrator) applyResult(seen map[int]struct{}, res pool.Result) (bool, error) {
	if res.Index < 0 || res.Index >= o.grid.Len() {
		return false, apperrors.NewProtocolError(
			fmt.Sprintf("index %d", res.Index), "result index outside the arena")
	}
	if _, dup := seen[res.Index]; dup {
		return false, nil
	}
	seen[res.Index] = struct{}{}

	pt := &o.grid.Points[res.Index]
	za, err := numeral.Decode(res.Response.Za, o.precision)
	if err != nil {
		return false, apperrors.NewBackendError("decoding result za", err)
	}
	zb, err := numeral.Decode(res.Response.Zb, o.precision)
	if err != nil {
		return false, apperrors.NewBackendError("decoding result zb", err)
	}

	// Cumulative count only grows; the final iterate becomes the next
	// round's starting z when the point stays open.
	pt.Iterations += res.Response.Iterations
	pt.Za = za
	pt.Zb = zb
	o.totalIters += res.Response.Iterations
	if res.Response.Escaped && !pt.Escaped {
		pt.Escaped = true
		return true, nil
	}
	return false, nil
}

// summary assembles the run report from the finished arena.
func (o *Orchestrator) summary(reason models.StopReason, duration time.Duration) models.RunSummary {
	escaped := 0
	for i := range o.grid.Points {
		if o.grid.Points[i].Escaped {
			escaped++
		}
	}
	workers := o.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return models.RunSummary{
		RunID:           o.opts.RunID,
		Backend:         o.opts.Backend,
		Workers:         workers,
		ResX:            o.grid.ResX,
		ResY:            o.grid.ResY,
		Precision:       o.precision,
		Rounds:          o.rounds,
		TotalIterations: o.totalIters,
		EscapedPoints:   escaped,
		TotalPoints:     o.grid.Len(),
		StopReason:      reason,
		Duration:        duration,
	}
}
