// Package pool implements the fixed worker pool that advances grid points
// through an evaluation backend. Each worker goroutine owns one Evaluator
// instance, so process-backed workers map one-to-one onto worker
// subprocesses and never share a pipe.
package pool

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/mandelgrid/internal/backend"
	"github.com/agbru/mandelgrid/internal/parallel"
)

// ErrPoolClosed is returned by Submit after the pool has been shut down.
var ErrPoolClosed = errors.New("pool: already shut down")

// Task is one unit of work: advance the grid point at Index by the budget
// carried in the request.
type Task struct {
	// Index identifies the grid point the request belongs to.
	Index int
	// Request is the evaluation to perform.
	Request backend.Request
}

// Result pairs a worker response with the grid point it belongs to.
// Correlation is always through Index; nothing may be inferred from the
// order results arrive in.
type Result struct {
	// Index identifies the grid point the response belongs to.
	Index int
	// Response is the evaluation outcome.
	Response backend.Response
}

// ProgressUpdate is a data transfer object that reports how far a drain has
// progressed. It is sent over a channel from the pool to the user interface
// to provide asynchronous progress updates.
type ProgressUpdate struct {
	// SourceIndex identifies the activity the update belongs to; the
	// convergence loop uses the round number.
	SourceIndex int
	// Value represents the normalized progress, ranging from 0.0 to 1.0.
	Value float64
}

// EvaluatorSource yields evaluator instances by backend name. It is the
// narrow slice of the backend factory the pool needs; *backend.DefaultFactory
// satisfies it.
type EvaluatorSource interface {
	Create(name string) (backend.Evaluator, error)
}

// Options configures a Pool.
type Options struct {
	// Workers is the number of worker goroutines. Zero or negative means
	// runtime.NumCPU().
	Workers int
	// Backend is the registry name of the evaluation backend. Empty means
	// the default in-process backend.
	Backend string
	// Source yields the workers' evaluators. Nil means the global backend
	// factory.
	Source EvaluatorSource
	// QueueSize is the task and result channel capacity. Zero or negative
	// means twice the worker count.
	QueueSize int
	// ProgressChan receives drain progress updates when non-nil. Sends are
	// non-blocking; a slow consumer loses intermediate updates, never
	// stalls the pool.
	ProgressChan chan<- ProgressUpdate
}

// Pool is a fixed set of workers consuming tasks from a shared queue.
// Submit and Drain are safe for use from one coordinating goroutine; the
// zero value is not usable, construct with New.
type Pool struct {
	opts    Options
	tasks   chan Task
	results chan Result

	group *errgroup.Group
	gctx  context.Context

	evalErrors  parallel.ErrorCollector
	closeErrors parallel.ErrorCollector

	progressSource atomic.Int64
	shutdownOnce   sync.Once
	shutdownErr    error
	closed         atomic.Bool
}

// New creates the pool and starts its workers. Every worker receives its
// own evaluator from the source; if any evaluator cannot be created the
// already-created ones are closed and the error is returned.
//
// Parameters:
//   - ctx: The context bounding all evaluations; cancelling it aborts the
//     workers.
//   - opts: The pool configuration.
//
// Returns:
//   - *Pool: The running pool.
//   - error: An error if a worker's evaluator could not be created.
func New(ctx context.Context, opts Options) (*Pool, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Backend == "" {
		opts.Backend = backend.NameBigFloat
	}
	if opts.Source == nil {
		opts.Source = backend.GlobalFactory()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = opts.Workers * 2
	}

	evaluators := make([]backend.Evaluator, 0, opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		ev, err := opts.Source.Create(opts.Backend)
		if err != nil {
			for _, created := range evaluators {
				_ = created.Close()
			}
			return nil, err
		}
		evaluators = append(evaluators, ev)
	}

	group, gctx := errgroup.WithContext(ctx)
	p := &Pool{
		opts:    opts,
		tasks:   make(chan Task, opts.QueueSize),
		results: make(chan Result, opts.QueueSize),
		group:   group,
		gctx:    gctx,
	}

	for i, ev := range evaluators {
		id, evaluator := i, ev
		group.Go(func() error {
			return p.worker(id, evaluator)
		})
	}

	log.Debug().
		Int("workers", opts.Workers).
		Str("backend", opts.Backend).
		Msg("worker pool started")
	return p, nil
}

// worker consumes tasks until the queue closes. The first evaluation error
// is recorded and returned, which cancels the group context and makes the
// sibling workers stop at their next context check.
func (p *Pool) worker(id int, ev backend.Evaluator) error {
	defer func() {
		p.closeErrors.SetError(ev.Close())
	}()

	for task := range p.tasks {
		resp, err := ev.Evaluate(p.gctx, task.Request)
		if err != nil {
			log.Error().
				Err(err).
				Int("worker", id).
				Int("point", task.Index).
				Msg("evaluation failed")
			p.evalErrors.SetError(err)
			return err
		}
		select {
		case p.results <- Result{Index: task.Index, Response: resp}:
		case <-p.gctx.Done():
			return p.gctx.Err()
		}
	}
	return nil
}

// Submit enqueues one task. It blocks while the queue is full and fails
// once a worker has died or the pool has been shut down.
//
// Parameters:
//   - task: The task to enqueue.
//
// Returns:
//   - error: ErrPoolClosed after Shutdown, or the first worker error if
//     the pool has already failed.
func (p *Pool) Submit(task Task) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	case <-p.gctx.Done():
		return p.abortCause()
	}
}

// Results exposes the raw result stream. Most callers use Drain; the
// channel is for consumers that interleave collection with other work.
//
// Returns:
//   - <-chan Result: The stream of completed evaluations.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Drain collects exactly expected results, reporting progress along the
// way. It fails as soon as the context expires or a worker dies, because a
// dead worker means the missing results will never arrive.
//
// Parameters:
//   - ctx: The context bounding the wait.
//   - expected: The number of results to collect.
//
// Returns:
//   - []Result: The collected results, in arrival order.
//   - error: The context error or the first worker error.
func (p *Pool) Drain(ctx context.Context, expected int) ([]Result, error) {
	collected := make([]Result, 0, expected)
	for len(collected) < expected {
		select {
		case res := <-p.results:
			collected = append(collected, res)
			p.reportProgress(len(collected), expected)
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.gctx.Done():
			// Buffered results may still be pending, but the round is
			// already lost; surface the cause.
			return nil, p.abortCause()
		}
	}
	return collected, nil
}

// SetProgressSource sets the source index stamped on subsequent progress
// updates. The convergence loop calls this with the round number between
// rounds, when no drain is active.
//
// Parameters:
//   - source: The new source index.
func (p *Pool) SetProgressSource(source int) {
	p.progressSource.Store(int64(source))
}

// reportProgress sends a non-blocking progress update.
func (p *Pool) reportProgress(done, expected int) {
	if p.opts.ProgressChan == nil || expected == 0 {
		return
	}
	update := ProgressUpdate{
		SourceIndex: int(p.progressSource.Load()),
		Value:       float64(done) / float64(expected),
	}
	select {
	case p.opts.ProgressChan <- update:
	default:
	}
}

// abortCause prefers the recorded worker error over the bare context error.
func (p *Pool) abortCause() error {
	if err := p.evalErrors.Err(); err != nil {
		return err
	}
	return p.gctx.Err()
}

// Shutdown closes the task queue, waits for the workers to finish their
// remaining tasks and close their evaluators, and returns the first error
// any of them hit. It is idempotent.
//
// Returns:
//   - error: The first worker or evaluator-close error, if any.
func (p *Pool) Shutdown() error {
	p.shutdownOnce.Do(func() {
		p.closed.Store(true)
		close(p.tasks)

		// Discard whatever the coordinator never drained so no worker
		// stays blocked on a result send.
		discarded := make(chan struct{})
		go func() {
			for range p.results {
			}
			close(discarded)
		}()

		err := p.group.Wait()
		close(p.results)
		<-discarded

		if err == nil {
			err = p.closeErrors.Err()
		}
		p.shutdownErr = err
		log.Debug().Err(err).Msg("worker pool stopped")
	})
	return p.shutdownErr
}
