package backend

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/rs/zerolog/log"
)

// exitGracePeriod is how long Close waits for the worker to exit after the
// EXIT command before killing it.
const exitGracePeriod = 3 * time.Second

// ProcessEngine evaluates points by delegating to an external worker binary
// speaking the line protocol on its stdin/stdout. The worker is spawned
// lazily on the first evaluation, so constructing or registering the engine
// never starts a process.
//
// A ProcessEngine performs exactly one exchange at a time: Evaluate writes
// one request line and reads one response line under the engine mutex. Any
// protocol violation or pipe failure poisons the engine, because the worker
// may be mid-line or desynchronized; a poisoned engine fails every
// subsequent evaluation until closed.
type ProcessEngine struct {
	path string
	args []string

	mu       sync.Mutex
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stdout   *bufio.Reader
	stderr   *stderrLogWriter
	started  bool
	closed   bool
	poisoned bool
}

// NewProcessEngine creates a new ProcessEngine for the given worker command.
// The command is not started until the first Evaluate call.
//
// Parameters:
//   - path: The worker executable path.
//   - args: Additional arguments passed to the worker.
//
// Returns:
//   - *ProcessEngine: A new engine wrapping the worker command.
func NewProcessEngine(path string, args ...string) *ProcessEngine {
	return &ProcessEngine{path: path, args: args}
}

// RegisterProcessBackend binds the "process" backend in the global factory
// to the given worker command. Each factory Create call yields an engine
// owning its own worker process. The application calls this once the worker
// command is known from configuration.
//
// Parameters:
//   - path: The worker executable path.
//   - args: Additional arguments passed to the worker.
func RegisterProcessBackend(path string, args ...string) error {
	return RegisterEvaluator(NameProcess, func() coreEvaluator { return NewProcessEngine(path, args...) })
}

// Name returns the name of the engine.
func (e *ProcessEngine) Name() string {
	return "Process (external worker)"
}

// start spawns the worker process and wires its pipes. Callers must hold
// the engine mutex.
func (e *ProcessEngine) start() error {
	cmd := exec.Command(e.path, e.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return apperrors.NewBackendError("failed to open worker stdin", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return apperrors.NewBackendError("failed to open worker stdout", err)
	}
	stderr := &stderrLogWriter{command: e.path}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return apperrors.NewBackendError("failed to start worker process", err)
	}

	e.cmd = cmd
	e.stdin = stdin
	e.stdout = bufio.NewReader(stdout)
	e.stderr = stderr
	e.started = true

	log.Debug().
		Str("backend", NameProcess).
		Str("command", e.path).
		Int("pid", cmd.Process.Pid).
		Msg("worker process started")
	return nil
}

// EvaluateCore performs one request/response exchange with the worker.
// Cancellation is honored between exchanges; a response read already in
// progress runs to completion.
//
// Parameters:
//   - ctx: The context for managing cancellation.
//   - req: The evaluation request.
//
// Returns:
//   - Response: The worker's response.
//   - error: A BackendError on process or pipe failure, or a ProtocolError
//     if the worker's answer violates the protocol.
func (e *ProcessEngine) EvaluateCore(ctx context.Context, req Request) (Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return Response{}, apperrors.NewBackendError("evaluate on closed backend", nil)
	}
	if e.poisoned {
		return Response{}, apperrors.NewBackendError("worker state is unknown after a protocol error", nil)
	}
	if !e.started {
		if err := e.start(); err != nil {
			return Response{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	if _, err := io.WriteString(e.stdin, FormatRequest(req)+"\n"); err != nil {
		e.poisoned = true
		return Response{}, apperrors.NewBackendError("failed to write request to worker", err)
	}

	line, err := e.stdout.ReadString('\n')
	if err != nil {
		e.poisoned = true
		return Response{}, apperrors.NewBackendError("failed to read response from worker", err)
	}

	resp, err := ParseResponse(strings.TrimSpace(line))
	if err != nil {
		e.poisoned = true
		return Response{}, err
	}
	return resp, nil
}

// Close shuts the worker down. The first call asks the worker to exit by
// writing EXIT and closing its stdin, waits up to exitGracePeriod for it to
// terminate, and kills it if it does not. Subsequent calls are no-ops.
//
// Returns:
//   - error: An error if the worker had to be killed or did not shut down
//     cleanly.
func (e *ProcessEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	if !e.started {
		return nil
	}

	// A poisoned worker may never read another line; closing stdin makes
	// it see EOF even if the EXIT write is lost.
	if !e.poisoned {
		_, _ = io.WriteString(e.stdin, cmdExit+"\n")
	}
	_ = e.stdin.Close()

	err := e.waitWithGrace()
	e.stderr.flush()

	log.Debug().
		Str("backend", NameProcess).
		Str("command", e.path).
		Msg("worker process stopped")
	return err
}

// waitWithGrace waits for the worker to exit, killing it after the grace
// period. Callers must hold the engine mutex.
func (e *ProcessEngine) waitWithGrace() error {
	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return apperrors.NewBackendError("worker exited abnormally", err)
		}
		return nil
	case <-time.After(exitGracePeriod):
		_ = e.cmd.Process.Kill()
		<-done
		return apperrors.NewBackendError("worker did not exit within the grace period and was killed", nil)
	}
}

// stderrLogWriter forwards the worker's stderr to the application log, one
// line per log event. Partial lines are buffered until their newline
// arrives; flush emits any unterminated remainder.
type stderrLogWriter struct {
	command string
	buf     bytes.Buffer
}

// Write implements io.Writer. It is called only from the goroutine exec
// uses to copy the child's stderr, so no locking is needed.
func (w *stderrLogWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line; keep it buffered for the next write.
			w.buf.WriteString(line)
			break
		}
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// flush emits any buffered partial line.
func (w *stderrLogWriter) flush() {
	if w == nil || w.buf.Len() == 0 {
		return
	}
	w.emit(w.buf.String())
	w.buf.Reset()
}

// emit writes one worker stderr line to the log.
func (w *stderrLogWriter) emit(line string) {
	if line == "" {
		return
	}
	log.Warn().
		Str("backend", NameProcess).
		Str("command", w.command).
		Msg(line)
}
