package backend

import (
	"bufio"
	"context"
	"io"
	"strings"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/rs/zerolog/log"
)

// Serve implements the worker side of the line protocol: it reads request
// lines from r and writes one response line per request to w, using the
// given engine for the arithmetic. It answers BAD_CMD to any line it cannot
// parse or evaluate, echoes EXIT and returns when asked to shut down, and
// returns on EOF. Requests are served strictly one at a time.
//
// This is the loop behind the -worker mode, which lets a mandelgrid binary
// stand in for an external worker process.
//
// Parameters:
//   - ctx: The context; cancellation stops the loop between requests.
//   - r: The request stream (the worker's stdin).
//   - w: The response stream (the worker's stdout).
//   - core: The evaluation engine answering the requests.
//
// Returns:
//   - error: A BackendError on stream failure, or the context error on
//     cancellation. A clean EXIT or EOF returns nil.
func Serve(ctx context.Context, r io.Reader, w io.Writer, core coreEvaluator) error {
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := reader.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if err == io.EOF {
			if trimmed == "" {
				return nil
			}
			// Serve the final unterminated line, then stop.
			if stop, serveErr := serveLine(ctx, writer, core, trimmed); stop || serveErr != nil {
				return serveErr
			}
			return nil
		}
		if err != nil {
			return apperrors.NewBackendError("failed to read request", err)
		}

		if stop, err := serveLine(ctx, writer, core, trimmed); stop || err != nil {
			return err
		}
	}
}

// serveLine dispatches one request line and writes the answer. It reports
// stop=true when the line was an EXIT command.
func serveLine(ctx context.Context, w *bufio.Writer, core coreEvaluator, line string) (stop bool, err error) {
	if line == cmdExit {
		return true, writeLine(w, cmdExit)
	}

	req, err := ParseRequest(line)
	if err != nil {
		log.Debug().Str("line", line).Msg("rejected malformed request")
		return false, writeLine(w, respBadCmd)
	}

	resp, err := core.EvaluateCore(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return true, ctxErr
		}
		log.Debug().Str("line", line).Err(err).Msg("rejected unevaluable request")
		return false, writeLine(w, respBadCmd)
	}
	return false, writeLine(w, FormatResponse(resp))
}

// writeLine writes one protocol line and flushes it so the peer never
// blocks on a buffered answer.
func writeLine(w *bufio.Writer, line string) error {
	if _, err := w.WriteString(line + "\n"); err != nil {
		return apperrors.NewBackendError("failed to write response", err)
	}
	if err := w.Flush(); err != nil {
		return apperrors.NewBackendError("failed to write response", err)
	}
	return nil
}
