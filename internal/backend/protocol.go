// Package backend provides the evaluation backends for escape-time grid
// computation. This file defines the line protocol spoken between the
// coordinator and an external worker.
//
// Protocol Overview:
// The coordinator writes one request line and reads exactly one response
// line; there is never more than one exchange in flight per worker.
//
//	request:  CAL <precision> <za> <zb> <ca> <cb> <budget> <escape_radius>
//	response: CAL <Y|N> <final_za> <final_zb> <iterations>
//
// All arbitrary-precision values travel as canonical base-32 numerals. A
// worker answers BAD_CMD to any request it cannot parse, and echoes EXIT
// before terminating when asked to shut down.
package backend

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
)

// Protocol tokens. The strings are fixed by the worker wire format and are
// matched case-sensitively.
const (
	cmdCal     = "CAL"
	cmdExit    = "EXIT"
	respBadCmd = "BAD_CMD"

	escapedFlag    = "Y"
	notEscapedFlag = "N"
)

// requestFieldCount is the exact number of whitespace-separated fields in a
// request line, the command token included.
const requestFieldCount = 8

// responseFieldCount is the exact number of whitespace-separated fields in a
// response line, the command token included.
const responseFieldCount = 5

// FormatRequest renders a Request as a single protocol line without the
// trailing newline.
//
// Parameters:
//   - req: The request to encode.
//
// Returns:
//   - string: The encoded request line.
func FormatRequest(req Request) string {
	return fmt.Sprintf("%s %d %s %s %s %s %d %s",
		cmdCal, req.Precision, req.Za, req.Zb, req.Ca, req.Cb, req.Budget, req.EscapeRadius)
}

// ParseRequest parses a request line into a Request. Validation here is
// structural: field count, command token, and the two integer fields. The
// numeral fields are validated by the engine that decodes them, so a worker
// can reject bad numerals and bad numbers through the same BAD_CMD path.
//
// Parameters:
//   - line: The raw request line, without the trailing newline.
//
// Returns:
//   - Request: The parsed request.
//   - error: A ProtocolError if the line is not a well-formed request.
func ParseRequest(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) != requestFieldCount {
		return Request{}, apperrors.NewProtocolError(line, "expected %d request fields, got %d", requestFieldCount, len(fields))
	}
	if fields[0] != cmdCal {
		return Request{}, apperrors.NewProtocolError(line, "unknown command %q", fields[0])
	}

	prec, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return Request{}, apperrors.NewProtocolError(line, "invalid precision %q", fields[1])
	}
	if prec == 0 {
		return Request{}, apperrors.NewProtocolError(line, "precision must be positive")
	}

	budget, err := strconv.ParseUint(fields[6], 10, 64)
	if err != nil {
		return Request{}, apperrors.NewProtocolError(line, "invalid iteration budget %q", fields[6])
	}

	return Request{
		Precision:    uint(prec),
		Za:           fields[2],
		Zb:           fields[3],
		Ca:           fields[4],
		Cb:           fields[5],
		Budget:       budget,
		EscapeRadius: fields[7],
	}, nil
}

// FormatResponse renders a Response as a single protocol line without the
// trailing newline.
//
// Parameters:
//   - resp: The response to encode.
//
// Returns:
//   - string: The encoded response line.
func FormatResponse(resp Response) string {
	flag := notEscapedFlag
	if resp.Escaped {
		flag = escapedFlag
	}
	return fmt.Sprintf("%s %s %s %s %d", cmdCal, flag, resp.Za, resp.Zb, resp.Iterations)
}

// ParseResponse parses a worker response line into a Response. Any
// deviation from the expected shape, BAD_CMD included, is a ProtocolError:
// after one the worker's state is unknown and the exchange cannot continue.
//
// Parameters:
//   - line: The raw response line, without the trailing newline.
//
// Returns:
//   - Response: The parsed response.
//   - error: A ProtocolError if the line is not a well-formed response.
func ParseResponse(line string) (Response, error) {
	fields := strings.Fields(line)
	if len(fields) == 1 && fields[0] == respBadCmd {
		return Response{}, apperrors.NewProtocolError(line, "worker rejected the request")
	}
	if len(fields) != responseFieldCount {
		return Response{}, apperrors.NewProtocolError(line, "expected %d response fields, got %d", responseFieldCount, len(fields))
	}
	if fields[0] != cmdCal {
		return Response{}, apperrors.NewProtocolError(line, "unknown command %q", fields[0])
	}

	var escaped bool
	switch fields[1] {
	case escapedFlag:
		escaped = true
	case notEscapedFlag:
		escaped = false
	default:
		return Response{}, apperrors.NewProtocolError(line, "invalid escape flag %q", fields[1])
	}

	iterations, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return Response{}, apperrors.NewProtocolError(line, "invalid iteration count %q", fields[4])
	}

	return Response{
		Escaped:    escaped,
		Za:         fields[2],
		Zb:         fields[3],
		Iterations: iterations,
	}, nil
}
