package backend

import (
	"context"
	"fmt"
	"math/big"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/agbru/mandelgrid/internal/numeral"
)

// Registry names for the built-in backends. The registry key is the short
// stable identifier used in flags and configuration; Name() on the engines
// returns the longer display form.
const (
	NameBigFloat = "bigfloat"
	NameProcess  = "process"
	NameGMP      = "gmp"
)

// BigFloatEngine is the in-process escape-time engine built on math/big.
// It evaluates z <- z*z + c at the request precision until the orbit leaves
// the escape radius or the iteration budget is exhausted. It is the default
// backend and requires no external resources.
type BigFloatEngine struct{}

// Name returns the name of the engine.
func (e *BigFloatEngine) Name() string {
	return "BigFloat (math/big)"
}

// Close is a no-op; the engine holds no resources.
func (e *BigFloatEngine) Close() error { return nil }

// EvaluateCore runs the escape-time iteration for one point.
//
// The escape test compares za*za + zb*zb against radius*radius, which for a
// non-negative radius decides |z| > radius without a square root. The final
// iterate is re-encoded at the request precision so the caller can resume
// the orbit in a later request.
//
// Parameters:
//   - ctx: The context for managing cancellation.
//   - req: The evaluation request.
//
// Returns:
//   - Response: The evaluation outcome.
//   - error: An error on malformed numerals, a negative radius, or
//     cancellation.
func (e *BigFloatEngine) EvaluateCore(ctx context.Context, req Request) (Response, error) {
	prec := req.Precision

	za, err := numeral.Decode(req.Za, prec)
	if err != nil {
		return Response{}, fmt.Errorf("za: %w", err)
	}
	zb, err := numeral.Decode(req.Zb, prec)
	if err != nil {
		return Response{}, fmt.Errorf("zb: %w", err)
	}
	ca, err := numeral.Decode(req.Ca, prec)
	if err != nil {
		return Response{}, fmt.Errorf("ca: %w", err)
	}
	cb, err := numeral.Decode(req.Cb, prec)
	if err != nil {
		return Response{}, fmt.Errorf("cb: %w", err)
	}
	radius, err := numeral.Decode(req.EscapeRadius, prec)
	if err != nil {
		return Response{}, fmt.Errorf("escape radius: %w", err)
	}
	if radius.Sign() < 0 {
		return Response{}, apperrors.NewBackendError("escape radius must be non-negative", nil)
	}

	// radiusSq is the squared escape threshold; the loop never needs the
	// radius itself.
	radiusSq := new(big.Float).SetPrec(prec).Mul(radius, radius)

	t1 := new(big.Float).SetPrec(prec)
	t2 := new(big.Float).SetPrec(prec)
	magSq := new(big.Float).SetPrec(prec)
	nextZa := new(big.Float).SetPrec(prec)
	nextZb := new(big.Float).SetPrec(prec)

	var iterations uint64
	escaped := false

	for i := uint64(0); i < req.Budget; i++ {
		// Check for cancellation
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		default:
		}

		// nextZa = za² - zb² + ca
		t1.Mul(za, za)
		t2.Mul(zb, zb)
		nextZa.Sub(t1, t2)
		nextZa.Add(nextZa, ca)

		// nextZb = 2·za·zb + cb
		t1.Mul(za, zb)
		nextZb.Add(t1, t1)
		nextZb.Add(nextZb, cb)

		za, nextZa = nextZa, za
		zb, nextZb = nextZb, zb
		iterations = i + 1

		// Escape test on the updated iterate
		t1.Mul(za, za)
		t2.Mul(zb, zb)
		magSq.Add(t1, t2)
		if magSq.Cmp(radiusSq) > 0 {
			escaped = true
			break
		}
	}

	return Response{
		Escaped:    escaped,
		Za:         numeral.Encode(za, prec),
		Zb:         numeral.Encode(zb, prec),
		Iterations: iterations,
	}, nil
}
