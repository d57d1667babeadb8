package numeral

import (
	"errors"
	"math"
	"math/big"
	"strings"
	"testing"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
)

// FuzzDecode verifies that Decode never panics and that every accepted input
// reaches a stable fixpoint: once decoded, re-encoding and re-decoding at the
// same precision must reproduce the identical value and string.
func FuzzDecode(f *testing.F) {
	// Seed corpus with canonical, degenerate, and malformed inputs
	f.Add("0")
	f.Add("1.0000000000000@0")
	f.Add("8." + strings.Repeat("0", 26) + "@-1")
	f.Add("-g.0@-1")
	f.Add("v.vvvvvvvvvvvvv@5")
	f.Add("+3.4@1")
	f.Add(".8@0")
	f.Add("4.")
	f.Add("0.0@5")
	f.Add("1.2.3")
	f.Add("1@2@3")
	f.Add("1@")
	f.Add("@")
	f.Add("-")
	f.Add("1w")
	f.Add("1@300000000")

	f.Fuzz(func(t *testing.T, s string) {
		const prec = 128

		v, err := Decode(s, prec)
		if err != nil {
			// Rejections must always be typed malformed-numeral errors.
			var malformed apperrors.MalformedNumeralError
			if !errors.As(err, &malformed) {
				t.Fatalf("Decode(%q) error type = %T, want MalformedNumeralError", s, err)
			}
			return
		}

		// v carries at most prec bits, so encoding it is exact and the
		// round trip must be an identity from here on.
		encoded := Encode(v, prec)
		again, err := Decode(encoded, prec)
		if err != nil {
			t.Fatalf("Decode(%q) rejected its own encoding %q: %v", s, encoded, err)
		}
		if again.Cmp(v) != 0 {
			t.Errorf("fixpoint violated for %q:\n  first:  %v\n  second: %v", s, v, again)
		}
		if stable := Encode(again, prec); stable != encoded {
			t.Errorf("encoding not stable for %q: %q then %q", s, encoded, stable)
		}
	})
}

// FuzzEncodeDigitRule verifies the digit-count rule across arbitrary values
// and precisions.
func FuzzEncodeDigitRule(f *testing.F) {
	f.Add(0.25, uint(128))
	f.Add(1.0, uint(64))
	f.Add(-2.5, uint(256))
	f.Add(1e300, uint(64))
	f.Add(-1e-300, uint(512))

	f.Fuzz(func(t *testing.T, value float64, prec uint) {
		// Keep precision in the range the engine actually uses.
		if prec < 1 || prec > 4096 {
			return
		}
		if value == 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return
		}
		v := new(big.Float).SetPrec(prec).SetFloat64(value)

		s := Encode(v, prec)
		body := strings.TrimPrefix(s, "-")
		at := strings.IndexByte(body, '@')
		if at < 0 {
			t.Fatalf("Encode(%v, %d) = %q: missing exponent", value, prec, s)
		}
		digits := at - 1 // drop the radix point
		if digits != DigitCount(prec) {
			t.Errorf("Encode(%v, %d) = %q: %d digits, want %d", value, prec, s, digits, DigitCount(prec))
		}
	})
}
