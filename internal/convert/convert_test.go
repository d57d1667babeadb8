package convert

import (
	"math/big"
	"strings"
	"testing"

	"github.com/agbru/mandelgrid/internal/numeral"
)

func TestConvertDecimalToBase32(t *testing.T) {
	t.Parallel()

	got, err := Convert("0.5", 10, 32, 64)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	want := numeral.Encode(big.NewFloat(0.5), 64)
	if got != want {
		t.Errorf("Convert(0.5) = %q, want %q", got, want)
	}
}

func TestConvertBase32ToDecimal(t *testing.T) {
	t.Parallel()

	// g.0...@-1 is 16/32 = 0.5.
	encoded := numeral.Encode(big.NewFloat(0.5), 64)
	got, err := Convert(encoded, 32, 10, 64)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if !strings.HasPrefix(got, "0.5") {
		t.Errorf("Convert(%q) = %q, want a decimal 0.5", encoded, got)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"-2", "0.25", "1.15625", "-0.75", "3"} {
		value := value
		t.Run(value, func(t *testing.T) {
			t.Parallel()
			encoded, err := Convert(value, 10, 32, 256)
			if err != nil {
				t.Fatalf("to base 32 failed: %v", err)
			}
			back, err := Convert(encoded, 32, 10, 256)
			if err != nil {
				t.Fatalf("back to decimal failed: %v", err)
			}

			// The values must agree exactly when re-parsed; the textual
			// rendering may differ in trailing digits.
			a, _, err := big.ParseFloat(value, 10, 256, big.ToNearestEven)
			if err != nil {
				t.Fatal(err)
			}
			b, _, err := big.ParseFloat(back, 10, 256, big.ToNearestEven)
			if err != nil {
				t.Fatal(err)
			}
			if a.Cmp(b) != 0 {
				t.Errorf("round trip drifted: %s -> %s -> %s", value, encoded, back)
			}
		})
	}
}

func TestConvertNormalizesWithinBase(t *testing.T) {
	t.Parallel()

	got, err := Convert("2", 32, 32, 64)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	want := numeral.Encode(big.NewFloat(2), 64)
	if got != want {
		t.Errorf("normalization = %q, want %q", got, want)
	}
}

func TestConvertDefaultsPrecision(t *testing.T) {
	t.Parallel()

	got, err := Convert("0.5", 10, 32, 0)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(got) != len(numeral.Encode(big.NewFloat(0.5), DefaultPrecision)) {
		t.Errorf("default precision output %q has the wrong digit count", got)
	}
}

func TestConvertErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		from  int
		to    int
	}{
		{"BadFromBase", "1", 16, 32},
		{"BadToBase", "1", 10, 2},
		{"EmptyValue", "   ", 10, 32},
		{"BadDecimal", "12x.4", 10, 32},
		{"BadNumeral", "1..2", 32, 10},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Convert(tc.value, tc.from, tc.to, 64); err == nil {
				t.Errorf("Convert(%q, %d, %d) accepted invalid input", tc.value, tc.from, tc.to)
			}
		})
	}
}
