package regions

import (
	"bytes"
	"strings"
	"testing"

	"github.com/agbru/mandelgrid/internal/grid"
	"github.com/agbru/mandelgrid/internal/numeral"
)

func TestGet(t *testing.T) {
	t.Parallel()

	r, ok := Get("classic")
	if !ok {
		t.Fatal("classic region is missing")
	}
	if r.MinRe != "-2" || r.MaxRe != "2" || r.Budget != 100 {
		t.Errorf("classic = %+v, want the -2..2 window with budget 100", r)
	}

	if _, ok := Get("atlantis"); ok {
		t.Error("Get accepted an unknown region name")
	}
}

func TestNamesAreSortedAndComplete(t *testing.T) {
	t.Parallel()

	names := Names()
	want := []string{"classic", "elephant_valley", "mini_mandelbrot", "seahorse_valley", "spiral"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestAllRegionsAreWellFormed(t *testing.T) {
	t.Parallel()

	for _, r := range All() {
		r := r
		t.Run(r.Name, func(t *testing.T) {
			t.Parallel()
			// Every region must parse into a valid rectangle and a
			// positive radius at a baseline precision.
			if _, err := grid.ParseRect(r.MinRe, r.MaxRe, r.MinIm, r.MaxIm, 256); err != nil {
				t.Errorf("bounds do not parse: %v", err)
			}
			radius, err := numeral.Decode(r.EscapeRadius, 64)
			if err != nil {
				t.Fatalf("escape radius does not parse: %v", err)
			}
			if radius.Sign() <= 0 {
				t.Error("escape radius is not positive")
			}
			if r.Resolution < 1 || r.Budget < 1 {
				t.Errorf("resolution %d / budget %d are not positive", r.Resolution, r.Budget)
			}
			if r.Description == "" {
				t.Error("region has no description")
			}
		})
	}
}

func TestPrintTable(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := PrintTable(&out); err != nil {
		t.Fatalf("PrintTable failed: %v", err)
	}
	text := out.String()
	for _, name := range Names() {
		if !strings.Contains(text, name) {
			t.Errorf("table is missing region %q", name)
		}
	}
	if !strings.Contains(text, "BUDGET") {
		t.Error("table is missing its header")
	}
}
