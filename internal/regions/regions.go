// Package regions holds the named example windows of the complex plane that
// ship with the application. Each region carries its bounds as base-32
// numerals plus the resolution and iteration budget that resolve it well.
package regions

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// Region describes one named window of the complex plane.
type Region struct {
	// Name is the identifier accepted by the -region flag.
	Name string
	// Description is a one-line human-readable summary.
	Description string
	// MinRe, MinIm, MaxRe, MaxIm are the bounding box corners as numerals.
	MinRe, MinIm, MaxRe, MaxIm string
	// Resolution is the suggested real-axis sample count.
	Resolution int
	// Budget is the suggested starting iteration budget.
	Budget uint64
	// EscapeRadius is the escape threshold as a numeral.
	EscapeRadius string
	// Precision is the suggested working precision in bits; 0 lets the
	// estimator decide.
	Precision uint
}

// catalog lists the built-in regions. Bounds are base-32 numerals, so the
// digits of the deeper windows read differently from their decimal names.
var catalog = map[string]Region{
	"classic": {
		Name:        "classic",
		Description: "Classic full Mandelbrot view",
		MinRe:       "-2", MinIm: "-2", MaxRe: "2", MaxIm: "2",
		Resolution: 100, Budget: 100, EscapeRadius: "2",
	},
	"seahorse_valley": {
		Name:        "seahorse_valley",
		Description: "Seahorse Valley (detailed zoom)",
		MinRe:       "-0.75@0", MinIm: "0.1@0", MaxRe: "-0.74@0", MaxIm: "0.11@0",
		Resolution: 50, Budget: 2000, EscapeRadius: "2", Precision: 128,
	},
	"elephant_valley": {
		Name:        "elephant_valley",
		Description: "Elephant Valley",
		MinRe:       "0.25@0", MinIm: "-0.1@-1", MaxRe: "0.26@0", MaxIm: "0.1@-1",
		Resolution: 50, Budget: 1000, EscapeRadius: "2", Precision: 128,
	},
	"spiral": {
		Name:        "spiral",
		Description: "Spiral region near -0.75",
		MinRe:       "-0.7520@0", MinIm: "0.104@0", MaxRe: "-0.7515@0", MaxIm: "0.1045@0",
		Resolution: 40, Budget: 5000, EscapeRadius: "2", Precision: 192,
	},
	"mini_mandelbrot": {
		Name:        "mini_mandelbrot",
		Description: "Mini Mandelbrot at -1.75",
		MinRe:       "-1.752@0", MinIm: "-0.001@0", MaxRe: "-1.748@0", MaxIm: "0.001@0",
		Resolution: 50, Budget: 5000, EscapeRadius: "2", Precision: 128,
	},
}

// Get looks up a region by name.
//
// Parameters:
//   - name: The region identifier.
//
// Returns:
//   - Region: The region definition.
//   - bool: Whether the name is known.
func Get(name string) (Region, bool) {
	r, ok := catalog[name]
	return r, ok
}

// Names returns the region identifiers in sorted order.
//
// Returns:
//   - []string: The sorted region names.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the regions in name order.
//
// Returns:
//   - []Region: The region definitions, sorted by name.
func All() []Region {
	names := Names()
	all := make([]Region, 0, len(names))
	for _, name := range names {
		all = append(all, catalog[name])
	}
	return all
}

// PrintTable writes the region catalog as an aligned table.
//
// Parameters:
//   - out: The destination writer.
//
// Returns:
//   - error: An error if the table cannot be flushed.
func PrintTable(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION\tBOUNDS (RE, IM)\tRESOLUTION\tBUDGET")
	for _, r := range All() {
		fmt.Fprintf(w, "%s\t%s\t[%s, %s) x [%s, %s)\t%d\t%d\n",
			r.Name, r.Description, r.MinRe, r.MaxRe, r.MinIm, r.MaxIm,
			r.Resolution, r.Budget)
	}
	return w.Flush()
}
