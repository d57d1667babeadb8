// Package cli provides output utilities for presenting run summaries.
package cli

import (
	"fmt"
	"io"

	"github.com/agbru/mandelgrid/pkg/models"
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path the arena was saved to (empty for no file).
	OutputFile string
	// Quiet mode suppresses everything but the single-line summary.
	Quiet bool
	// Verbose adds the run identifier and precision details.
	Verbose bool
}

// FormatQuietSummary formats a run summary for quiet mode output.
// Returns a single-line result suitable for scripting.
//
// Parameters:
//   - summary: The run summary.
//
// Returns:
//   - string: The formatted summary string.
func FormatQuietSummary(summary models.RunSummary) string {
	return fmt.Sprintf("%s %d/%d escaped in %d rounds (%d iterations)",
		summary.StopReason, summary.EscapedPoints, summary.TotalPoints,
		summary.Rounds, summary.TotalIterations)
}

// DisplaySummary formats and prints the final run summary. It provides
// different levels of detail based on the output configuration.
//
// Parameters:
//   - out: The output writer.
//   - summary: The run summary.
//   - config: Output configuration.
func DisplaySummary(out io.Writer, summary models.RunSummary, config OutputConfig) {
	if config.Quiet {
		fmt.Fprintln(out, FormatQuietSummary(summary))
		return
	}

	fmt.Fprintf(out, "\n%s--- Run Summary ---%s\n", ColorBold(), ColorReset())
	fmt.Fprintf(out, "Grid                   : %s%dx%d%s points at %s%d%s bits\n",
		ColorCyan(), summary.ResX, summary.ResY, ColorReset(),
		ColorCyan(), summary.Precision, ColorReset())
	fmt.Fprintf(out, "Stop reason            : %s%s%s after %s%d%s rounds\n",
		ColorMagenta(), summary.StopReason, ColorReset(),
		ColorCyan(), summary.Rounds, ColorReset())
	fmt.Fprintf(out, "Escaped points         : %s%s%s of %s%s%s (%.1f%%)\n",
		ColorGreen(), formatNumberString(fmt.Sprintf("%d", summary.EscapedPoints)), ColorReset(),
		ColorCyan(), formatNumberString(fmt.Sprintf("%d", summary.TotalPoints)), ColorReset(),
		summary.EscapedFraction()*100)
	fmt.Fprintf(out, "Total iterations       : %s%s%s\n",
		ColorCyan(), formatNumberString(fmt.Sprintf("%d", summary.TotalIterations)), ColorReset())

	durationStr := FormatExecutionDuration(summary.Duration)
	if summary.Duration == 0 {
		durationStr = "< 1µs"
	}
	fmt.Fprintf(out, "Run time               : %s%s%s\n", ColorGreen(), durationStr, ColorReset())

	if config.Verbose {
		fmt.Fprintf(out, "Run ID                 : %s%s%s\n", ColorCyan(), summary.RunID, ColorReset())
		fmt.Fprintf(out, "Backend                : %s%s%s with %s%d%s workers\n",
			ColorCyan(), summary.Backend, ColorReset(), ColorCyan(), summary.Workers, ColorReset())
	}
}

// DisplayFileNotice prints the saved-output notice unless quiet mode is on.
//
// Parameters:
//   - out: The output writer.
//   - path: The file the arena was written to.
//   - quiet: Suppresses the notice when true.
func DisplayFileNotice(out io.Writer, path string, quiet bool) {
	if quiet || path == "" {
		return
	}
	fmt.Fprintf(out, "\n%s✓ Grid saved to: %s%s%s\n",
		ColorGreen(), ColorCyan(), path, ColorReset())
}
