package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/mandelgrid/internal/config"
)

// PrintExecutionConfig displays the current execution configuration to the
// user. It shows the bounding box, resolution, backend, iteration schedule,
// and environment details.
//
// Parameters:
//   - cfg: The application configuration.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	writeOut(out, "--- Execution Configuration ---\n")
	if cfg.Region != "" {
		writeOut(out, "Region: %s%s%s.\n", ColorMagenta(), cfg.Region, ColorReset())
	}
	writeOut(out, "Bounds: re [%s%s%s, %s%s%s), im [%s%s%s, %s%s%s).\n",
		ColorCyan(), cfg.MinRe, ColorReset(), ColorCyan(), cfg.MaxRe, ColorReset(),
		ColorCyan(), cfg.MinIm, ColorReset(), ColorCyan(), cfg.MaxIm, ColorReset())
	writeOut(out, "Resolution: %s%d%s points along the real axis, timeout %s%s%s.\n",
		ColorCyan(), cfg.Resolution, ColorReset(), ColorYellow(), cfg.Timeout, ColorReset())
	writeOut(out, "Iteration schedule: budget %s%s%s doubling to ceiling %s%s%s.\n",
		ColorCyan(), formatNumberString(fmt.Sprintf("%d", cfg.Budget)), ColorReset(),
		ColorCyan(), formatNumberString(fmt.Sprintf("%d", cfg.Ceiling)), ColorReset())
	writeOut(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ColorCyan(), runtime.NumCPU(), ColorReset(), ColorCyan(), runtime.Version(), ColorReset())
}

// PrintExecutionMode displays the selected backend and worker count.
//
// Parameters:
//   - backendName: The registry name of the evaluation backend.
//   - workers: The worker count; 0 means one worker per CPU.
//   - out: The writer for standard output.
func PrintExecutionMode(backendName string, workers int, out io.Writer) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	writeOut(out, "Execution mode: %s%s%s backend with %s%d%s workers.\n",
		ColorGreen(), backendName, ColorReset(), ColorCyan(), workers, ColorReset())
	writeOut(out, "\n--- Starting Execution ---\n")
}

// writeOut writes a formatted string to the output writer.
//
// Parameters:
//   - out: The destination writer.
//   - format: The format string (see fmt.Printf).
//   - a: Arguments for the format string.
func writeOut(out io.Writer, format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}
