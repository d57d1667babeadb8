// Package config provides the configuration management for the mandelgrid
// application. It defines the data structure for the configuration, handles
// the parsing of command-line arguments, and performs validation on the
// configuration values.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
)

const (
	// EnvPrefix is the prefix for all environment variables used by mandelgrid.
	// Environment variables provide an alternative to CLI flags for configuration,
	// following the 12-Factor App methodology.
	EnvPrefix = "MANDELGRID_"
)

// Default configuration values.
// These can be overridden via command-line flags or environment variables.
const (
	// DefaultResolution is the default sample count along the real axis.
	DefaultResolution = 100
	// DefaultBudget is the default iteration budget of the first round.
	DefaultBudget uint64 = 100
	// DefaultCeiling is the default global safety cap on cumulative iterations.
	DefaultCeiling uint64 = 10_000_000
	// DefaultEscapeRadius is the default escape threshold on |z|.
	DefaultEscapeRadius = "2"
	// DefaultEscapeThreshold is the diminishing-returns stop fraction: when
	// fewer than this share of a round's working set escapes, the run stops.
	DefaultEscapeThreshold = 0.01
	// DefaultTimeout is the default run timeout.
	DefaultTimeout = 10 * time.Minute
	// DefaultBackend is the default evaluation backend name.
	DefaultBackend = "bigfloat"
	// DefaultOutputFile is the default CSV destination for grid runs.
	DefaultOutputFile = "mandelgrid.csv"
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultZoomFactor is the default magnification of a zoom suggestion.
	DefaultZoomFactor = 10.0
	// DefaultTopPercentile is the share of highest-interest boundary points a
	// zoom suggestion is sampled from.
	DefaultTopPercentile = 0.01
	// DefaultConvertPrecision is the working precision of the -convert mode.
	DefaultConvertPrecision = 256
)

// Default bounding box: the classic full-set view.
const (
	DefaultMinRe = "-2"
	DefaultMaxRe = "2"
	DefaultMinIm = "-2"
	DefaultMaxIm = "2"
)

// AppConfig aggregates the application's configuration parameters, parsed
// from command-line flags. It encapsulates all settings that control the
// execution, from the bounding box to evaluate, to the worker pool size and
// the operating mode.
type AppConfig struct {
	// MinRe, MaxRe, MinIm, MaxIm are the bounding box corners as base-32 or
	// plain numerals.
	MinRe, MaxRe, MinIm, MaxIm string
	// Region selects a named example region, overriding the four bounds.
	Region string
	// Resolution is the sample count along the real axis.
	Resolution int
	// Budget is the cumulative iteration target of the first round.
	Budget uint64
	// Ceiling is the global safety cap on cumulative iterations per point.
	Ceiling uint64
	// EscapeRadius is the escape threshold on |z|, as a numeral.
	EscapeRadius string
	// EscapeThreshold is the diminishing-returns stop fraction in [0, 1).
	EscapeThreshold float64
	// Precision forces the working precision in bits; 0 means estimate it
	// from the bounds and resolution.
	Precision uint
	// Workers is the worker pool size; 0 means one worker per CPU.
	Workers int
	// Backend is the registry name of the evaluation backend.
	Backend string
	// WorkerCmd is the command line of the external worker process used by
	// the process backend.
	WorkerCmd string
	// Timeout sets the maximum duration for a run.
	Timeout time.Duration
	// OutputFile is the destination path (CSV for grid runs, PNG for -render).
	OutputFile string
	// InputFile is the CSV consumed by -render, -zoom and -analyze.
	InputFile string

	// JSONOutput, if true, outputs results in JSON format.
	JSONOutput bool
	// Quiet mode - minimal output for scripting purposes.
	// Suppresses progress bars, banners, and informational messages.
	Quiet bool
	// Verbose, if true, enables debug-level logging.
	Verbose bool
	// NoColor, if true, disables all color output in the CLI.
	// Also respects the NO_COLOR environment variable.
	NoColor bool
	// LogLevel is the minimum structured-log level ("debug".."error").
	LogLevel string
	// MetricsAddr, when non-empty, exposes /metrics on this address during
	// CLI runs.
	MetricsAddr string

	// Mode switches, mutually exclusive.
	ServerMode  bool
	RenderMode  bool
	ZoomMode    bool
	AnalyzeMode bool
	ConvertMode bool
	Calibrate   bool
	ListRegions bool
	WorkerMode  bool
	// Completion, if set, generates a shell completion script for the given
	// shell. Valid values are: "bash", "zsh", "fish", "powershell".
	Completion string

	// Port specifies the port to listen on in server mode.
	Port string

	// Scale is the -render output width in pixels; 0 keeps the grid size.
	Scale int
	// ZoomFactor is the -zoom magnification.
	ZoomFactor float64
	// TopPercentile is the -zoom candidate pool fraction in (0, 1].
	TopPercentile float64

	// FromBase and ToBase are the -convert numeral bases (10 or 32).
	FromBase, ToBase int
	// Value is the numeral converted by -convert.
	Value string

	// CalibrationProfile is the path to a calibration profile file.
	// If empty, uses the default path (~/.mandelgrid_calibration.json).
	CalibrationProfile string
}

// Bounds returns the four bounding box corners in estimator order.
func (c AppConfig) Bounds() (minRe, maxRe, minIm, maxIm string) {
	return c.MinRe, c.MaxRe, c.MinIm, c.MaxIm
}

// modeCount returns how many mutually exclusive mode switches are active.
func (c AppConfig) modeCount() int {
	n := 0
	for _, on := range []bool{
		c.ServerMode, c.RenderMode, c.ZoomMode, c.AnalyzeMode,
		c.ConvertMode, c.Calibrate, c.ListRegions, c.WorkerMode,
	} {
		if on {
			n++
		}
	}
	return n
}

// Validate checks the semantic consistency of the configuration parameters.
// It ensures that numerical values are within valid ranges and that the
// chosen backend is registered.
//
// Parameters:
//   - availableBackends: A slice of strings listing the valid backend names
//     (e.g., ["bigfloat", "process"]).
//
// Returns:
//   - error: An error of type ConfigError if the configuration is invalid,
//     nil otherwise.
func (c AppConfig) Validate(availableBackends []string) error {
	if c.modeCount() > 1 {
		return apperrors.NewConfigError("modes -server, -render, -zoom, -analyze, -convert, -calibrate, -list-regions and -worker are mutually exclusive")
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.Resolution < 1 {
		return apperrors.NewConfigError("resolution must be at least 1: %d", c.Resolution)
	}
	if c.Budget < 1 {
		return apperrors.NewConfigError("iteration budget must be at least 1")
	}
	if c.Ceiling < c.Budget {
		return apperrors.NewConfigError("iteration ceiling (%d) cannot be below the starting budget (%d)", c.Ceiling, c.Budget)
	}
	if c.EscapeThreshold < 0 || c.EscapeThreshold >= 1 {
		return apperrors.NewConfigError("escape threshold must be in [0, 1): %g", c.EscapeThreshold)
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("worker count cannot be negative: %d", c.Workers)
	}
	if c.Precision != 0 && c.Precision < 64 {
		return apperrors.NewConfigError("precision must be 0 (auto) or at least 64 bits: %d", c.Precision)
	}

	isBackendAvailable := false
	for _, b := range availableBackends {
		if b == c.Backend {
			isBackendAvailable = true
			break
		}
	}
	if !isBackendAvailable {
		return apperrors.NewConfigError("unrecognized backend: '%s'. Valid backends are: [%s]", c.Backend, strings.Join(availableBackends, ", "))
	}
	if c.Backend == "process" && c.WorkerCmd == "" {
		return apperrors.NewConfigError("the process backend requires -worker-cmd")
	}

	if c.ZoomMode {
		if c.ZoomFactor <= 1 {
			return apperrors.NewConfigError("zoom factor must be above 1: %g", c.ZoomFactor)
		}
		if c.TopPercentile <= 0 || c.TopPercentile > 1 {
			return apperrors.NewConfigError("top percentile must be in (0, 1]: %g", c.TopPercentile)
		}
	}
	if c.RenderMode && c.Scale < 0 {
		return apperrors.NewConfigError("render scale cannot be negative: %d", c.Scale)
	}
	if c.ConvertMode {
		if !validBase(c.FromBase) || !validBase(c.ToBase) {
			return apperrors.NewConfigError("conversion bases must be 10 or 32 (got %d -> %d)", c.FromBase, c.ToBase)
		}
		if c.Value == "" {
			return apperrors.NewConfigError("-convert requires -value")
		}
	}
	if (c.RenderMode || c.ZoomMode || c.AnalyzeMode) && c.InputFile == "" {
		return apperrors.NewConfigError("this mode requires -input with a grid CSV file")
	}
	return nil
}

// validBase reports whether b is a supported conversion base.
func validBase(b int) bool { return b == 10 || b == 32 }

// ParseConfig parses the command-line arguments and populates an AppConfig
// struct. It defines all the command-line flags, sets their default values,
// and handles the parsing process. After parsing, it performs validation on
// the resulting configuration.
//
// The function is designed to be testable by allowing the input arguments and
// output writer to be specified.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: A slice of strings representing the command-line arguments
//     (typically os.Args[1:]).
//   - errorWriter: An io.Writer where parsing errors and usage information
//     will be printed.
//   - availableBackends: A slice of valid backend names for validation.
//
// Returns:
//   - AppConfig: The populated configuration struct.
//   - error: An error if flag parsing fails or validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableBackends []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	backendHelp := fmt.Sprintf("Evaluation backend: one of [%s].", strings.Join(availableBackends, ", "))

	config := AppConfig{}
	fs.StringVar(&config.MinRe, "min-re", DefaultMinRe, "Lower bound of the real axis.")
	fs.StringVar(&config.MaxRe, "max-re", DefaultMaxRe, "Upper bound of the real axis (exclusive).")
	fs.StringVar(&config.MinIm, "min-im", DefaultMinIm, "Lower bound of the imaginary axis.")
	fs.StringVar(&config.MaxIm, "max-im", DefaultMaxIm, "Upper bound of the imaginary axis (exclusive).")
	fs.StringVar(&config.Region, "region", "", "Named example region overriding the four bounds (see -list-regions).")
	fs.IntVar(&config.Resolution, "resolution", DefaultResolution, "Sample count along the real axis.")
	fs.Uint64Var(&config.Budget, "budget", DefaultBudget, "Cumulative iteration target of the first round.")
	fs.Uint64Var(&config.Ceiling, "ceiling", DefaultCeiling, "Global safety cap on cumulative iterations per point.")
	fs.StringVar(&config.EscapeRadius, "escape-radius", DefaultEscapeRadius, "Escape threshold on |z|.")
	fs.Float64Var(&config.EscapeThreshold, "escape-threshold", DefaultEscapeThreshold, "Stop when the round's escape fraction falls below this value.")
	fs.UintVar(&config.Precision, "precision", 0, "Working precision in bits (0 = estimate from bounds and resolution).")
	fs.IntVar(&config.Workers, "workers", 0, "Worker pool size (0 = one per CPU).")
	fs.StringVar(&config.Backend, "backend", DefaultBackend, backendHelp)
	fs.StringVar(&config.WorkerCmd, "worker-cmd", "", "External worker command for the process backend.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for a run.")
	fs.StringVar(&config.OutputFile, "output", "", "Output file path (CSV for grid runs, PNG for -render).")
	fs.StringVar(&config.OutputFile, "o", "", "Output file path (shorthand).")
	fs.StringVar(&config.InputFile, "input", "", "Grid CSV consumed by -render, -zoom and -analyze.")

	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.Verbose, "v", false, "Enable debug-level logging.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.LogLevel, "log-level", "info", "Minimum structured-log level (debug, info, warn, error).")
	fs.StringVar(&config.MetricsAddr, "metrics-addr", "", "Expose Prometheus /metrics on this address during CLI runs.")

	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.BoolVar(&config.RenderMode, "render", false, "Render a grid CSV to a PNG image.")
	fs.BoolVar(&config.ZoomMode, "zoom", false, "Suggest the next zoom window from a grid CSV.")
	fs.BoolVar(&config.AnalyzeMode, "analyze", false, "Print summary statistics for a grid CSV.")
	fs.BoolVar(&config.ConvertMode, "convert", false, "Convert a numeral between base 10 and base 32.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Benchmark worker counts and persist a calibration profile.")
	fs.BoolVar(&config.ListRegions, "list-regions", false, "Print the named example regions.")
	fs.BoolVar(&config.WorkerMode, "worker", false, "Serve the CAL line protocol on stdin/stdout.")
	fs.StringVar(&config.Completion, "completion", "", "Generate shell completion script (bash, zsh, fish, powershell).")

	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")

	fs.IntVar(&config.Scale, "scale", 0, "Render output width in pixels (0 = grid size).")
	fs.Float64Var(&config.ZoomFactor, "zoom-factor", DefaultZoomFactor, "Magnification of the suggested zoom window.")
	fs.Float64Var(&config.TopPercentile, "top-percentile", DefaultTopPercentile, "Candidate pool fraction for zoom suggestions.")

	fs.IntVar(&config.FromBase, "from", 10, "Source base for -convert (10 or 32).")
	fs.IntVar(&config.ToBase, "to", 32, "Target base for -convert (10 or 32).")
	fs.StringVar(&config.Value, "value", "", "Numeral to convert in -convert mode.")

	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path to calibration profile file (default: ~/.mandelgrid_calibration.json).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	// Apply environment variable overrides for flags not explicitly set
	applyEnvOverrides(&config, fs)

	config.Backend = strings.ToLower(config.Backend)
	if config.ConvertMode && config.Precision == 0 {
		config.Precision = DefaultConvertPrecision
	}
	if err := config.Validate(availableBackends); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.New("invalid configuration")
	}
	return config, nil
}
