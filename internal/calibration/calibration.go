package calibration

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"time"

	"github.com/agbru/mandelgrid/internal/cli"
	"github.com/agbru/mandelgrid/internal/config"
	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/agbru/mandelgrid/internal/logging"
	"github.com/agbru/mandelgrid/internal/orchestration"
)

// Reference workload: a small slice of the classic view, heavy enough that
// pool sizing shows up in the wall time and light enough to finish in a few
// seconds per candidate.
const (
	benchResolution = 16
	benchPrecision  = 256
	benchBudget     = 256
	benchCeiling    = 1024
)

// Options configures the calibration process.
type Options struct {
	// ProfilePath is the path to save/load the calibration profile.
	// If empty, uses the default path.
	ProfilePath string
	// SaveProfile indicates whether to save the calibration results.
	SaveProfile bool
	// LoadProfile indicates whether to try loading an existing profile.
	LoadProfile bool
	// Backend is the evaluation backend benchmarked; empty means the default.
	Backend string
	// Candidates overrides the benchmarked worker counts; nil derives them
	// from the CPU count.
	Candidates []int
}

// benchResult holds the result of a single worker-count benchmark.
type benchResult struct {
	Workers  int
	Duration time.Duration
	Err      error
}

// WorkerCandidates returns the pool sizes worth benchmarking on this
// machine: sequential, a pair, half the CPUs, all of them, and twice as many
// to catch workloads that profit from oversubscription.
func WorkerCandidates() []int {
	n := runtime.NumCPU()
	seen := map[int]bool{}
	var candidates []int
	for _, w := range []int{1, 2, n / 2, n, 2 * n} {
		if w > 0 && !seen[w] {
			seen[w] = true
			candidates = append(candidates, w)
		}
	}
	sort.Ints(candidates)
	return candidates
}

// RunCalibration executes the full worker-count benchmark and persists the
// winner as a calibration profile.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - out: The io.Writer to which progress and results will be written.
//
// Returns:
//   - int: The exit code (0 for success, non-zero for errors).
func RunCalibration(ctx context.Context, out io.Writer) int {
	return RunCalibrationWithOptions(ctx, out, Options{
		SaveProfile: true,
		LoadProfile: false, // Full calibration should run fresh
	})
}

// RunCalibrationWithOptions executes calibration with the specified options.
func RunCalibrationWithOptions(ctx context.Context, out io.Writer, opts Options) int {
	fmt.Fprintf(out, "--- Calibration Mode: Finding the Optimal Worker Count ---\n")

	if opts.LoadProfile {
		profile, loaded := LoadOrCreateProfile(opts.ProfilePath)
		if loaded {
			fmt.Fprintf(out, "%sLoaded existing calibration profile from %s%s\n",
				cli.ColorGreen(), GetDefaultProfilePath(), cli.ColorReset())
			fmt.Fprintf(out, "Profile: %s\n", profile.String())
			fmt.Fprintf(out, "\n%s✅ Using cached calibration: %s-workers %d%s\n",
				cli.ColorGreen(), cli.ColorYellow(), profile.OptimalWorkers, cli.ColorReset())
			return apperrors.ExitSuccess
		}
	}

	candidates := opts.Candidates
	if candidates == nil {
		candidates = WorkerCandidates()
	}
	fmt.Fprintf(out, "%sBenchmarking %d pool sizes on a %dx%d grid at %d bits (%d CPU cores)%s\n",
		cli.ColorCyan(), len(candidates), benchResolution, benchResolution,
		benchPrecision, runtime.NumCPU(), cli.ColorReset())

	results := make([]benchResult, 0, len(candidates))
	bestDuration := time.Duration(1<<63 - 1)
	bestWorkers := 0
	calibrationStart := time.Now()

	for _, workers := range candidates {
		if ctx.Err() != nil {
			fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", cli.ColorYellow(), cli.ColorReset())
			return apperrors.ExitErrorCanceled
		}

		duration, err := benchRun(ctx, workers, opts.Backend)
		if err != nil {
			fmt.Fprintf(out, "%s❌ Failure with %d workers (%v)%s\n", cli.ColorRed(), workers, err, cli.ColorReset())
			results = append(results, benchResult{workers, 0, err})
			if apperrors.IsContextError(err) {
				return apperrors.ExitErrorCanceled
			}
			continue
		}

		results = append(results, benchResult{workers, duration, nil})
		if duration < bestDuration {
			bestDuration, bestWorkers = duration, workers
		}
	}

	if bestDuration == time.Duration(1<<63-1) {
		fmt.Fprintf(out, "\n%sCalibration failed: no valid results obtained.%s\n", cli.ColorRed(), cli.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	calibrationDuration := time.Since(calibrationStart)

	printCalibrationResults(out, results, bestWorkers)

	fmt.Fprintf(out, "\n%s✅ Recommendation for this machine: %s-workers %d%s\n",
		cli.ColorGreen(), cli.ColorYellow(), bestWorkers, cli.ColorReset())

	if opts.SaveProfile {
		profile := NewProfile()
		profile.OptimalWorkers = bestWorkers
		profile.BenchResolution = benchResolution
		profile.BenchPrecision = benchPrecision
		profile.CalibrationTime = calibrationDuration.String()

		if err := profile.SaveProfile(opts.ProfilePath); err != nil {
			fmt.Fprintf(out, "%sWarning: failed to save profile: %v%s\n",
				cli.ColorYellow(), err, cli.ColorReset())
		} else {
			path := opts.ProfilePath
			if path == "" {
				path = GetDefaultProfilePath()
			}
			fmt.Fprintf(out, "%sCalibration profile saved to %s%s\n",
				cli.ColorGreen(), path, cli.ColorReset())
		}
	}

	return apperrors.ExitSuccess
}

// benchRun evaluates the reference grid with the given pool size and returns
// the wall time.
func benchRun(ctx context.Context, workers int, backendName string) (time.Duration, error) {
	if backendName == "" {
		backendName = config.DefaultBackend
	}
	orch, err := orchestration.New(orchestration.Options{
		MinRe:           "-2",
		MaxRe:           "2",
		MinIm:           "-2",
		MaxIm:           "2",
		Resolution:      benchResolution,
		Budget:          benchBudget,
		Ceiling:         benchCeiling,
		EscapeThreshold: 0,
		Precision:       benchPrecision,
		Workers:         workers,
		Backend:         backendName,
		Logger:          logging.Nop(),
		RunID:           fmt.Sprintf("calibration-%d", workers),
	})
	if err != nil {
		return 0, err
	}

	start := time.Now()
	_, _, err = orch.Run(ctx)
	return time.Since(start), err
}

// ApplyCachedProfile loads a cached calibration profile and applies its
// worker count to the configuration. The explicit -workers flag always wins:
// a non-zero count is left untouched.
//
// Parameters:
//   - cfg: The parsed configuration.
//   - profilePath: The profile path; empty means the default.
//
// Returns:
//   - config.AppConfig: The updated configuration.
//   - bool: true if a valid cached profile was applied.
func ApplyCachedProfile(cfg config.AppConfig, profilePath string) (config.AppConfig, bool) {
	if cfg.Workers != 0 {
		return cfg, false
	}
	profile, loaded := LoadOrCreateProfile(profilePath)
	if !loaded {
		return cfg, false
	}
	cfg.Workers = profile.OptimalWorkers
	return cfg, true
}
