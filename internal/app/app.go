package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbru/mandelgrid/internal/analyze"
	"github.com/agbru/mandelgrid/internal/backend"
	"github.com/agbru/mandelgrid/internal/calibration"
	"github.com/agbru/mandelgrid/internal/cli"
	"github.com/agbru/mandelgrid/internal/config"
	"github.com/agbru/mandelgrid/internal/convert"
	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/agbru/mandelgrid/internal/logging"
	"github.com/agbru/mandelgrid/internal/orchestration"
	"github.com/agbru/mandelgrid/internal/output"
	"github.com/agbru/mandelgrid/internal/pool"
	"github.com/agbru/mandelgrid/internal/regions"
	"github.com/agbru/mandelgrid/internal/render"
	"github.com/agbru/mandelgrid/internal/server"
	"github.com/agbru/mandelgrid/internal/ui"
	"github.com/agbru/mandelgrid/internal/zoom"
)

// Application represents the mandelgrid application instance.
// It encapsulates the configuration and provides methods to run the
// application in its various modes (grid run, server, render, zoom,
// analyze, convert, calibrate, worker).
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Factory provides access to the evaluation backends.
	Factory *backend.DefaultFactory
	// ErrWriter is the writer for error output (typically os.Stderr).
	ErrWriter io.Writer
}

// New creates a new Application instance by parsing command-line arguments.
// It validates the configuration and returns an error if parsing or validation fails.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	factory := backend.GlobalFactory()

	// The process backend only gets registered once the worker command is
	// known, so it is offered to validation unconditionally.
	availableBackends := factory.List()
	if !factory.Has(backend.NameProcess) {
		availableBackends = append(availableBackends, backend.NameProcess)
	}

	// args[0] is program name, args[1:] are the actual arguments
	programName := "mandelgrid"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, availableBackends)
	if err != nil {
		return nil, err
	}

	return &Application{
		Config:    cfg,
		Factory:   factory,
		ErrWriter: errWriter,
	}, nil
}

// Run executes the application based on the configured mode.
//
// Parameters:
//   - ctx: The context for managing cancellation and timeouts.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	// Handle completion script generation
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	// Initialize CLI theme (respects -no-color flag and NO_COLOR env var)
	ui.InitTheme(a.Config.NoColor)

	switch {
	case a.Config.ListRegions:
		return a.runListRegions(out)
	case a.Config.ConvertMode:
		return a.runConvert(out)
	case a.Config.WorkerMode:
		return a.runWorker(ctx)
	case a.Config.ServerMode:
		return a.runServer()
	case a.Config.Calibrate:
		return a.runCalibration(ctx, out)
	case a.Config.RenderMode:
		return a.runRender(out)
	case a.Config.ZoomMode:
		return a.runZoom(out)
	case a.Config.AnalyzeMode:
		return a.runAnalyze(out)
	}

	return a.runGrid(ctx, out)
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.Factory.List(), regions.Names()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runListRegions prints the named example region catalog.
func (a *Application) runListRegions(out io.Writer) int {
	if err := regions.PrintTable(out); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error listing regions: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runConvert converts one numeral between base 10 and base 32.
func (a *Application) runConvert(out io.Writer) int {
	result, err := convert.Convert(a.Config.Value, a.Config.FromBase, a.Config.ToBase, a.Config.Precision)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Conversion error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	fmt.Fprintln(out, result)
	return apperrors.ExitSuccess
}

// runWorker serves the line protocol on stdin/stdout, letting this binary
// stand in as the external worker of a process backend.
func (a *Application) runWorker(ctx context.Context) int {
	if err := backend.Serve(ctx, os.Stdin, os.Stdout, &backend.BigFloatEngine{}); err != nil {
		if apperrors.IsContextError(err) {
			return apperrors.ExitErrorCanceled
		}
		fmt.Fprintf(a.ErrWriter, "Worker error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runServer starts the HTTP server mode.
func (a *Application) runServer() int {
	srv := server.NewServer(a.Factory, a.Config)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runCalibration runs the full worker-count calibration.
func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	ctx, cancels := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancels.Cleanup()
	return calibration.RunCalibrationWithOptions(ctx, out, calibration.Options{
		ProfilePath: a.Config.CalibrationProfile,
		SaveProfile: true,
		Backend:     a.Config.Backend,
	})
}

// runRender reads a grid CSV and writes a PNG image.
func (a *Application) runRender(out io.Writer) int {
	records, err := output.ReadRecordsFile(a.Config.InputFile)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error reading grid: %v\n", err)
		return apperrors.ExitErrorMismatch
	}

	path := a.Config.OutputFile
	if path == "" {
		path = "mandelgrid.png"
	}
	if err := render.RenderFile(records, path, render.Options{Scale: a.Config.Scale}); err != nil {
		fmt.Fprintf(a.ErrWriter, "Render error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	cli.DisplayFileNotice(out, path, a.Config.Quiet)
	return apperrors.ExitSuccess
}

// runZoom reads a grid CSV and prints the suggested next window as JSON.
func (a *Application) runZoom(out io.Writer) int {
	records, err := output.ReadRecordsFile(a.Config.InputFile)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error reading grid: %v\n", err)
		return apperrors.ExitErrorMismatch
	}

	suggestion, err := zoom.Suggest(records, zoom.Options{
		Factor:        a.Config.ZoomFactor,
		TopPercentile: a.Config.TopPercentile,
	})
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Zoom error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(suggestion); err != nil {
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runAnalyze reads a grid CSV and prints summary statistics.
func (a *Application) runAnalyze(out io.Writer) int {
	records, err := output.ReadRecordsFile(a.Config.InputFile)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error reading grid: %v\n", err)
		return apperrors.ExitErrorMismatch
	}

	stats, err := analyze.Analyze(records)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Analyze error: %v\n", err)
		return apperrors.ExitErrorMismatch
	}

	if a.Config.JSONOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			return apperrors.ExitErrorGeneric
		}
		return apperrors.ExitSuccess
	}
	if err := analyze.PrintReport(out, stats); err != nil {
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runGrid performs one full grid evaluation: lifecycle setup, backend
// wiring, the convergence loop, and result output.
func (a *Application) runGrid(ctx context.Context, out io.Writer) int {
	ctx, cancels := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancels.Cleanup()

	cfg := a.Config

	// A cached calibration profile fills in the pool size when -workers was
	// left at its default.
	cfg, _ = calibration.ApplyCachedProfile(cfg, cfg.CalibrationProfile)

	// A named region overrides the bounds and schedule.
	if cfg.Region != "" {
		region, ok := regions.Get(cfg.Region)
		if !ok {
			fmt.Fprintf(a.ErrWriter, "Unknown region %q. Valid regions: %v\n", cfg.Region, regions.Names())
			return apperrors.ExitErrorConfig
		}
		cfg.MinRe, cfg.MaxRe = region.MinRe, region.MaxRe
		cfg.MinIm, cfg.MaxIm = region.MinIm, region.MaxIm
		cfg.Resolution = region.Resolution
		cfg.Budget = region.Budget
		cfg.EscapeRadius = region.EscapeRadius
		if cfg.Precision == 0 {
			cfg.Precision = region.Precision
		}
		if cfg.Ceiling < cfg.Budget {
			cfg.Ceiling = cfg.Budget
		}
	}

	if cfg.Backend == backend.NameProcess {
		fields := strings.Fields(cfg.WorkerCmd)
		if len(fields) == 0 {
			fmt.Fprintln(a.ErrWriter, "Configuration error: -worker-cmd is empty")
			return apperrors.ExitErrorConfig
		}
		if err := backend.RegisterProcessBackend(fields[0], fields[1:]...); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error registering process backend: %v\n", err)
			return apperrors.ExitErrorConfig
		}
	}

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	logger := logging.New(a.ErrWriter, level)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics listener stopped")
			}
		}()
	}

	if !cfg.JSONOutput && !cfg.Quiet {
		cli.PrintExecutionConfig(cfg, out)
		cli.PrintExecutionMode(cfg.Backend, cfg.Workers, out)
	}

	progressOut := out
	if cfg.Quiet || cfg.JSONOutput {
		progressOut = io.Discard
	}
	progressChan := make(chan pool.ProgressUpdate, 5)
	var wg sync.WaitGroup
	wg.Add(1)
	go cli.DisplayProgress(&wg, progressChan, progressOut)

	orch, err := orchestration.New(orchestration.Options{
		MinRe:           cfg.MinRe,
		MaxRe:           cfg.MaxRe,
		MinIm:           cfg.MinIm,
		MaxIm:           cfg.MaxIm,
		Resolution:      cfg.Resolution,
		Budget:          cfg.Budget,
		Ceiling:         cfg.Ceiling,
		EscapeRadius:    cfg.EscapeRadius,
		EscapeThreshold: cfg.EscapeThreshold,
		Precision:       cfg.Precision,
		Workers:         cfg.Workers,
		Backend:         cfg.Backend,
		Source:          a.Factory,
		Logger:          logger,
		ProgressChan:    progressChan,
	})
	if err != nil {
		close(progressChan)
		wg.Wait()
		fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	start := time.Now()
	g, summary, err := orch.Run(ctx)
	close(progressChan)
	wg.Wait()

	if err != nil {
		return apperrors.HandleRunError(err, time.Since(start), a.ErrWriter, cli.CLIColorProvider{})
	}

	outputFile := cfg.OutputFile
	if outputFile == "" {
		outputFile = config.DefaultOutputFile
	}
	if err := output.WriteGridFile(outputFile, g); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving grid: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	if cfg.JSONOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return apperrors.ExitErrorGeneric
		}
		return apperrors.ExitSuccess
	}

	cli.DisplaySummary(out, summary, cli.OutputConfig{
		OutputFile: outputFile,
		Quiet:      cfg.Quiet,
		Verbose:    cfg.Verbose,
	})
	cli.DisplayFileNotice(out, outputFile, cfg.Quiet)
	return apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
// This is useful for determining if the application should exit with success
// after displaying help text.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: True if the error indicates help was requested.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
