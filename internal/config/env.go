// Package config provides the configuration management for the mandelgrid application.
// This file contains environment variable utilities for configuration override.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// getEnvString returns the value of the environment variable with the given key
// (prefixed with EnvPrefix), or the default value if not set.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvUint64 returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as uint64, or the default value if not set
// or invalid.
func getEnvUint64(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvUint returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as uint, or the default value if not set
// or invalid.
func getEnvUint(key string, defaultVal uint) uint {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			return uint(parsed)
		}
	}
	return defaultVal
}

// getEnvInt returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as int, or the default value if not set
// or invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvFloat returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as float64, or the default value if not set
// or invalid.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as bool, or the default value if not set.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as time.Duration, or the default value if not
// set or invalid. Accepts formats like "5m", "30s", "1h30m".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
//
// Supported environment variables:
//   - MANDELGRID_MIN_RE / MAX_RE / MIN_IM / MAX_IM: Bounding box (numerals)
//   - MANDELGRID_REGION: Named example region (string)
//   - MANDELGRID_RESOLUTION: Real-axis sample count (int)
//   - MANDELGRID_BUDGET: First-round iteration target (uint64)
//   - MANDELGRID_CEILING: Iteration safety cap (uint64)
//   - MANDELGRID_ESCAPE_RADIUS: Escape threshold (numeral)
//   - MANDELGRID_ESCAPE_THRESHOLD: Diminishing-returns fraction (float)
//   - MANDELGRID_PRECISION: Working precision in bits (uint, 0 = auto)
//   - MANDELGRID_WORKERS: Pool size (int, 0 = NumCPU)
//   - MANDELGRID_BACKEND: Backend name (string)
//   - MANDELGRID_WORKER_CMD: External worker command (string)
//   - MANDELGRID_TIMEOUT: Run timeout (duration: "5m", "30s")
//   - MANDELGRID_OUTPUT / INPUT: File paths (string)
//   - MANDELGRID_PORT: Server port (string)
//   - MANDELGRID_LOG_LEVEL: Structured-log level (string)
//   - MANDELGRID_METRICS_ADDR: Metrics listener address (string)
//   - MANDELGRID_SERVER / JSON / QUIET / VERBOSE / NO_COLOR: Mode toggles (bool)
//   - MANDELGRID_CALIBRATION_PROFILE: Path to calibration profile (string)
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyDurationOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "resolution") {
		config.Resolution = getEnvInt("RESOLUTION", config.Resolution)
	}
	if !isFlagSet(fs, "budget") {
		config.Budget = getEnvUint64("BUDGET", config.Budget)
	}
	if !isFlagSet(fs, "ceiling") {
		config.Ceiling = getEnvUint64("CEILING", config.Ceiling)
	}
	if !isFlagSet(fs, "precision") {
		config.Precision = getEnvUint("PRECISION", config.Precision)
	}
	if !isFlagSet(fs, "workers") {
		config.Workers = getEnvInt("WORKERS", config.Workers)
	}
	if !isFlagSet(fs, "escape-threshold") {
		config.EscapeThreshold = getEnvFloat("ESCAPE_THRESHOLD", config.EscapeThreshold)
	}
}

func applyDurationOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "min-re") {
		config.MinRe = getEnvString("MIN_RE", config.MinRe)
	}
	if !isFlagSet(fs, "max-re") {
		config.MaxRe = getEnvString("MAX_RE", config.MaxRe)
	}
	if !isFlagSet(fs, "min-im") {
		config.MinIm = getEnvString("MIN_IM", config.MinIm)
	}
	if !isFlagSet(fs, "max-im") {
		config.MaxIm = getEnvString("MAX_IM", config.MaxIm)
	}
	if !isFlagSet(fs, "region") {
		config.Region = getEnvString("REGION", config.Region)
	}
	if !isFlagSet(fs, "escape-radius") {
		config.EscapeRadius = getEnvString("ESCAPE_RADIUS", config.EscapeRadius)
	}
	if !isFlagSet(fs, "backend") {
		config.Backend = getEnvString("BACKEND", config.Backend)
	}
	if !isFlagSet(fs, "worker-cmd") {
		config.WorkerCmd = getEnvString("WORKER_CMD", config.WorkerCmd)
	}
	if !isFlagSet(fs, "port") {
		config.Port = getEnvString("PORT", config.Port)
	}
	if !isFlagSet(fs, "log-level") {
		config.LogLevel = getEnvString("LOG_LEVEL", config.LogLevel)
	}
	if !isFlagSet(fs, "metrics-addr") {
		config.MetricsAddr = getEnvString("METRICS_ADDR", config.MetricsAddr)
	}
	if !isFlagSet(fs, "output") && !isFlagSet(fs, "o") {
		config.OutputFile = getEnvString("OUTPUT", config.OutputFile)
	}
	if !isFlagSet(fs, "input") {
		config.InputFile = getEnvString("INPUT", config.InputFile)
	}
	if !isFlagSet(fs, "calibration-profile") {
		config.CalibrationProfile = getEnvString("CALIBRATION_PROFILE", config.CalibrationProfile)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "server") {
		config.ServerMode = getEnvBool("SERVER", config.ServerMode)
	}
	if !isFlagSet(fs, "json") {
		config.JSONOutput = getEnvBool("JSON", config.JSONOutput)
	}
	if !isFlagSet(fs, "v") {
		config.Verbose = getEnvBool("VERBOSE", config.Verbose)
	}
	if !isFlagSet(fs, "quiet") && !isFlagSet(fs, "q") {
		config.Quiet = getEnvBool("QUIET", config.Quiet)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
	if !isFlagSet(fs, "calibrate") {
		config.Calibrate = getEnvBool("CALIBRATE", config.Calibrate)
	}
}
