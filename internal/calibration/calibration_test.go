package calibration

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/agbru/mandelgrid/internal/config"
	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/agbru/mandelgrid/internal/testutil"
)

func TestWorkerCandidates(t *testing.T) {
	candidates := WorkerCandidates()
	if len(candidates) == 0 {
		t.Fatal("no candidates generated")
	}
	if !sort.IntsAreSorted(candidates) {
		t.Errorf("candidates are not sorted: %v", candidates)
	}
	seen := map[int]bool{}
	for _, w := range candidates {
		if w < 1 {
			t.Errorf("candidate %d is below 1", w)
		}
		if seen[w] {
			t.Errorf("candidate %d appears twice in %v", w, candidates)
		}
		seen[w] = true
	}
	if !seen[1] {
		t.Errorf("candidates %v are missing the sequential baseline", candidates)
	}
	if !seen[runtime.NumCPU()] {
		t.Errorf("candidates %v are missing the CPU count %d", candidates, runtime.NumCPU())
	}
}

func TestRunCalibrationBenchmarksAndSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	var out bytes.Buffer

	code := RunCalibrationWithOptions(context.Background(), &out, Options{
		ProfilePath: path,
		SaveProfile: true,
		Candidates:  []int{1, 2},
	})
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, want %d (output: %s)", code, apperrors.ExitSuccess, out.String())
	}

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if profile.OptimalWorkers != 1 && profile.OptimalWorkers != 2 {
		t.Errorf("OptimalWorkers = %d, want 1 or 2", profile.OptimalWorkers)
	}
	if profile.BenchResolution != benchResolution {
		t.Errorf("BenchResolution = %d, want %d", profile.BenchResolution, benchResolution)
	}

	text := testutil.StripAnsiCodes(out.String())
	if !bytes.Contains([]byte(text), []byte("Calibration Summary")) {
		t.Errorf("output is missing the summary table:\n%s", text)
	}
	if !bytes.Contains([]byte(text), []byte("(Optimal)")) {
		t.Errorf("output does not mark the winner:\n%s", text)
	}
}

func TestRunCalibrationHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	code := RunCalibrationWithOptions(ctx, &out, Options{
		ProfilePath: filepath.Join(t.TempDir(), "profile.json"),
		Candidates:  []int{1},
	})
	if code != apperrors.ExitErrorCanceled {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorCanceled)
	}
}

func TestRunCalibrationUsesCachedProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	p := NewProfile()
	p.OptimalWorkers = 3
	if err := p.SaveProfile(path); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	var out bytes.Buffer
	code := RunCalibrationWithOptions(context.Background(), &out, Options{
		ProfilePath: path,
		LoadProfile: true,
	})
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, want %d", code, apperrors.ExitSuccess)
	}
	text := testutil.StripAnsiCodes(out.String())
	if !bytes.Contains([]byte(text), []byte("-workers 3")) {
		t.Errorf("output does not surface the cached worker count:\n%s", text)
	}
}

func TestApplyCachedProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	p := NewProfile()
	p.OptimalWorkers = 5
	if err := p.SaveProfile(path); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	cfg, ok := ApplyCachedProfile(config.AppConfig{}, path)
	if !ok {
		t.Fatal("ok = false, want a cached profile applied")
	}
	if cfg.Workers != 5 {
		t.Errorf("Workers = %d, want 5", cfg.Workers)
	}

	// An explicit worker count always wins.
	cfg, ok = ApplyCachedProfile(config.AppConfig{Workers: 2}, path)
	if ok {
		t.Error("ok = true despite an explicit worker count")
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}

	// A missing profile leaves the configuration untouched.
	if _, ok := ApplyCachedProfile(config.AppConfig{}, filepath.Join(t.TempDir(), "missing.json")); ok {
		t.Error("ok = true for a missing profile")
	}
}
