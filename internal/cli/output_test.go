package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/agbru/mandelgrid/internal/config"
	"github.com/agbru/mandelgrid/internal/testutil"
	"github.com/agbru/mandelgrid/pkg/models"
)

func sampleSummary() models.RunSummary {
	return models.RunSummary{
		RunID:           "run-42",
		Backend:         "bigfloat",
		Workers:         4,
		ResX:            100,
		ResY:            100,
		Precision:       128,
		Rounds:          5,
		TotalIterations: 1234567,
		EscapedPoints:   6400,
		TotalPoints:     10000,
		StopReason:      models.StopDiminishingReturns,
		Duration:        3 * time.Second,
	}
}

func TestDisplaySummary(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	DisplaySummary(&out, sampleSummary(), OutputConfig{})
	text := testutil.StripAnsiCodes(out.String())

	for _, want := range []string{
		"100x100", "128", "diminishing_returns", "5 rounds",
		"6,400", "10,000", "64.0%", "1,234,567", "3s",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "run-42") {
		t.Error("non-verbose summary leaked the run ID")
	}
}

func TestDisplaySummaryVerbose(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	DisplaySummary(&out, sampleSummary(), OutputConfig{Verbose: true})
	text := testutil.StripAnsiCodes(out.String())

	if !strings.Contains(text, "run-42") {
		t.Error("verbose summary does not show the run ID")
	}
	if !strings.Contains(text, "bigfloat") || !strings.Contains(text, "4 workers") {
		t.Errorf("verbose summary does not show the backend line:\n%s", text)
	}
}

func TestDisplaySummaryQuiet(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	DisplaySummary(&out, sampleSummary(), OutputConfig{Quiet: true})
	text := strings.TrimSpace(out.String())

	want := "diminishing_returns 6400/10000 escaped in 5 rounds (1234567 iterations)"
	if text != want {
		t.Errorf("quiet summary = %q, want %q", text, want)
	}
	if strings.Count(out.String(), "\n") != 1 {
		t.Error("quiet summary is not a single line")
	}
}

func TestDisplayFileNotice(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	DisplayFileNotice(&out, "grid.csv", false)
	if !strings.Contains(testutil.StripAnsiCodes(out.String()), "grid.csv") {
		t.Errorf("notice does not name the file: %q", out.String())
	}

	out.Reset()
	DisplayFileNotice(&out, "grid.csv", true)
	if out.Len() != 0 {
		t.Errorf("quiet mode still printed a notice: %q", out.String())
	}

	out.Reset()
	DisplayFileNotice(&out, "", false)
	if out.Len() != 0 {
		t.Errorf("empty path still printed a notice: %q", out.String())
	}
}

func TestPrintExecutionConfig(t *testing.T) {
	t.Parallel()

	cfg := config.AppConfig{
		Region: "seahorse_valley",
		MinRe:  "-2.", MaxRe: "2.", MinIm: "-2.", MaxIm: "2.",
		Resolution: 200,
		Budget:     100,
		Ceiling:    10_000_000,
		Timeout:    5 * time.Minute,
	}
	var out bytes.Buffer
	PrintExecutionConfig(cfg, &out)
	text := testutil.StripAnsiCodes(out.String())

	for _, want := range []string{
		"Execution Configuration", "seahorse_valley", "-2.", "200", "5m0s", "10,000,000",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("banner missing %q:\n%s", want, text)
		}
	}
}

func TestPrintExecutionMode(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	PrintExecutionMode("process", 8, &out)
	text := testutil.StripAnsiCodes(out.String())

	if !strings.Contains(text, "process") || !strings.Contains(text, "8 workers") {
		t.Errorf("mode line missing backend or workers:\n%s", text)
	}
	if !strings.Contains(text, "Starting Execution") {
		t.Errorf("mode output missing the start marker:\n%s", text)
	}
}
