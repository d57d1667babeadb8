package analyze

import (
	"bytes"
	"strings"
	"testing"

	"github.com/agbru/mandelgrid/pkg/models"
)

func testRecords() []models.Record {
	// A 2x2 grid: three escaped points and one interior.
	return []models.Record{
		{X: 0, Y: 0, Escaped: true, Iterations: 1},
		{X: 0, Y: 1, Escaped: true, Iterations: 10},
		{X: 1, Y: 0, Escaped: true, Iterations: 100},
		{X: 1, Y: 1, Iterations: 100},
	}
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	stats, err := Analyze(testRecords())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if stats.ResX != 2 || stats.ResY != 2 {
		t.Errorf("dimensions = %dx%d, want 2x2", stats.ResX, stats.ResY)
	}
	if stats.TotalPoints != 4 || stats.EscapedPoints != 3 {
		t.Errorf("points = %d escaped of %d, want 3 of 4", stats.EscapedPoints, stats.TotalPoints)
	}
	if stats.EscapedFraction() != 0.75 {
		t.Errorf("EscapedFraction = %v, want 0.75", stats.EscapedFraction())
	}
	if stats.MinIterations != 1 || stats.MaxIterations != 100 {
		t.Errorf("iteration range = [%d, %d], want [1, 100]", stats.MinIterations, stats.MaxIterations)
	}
	if stats.MedianIteration != 100 {
		t.Errorf("median = %d, want 100 (upper median of 1, 10, 100, 100)", stats.MedianIteration)
	}
	if stats.TotalIterations != 211 {
		t.Errorf("TotalIterations = %d, want 211", stats.TotalIterations)
	}

	// The histogram holds every point, with the two maximal counts in the
	// final bucket.
	total := 0
	for _, count := range stats.Histogram {
		total += count
	}
	if total != 4 {
		t.Errorf("histogram holds %d points, want 4", total)
	}
	if stats.Histogram[HistogramBuckets-1] != 2 {
		t.Errorf("final bucket = %d, want the 2 maximal points", stats.Histogram[HistogramBuckets-1])
	}
}

func TestAnalyzeEmptyGrid(t *testing.T) {
	t.Parallel()

	if _, err := Analyze(nil); err == nil {
		t.Error("Analyze accepted an empty grid")
	}
}

func TestPrintReport(t *testing.T) {
	t.Parallel()

	stats, err := Analyze(testRecords())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	var out bytes.Buffer
	if err := PrintReport(&out, stats); err != nil {
		t.Fatalf("PrintReport failed: %v", err)
	}
	text := out.String()

	for _, want := range []string{"2x2", "3 of 4", "75.0%", "min 1, median 100, max 100", "211 iterations", "█"} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}
