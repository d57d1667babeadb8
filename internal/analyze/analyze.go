// Package analyze summarizes an evaluated grid: escape share, iteration
// distribution, and a log-scale histogram of the iteration counts.
package analyze

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/agbru/mandelgrid/internal/output"
	"github.com/agbru/mandelgrid/pkg/models"
)

// HistogramBuckets is the bucket count of the iteration histogram.
const HistogramBuckets = 16

// barWidth is the character width of the longest histogram bar.
const barWidth = 40

// Stats summarizes one evaluated grid.
type Stats struct {
	ResX, ResY      int
	TotalPoints     int
	EscapedPoints   int
	TotalIterations uint64
	MinIterations   uint64
	MedianIteration uint64
	MaxIterations   uint64
	// Histogram buckets the iteration counts on a log scale: bucket i
	// covers counts whose log position falls in [i/16, (i+1)/16) of
	// log(max+1).
	Histogram [HistogramBuckets]int
}

// EscapedFraction returns the escaped share of the grid.
func (s Stats) EscapedFraction() float64 {
	if s.TotalPoints == 0 {
		return 0
	}
	return float64(s.EscapedPoints) / float64(s.TotalPoints)
}

// Analyze computes the grid statistics.
//
// Parameters:
//   - records: The grid's records, as read from CSV.
//
// Returns:
//   - Stats: The computed statistics.
//   - error: A ValidationError when the grid is empty.
func Analyze(records []models.Record) (Stats, error) {
	if len(records) == 0 {
		return Stats{}, apperrors.NewValidationError("input", "grid has no records", nil)
	}

	stats := Stats{TotalPoints: len(records)}
	stats.ResX, stats.ResY = output.Dimensions(records)

	iterations := make([]uint64, 0, len(records))
	for _, rec := range records {
		iterations = append(iterations, rec.Iterations)
		stats.TotalIterations += rec.Iterations
		if rec.Escaped {
			stats.EscapedPoints++
		}
		if rec.Iterations > stats.MaxIterations {
			stats.MaxIterations = rec.Iterations
		}
	}
	sort.Slice(iterations, func(i, j int) bool { return iterations[i] < iterations[j] })
	stats.MinIterations = iterations[0]
	stats.MedianIteration = iterations[len(iterations)/2]

	scale := math.Log(float64(stats.MaxIterations) + 1)
	for _, n := range iterations {
		bucket := 0
		if scale > 0 {
			bucket = int(math.Log(float64(n)+1) / scale * HistogramBuckets)
		}
		if bucket >= HistogramBuckets {
			bucket = HistogramBuckets - 1
		}
		stats.Histogram[bucket]++
	}
	return stats, nil
}

// PrintReport writes the statistics as an aligned report with a bar
// histogram.
//
// Parameters:
//   - out: The destination writer.
//   - stats: The statistics to print.
//
// Returns:
//   - error: An error if the report cannot be flushed.
func PrintReport(out io.Writer, stats Stats) error {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Grid\t%dx%d points\n", stats.ResX, stats.ResY)
	fmt.Fprintf(w, "Escaped\t%d of %d (%.1f%%)\n",
		stats.EscapedPoints, stats.TotalPoints, stats.EscapedFraction()*100)
	fmt.Fprintf(w, "Iterations\tmin %d, median %d, max %d\n",
		stats.MinIterations, stats.MedianIteration, stats.MaxIterations)
	fmt.Fprintf(w, "Total cost\t%d iterations\n", stats.TotalIterations)
	fmt.Fprintln(w)

	peak := 0
	for _, count := range stats.Histogram {
		if count > peak {
			peak = count
		}
	}
	fmt.Fprintln(w, "BUCKET\tCOUNT\tDISTRIBUTION")
	for i, count := range stats.Histogram {
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("█", count*barWidth/peak)
		}
		lo, hi := bucketBounds(i, stats.MaxIterations)
		fmt.Fprintf(w, "%d-%d\t%d\t%s\n", lo, hi, count, bar)
	}
	return w.Flush()
}

// bucketBounds returns the iteration range a log-scale bucket covers.
func bucketBounds(bucket int, maxIterations uint64) (uint64, uint64) {
	scale := math.Log(float64(maxIterations) + 1)
	lo := math.Exp(scale*float64(bucket)/HistogramBuckets) - 1
	hi := math.Exp(scale*float64(bucket+1)/HistogramBuckets) - 1
	return uint64(math.Ceil(lo)), uint64(math.Floor(hi))
}
