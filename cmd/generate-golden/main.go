// Command generate-golden regenerates the numeral codec's golden file. The
// decimal values are parsed with math/big, which serves as the oracle, and
// encoded with the codec under test; the codec tests then hold Encode to the
// stored strings byte for byte.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/agbru/mandelgrid/internal/numeral"
)

// GoldenNumeral represents a single test case in the golden file.
type GoldenNumeral struct {
	Value     string `json:"value"`
	Precision uint   `json:"precision"`
	Encoded   string `json:"encoded"`
}

// goldenCase pairs a decimal value with the precision it is encoded at.
type goldenCase struct {
	value     string
	precision uint
}

func main() {
	outputDir := flag.String("out", "internal/numeral/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	filename := filepath.Join(*outputDir, "numeral_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	// Interesting cases: zero, small integers, negatives, exact binary
	// fractions (so decimal parsing is lossless), powers of the base, and a
	// couple of higher-precision entries.
	cases := []goldenCase{
		{"0", 64},
		{"1", 64},
		{"2", 64},
		{"-2", 64},
		{"3", 64},
		{"0.5", 64},
		{"0.75", 64},
		{"0.0625", 64},
		{"32", 64},
		{"1024", 64},
		{"100", 64},
		{"255.75", 64},
		{"0.000030517578125", 64},
		{"0.25", 128},
		{"1", 128},
		{"-0.5", 128},
	}

	var data []GoldenNumeral

	fmt.Println("Generating golden data...")

	for _, c := range cases {
		v, _, err := big.ParseFloat(c.value, 10, c.precision, big.ToNearestEven)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing %q: %v\n", c.value, err)
			os.Exit(1)
		}
		data = append(data, GoldenNumeral{
			Value:     c.value,
			Precision: c.precision,
			Encoded:   numeral.Encode(v, c.precision),
		})
		fmt.Printf("Generated %s at %d bits\n", c.value, c.precision)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated golden file at %s\n", filename)
}
