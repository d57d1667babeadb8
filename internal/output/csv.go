// Package output persists finished grids as CSV and reads them back for the
// downstream tools (renderer, zoom suggester, analyzer). The schema is one
// row per grid point in row-major order:
//
//	X,Y,CA,CB,ESCAPED,ITERATIONS,FINAL_ZA,FINAL_ZB
//
// CA, CB, FINAL_ZA and FINAL_ZB are canonical base-32 numerals, so a CSV row
// re-decodes to the exact values the engine computed.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/agbru/mandelgrid/internal/grid"
	"github.com/agbru/mandelgrid/internal/numeral"
	"github.com/agbru/mandelgrid/pkg/models"
)

// Header is the CSV header row, written first in every output file.
var Header = []string{"X", "Y", "CA", "CB", "ESCAPED", "ITERATIONS", "FINAL_ZA", "FINAL_ZB"}

// WriteGrid writes the arena to w, header first, one record per point in
// arena order. Coordinates and final iterates are encoded at the grid's
// working precision.
//
// Parameters:
//   - w: The destination writer.
//   - g: The evaluated grid.
//
// Returns:
//   - error: An error if a row cannot be written.
func WriteGrid(w io.Writer, g *grid.Grid) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return apperrors.WrapError(err, "writing CSV header")
	}

	row := make([]string, len(Header))
	for i := range g.Points {
		p := &g.Points[i]
		row[0] = strconv.Itoa(p.X)
		row[1] = strconv.Itoa(p.Y)
		row[2] = numeral.Encode(p.Ca, g.Precision)
		row[3] = numeral.Encode(p.Cb, g.Precision)
		row[4] = strconv.FormatBool(p.Escaped)
		row[5] = strconv.FormatUint(p.Iterations, 10)
		row[6] = numeral.Encode(p.Za, g.Precision)
		row[7] = numeral.Encode(p.Zb, g.Precision)
		if err := cw.Write(row); err != nil {
			return apperrors.WrapError(err, "writing point (%d,%d)", p.X, p.Y)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteGridFile writes the arena to path, creating parent directories as
// needed.
//
// Parameters:
//   - path: The destination file path.
//   - g: The evaluated grid.
//
// Returns:
//   - error: An error if the file cannot be created or written.
func WriteGridFile(path string, g *grid.Grid) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.WrapError(err, "creating output directory")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.WrapError(err, "creating output file")
	}
	defer f.Close()

	if err := WriteGrid(f, g); err != nil {
		return err
	}
	return f.Close()
}

// Records converts an evaluated arena into the persisted record form, one
// record per point in arena order, numerals encoded at the grid's working
// precision.
func Records(g *grid.Grid) []models.Record {
	records := make([]models.Record, len(g.Points))
	for i := range g.Points {
		p := &g.Points[i]
		records[i] = models.Record{
			X:          p.X,
			Y:          p.Y,
			CA:         numeral.Encode(p.Ca, g.Precision),
			CB:         numeral.Encode(p.Cb, g.Precision),
			Escaped:    p.Escaped,
			Iterations: p.Iterations,
			FinalZa:    numeral.Encode(p.Za, g.Precision),
			FinalZb:    numeral.Encode(p.Zb, g.Precision),
		}
	}
	return records
}

// ReadRecords parses a grid CSV from r. The header row is validated
// field-by-field; every data row must carry exactly the schema's columns.
//
// Parameters:
//   - r: The CSV source.
//
// Returns:
//   - []models.Record: The parsed records in file order.
//   - error: A ValidationError on a malformed header or row.
func ReadRecords(r io.Reader) ([]models.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		return nil, apperrors.NewValidationError("csv", "missing header row", err)
	}
	for i, want := range Header {
		if header[i] != want {
			return nil, apperrors.NewValidationError("csv",
				fmt.Sprintf("header column %d is %q, want %q", i, header[i], want), nil)
		}
	}

	var records []models.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewValidationError("csv", fmt.Sprintf("line %d unreadable", line), err)
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, apperrors.WrapError(err, "line %d", line)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadRecordsFile parses the grid CSV at path.
func ReadRecordsFile(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.WrapError(err, "opening grid CSV")
	}
	defer f.Close()
	return ReadRecords(f)
}

// parseRow converts one CSV row into a Record. Numerals stay textual; only
// the integer and boolean columns are parsed here.
func parseRow(row []string) (models.Record, error) {
	x, err := strconv.Atoi(row[0])
	if err != nil {
		return models.Record{}, apperrors.NewValidationError("X", "not an integer", row[0])
	}
	y, err := strconv.Atoi(row[1])
	if err != nil {
		return models.Record{}, apperrors.NewValidationError("Y", "not an integer", row[1])
	}
	escaped, err := strconv.ParseBool(row[4])
	if err != nil {
		return models.Record{}, apperrors.NewValidationError("ESCAPED", "not a boolean", row[4])
	}
	iters, err := strconv.ParseUint(row[5], 10, 64)
	if err != nil {
		return models.Record{}, apperrors.NewValidationError("ITERATIONS", "not an unsigned integer", row[5])
	}
	return models.Record{
		X:          x,
		Y:          y,
		CA:         row[2],
		CB:         row[3],
		Escaped:    escaped,
		Iterations: iters,
		FinalZa:    row[6],
		FinalZb:    row[7],
	}, nil
}

// Dimensions returns the grid dimensions implied by a record set: one plus
// the maximum index seen on each axis. A nil or empty set has zero size.
func Dimensions(records []models.Record) (resX, resY int) {
	for _, rec := range records {
		if rec.X+1 > resX {
			resX = rec.X + 1
		}
		if rec.Y+1 > resY {
			resY = rec.Y + 1
		}
	}
	return resX, resY
}
