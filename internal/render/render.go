// Package render turns an evaluated grid into a smooth-colored PNG image.
// Non-escaped points are black; escaped points are colored by the smooth
// iteration count derived from the final orbit value, through the HSV color
// space for continuous gradients.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
	"github.com/agbru/mandelgrid/internal/numeral"
	"github.com/agbru/mandelgrid/internal/output"
	"github.com/agbru/mandelgrid/pkg/models"
)

const (
	// orbitPrecision is the decode precision for final orbit values. The
	// coloring only needs a float64 magnitude, so a single limb suffices.
	orbitPrecision = 64

	// colorCacheSize bounds the memoized palette. Smooth iteration counts
	// are quantized before lookup, so neighboring points share entries.
	colorCacheSize = 4096

	// nuQuantization is the bucket density for the color cache key.
	nuQuantization = 256

	saturation = 0.8
	value      = 0.9
)

var black = color.NRGBA{A: 255}

// Options configures a render.
type Options struct {
	// Scale multiplies the output dimensions; values above 1 resize with
	// a Lanczos filter. 0 means 1.
	Scale int
}

// Render builds the image for an evaluated grid.
//
// Parameters:
//   - records: The grid's records, as read from CSV.
//   - opts: The render options.
//
// Returns:
//   - image.Image: The rendered image.
//   - error: A ValidationError on an empty or malformed grid.
func Render(records []models.Record, opts Options) (image.Image, error) {
	if len(records) == 0 {
		return nil, apperrors.NewValidationError("input", "grid has no records", nil)
	}
	if opts.Scale < 0 {
		return nil, apperrors.NewValidationError("scale", "must not be negative", opts.Scale)
	}

	resX, resY := output.Dimensions(records)
	arena := make([]*models.Record, resX*resY)
	var maxIterations uint64
	for i := range records {
		rec := &records[i]
		if rec.X < 0 || rec.X >= resX || rec.Y < 0 || rec.Y >= resY {
			return nil, apperrors.NewValidationError("input", "record outside the grid", rec)
		}
		arena[rec.X*resY+rec.Y] = rec
		if rec.Iterations > maxIterations {
			maxIterations = rec.Iterations
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, resX, resY))
	cache, err := lru.New[int, [3]uint8](colorCacheSize)
	if err != nil {
		return nil, err
	}
	palette := &paletteCache{cache: cache, maxIterations: maxIterations}

	// Rows are independent, so fan the coloring out across the CPUs.
	var g errgroup.Group
	for y := 0; y < resY; y++ {
		y := y
		g.Go(func() error {
			for x := 0; x < resX; x++ {
				rec := arena[x*resY+y]
				if rec == nil || !rec.Escaped {
					img.SetNRGBA(x, y, black)
					continue
				}
				nu, err := smoothIterations(rec)
				if err != nil {
					return err
				}
				r, gc, b := palette.color(nu)
				img.SetNRGBA(x, y, color.NRGBA{R: r, G: gc, B: b, A: 255})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.Scale > 1 {
		return imaging.Resize(img, resX*opts.Scale, resY*opts.Scale, imaging.Lanczos), nil
	}
	return img, nil
}

// RenderFile renders the grid and writes the image to path. The format
// follows the file extension; ".png" is the expected choice.
//
// Parameters:
//   - records: The grid's records.
//   - path: The output file path.
//   - opts: The render options.
//
// Returns:
//   - error: A render or encoding error.
func RenderFile(records []models.Record, path string, opts Options) error {
	img, err := Render(records, opts)
	if err != nil {
		return err
	}
	return imaging.Save(img, path)
}

// smoothIterations computes nu = n + 1 - log2(log|z|) from the record's
// final orbit value. When the magnitude is too small for the double
// logarithm the raw count is used, matching the hard band it belongs to.
func smoothIterations(rec *models.Record) (float64, error) {
	za, err := numeral.Decode(rec.FinalZa, orbitPrecision)
	if err != nil {
		return 0, err
	}
	zb, err := numeral.Decode(rec.FinalZb, orbitPrecision)
	if err != nil {
		return 0, err
	}
	fa, _ := za.Float64()
	fb, _ := zb.Float64()
	magnitude := math.Sqrt(fa*fa + fb*fb)

	nu := float64(rec.Iterations)
	if magnitude > 1 {
		nu = float64(rec.Iterations) + 1 - math.Log(math.Log(magnitude))/math.Ln2
	}
	if math.IsNaN(nu) || math.IsInf(nu, 0) || nu < 0 {
		nu = float64(rec.Iterations)
	}
	return nu, nil
}

// paletteCache memoizes the HSV palette by quantized smooth count.
type paletteCache struct {
	cache         *lru.Cache[int, [3]uint8]
	maxIterations uint64
}

// color maps a smooth iteration count to RGB. The hue walks the spectrum on
// a log scale so the low bands near the boundary stay distinguishable.
func (p *paletteCache) color(nu float64) (uint8, uint8, uint8) {
	key := int(nu * nuQuantization)
	if rgb, ok := p.cache.Get(key); ok {
		return rgb[0], rgb[1], rgb[2]
	}

	index := math.Log(nu+1) / math.Log(float64(p.maxIterations)+1)
	hue := math.Mod(index*360, 360)
	if hue < 0 {
		hue += 360
	}
	r, g, b := colorful.Hsv(hue, saturation, value).RGB255()
	p.cache.Add(key, [3]uint8{r, g, b})
	return r, g, b
}
