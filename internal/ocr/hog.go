package ocr

import (
	"errors"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
)

// HOG descriptor layout.
const (
	Orientations = 9
	CellSize     = 8

	hogEpsilon = 1e-5
	hogClip    = 0.2
)

// ErrGlyphSize is returned when a glyph is not a whole number of cells.
var ErrGlyphSize = errors.New("ocr: glyph size is not a multiple of the cell size")

// HOG computes a histogram of oriented gradients for a grayscale glyph using
// unsigned orientations, CellSize square cells and one cell per block with
// L2-Hys normalization. A GlyphWidth x GlyphHeight glyph yields
// 4*8*Orientations values.
func HOG(img *image.Gray) ([]float64, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 || w%CellSize != 0 || h%CellSize != 0 {
		return nil, ErrGlyphSize
	}

	at := func(x, y int) float64 {
		return float64(img.GrayAt(img.Rect.Min.X+x, img.Rect.Min.Y+y).Y)
	}

	magnitude := make([]float64, w*h)
	orientation := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var gx, gy float64
			if x > 0 && x < w-1 {
				gx = at(x+1, y) - at(x-1, y)
			}
			if y > 0 && y < h-1 {
				gy = at(x, y+1) - at(x, y-1)
			}
			magnitude[y*w+x] = math.Hypot(gx, gy)
			orientation[y*w+x] = math.Mod(math.Atan2(gy, gx)*180/math.Pi+180, 180)
		}
	}

	cellsX, cellsY := w/CellSize, h/CellSize
	features := make([]float64, 0, cellsX*cellsY*Orientations)
	binWidth := 180.0 / Orientations

	for cy := 0; cy < cellsY; cy++ {
		for cx := 0; cx < cellsX; cx++ {
			hist := make([]float64, Orientations)
			for y := cy * CellSize; y < (cy+1)*CellSize; y++ {
				for x := cx * CellSize; x < (cx+1)*CellSize; x++ {
					bin := int(orientation[y*w+x] / binWidth)
					if bin >= Orientations {
						bin = Orientations - 1
					}
					hist[bin] += magnitude[y*w+x]
				}
			}
			floats.Scale(1/float64(CellSize*CellSize), hist)
			features = append(features, l2Hys(hist)...)
		}
	}
	return features, nil
}

// l2Hys normalizes v, clips it at hogClip and normalizes again.
func l2Hys(v []float64) []float64 {
	normalize := func() {
		n := floats.Norm(v, 2)
		floats.Scale(1/math.Sqrt(n*n+hogEpsilon*hogEpsilon), v)
	}

	normalize()
	for i := range v {
		v[i] = math.Min(v[i], hogClip)
	}
	normalize()
	return v
}
