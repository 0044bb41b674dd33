package ocr

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Glyph dimensions every classifier receives.
const (
	GlyphWidth  = 32
	GlyphHeight = 64
)

// Prediction is a classifier's answer for one character glyph.
type Prediction struct {
	// Label is the predicted symbol class, e.g. "7" or "noon".
	Label string `json:"label"`

	// Confidence is in the range 0.0 to 1.0.
	Confidence float64 `json:"confidence"`

	// Features is the HOG descriptor of the glyph.
	Features []float64 `json:"-"`
}

// Classifier turns a prepared glyph into a predicted symbol.
type Classifier interface {
	Classify(glyph *image.Gray) (Prediction, error)
}

// PrepareGlyph scales a character crop to GlyphWidth x GlyphHeight and
// converts it to grayscale.
func PrepareGlyph(img image.Image) *image.Gray {
	resized := imaging.Resize(img, GlyphWidth, GlyphHeight, imaging.Linear)
	gray := imaging.Grayscale(resized)

	out := image.NewGray(gray.Bounds())
	draw.Draw(out, out.Bounds(), gray, gray.Bounds().Min, draw.Src)
	return out
}
