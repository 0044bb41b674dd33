package ocr

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// TesseractClassifier recognizes single character glyphs with Tesseract.
//
// A new Tesseract client is created for every call, so a TesseractClassifier
// may be shared between goroutines.
type TesseractClassifier struct {
	// Language is the Tesseract language code, e.g. "eng" or "ara".
	Language string

	// Whitelist restricts recognition to these characters when non-empty.
	Whitelist string
}

// NewTesseractClassifier returns a classifier for language.
func NewTesseractClassifier(language, whitelist string) *TesseractClassifier {
	return &TesseractClassifier{Language: language, Whitelist: whitelist}
}

// Classify runs Tesseract in single character mode over glyph.
//
// Parameters:
//   - glyph: A prepared GlyphWidth x GlyphHeight grayscale image.
//
// Returns:
//   - Prediction: The recognized character as Label, Tesseract's symbol
//     confidence scaled to 0.0 to 1.0, and the glyph's HOG descriptor.
//     Label is empty when Tesseract finds nothing.
//   - error: Non-nil if the glyph cannot be encoded or Tesseract fails.
func (c *TesseractClassifier) Classify(glyph *image.Gray) (Prediction, error) {
	features, err := HOG(glyph)
	if err != nil {
		return Prediction{}, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, glyph, imaging.PNG); err != nil {
		return Prediction{}, fmt.Errorf("failed to encode glyph: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(c.language()); err != nil {
		return Prediction{}, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		return Prediction{}, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if c.Whitelist != "" {
		if err := client.SetWhitelist(c.Whitelist); err != nil {
			return Prediction{}, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Prediction{}, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return Prediction{}, fmt.Errorf("OCR failed: %w", err)
	}

	pred := Prediction{Label: strings.TrimSpace(text), Features: features}
	if pred.Label == "" {
		return pred, nil
	}

	// Symbol confidence is best effort; the label alone is still useful.
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_SYMBOL); err == nil && len(boxes) > 0 {
		pred.Confidence = boxes[0].Confidence / 100.0
	}
	return pred, nil
}

func (c *TesseractClassifier) language() string {
	if c.Language == "" {
		return "eng"
	}
	return c.Language
}
