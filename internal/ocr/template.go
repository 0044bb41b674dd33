package ocr

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/floats"
)

// ErrNoTemplates is returned by a TemplateClassifier with nothing to match.
var ErrNoTemplates = errors.New("ocr: no templates registered")

type template struct {
	label    string
	features []float64
}

// TemplateClassifier predicts the label of the stored glyph whose HOG
// descriptor is nearest in Euclidean distance. It is not safe for concurrent
// Add and Classify calls.
type TemplateClassifier struct {
	templates []template
}

// NewTemplateClassifier returns an empty TemplateClassifier.
func NewTemplateClassifier() *TemplateClassifier {
	return &TemplateClassifier{}
}

// LoadTemplates builds a TemplateClassifier from a directory holding one
// subdirectory per label:
//
//	templates/
//	  7/      one or more PNG or JPEG glyphs of "7"
//	  noon/
//
// Files with other extensions are ignored. Returns ErrNoTemplates when the
// directory holds no glyph images.
func LoadTemplates(dir string) (*TemplateClassifier, error) {
	labels, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}

	c := NewTemplateClassifier()
	for _, label := range labels {
		if !label.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, label.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read templates: %w", err)
		}
		for _, f := range files {
			if f.IsDir() || !isGlyphFile(f.Name()) {
				continue
			}
			path := filepath.Join(dir, label.Name(), f.Name())
			img, err := imaging.Open(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load template %s: %w", path, err)
			}
			if err := c.Add(label.Name(), img); err != nil {
				return nil, err
			}
		}
	}

	if c.Len() == 0 {
		return nil, ErrNoTemplates
	}
	return c, nil
}

func isGlyphFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// Add registers glyph as an example of label.
func (c *TemplateClassifier) Add(label string, glyph image.Image) error {
	features, err := HOG(PrepareGlyph(glyph))
	if err != nil {
		return fmt.Errorf("template %q: %w", label, err)
	}
	c.templates = append(c.templates, template{label: label, features: features})
	return nil
}

// Len returns the number of registered templates.
func (c *TemplateClassifier) Len() int {
	return len(c.templates)
}

// Classify returns the nearest template's label. Confidence falls from 1 for
// an exact match toward 0 as distance grows.
func (c *TemplateClassifier) Classify(glyph *image.Gray) (Prediction, error) {
	if len(c.templates) == 0 {
		return Prediction{}, ErrNoTemplates
	}

	features, err := HOG(glyph)
	if err != nil {
		return Prediction{}, err
	}

	best := -1
	var bestDist float64
	for i, t := range c.templates {
		d := floats.Distance(features, t.features, 2)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}

	return Prediction{
		Label:      c.templates[best].label,
		Confidence: 1 / (1 + bestDist),
		Features:   features,
	}, nil
}
