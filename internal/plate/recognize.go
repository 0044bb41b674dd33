package plate

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/ironsheep/plate-tools-mcp/internal/imaging"
	"github.com/ironsheep/plate-tools-mcp/internal/ocr"
	"github.com/ironsheep/plate-tools-mcp/internal/translate"
)

// ReadingOrder is the order characters are handed to the classifier.
type ReadingOrder string

const (
	LeftToRight ReadingOrder = "ltr"
	RightToLeft ReadingOrder = "rtl"
)

// ParseReadingOrder accepts "ltr" or "rtl", case insensitively.
func ParseReadingOrder(s string) (ReadingOrder, error) {
	switch o := ReadingOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case LeftToRight, RightToLeft:
		return o, nil
	default:
		return "", fmt.Errorf("unknown reading order %q (want ltr or rtl)", s)
	}
}

// Recognizer runs the pipeline and classifies the resulting characters.
type Recognizer struct {
	Pipeline   *Pipeline
	Classifier ocr.Classifier
	Table      *translate.Table
	Order      ReadingOrder
}

// Recognition is the outcome of Recognize.
type Recognition struct {
	Result *PlateResult `json:"result"`

	// Annotated is Result.Plate with the predicted labels captioned on top.
	Annotated *image.RGBA `json:"-"`

	Order       ReadingOrder     `json:"reading_order"`
	Predictions []ocr.Prediction `json:"predictions"`
	Labels      []string         `json:"labels"`
	Symbols     []string         `json:"symbols"`
	Text        string           `json:"text"`
}

// NewRecognizer returns a Recognizer over a default Pipeline and the Arabic
// translation table.
func NewRecognizer(c ocr.Classifier, order ReadingOrder) *Recognizer {
	return &Recognizer{
		Pipeline:   NewPipeline(),
		Classifier: c,
		Table:      translate.Arabic(),
		Order:      order,
	}
}

// Recognize reads the plate in a vehicle photo.
//
// When segmentation is implausible the classifier is never called and the
// returned Recognition carries the invalid Result with no labels.
func (r *Recognizer) Recognize(img image.Image) (*Recognition, error) {
	result, err := r.pipeline().Run(img)
	if err != nil {
		return nil, err
	}
	return r.Classify(result)
}

// RecognizePlate reads an already cropped plate image, skipping
// localization.
func (r *Recognizer) RecognizePlate(plate image.Image) (*Recognition, error) {
	result, err := r.pipeline().Process(plate)
	if err != nil {
		return nil, err
	}
	return r.Classify(result)
}

func (r *Recognizer) pipeline() *Pipeline {
	if r.Pipeline == nil {
		return NewPipeline()
	}
	return r.Pipeline
}

// Classify labels the crops of an existing result in reading order.
func (r *Recognizer) Classify(result *PlateResult) (*Recognition, error) {
	rec := &Recognition{Result: result, Order: r.order()}
	if !result.Valid {
		return rec, nil
	}
	if r.Classifier == nil {
		return nil, stageError(StageClassify, fmt.Errorf("no classifier configured"))
	}

	for _, crop := range orderCrops(result.Crops, rec.Order) {
		pred, err := r.Classifier.Classify(ocr.PrepareGlyph(crop.Image))
		if err != nil {
			return nil, stageError(StageClassify, fmt.Errorf("crop at x=%d: %w", crop.Offset, err))
		}
		rec.Predictions = append(rec.Predictions, pred)
		rec.Labels = append(rec.Labels, pred.Label)
	}

	table := r.Table
	if table == nil {
		table = &translate.Table{}
	}
	rec.Symbols = table.TranslateAll(rec.Labels)
	rec.Text = table.Join(rec.Labels)

	if result.Plate != nil {
		color := DefaultAnnotation
		if p := r.Pipeline; p != nil && p.Segmenter != nil {
			color = p.Segmenter.Annotation
		}
		rec.Annotated = imaging.Caption(result.Plate, strings.Join(rec.Labels, " "), color)
	}
	return rec, nil
}

func (r *Recognizer) order() ReadingOrder {
	if r.Order == "" {
		return RightToLeft
	}
	return r.Order
}

// orderCrops returns crops in reading order without modifying the input.
func orderCrops(crops []CharacterCrop, order ReadingOrder) []CharacterCrop {
	out := make([]CharacterCrop, len(crops))
	copy(out, crops)
	if order == RightToLeft {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Offset > out[j].Offset
		})
	}
	return out
}
