package plate

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"gocv.io/x/gocv"

	"github.com/ironsheep/plate-tools-mcp/internal/geometry"
	"github.com/ironsheep/plate-tools-mcp/internal/vision"
)

// Segmenter tuning.
const (
	minCharacterArea     = 70
	maxCharacterArea     = 1100
	maxCharacterSolidity = 0.8

	strokeThreshold   = 20
	glyphThreshold    = 2
	glyphRowTolerance = 25
)

// DefaultAnnotation is the rectangle color drawn on result images.
var DefaultAnnotation = color.RGBA{G: 0xff, A: 0xff}

// Segmenter splits an enhanced plate into character crops.
type Segmenter struct {
	// Annotation is the rectangle color drawn on result images.
	Annotation color.RGBA
}

// NewSegmenter returns a Segmenter drawing with DefaultAnnotation.
func NewSegmenter() *Segmenter {
	return &Segmenter{Annotation: DefaultAnnotation}
}

// Segment is shorthand for NewSegmenter().Segment.
func Segment(glyph *image.Gray, plate image.Image) (*PlateResult, error) {
	return NewSegmenter().Segment(glyph, plate)
}

type candidate struct {
	contour geometry.Contour
	rect    geometry.Rect
	valid   bool
}

// isCharacter reports whether c is sized and positioned like a character on a
// plate whose vertical midline is row midline. Components that end at or
// before the midline are rejected.
func isCharacter(c geometry.Contour, midline int) (bool, error) {
	sol, err := solidity(c)
	if err != nil {
		return false, err
	}
	r := c.Rect()
	area := c.Area()

	spansMidline := midline > r.Y && midline < r.Bottom()
	belowMidline := midline <= r.Y
	return area > minCharacterArea && area < maxCharacterArea &&
		sol < maxCharacterSolidity &&
		(spansMidline || belowMidline), nil
}

// Segment labels the glyph mask, filters the components by size and
// position, groups strokes of the same character and crops each group from
// plate. The glyph mask and plate must have the same dimensions.
//
// Parameters:
//   - glyph: The binary glyph mask from Enhance.
//   - plate: The resized color plate the crops are cut from.
//
// Returns:
//   - *PlateResult: The crops in left-to-right order and the annotated plate.
//   - error: Non-nil if the inputs are unusable.
//
// An implausible character count is reported through PlateResult.Valid, not
// as an error.
//
// # Errors
//
// ErrBlankInput is returned for a nil or empty mask or plate. A mask and
// plate of different sizes is an error as well.
func (s *Segmenter) Segment(glyph *image.Gray, plate image.Image) (*PlateResult, error) {
	if glyph == nil || plate == nil || glyph.Rect.Empty() || plate.Bounds().Empty() {
		return nil, ErrBlankInput
	}
	if glyph.Rect.Size() != plate.Bounds().Size() {
		return nil, fmt.Errorf("mask %v and plate %v differ in size", glyph.Rect.Size(), plate.Bounds().Size())
	}

	mask, err := vision.FromGray(glyph)
	if err != nil {
		return nil, err
	}
	defer mask.Close()

	pristine, err := vision.FromImage(plate)
	if err != nil {
		return nil, err
	}
	defer pristine.Close()

	dilated := vision.Dilate(mask, 1, 3, 1)
	defer dilated.Close()

	candidates, err := collectCandidates(dilated, pristine.Rows()/2)
	if err != nil {
		return nil, err
	}

	var survivors []geometry.Contour
	for _, c := range candidates {
		if c.valid {
			survivors = append(survivors, c.contour)
		}
	}
	clusters := clusterCharacters(survivors)

	crops, err := cropCharacters(pristine, clusters)
	if err != nil {
		return nil, err
	}

	result := &PlateResult{
		Crops: crops,
		Valid: PlausibleLength(len(crops)),
	}
	if result.Candidates, err = s.annotate(pristine, candidateRects(candidates)); err != nil {
		return nil, err
	}
	if result.Plate, err = s.annotate(pristine, cropRects(crops)); err != nil {
		return nil, err
	}
	return result, nil
}

func collectCandidates(mask gocv.Mat, midline int) ([]candidate, error) {
	labels := vision.Label(mask)
	defer labels.Close()

	var out []candidate
	for l := 1; l <= labels.Count(); l++ {
		comp := labels.Mask(l)
		contour, ok := vision.LargestContour(comp)
		comp.Close()
		if !ok {
			continue
		}

		valid, err := isCharacter(contour, midline)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", l, err)
		}
		out = append(out, candidate{contour: contour, rect: contour.Rect(), valid: valid})
	}
	return out, nil
}

// clusterCharacters joins stacked strokes, then overlapping groups, then
// strokes sitting side by side on the same row.
func clusterCharacters(contours []geometry.Contour) []geometry.Contour {
	clusters := geometry.AgglomerativeCluster(contours, geometry.Vertical, strokeThreshold, 0)
	clusters = geometry.MergeIntersecting(clusters, 0)
	return geometry.AgglomerativeCluster(clusters, geometry.Horizontal, glyphThreshold, glyphRowTolerance)
}

func cropCharacters(plate gocv.Mat, clusters []geometry.Contour) ([]CharacterCrop, error) {
	crops := make([]CharacterCrop, 0, len(clusters))
	for _, c := range clusters {
		r := c.Rect()
		m, err := vision.Crop(plate, r.Image())
		if err != nil {
			return nil, err
		}
		img, err := vision.ToRGBA(m)
		m.Close()
		if err != nil {
			return nil, err
		}
		crops = append(crops, CharacterCrop{Image: img, Offset: r.X, Bounds: r})
	}

	sort.SliceStable(crops, func(i, j int) bool {
		return crops[i].Offset < crops[j].Offset
	})
	return crops, nil
}

func candidateRects(cs []candidate) []geometry.Rect {
	rects := make([]geometry.Rect, len(cs))
	for i, c := range cs {
		rects[i] = c.rect
	}
	return rects
}

func cropRects(crops []CharacterCrop) []geometry.Rect {
	rects := make([]geometry.Rect, len(crops))
	for i, c := range crops {
		rects[i] = c.Bounds
	}
	return rects
}

// annotate returns a copy of plate with rects outlined.
func (s *Segmenter) annotate(plate gocv.Mat, rects []geometry.Rect) (*image.RGBA, error) {
	canvas := plate.Clone()
	defer canvas.Close()

	for _, r := range rects {
		vision.DrawRect(&canvas, r, s.Annotation)
	}
	return vision.ToRGBA(canvas)
}
