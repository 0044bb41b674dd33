package plate

import (
	"image"

	"github.com/ironsheep/plate-tools-mcp/internal/detection"
)

// Pipeline chains localization, enhancement and segmentation. A Pipeline
// holds no per-run state and may be shared between goroutines.
type Pipeline struct {
	Segmenter *Segmenter
}

// NewPipeline returns a Pipeline with default segmenter settings.
func NewPipeline() *Pipeline {
	return &Pipeline{Segmenter: NewSegmenter()}
}

// Trace holds the intermediate outputs of one run.
type Trace struct {
	Region   *detection.PlateRegion
	Enhanced *Enhanced
}

// Run locates, enhances and segments the plate in a vehicle photo. Any
// failure is returned as a *StageError and no partial result is produced.
func (p *Pipeline) Run(img image.Image) (*PlateResult, error) {
	result, _, err := p.RunTrace(img)
	return result, err
}

// RunTrace is Run that also returns the intermediate stage outputs.
//
// Parameters:
//   - img: The vehicle photo.
//
// Returns:
//   - *PlateResult: The segmented characters.
//   - *Trace: The located region and the enhanced plate.
//   - error: Non-nil if any stage fails.
//
// # Errors
//
// Every error is a *StageError naming the stage that failed. Use errors.Is
// to match the underlying cause such as detection.ErrNoPlate.
func (p *Pipeline) RunTrace(img image.Image) (*PlateResult, *Trace, error) {
	region, err := detection.LocatePlate(img)
	if err != nil {
		return nil, nil, stageError(StageLocate, err)
	}

	enhanced, err := Enhance(region.Image)
	if err != nil {
		return nil, nil, stageError(StageEnhance, err)
	}

	result, err := p.segmenter().Segment(enhanced.Glyph, enhanced.Plate)
	if err != nil {
		return nil, nil, stageError(StageSegment, err)
	}

	result.Region = &RegionInfo{
		Bounds:     region.Bounds,
		Source:     region.Source,
		InkDensity: region.InkDensity,
	}
	return result, &Trace{Region: region, Enhanced: enhanced}, nil
}

// Process enhances and segments an already cropped plate image.
func (p *Pipeline) Process(plate image.Image) (*PlateResult, error) {
	result, _, err := p.ProcessTrace(plate)
	return result, err
}

// ProcessTrace is Process that also returns the enhancer output. The
// returned Trace has no Region.
func (p *Pipeline) ProcessTrace(plate image.Image) (*PlateResult, *Trace, error) {
	enhanced, err := Enhance(plate)
	if err != nil {
		return nil, nil, stageError(StageEnhance, err)
	}

	result, err := p.segmenter().Segment(enhanced.Glyph, enhanced.Plate)
	if err != nil {
		return nil, nil, stageError(StageSegment, err)
	}
	return result, &Trace{Enhanced: enhanced}, nil
}

func (p *Pipeline) segmenter() *Segmenter {
	if p.Segmenter == nil {
		return NewSegmenter()
	}
	return p.Segmenter
}
