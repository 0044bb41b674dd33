package plate

import (
	"errors"
	"fmt"

	"github.com/ironsheep/plate-tools-mcp/internal/detection"
	"github.com/ironsheep/plate-tools-mcp/internal/vision"
)

// Stage names reported by StageError.
const (
	StageLocate    = "locate"
	StageEnhance   = "enhance"
	StageSegment   = "segment"
	StageClassify  = "classify"
	StageTranslate = "translate"
)

var (
	// ErrBlankInput is returned for images with no pixels or only zero pixels.
	ErrBlankInput = vision.ErrBlank

	// ErrNoPlate is returned when the localizer finds no plate region.
	ErrNoPlate = detection.ErrNoPlate

	// ErrDegenerateShape is returned when a component has a zero sized
	// bounding rectangle.
	ErrDegenerateShape = errors.New("plate: degenerate component shape")
)

// StageError records the pipeline stage that failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage string, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}
