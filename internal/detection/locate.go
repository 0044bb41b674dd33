package detection

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/ironsheep/plate-tools-mcp/internal/geometry"
	"github.com/ironsheep/plate-tools-mcp/internal/vision"
)

// Localizer tuning. The ink density cut-offs switch the refinement between
// sparse and dense plates.
const (
	WorkingWidth = 1000

	blackHatWidth  = 7
	blackHatHeight = 5
	inkLevel       = 50
	refineLevel    = 140

	sparseInk = 0.0042
	denseInk  = 0.01
)

var (
	// ErrBlankInput is returned when the vehicle image has no usable pixels.
	ErrBlankInput = vision.ErrBlank

	// ErrNoPlate is returned when no candidate region survives refinement.
	ErrNoPlate = errors.New("detection: no plate region found")
)

// PlateRegion is the plate candidate found in a vehicle image.
type PlateRegion struct {
	// Image is the plate cut from the resized, top-cropped color image.
	Image *image.RGBA `json:"-"`

	// Mask is the refined plate mask the region was selected from.
	Mask *image.Gray `json:"-"`

	// Bounds locates the plate in the working frame: the input resized to
	// WorkingWidth with the top two fifths of rows removed.
	Bounds geometry.Rect `json:"bounds"`

	// Source locates the plate in the caller's image coordinates.
	Source geometry.Rect `json:"source"`

	// InkDensity is the share of black-hat pixels at or above the ink level.
	InkDensity float64 `json:"ink_density"`
}

// LocatePlate finds the most likely license plate region in a vehicle photo.
//
// The image is resized to WorkingWidth, converted to gray and its upper two
// fifths discarded. A black-hat transform highlights dark strokes on a light
// background; its thresholded ink density selects between sparse and dense
// refinements of the horizontal gradient. The plate is the bounding rectangle
// of the largest external contour left in the refined mask.
//
// Parameters:
//   - img: Vehicle photo in any image.Image color model.
//
// Returns ErrBlankInput for images with no pixels or only black pixels, and
// ErrNoPlate when refinement leaves nothing to select.
func LocatePlate(img image.Image) (*PlateRegion, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrBlankInput
	}

	src, err := vision.FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer src.Close()

	if vision.IsBlank(src) {
		return nil, ErrBlankInput
	}

	resized, err := vision.ResizeToWidth(src, WorkingWidth)
	if err != nil {
		return nil, ErrBlankInput
	}
	defer resized.Close()

	top := resized.Rows() * 2 / 5
	frame := image.Rect(0, top, resized.Cols(), resized.Rows())
	if frame.Empty() {
		return nil, ErrBlankInput
	}

	working, err := vision.Crop(resized, frame)
	if err != nil {
		return nil, err
	}
	defer working.Close()

	gray := smoothedGray(working)
	defer gray.Close()

	mask, density, err := refine(gray)
	if err != nil {
		return nil, err
	}
	defer mask.Close()

	contour, ok := vision.LargestContour(mask)
	if !ok {
		return nil, ErrNoPlate
	}
	bounds := contour.Rect()
	if bounds.Area() == 0 {
		return nil, ErrNoPlate
	}

	plateMat, err := vision.Crop(working, bounds.Image())
	if err != nil {
		return nil, fmt.Errorf("failed to crop plate: %w", err)
	}
	defer plateMat.Close()

	plate, err := vision.ToRGBA(plateMat)
	if err != nil {
		return nil, err
	}
	maskImg, err := vision.ToGray(mask)
	if err != nil {
		return nil, err
	}

	sx := float64(src.Cols()) / float64(resized.Cols())
	sy := float64(src.Rows()) / float64(resized.Rows())
	return &PlateRegion{
		Image:      plate,
		Mask:       maskImg,
		Bounds:     bounds,
		Source:     toSource(bounds, top, sx, sy, img.Bounds()),
		InkDensity: density,
	}, nil
}

func smoothedGray(bgr gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Pt(3, 3), 0, 0, gocv.BorderDefault)
	return blurred
}

// refinement holds the choices ink density makes for plateMask.
type refinement struct {
	// bridge dilates the gradient before closing so sparse strokes join.
	bridge bool

	// thin erodes the re-thresholded mask so dense ink does not fuse with
	// background clutter.
	thin bool
}

func refinementFor(density float64) refinement {
	return refinement{
		bridge: density < sparseInk,
		thin:   density >= denseInk,
	}
}

// refine runs the morphological pipeline and returns the plate mask along
// with the measured ink density.
func refine(gray gocv.Mat) (gocv.Mat, float64, error) {
	ink := inkMask(gray)
	defer ink.Close()

	density := vision.InkDensity(ink)
	mask, err := plateMask(ink, refinementFor(density))
	return mask, density, err
}

// inkMask thresholds the black-hat of gray at inkLevel.
func inkMask(gray gocv.Mat) gocv.Mat {
	blackHat := vision.Morph(gray, gocv.MorphBlackhat, blackHatWidth, blackHatHeight)
	defer blackHat.Close()
	return vision.Binarize(blackHat, inkLevel)
}

func plateMask(ink gocv.Mat, r refinement) (gocv.Mat, error) {
	grad, err := vision.HorizontalGradient(ink)
	if errors.Is(err, vision.ErrFlat) {
		return gocv.NewMat(), ErrNoPlate
	}
	if err != nil {
		return gocv.NewMat(), err
	}

	if r.bridge {
		grad = step(grad, func(m gocv.Mat) gocv.Mat { return vision.Dilate(m, 3, 3, 2) })
	}
	mask := step(grad, func(m gocv.Mat) gocv.Mat { return vision.Morph(m, gocv.MorphClose, 7, 7) })

	for cycle := 0; cycle < 2; cycle++ {
		mask = step(mask, func(m gocv.Mat) gocv.Mat { return vision.Erode(m, 3, 3, 2) })
		mask = step(mask, func(m gocv.Mat) gocv.Mat { return vision.Dilate(m, 3, 3, 3) })
	}

	mask = step(mask, func(m gocv.Mat) gocv.Mat { return vision.Binarize(m, refineLevel) })
	if r.thin {
		mask = step(mask, func(m gocv.Mat) gocv.Mat { return vision.Erode(m, 3, 3, 1) })
	}
	mask = step(mask, func(m gocv.Mat) gocv.Mat { return vision.Dilate(m, 3, 3, 8) })
	mask = step(mask, func(m gocv.Mat) gocv.Mat { return vision.Dilate(m, 5, 1, 3) })
	return mask, nil
}

// step applies op to m and releases m.
func step(m gocv.Mat, op func(gocv.Mat) gocv.Mat) gocv.Mat {
	defer m.Close()
	return op(m)
}

// toSource maps a working frame rectangle back onto the caller's image.
func toSource(r geometry.Rect, top int, sx, sy float64, bounds image.Rectangle) geometry.Rect {
	x0 := int(math.Floor(float64(r.X) * sx))
	y0 := int(math.Floor(float64(r.Y+top) * sy))
	x1 := int(math.Ceil(float64(r.Right()) * sx))
	y1 := int(math.Ceil(float64(r.Bottom()+top) * sy))

	mapped := image.Rect(x0, y0, x1, y1).Add(bounds.Min).Intersect(bounds)
	return geometry.Rect{
		X:      mapped.Min.X,
		Y:      mapped.Min.Y,
		Width:  mapped.Dx(),
		Height: mapped.Dy(),
	}
}
