package plate

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/plate-tools-mcp/internal/geometry"
	"github.com/ironsheep/plate-tools-mcp/internal/vision"
)

// Enhancer tuning.
const (
	EnhancedWidth = 200

	brightnessLevel = 120

	minGlyphArea     = 15
	maxGlyphArea     = 600
	maxHeightRatio   = 0.9
	maxWidthRatio    = 0.2
	maxAspectRatio   = 2
	minGlyphSolidity = 0.2
	maxGlyphSolidity = 0.8
)

// shape holds the measurements the glyph filter works on.
type shape struct {
	area        float64
	heightRatio float64
	widthRatio  float64
	aspect      float64
	solidity    float64
}

// solidity is c.Solidity with an empty bounding rectangle reported as
// ErrDegenerateShape.
func solidity(c geometry.Contour) (float64, error) {
	s, err := c.Solidity()
	if errors.Is(err, geometry.ErrEmptyContour) {
		return 0, ErrDegenerateShape
	}
	return s, err
}

func measure(c geometry.Contour, plateWidth, plateHeight int) (shape, error) {
	if plateWidth == 0 || plateHeight == 0 {
		return shape{}, ErrDegenerateShape
	}
	sol, err := solidity(c)
	if err != nil {
		return shape{}, err
	}
	r := c.Rect()
	return shape{
		area:        c.Area(),
		heightRatio: float64(r.Height) / float64(plateHeight),
		widthRatio:  float64(r.Width) / float64(plateWidth),
		aspect:      float64(r.Width) / float64(r.Height),
		solidity:    sol,
	}, nil
}

// glyphLike reports whether s looks like a printed character stroke rather
// than a border, bolt hole or speckle.
func (s shape) glyphLike() bool {
	return s.area >= minGlyphArea && s.area < maxGlyphArea &&
		s.heightRatio < maxHeightRatio &&
		s.widthRatio < maxWidthRatio &&
		s.aspect < maxAspectRatio &&
		s.solidity > minGlyphSolidity && s.solidity < maxGlyphSolidity
}

// Enhance binarizes a plate image and keeps the components shaped like glyph
// strokes.
//
// The brightness channel is inverted so dark ink becomes foreground, then
// both it and the color plate are resized to EnhancedWidth.
//
// Parameters:
//   - plate: The cropped plate image, usually PlateRegion.Image.
//
// Returns:
//   - *Enhanced: The glyph mask and the resized color plate, of equal size.
//   - error: Non-nil if the plate is empty or cannot be converted.
//
// # Errors
//
// ErrBlankInput is returned for a nil or empty plate and for one whose
// every pixel is zero. ErrDegenerateShape is returned when a component
// cannot be measured.
func Enhance(plate image.Image) (*Enhanced, error) {
	if plate == nil || plate.Bounds().Empty() {
		return nil, ErrBlankInput
	}

	src, err := vision.FromImage(plate)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if vision.IsBlank(src) {
		return nil, ErrBlankInput
	}

	inverted := invertedBrightness(src)
	defer inverted.Close()

	resized, err := vision.ResizeToWidth(src, EnhancedWidth)
	if err != nil {
		return nil, ErrBlankInput
	}
	defer resized.Close()

	brightness, err := vision.ResizeToWidth(inverted, EnhancedWidth)
	if err != nil {
		return nil, ErrBlankInput
	}
	defer brightness.Close()

	binary := vision.Binarize(brightness, brightnessLevel)
	defer binary.Close()
	bridged := vision.Dilate(binary, 1, 4, 1)
	defer bridged.Close()

	glyph, permissive, stats, err := filterComponents(bridged)
	if err != nil {
		return nil, err
	}
	defer glyph.Close()
	defer permissive.Close()

	final := vision.Dilate(glyph, 1, 3, 2)
	defer final.Close()

	out := &Enhanced{Components: stats.components, Glyphs: stats.glyphs}
	if out.Glyph, err = vision.ToGray(final); err != nil {
		return nil, err
	}
	if out.Permissive, err = vision.ToGray(permissive); err != nil {
		return nil, err
	}
	if out.Plate, err = vision.ToRGBA(resized); err != nil {
		return nil, err
	}
	return out, nil
}

func invertedBrightness(bgr gocv.Mat) gocv.Mat {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	channels := gocv.Split(hsv)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	inverted := gocv.NewMat()
	gocv.BitwiseNot(channels[2], &inverted)
	return inverted
}

type componentStats struct {
	components int
	glyphs     int
}

// filterComponents labels mask and returns the union of glyph shaped
// components along with the union of every component.
func filterComponents(mask gocv.Mat) (glyph, permissive gocv.Mat, stats componentStats, err error) {
	labels := vision.Label(mask)
	defer labels.Close()

	glyph = vision.Blank(mask.Rows(), mask.Cols())
	permissive = vision.Blank(mask.Rows(), mask.Cols())
	stats.components = labels.Count()

	for l := 1; l <= labels.Count(); l++ {
		comp := labels.Mask(l)
		contour, ok := vision.LargestContour(comp)
		if !ok {
			comp.Close()
			continue
		}

		s, err := measure(contour, mask.Cols(), mask.Rows())
		if err != nil {
			comp.Close()
			glyph.Close()
			permissive.Close()
			return gocv.NewMat(), gocv.NewMat(), stats, fmt.Errorf("component %d: %w", l, err)
		}

		vision.Union(&permissive, comp)
		if s.glyphLike() {
			vision.Union(&glyph, comp)
			stats.glyphs++
		}
		comp.Close()
	}
	return glyph, permissive, stats, nil
}
