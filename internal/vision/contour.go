package vision

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"

	"github.com/ironsheep/plate-tools-mcp/internal/geometry"
)

// Labels holds the connected components of a mask. Label 0 is background.
type Labels struct {
	mat   gocv.Mat
	count int
}

// Label runs 8-connected component labeling over mask.
func Label(mask gocv.Mat) *Labels {
	labels := gocv.NewMat()
	n := gocv.ConnectedComponents(mask, &labels)
	return &Labels{mat: labels, count: n}
}

// Count returns the number of foreground components.
func (l *Labels) Count() int {
	if l.count == 0 {
		return 0
	}
	return l.count - 1
}

// Mask returns a 0/255 mask holding only the pixels of component label.
func (l *Labels) Mask(label int) gocv.Mat {
	v := gocv.NewScalar(float64(label), 0, 0, 0)
	dst := gocv.NewMat()
	gocv.InRangeWithScalar(l.mat, v, v, &dst)
	return dst
}

// Close releases the label matrix.
func (l *Labels) Close() error {
	return l.mat.Close()
}

// LargestContour returns the external contour of mask enclosing the largest
// area. The first contour wins ties. ok is false when mask has no contours.
func LargestContour(mask gocv.Mat) (c geometry.Contour, ok bool) {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best := -1
	var bestArea float64
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if best < 0 || area > bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 {
		return nil, false
	}

	return geometry.Contour(contours.At(best).ToPoints()), true
}

// Union ORs src into dst in place.
func Union(dst *gocv.Mat, src gocv.Mat) {
	gocv.BitwiseOr(*dst, src, dst)
}

// Blank returns a zeroed single channel mask.
func Blank(rows, cols int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC1)
}

// DrawRect outlines r on a BGR image with a one pixel stroke. The outline
// runs through (X, Y) and (X+Width, Y+Height), one pixel outside the
// rectangle's right and bottom edges.
func DrawRect(img *gocv.Mat, r geometry.Rect, c color.RGBA) {
	tl := image.Pt(r.X, r.Y)
	tr := image.Pt(r.Right(), r.Y)
	br := image.Pt(r.Right(), r.Bottom())
	bl := image.Pt(r.X, r.Bottom())

	gocv.Line(img, tl, tr, c, 1)
	gocv.Line(img, tr, br, c, 1)
	gocv.Line(img, br, bl, c, 1)
	gocv.Line(img, bl, tl, c, 1)
}

// ParseColor converts a hex color such as "#00FF00" to an opaque RGBA.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
