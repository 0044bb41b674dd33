package geometry

import (
	"errors"
	"image"
	"math"
)

// ErrEmptyContour is returned when a shape metric is requested for a contour
// without points.
var ErrEmptyContour = errors.New("geometry: empty contour")

// Rect is an axis-aligned bounding rectangle measured in whole pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns Width*Height.
func (r Rect) Area() int {
	return r.Width * r.Height
}

// Right returns the first column past the rectangle.
func (r Rect) Right() int {
	return r.X + r.Width
}

// Bottom returns the first row past the rectangle.
func (r Rect) Bottom() int {
	return r.Y + r.Height
}

// Image converts r to an image.Rectangle with an exclusive maximum corner.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}

// Contour is an ordered sequence of boundary points.
type Contour []image.Point

// Rect returns the smallest rectangle containing every point of c. The zero
// Rect is returned for an empty contour.
func (c Contour) Rect() Rect {
	if len(c) == 0 {
		return Rect{}
	}

	minX, minY := c[0].X, c[0].Y
	maxX, maxY := c[0].X, c[0].Y
	for _, p := range c[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}
}

// Area returns the absolute polygon area enclosed by c using the shoelace
// formula. It matches OpenCV's contourArea for the same point sequence.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}

	var sum float64
	prev := c[len(c)-1]
	for _, p := range c {
		sum += float64(prev.X)*float64(p.Y) - float64(p.X)*float64(prev.Y)
		prev = p
	}
	return math.Abs(sum) / 2
}

// Solidity returns Area divided by the bounding rectangle area.
func (c Contour) Solidity() (float64, error) {
	r := c.Rect()
	if r.Area() == 0 {
		return 0, ErrEmptyContour
	}
	return c.Area() / float64(r.Area()), nil
}

// Merge returns a new contour holding the points of a followed by those of b.
// The bounding rectangle of the result encloses both inputs.
func Merge(a, b Contour) Contour {
	merged := make(Contour, 0, len(a)+len(b))
	merged = append(merged, a...)
	return append(merged, b...)
}

// FromRect returns the four corner points of r as a contour. It is mostly
// useful for building synthetic inputs.
func FromRect(r Rect) Contour {
	return Contour{
		{X: r.X, Y: r.Y},
		{X: r.X, Y: r.Bottom() - 1},
		{X: r.Right() - 1, Y: r.Bottom() - 1},
		{X: r.Right() - 1, Y: r.Y},
	}
}
