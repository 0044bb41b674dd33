package geometry

// Mode selects the axis a clustering pass works along.
type Mode int

const (
	// Horizontal compares facing left/right edges.
	Horizontal Mode = iota
	// Vertical compares facing top/bottom edges.
	Vertical
)

func (m Mode) String() string {
	switch m {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "unknown"
	}
}

// Gap is the absolute offset between the two reference points chosen by
// Distance.
type Gap struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Primary returns the component of g a clustering pass in mode m minimises.
func (g Gap) Primary(m Mode) float64 {
	if m == Vertical {
		return g.DY
	}
	return g.DX
}

// Secondary returns the component of g used to gate pairs in mode m.
func (g Gap) Secondary(m Mode) float64 {
	if m == Vertical {
		return g.DX
	}
	return g.DY
}

// Distance measures the gap between the facing edges of a and b.
//
// In Horizontal mode the reference points are vertical-edge midpoints: the
// right edge of a against the left edge of b, or, when a starts to the right
// of b's left edge, the left edge of a against the right edge of b.
// Vertical mode does the same with the bottom and top edge midpoints.
//
// Parameters:
//   - a, b: The contours to compare. Their bounding rectangles are used.
//   - mode: Horizontal or Vertical.
//
// Returns:
//   - Gap: The absolute X and Y offsets between the reference points.
func Distance(a, b Contour, mode Mode) Gap {
	ra, rb := a.Rect(), b.Rect()

	var ax, ay, bx, by float64
	switch mode {
	case Vertical:
		ax = float64(ra.X) + float64(ra.Width)/2
		ay = float64(ra.Bottom())
		bx = float64(rb.X) + float64(rb.Width)/2
		by = float64(rb.Y)
		if ay > by {
			ay = float64(ra.Y)
			by = float64(rb.Bottom())
		}
	default:
		ax = float64(ra.Right())
		ay = float64(ra.Y) + float64(ra.Height)/2
		bx = float64(rb.X)
		by = float64(rb.Y) + float64(rb.Height)/2
		if ax > bx {
			ax = float64(ra.X)
			bx = float64(rb.Right())
		}
	}

	return Gap{DX: abs(ax - bx), DY: abs(ay - by)}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
