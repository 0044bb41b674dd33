package plate

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/plate-tools-mcp/internal/vision"
)

// ell describes an L shaped stroke: a bar of width Bar and height Height with
// a foot of width Foot and thickness Thick along its bottom.
type ell struct {
	X, Y                     int
	Bar, Height, Foot, Thick int
}

func (e ell) contains(x, y int) bool {
	if x < e.X || y < e.Y || y >= e.Y+e.Height {
		return false
	}
	if x < e.X+e.Bar {
		return true
	}
	return x < e.X+e.Foot && y >= e.Y+e.Height-e.Thick
}

// polygonArea is the contour area OpenCV reports for a filled ell.
func (e ell) polygonArea() int {
	return (e.Bar-1)*(e.Height-1) + (e.Foot-e.Bar)*(e.Thick-1)
}

// createMask draws ells as 255 on a black mask.
func createMask(width, height int, shapes ...ell) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for _, s := range shapes {
				if s.contains(x, y) {
					img.SetGray(x, y, color.Gray{Y: 255})
				}
			}
		}
	}
	return img
}

// createPlate draws ells in black on a white plate.
func createPlate(width, height int, shapes ...ell) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{255, 255, 255, 255}
			for _, s := range shapes {
				if s.contains(x, y) {
					c = color.RGBA{0, 0, 0, 255}
				}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func whitePlate(width, height int) *image.RGBA {
	return createPlate(width, height)
}

// glyphRow returns n mask glyphs spaced evenly along the plate. Each one
// grows to a 41 pixel tall, area 320 stroke after the segmenter's dilation.
func glyphRow(n, x0, spacing int) []ell {
	shapes := make([]ell, n)
	for i := range shapes {
		shapes[i] = ell{X: x0 + i*spacing, Y: 10, Bar: 6, Height: 39, Foot: 18, Thick: 9}
	}
	return shapes
}

func TestSegment_FourGlyphs(t *testing.T) {
	shapes := glyphRow(4, 20, 45)
	result, err := Segment(createMask(200, 60, shapes...), whitePlate(200, 60))
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	if !result.Valid {
		t.Error("four glyphs should be a valid plate")
	}
	if len(result.Crops) != 4 {
		t.Fatalf("crop count: got %d, want 4", len(result.Crops))
	}

	for i, crop := range result.Crops {
		if crop.Offset != shapes[i].X {
			t.Errorf("crop %d offset: got %d, want %d", i, crop.Offset, shapes[i].X)
		}
		// One row of growth above and below from the vertical dilation.
		if crop.Bounds.Y != 9 || crop.Bounds.Height != 41 || crop.Bounds.Width != 18 {
			t.Errorf("crop %d bounds: got %+v", i, crop.Bounds)
		}
		if b := crop.Image.Bounds(); b.Dx() != 18 || b.Dy() != 41 {
			t.Errorf("crop %d image: got %v", i, b)
		}
	}

	if result.Plate == nil || result.Candidates == nil {
		t.Fatal("annotated images should be set")
	}
	// Rectangles are drawn in the annotation color on the final plate.
	if c := result.Plate.RGBAAt(20, 9); c != DefaultAnnotation {
		t.Errorf("rectangle corner: got %v, want %v", c, DefaultAnnotation)
	}
}

func TestSegment_CropsFromPristinePlate(t *testing.T) {
	shapes := glyphRow(2, 40, 60)
	plate := createPlate(200, 60, shapes...)

	result, err := Segment(createMask(200, 60, shapes...), plate)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	for i, crop := range result.Crops {
		for y := 0; y < crop.Image.Bounds().Dy(); y++ {
			for x := 0; x < crop.Image.Bounds().Dx(); x++ {
				if crop.Image.RGBAAt(x, y) == DefaultAnnotation {
					t.Fatalf("crop %d contains annotation pixels at (%d,%d)", i, x, y)
				}
			}
		}
	}

	if plate.RGBAAt(40, 9) == DefaultAnnotation {
		t.Error("Segment drew on its input plate")
	}
}

func TestSegment_GlyphsEndingBeforeMidline(t *testing.T) {
	// Strokes in rows 2..23 after dilation, never reaching midline row 30.
	shapes := []ell{
		{X: 20, Y: 3, Bar: 6, Height: 20, Foot: 18, Thick: 7},
		{X: 80, Y: 3, Bar: 6, Height: 20, Foot: 18, Thick: 7},
		{X: 140, Y: 3, Bar: 6, Height: 20, Foot: 18, Thick: 7},
	}

	result, err := Segment(createMask(200, 60, shapes...), whitePlate(200, 60))
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if result.Valid {
		t.Error("result should be invalid")
	}
	if len(result.Crops) != 0 {
		t.Errorf("crop count: got %d, want 0", len(result.Crops))
	}
}

func TestSegment_ValidityBounds(t *testing.T) {
	tests := []struct {
		glyphs int
		valid  bool
	}{
		{0, false},
		{1, false},
		{2, true},
		{7, true},
		{8, false},
	}

	for _, tt := range tests {
		t.Run(string(rune('0'+tt.glyphs)), func(t *testing.T) {
			result, err := Segment(createMask(200, 60, glyphRow(tt.glyphs, 4, 24)...), whitePlate(200, 60))
			if err != nil {
				t.Fatalf("Segment failed: %v", err)
			}
			if len(result.Crops) != tt.glyphs {
				t.Errorf("crop count: got %d, want %d", len(result.Crops), tt.glyphs)
			}
			if result.Valid != tt.valid {
				t.Errorf("Valid: got %v, want %v", result.Valid, tt.valid)
			}
		})
	}
}

func TestPlausibleLength(t *testing.T) {
	for n := 0; n <= 10; n++ {
		want := n >= 2 && n <= 7
		if got := PlausibleLength(n); got != want {
			t.Errorf("PlausibleLength(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestSegment_MergesAdjacentStrokes(t *testing.T) {
	// One column of background between the strokes keeps them separate
	// components, but the gap is under the horizontal threshold.
	left := ell{X: 20, Y: 10, Bar: 6, Height: 39, Foot: 18, Thick: 9}
	right := ell{X: 39, Y: 10, Bar: 6, Height: 39, Foot: 18, Thick: 9}
	far := ell{X: 120, Y: 10, Bar: 6, Height: 39, Foot: 18, Thick: 9}

	result, err := Segment(createMask(200, 60, left, right, far), whitePlate(200, 60))
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(result.Crops) != 2 {
		t.Fatalf("crop count: got %d, want 2", len(result.Crops))
	}
	if w := result.Crops[0].Bounds.Width; w != 37 {
		t.Errorf("merged width: got %d, want 37", w)
	}
}

func TestSegment_OrderedCrops(t *testing.T) {
	// Draw right to left so label order differs from reading order.
	shapes := []ell{
		{X: 150, Y: 10, Bar: 6, Height: 39, Foot: 18, Thick: 9},
		{X: 30, Y: 12, Bar: 6, Height: 39, Foot: 18, Thick: 9},
		{X: 90, Y: 8, Bar: 6, Height: 39, Foot: 18, Thick: 9},
	}

	result, err := Segment(createMask(200, 60, shapes...), whitePlate(200, 60))
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(result.Crops) != 3 {
		t.Fatalf("crop count: got %d, want 3", len(result.Crops))
	}
	for i := 1; i < len(result.Crops); i++ {
		if result.Crops[i].Offset < result.Crops[i-1].Offset {
			t.Errorf("crops out of order: %d before %d", result.Crops[i-1].Offset, result.Crops[i].Offset)
		}
	}
}

func TestCollectCandidates_AreaFilter(t *testing.T) {
	shapes := []ell{
		{X: 5, Y: 5, Bar: 3, Height: 10, Foot: 8, Thick: 3},     // too small
		{X: 40, Y: 5, Bar: 6, Height: 41, Foot: 18, Thick: 11},  // in range
		{X: 4, Y: 20, Bar: 4, Height: 20, Foot: 10, Thick: 5},   // just above the floor
		{X: 100, Y: 1, Bar: 12, Height: 58, Foot: 40, Thick: 20}, // too large
	}
	wantValid := []bool{false, true, true, false}

	mask, err := vision.FromGray(createMask(200, 60, shapes...))
	if err != nil {
		t.Fatalf("FromGray failed: %v", err)
	}
	defer mask.Close()

	// Midline 0 accepts every position so only area and solidity matter.
	candidates, err := collectCandidates(mask, 0)
	if err != nil {
		t.Fatalf("collectCandidates failed: %v", err)
	}
	if len(candidates) != len(shapes) {
		t.Fatalf("candidate count: got %d, want %d", len(candidates), len(shapes))
	}

	for _, c := range candidates {
		area := c.contour.Area()
		if c.valid && (area <= minCharacterArea || area >= maxCharacterArea) {
			t.Errorf("candidate with area %v passed the filter", area)
		}
	}

	for i, s := range shapes {
		found := false
		for _, c := range candidates {
			if c.rect.X == s.X && c.rect.Y == s.Y {
				found = true
				if int(c.contour.Area()) != s.polygonArea() {
					t.Errorf("shape %d area: got %v, want %d", i, c.contour.Area(), s.polygonArea())
				}
				if c.valid != wantValid[i] {
					t.Errorf("shape %d valid: got %v, want %v", i, c.valid, wantValid[i])
				}
			}
		}
		if !found {
			t.Errorf("shape %d not found among candidates", i)
		}
	}
}

func TestIsCharacter_Midline(t *testing.T) {
	stroke := func(y int) ell {
		return ell{X: 10, Y: y, Bar: 6, Height: 20, Foot: 18, Thick: 6}
	}

	tests := []struct {
		name string
		y    int
		want bool
	}{
		{"spans midline", 20, true},
		{"starts on midline", 30, true},
		{"starts past midline", 35, true},
		{"ends on midline", 10, false},
		{"ends before midline", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := stroke(tt.y)
			mask, err := vision.FromGray(createMask(60, 60, s))
			if err != nil {
				t.Fatalf("FromGray failed: %v", err)
			}
			defer mask.Close()

			contour, ok := vision.LargestContour(mask)
			if !ok {
				t.Fatal("no contour")
			}
			got, err := isCharacter(contour, 30)
			if err != nil {
				t.Fatalf("isCharacter failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("isCharacter() = %v, want %v (rect %+v)", got, tt.want, contour.Rect())
			}
		})
	}
}

func TestSegment_BadInput(t *testing.T) {
	if _, err := Segment(nil, whitePlate(10, 10)); err == nil {
		t.Error("nil mask should fail")
	}
	if _, err := Segment(createMask(20, 10), whitePlate(10, 10)); err == nil {
		t.Error("mismatched sizes should fail")
	}
}
