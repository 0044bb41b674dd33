package vision

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"runtime"

	"gocv.io/x/gocv"
)

var (
	// ErrEmptyImage is returned for images with no pixels.
	ErrEmptyImage = errors.New("vision: empty image")

	// ErrBlank is returned for images whose pixels are all zero.
	ErrBlank = errors.New("vision: blank image")
)

// FromImage converts img to an 8-bit BGR Mat.
func FromImage(img image.Image) (gocv.Mat, error) {
	if img == nil || img.Bounds().Empty() {
		return gocv.NewMat(), ErrEmptyImage
	}

	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	bgr := make([]byte, b.Dx()*b.Dy()*3)
	for i, j := 0, 0; i < len(rgba.Pix); i, j = i+4, j+3 {
		bgr[j] = rgba.Pix[i+2]
		bgr[j+1] = rgba.Pix[i+1]
		bgr[j+2] = rgba.Pix[i]
	}

	return fromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC3, bgr)
}

// FromGray converts a grayscale image to a single channel Mat.
func FromGray(img *image.Gray) (gocv.Mat, error) {
	if img == nil || img.Rect.Empty() {
		return gocv.NewMat(), ErrEmptyImage
	}

	w, h := img.Rect.Dx(), img.Rect.Dy()
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(pix[y*w:(y+1)*w], img.Pix[off:off+w])
	}

	return fromBytes(h, w, gocv.MatTypeCV8UC1, pix)
}

// fromBytes builds a Mat that owns a copy of data.
func fromBytes(rows, cols int, mt gocv.MatType, data []byte) (gocv.Mat, error) {
	view, err := gocv.NewMatFromBytes(rows, cols, mt, data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to build matrix: %w", err)
	}
	defer view.Close()

	owned := view.Clone()
	runtime.KeepAlive(data)
	return owned, nil
}

// ToRGBA converts an 8-bit BGR or gray Mat to an RGBA image.
func ToRGBA(m gocv.Mat) (*image.RGBA, error) {
	if m.Empty() {
		return nil, ErrEmptyImage
	}

	rows, cols := m.Rows(), m.Cols()
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	data := m.ToBytes()

	switch m.Type() {
	case gocv.MatTypeCV8UC3:
		for i, j := 0, 0; j < len(data); i, j = i+4, j+3 {
			img.Pix[i] = data[j+2]
			img.Pix[i+1] = data[j+1]
			img.Pix[i+2] = data[j]
			img.Pix[i+3] = 0xff
		}
	case gocv.MatTypeCV8UC1:
		for i, v := range data {
			img.Pix[4*i] = v
			img.Pix[4*i+1] = v
			img.Pix[4*i+2] = v
			img.Pix[4*i+3] = 0xff
		}
	default:
		return nil, fmt.Errorf("unsupported matrix type %v", m.Type())
	}

	return img, nil
}

// ToGray converts a single channel 8-bit Mat to a grayscale image.
func ToGray(m gocv.Mat) (*image.Gray, error) {
	if m.Empty() {
		return nil, ErrEmptyImage
	}
	if m.Type() != gocv.MatTypeCV8UC1 {
		return nil, fmt.Errorf("unsupported matrix type %v", m.Type())
	}

	img := image.NewGray(image.Rect(0, 0, m.Cols(), m.Rows()))
	copy(img.Pix, m.ToBytes())
	return img, nil
}

// IsBlank reports whether every byte of m is zero.
func IsBlank(m gocv.Mat) bool {
	for _, v := range m.ToBytes() {
		if v != 0 {
			return false
		}
	}
	return true
}

// Crop returns an owned copy of the pixels of m inside r.
func Crop(m gocv.Mat, r image.Rectangle) (gocv.Mat, error) {
	bounds := image.Rect(0, 0, m.Cols(), m.Rows())
	if r.Empty() || !r.In(bounds) {
		return gocv.NewMat(), fmt.Errorf("crop %v outside %v", r, bounds)
	}

	region := m.Region(r)
	defer region.Close()
	return region.Clone(), nil
}
