package vision

import (
	"errors"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// ErrFlat is returned when a gradient has no contrast to rescale.
var ErrFlat = errors.New("vision: flat gradient")

// Kernel returns a rectangular structuring element width pixels wide and
// height pixels tall.
func Kernel(width, height int) gocv.Mat {
	return gocv.GetStructuringElement(gocv.MorphRect, image.Pt(width, height))
}

// Dilate applies a width x height rectangular dilation iterations times.
func Dilate(src gocv.Mat, width, height, iterations int) gocv.Mat {
	return repeat(src, width, height, iterations, gocv.Dilate)
}

// Erode applies a width x height rectangular erosion iterations times.
func Erode(src gocv.Mat, width, height, iterations int) gocv.Mat {
	return repeat(src, width, height, iterations, gocv.Erode)
}

func repeat(src gocv.Mat, width, height, iterations int, op func(gocv.Mat, *gocv.Mat, gocv.Mat)) gocv.Mat {
	kernel := Kernel(width, height)
	defer kernel.Close()

	out := src.Clone()
	for i := 0; i < iterations; i++ {
		next := gocv.NewMat()
		op(out, &next, kernel)
		out.Close()
		out = next
	}
	return out
}

// Morph applies a morphological operation with a rectangular kernel.
func Morph(src gocv.Mat, op gocv.MorphType, width, height int) gocv.Mat {
	kernel := Kernel(width, height)
	defer kernel.Close()

	dst := gocv.NewMat()
	gocv.MorphologyEx(src, &dst, op, kernel)
	return dst
}

// Binarize maps every pixel of an 8-bit image at or above level to 255 and
// every other pixel to 0.
func Binarize(src gocv.Mat, level uint8) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Threshold(src, &dst, float32(level)-1, 255, gocv.ThresholdBinary)
	return dst
}

// InkDensity returns the share of non-zero pixels in a mask, rounded to four
// decimal places.
func InkDensity(mask gocv.Mat) float64 {
	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return 0
	}
	ratio := float64(gocv.CountNonZero(mask)) / float64(total)
	return math.RoundToEven(ratio*1e4) / 1e4
}

// ResizeToWidth scales src to width columns, keeping the aspect ratio. The
// new height is truncated toward zero.
func ResizeToWidth(src gocv.Mat, width int) (gocv.Mat, error) {
	if src.Empty() || src.Cols() == 0 {
		return gocv.NewMat(), ErrEmptyImage
	}

	height := src.Rows() * width / src.Cols()
	if height == 0 {
		return gocv.NewMat(), ErrEmptyImage
	}
	if width == src.Cols() && height == src.Rows() {
		return src.Clone(), nil
	}

	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationArea)
	return dst, nil
}

// HorizontalGradient returns the absolute horizontal Sobel derivative of src,
// min-max rescaled onto 0..255.
func HorizontalGradient(src gocv.Mat) (gocv.Mat, error) {
	grad := gocv.NewMat()
	defer grad.Close()
	gocv.Sobel(src, &grad, gocv.MatTypeCV32F, 1, 0, 3, 1, 0, gocv.BorderDefault)

	data, err := grad.DataPtrFloat32()
	if err != nil {
		return gocv.NewMat(), err
	}

	values := make([]float64, len(data))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, f := range data {
		v := math.Abs(float64(f))
		values[i] = v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi <= lo {
		return gocv.NewMat(), ErrFlat
	}

	scaled := make([]byte, len(values))
	for i, v := range values {
		scaled[i] = uint8(255 * (v - lo) / (hi - lo))
	}
	return fromBytes(grad.Rows(), grad.Cols(), gocv.MatTypeCV8UC1, scaled)
}
