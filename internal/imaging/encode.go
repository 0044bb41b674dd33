package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/plate-tools-mcp/internal/geometry"
)

// EncodedImage is a PNG ready to return to an MCP client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Encode scales img by scale and encodes it as base64 PNG. A scale of zero,
// one or below zero leaves the image at its native size.
func Encode(img image.Image, scale float64) (*EncodedImage, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("cannot encode an empty image")
	}

	out := img
	if scale > 0 && scale != 1.0 {
		w := int(float64(img.Bounds().Dx()) * scale)
		h := int(float64(img.Bounds().Dy()) * scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %.3f collapses a %dx%d image", scale, img.Bounds().Dx(), img.Bounds().Dy())
		}
		out = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// CropRect cuts r out of img and encodes it at scale. r is relative to the
// image origin.
func CropRect(img image.Image, r geometry.Rect, scale float64) (*EncodedImage, error) {
	b := img.Bounds()
	want := r.Image().Add(b.Min)
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("invalid crop region %+v", r)
	}
	if !want.In(b) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", want, b)
	}

	return Encode(imaging.Crop(img, want), scale)
}
