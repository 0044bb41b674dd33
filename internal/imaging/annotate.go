package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// captionHeight is the strip added above an image by Caption.
const captionHeight = 16

// Caption returns a copy of img with a black strip on top holding text drawn
// in c. Characters outside the ASCII range render as the font's placeholder.
func Caption(img image.Image, text string, c color.Color) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+captionHeight))
	draw.Draw(out, image.Rect(0, 0, b.Dx(), captionHeight), image.Black, image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, captionHeight, b.Dx(), b.Dy()+captionHeight), img, b.Min, draw.Src)

	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(2), Y: fixed.I(12)},
	}
	d.DrawString(text)
	return out
}
