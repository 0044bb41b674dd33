package plate

import (
	"image"

	"github.com/ironsheep/plate-tools-mcp/internal/geometry"
)

// Plausible character counts for a segmented plate.
const (
	MinCharacters = 2
	MaxCharacters = 7
)

// Enhanced is the output of Enhance.
type Enhanced struct {
	// Glyph holds only the components shaped like character strokes.
	Glyph *image.Gray

	// Permissive holds every labeled component regardless of shape.
	Permissive *image.Gray

	// Plate is the color plate resized to the glyph mask's dimensions.
	Plate *image.RGBA

	// Components is the number of labeled components; Glyphs counts those
	// that passed the shape filter.
	Components int
	Glyphs     int
}

// CharacterCrop is one segmented character.
type CharacterCrop struct {
	Image  *image.RGBA   `json:"-"`
	Offset int           `json:"offset"`
	Bounds geometry.Rect `json:"bounds"`
}

// PlateResult is the output of Segment and Pipeline.Run.
type PlateResult struct {
	// Plate is the color plate with every final character rectangle drawn on.
	Plate *image.RGBA `json:"-"`

	// Candidates is the color plate with every labeled component's rectangle
	// drawn on, valid or not.
	Candidates *image.RGBA `json:"-"`

	// Crops are ordered by Offset, left to right.
	Crops []CharacterCrop `json:"crops"`

	// Valid is true when the crop count is plausible for a plate.
	Valid bool `json:"valid"`

	// Region is set by Pipeline.Run to the located plate bounds.
	Region *RegionInfo `json:"region,omitempty"`
}

// RegionInfo places the plate within the input photo.
type RegionInfo struct {
	Bounds     geometry.Rect `json:"bounds"`
	Source     geometry.Rect `json:"source"`
	InkDensity float64       `json:"ink_density"`
}

// PlausibleLength reports whether n characters can form a plate.
func PlausibleLength(n int) bool {
	return n >= MinCharacters && n <= MaxCharacters
}
