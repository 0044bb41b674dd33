// Package detection finds the license plate region in a vehicle photo.
//
// LocatePlate works in a fixed frame: the photo resized to WorkingWidth with
// its top two fifths removed, where plates are rarely found. Within that frame
// a black-hat transform highlights dark strokes on light backgrounds and the
// share of thresholded stroke pixels picks one of two refinements of the
// horizontal Sobel gradient. The plate is the bounding rectangle of the
// largest external contour left after refinement.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// PlateRegion.Bounds is expressed in the working frame and PlateRegion.Source
// in the caller's photo.
package detection
