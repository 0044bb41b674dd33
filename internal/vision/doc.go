// Package vision bridges Go images and OpenCV matrices.
//
// It converts between image.Image values and gocv.Mat, and wraps the handful
// of morphology, thresholding, labeling and contour primitives the plate
// pipeline is built from. Every helper returns a freshly allocated Mat that
// the caller owns and must Close; inputs are never modified.
//
// Color Mats are 8-bit BGR, gray Mats and masks are 8-bit single channel.
// Masks only ever hold the values 0 and 255.
package vision
