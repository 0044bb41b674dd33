// Package ocr classifies segmented plate characters.
//
// Every classifier receives a glyph prepared by PrepareGlyph: the character
// crop scaled to 32x64 pixels and converted to grayscale. Two classifiers are
// provided:
//
//   - TesseractClassifier runs Tesseract (via gosseract/v2) in single
//     character mode, optionally restricted to a whitelist.
//   - TemplateClassifier matches the glyph's HOG descriptor against labeled
//     examples and returns the nearest one.
//
// # Prerequisites
//
// TesseractClassifier needs Tesseract and the language data for the chosen
// language installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-ara
//   - macOS: brew install tesseract tesseract-lang
//
// # HOG Descriptor
//
// HOG computes a histogram of oriented gradients with 9 unsigned orientation
// bins over 8x8 pixel cells and one cell per block, normalized with L2-Hys.
// A 32x64 glyph yields 4x8 cells and 288 features.
package ocr
