// Package geometry provides the contour arithmetic used to group glyph strokes
// into characters.
//
// Everything here is a pure function over value types. A Contour is an ordered
// sequence of boundary points; its bounding rectangle, area and solidity are
// always derived from the current points, so a merged contour never carries
// stale geometry.
//
// # Coordinate System
//
// Coordinates follow the image convention: origin at the top-left corner,
// X increasing rightward and Y increasing downward. A Rect counts pixels, so a
// contour made of a single point has a 1x1 bounding rectangle.
//
// # Clustering
//
// AgglomerativeCluster performs a greedy single-linkage merge: each round scans
// every unordered pair of live contours, keeps the eligible pair with the
// smallest primary gap and merges it while that gap is below the threshold.
// Merged contours live in an arena with stable slots, so a merge replaces one
// slot and retires the other instead of shifting indices.
//
// MergeIntersecting is a single pass that fuses contours whose bounding
// rectangles overlap vertically and touch (within a slack) horizontally.
package geometry
