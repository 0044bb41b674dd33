// Package imaging handles the image plumbing around the plate pipeline.
//
// It loads and caches vehicle photos, encodes results as base64 PNG for MCP
// responses, captions annotated plates and dumps intermediate stage images
// for debugging. Pixel analysis itself lives in the vision, detection and
// plate packages.
//
// # Coordinate System
//
// Coordinates are 0-based with the origin at the top-left corner. Regions use
// an inclusive top-left and an exclusive bottom-right corner.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Encode, CropRect and Caption never
// modify their inputs.
//
// # Memory
//
// The cache is bounded; once full, loading a new photo evicts the oldest
// one. Use Evict or Clear to release memory sooner.
package imaging
